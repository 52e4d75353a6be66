// Package dayone invokes the Day One command line tool to import
// rendered journal entries.
package dayone

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/burtness/ljexport/internal/output"
)

// Entry describes one import: the rendered markdown document plus the
// metadata passed to the tool as arguments.
type Entry struct {
	Content string
	Journal string
	Tags    []string
	Date    time.Time
}

// Runner executes the import. Injectable so the orchestrator can be
// tested without the tool installed.
type Runner func(ctx context.Context, e Entry) (string, error)

// Import runs `dayone2 ... new` with the entry content on stdin and
// returns the tool's confirmation output. A non-zero exit is surfaced
// as a system error carrying the tool's stderr.
func Import(ctx context.Context, e Entry) (string, error) {
	cmd := exec.CommandContext(ctx, "dayone2", Args(e)...)
	cmd.Stdin = strings.NewReader(e.Content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", output.NewSystemError("dayone2 not found: ensure Day One CLI is installed and in PATH")
		}

		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", output.NewSystemErrorWithCause("dayone2 import failed: "+errMsg, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Args builds the dayone2 argument list for an entry.
func Args(e Entry) []string {
	var args []string
	if e.Journal != "" {
		args = append(args, "--journal", e.Journal)
	}
	if len(e.Tags) > 0 {
		args = append(args, "--tags")
		args = append(args, e.Tags...)
	}
	if !e.Date.IsZero() {
		args = append(args, "--isoDate", e.Date.Format("2006-01-02T15:04:05"))
	}
	return append(args, "new")
}
