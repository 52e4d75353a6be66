package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/burtness/ljexport/internal/output"
)

// Environment variables carrying the service credentials. Only a few
// invalid login attempts get an IP temporarily banned, so these are
// validated before any network call.
const (
	EnvUsername = "LJ_USERNAME"
	EnvPassword = "LJ_PASSWORD"
)

// Credentials holds the service login.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials resolves the login from the environment. Call
// LoadEnvFiles first to let .env files fill in unset variables.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, output.NewUserError(fmt.Sprintf(
			"credentials missing: set %s and %s in the environment or an .env file", EnvUsername, EnvPassword))
	}
	return creds, nil
}

// LoadEnvFiles loads .env files in priority order. Variables already set
// in the environment always take precedence, then .env.local, then .env.
func LoadEnvFiles() {
	_ = loadEnvFile(".env.local")
	_ = loadEnvFile(".env")
}

// loadEnvFile reads one .env file and sets any variables not already in
// the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening env file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // best-effort close on read-only file

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	return nil
}

// parseEnvLine extracts KEY=VALUE from a line, handling an optional
// `export ` prefix and quoting around the value.
func parseEnvLine(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}

	key = strings.TrimSpace(parts[0])
	value = strings.TrimSpace(parts[1])

	key = strings.TrimPrefix(key, "export ")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}

	return key, value, true
}
