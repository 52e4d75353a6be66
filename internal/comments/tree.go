// Package comments rebuilds comment hierarchies from the flat comment
// collection of an export.
package comments

import (
	"sort"

	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/transform"
)

// OrphanPolicy decides what happens to a comment whose parentid does not
// resolve within its post's group.
type OrphanPolicy string

const (
	// OrphanDrop removes orphaned comments from the hierarchy.
	OrphanDrop OrphanPolicy = "drop"
	// OrphanReattach promotes orphaned comments to top level.
	OrphanReattach OrphanPolicy = "reattach"
)

// Valid reports whether the policy is a known value.
func (p OrphanPolicy) Valid() bool {
	return p == OrphanDrop || p == OrphanReattach
}

// Outcome describes how a single comment was placed in the tree.
type Outcome int

const (
	// TopLevel means the comment has no parent reference.
	TopLevel Outcome = iota
	// Attached means the comment was appended under its parent.
	Attached
	// Orphaned means the parent reference did not resolve in the group.
	Orphaned
	// CycleDetected means following the parent chain led back to the
	// comment itself.
	CycleDetected
)

// String returns the outcome name for log lines.
func (o Outcome) String() string {
	switch o {
	case TopLevel:
		return "top-level"
	case Attached:
		return "attached"
	case Orphaned:
		return "orphaned"
	case CycleDetected:
		return "cycle-detected"
	default:
		return "unknown"
	}
}

// Resolution records the placement of one comment during tree building.
type Resolution struct {
	CommentID int
	ParentID  int
	Outcome   Outcome
}

// GroupByPost groups the flat comment collection by owning post id.
// The inner map is keyed by comment id.
func GroupByPost(all []*archive.Comment) map[int]map[int]*archive.Comment {
	groups := make(map[int]map[int]*archive.Comment)
	for _, c := range all {
		group, ok := groups[c.JItemID]
		if !ok {
			group = make(map[int]*archive.Comment)
			groups[c.JItemID] = group
		}
		group[c.ID] = c
	}
	return groups
}

// Build reconstructs the parent/child hierarchy for one post's comment
// group and returns the top-level comments plus a resolution per
// comment. Comments are processed in ascending id order so repeated runs
// over the same input produce identical trees.
//
// A parentid that does not resolve within the group, or that closes a
// cycle, never aborts the build: the comment is dropped or promoted to
// top level according to policy. User mentions in every comment's
// subject and body are rewritten during the pass.
func Build(group map[int]*archive.Comment, policy OrphanPolicy) ([]*archive.Comment, []Resolution) {
	ids := make([]int, 0, len(group))
	for id := range group {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	// Children may be pre-populated from a cached tree; rebuild from
	// scratch. Leaves keep an empty list so serialized trees show
	// "children": [] the way the cache format does.
	for _, id := range ids {
		group[id].Children = []*archive.Comment{}
	}

	var top []*archive.Comment
	resolutions := make([]Resolution, 0, len(ids))

	for _, id := range ids {
		c := group[id]
		c.Subject = transform.RewriteUserMentions(c.Subject)
		c.Body = transform.RewriteUserMentions(c.Body)

		res := Resolution{CommentID: c.ID, ParentID: c.ParentID}
		switch {
		case c.ParentID == 0:
			res.Outcome = TopLevel
			top = append(top, c)
		case group[c.ParentID] == nil:
			res.Outcome = Orphaned
			if policy == OrphanReattach {
				top = append(top, c)
			}
		case closesCycle(group, c):
			res.Outcome = CycleDetected
			if policy == OrphanReattach {
				top = append(top, c)
			}
		default:
			res.Outcome = Attached
			parent := group[c.ParentID]
			parent.Children = append(parent.Children, c)
		}
		resolutions = append(resolutions, res)
	}

	return top, resolutions
}

// closesCycle reports whether attaching c under its parent would make c
// its own ancestor. The walk is bounded by the group size so a corrupt
// chain cannot loop forever.
func closesCycle(group map[int]*archive.Comment, c *archive.Comment) bool {
	ancestor := group[c.ParentID]
	for steps := 0; ancestor != nil && steps <= len(group); steps++ {
		if ancestor.ID == c.ID {
			return true
		}
		if ancestor.ParentID == 0 {
			return false
		}
		ancestor = group[ancestor.ParentID]
	}
	return false
}

// SortByID returns the comments ordered by ascending id. The input is
// not modified; renderers call this at every level so sibling order in
// output never depends on input order.
func SortByID(cs []*archive.Comment) []*archive.Comment {
	sorted := make([]*archive.Comment, len(cs))
	copy(sorted, cs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// SortTree orders every level of the tree by ascending id, in place.
// Used before serializing a tree so the JSON output is deterministic.
func SortTree(cs []*archive.Comment) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	for _, c := range cs {
		SortTree(c.Children)
	}
}

// Flatten returns the ids of every comment reachable from the given
// top-level list, pre-order.
func Flatten(cs []*archive.Comment) []int {
	var ids []int
	for _, c := range cs {
		ids = append(ids, c.ID)
		ids = append(ids, Flatten(c.Children)...)
	}
	return ids
}
