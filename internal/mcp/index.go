package mcp

import (
	"github.com/burtness/ljexport/internal/archive"
	"github.com/burtness/ljexport/internal/comments"
)

// Index is the in-memory view the tools serve from: posts in archive
// order with comment trees rebuilt once at startup.
type Index struct {
	posts []*archive.Post
	byID  map[string]*archive.Post
	trees map[string][]*archive.Comment

	commentCount   int
	tombstoneCount int
}

// NewIndex builds the tool view over loaded collections. Comment trees
// are rebuilt with the given orphan policy; tree building never fails,
// only post ids that do not parse are reported.
func NewIndex(posts []*archive.Post, all []*archive.Comment, policy comments.OrphanPolicy) (*Index, error) {
	idx := &Index{
		posts: posts,
		byID:  make(map[string]*archive.Post, len(posts)),
		trees: make(map[string][]*archive.Comment),
	}

	groups := comments.GroupByPost(all)
	for _, c := range all {
		idx.commentCount++
		if c.Tombstoned() {
			idx.tombstoneCount++
		}
	}

	for _, p := range posts {
		idx.byID[p.ID] = p
		jitemid, err := p.JItemID()
		if err != nil {
			return nil, err
		}
		if group, ok := groups[jitemid]; ok {
			tree, _ := comments.Build(group, policy)
			comments.SortTree(tree)
			idx.trees[p.ID] = tree
		}
	}

	return idx, nil
}

// treeSize counts the comments reachable in a post's tree.
func (idx *Index) treeSize(postID string) int {
	return len(comments.Flatten(idx.trees[postID]))
}
