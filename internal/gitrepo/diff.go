package gitrepo

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	logger "github.com/sirupsen/logrus"

	"github.com/diem/whackadep/internal/domain/entities"
)

// TreeDelta is one file-level change between two trees. OldPath is empty
// for additions, NewPath for deletions.
type TreeDelta struct {
	OldPath string
	NewPath string
	Kind    entities.FileChangeKind
}

// Path returns the post-change path, falling back to the pre-change one
// for deletions.
func (d TreeDelta) Path() string {
	if d.NewPath != "" {
		return d.NewPath
	}
	return d.OldPath
}

// TreeDiff is a file-level diff between two commits with aggregate line
// stats.
type TreeDiff struct {
	Deltas     []TreeDelta
	Insertions uint64
	Deletions  uint64
}

// FilesChanged returns the number of file-level changes in the diff.
func (d *TreeDiff) FilesChanged() uint64 {
	return uint64(len(d.Deltas))
}

// TouchesPath reports whether any side of any delta names path.
func (d *TreeDiff) TouchesPath(path string) bool {
	for _, delta := range d.Deltas {
		if delta.OldPath == path || delta.NewPath == path {
			return true
		}
	}
	return false
}

// DiffTrees diffs the trees of two commits, each scoped to scopePath
// when it is non-empty. Both commits must be present in this
// repository's object store; fetch remotes first for cross-repository
// diffs.
func (r *Repo) DiffTrees(ctx context.Context, commitA, commitB, scopePath string) (*TreeDiff, error) {
	treeA, err := r.commitTree(commitA, scopePath)
	if err != nil {
		return nil, err
	}
	treeB, err := r.commitTree(commitB, scopePath)
	if err != nil {
		return nil, err
	}
	return diffTrees(ctx, treeA, treeB)
}

// DiffTreeAgainstCommit diffs a scoped tree of commitA against the full
// tree of commitB. Used to compare an upstream package subdirectory with
// a registry tarball committed at a repository root.
func (r *Repo) DiffTreeAgainstCommit(ctx context.Context, commitA, scopeA, commitB string) (*TreeDiff, error) {
	treeA, err := r.commitTree(commitA, scopeA)
	if err != nil {
		return nil, err
	}
	treeB, err := r.commitTree(commitB, "")
	if err != nil {
		return nil, err
	}
	return diffTrees(ctx, treeA, treeB)
}

func diffTrees(ctx context.Context, treeA, treeB *object.Tree) (*TreeDiff, error) {
	changes, err := object.DiffTreeWithOptions(ctx, treeA, treeB, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	diff := &TreeDiff{}
	for _, change := range changes {
		action, actionErr := change.Action()
		if actionErr != nil {
			return nil, fmt.Errorf("failed to read change action: %w", actionErr)
		}

		delta := TreeDelta{}
		switch action {
		case merkletrie.Insert:
			delta.NewPath = change.To.Name
			delta.Kind = entities.FileAdded
		case merkletrie.Delete:
			delta.OldPath = change.From.Name
			delta.Kind = entities.FileDeleted
		case merkletrie.Modify:
			delta.OldPath = change.From.Name
			delta.NewPath = change.To.Name
			delta.Kind = entities.FileModified
		}
		diff.Deltas = append(diff.Deltas, delta)

		patch, patchErr := change.PatchContext(ctx)
		if patchErr != nil {
			// Binary or unreadable content still counts as a delta, just
			// without line stats.
			logger.Debugf("no patch for %s: %v", delta.Path(), patchErr)
			continue
		}
		for _, stat := range patch.Stats() {
			diff.Insertions += uint64(stat.Addition)
			diff.Deletions += uint64(stat.Deletion)
		}
	}
	return diff, nil
}
