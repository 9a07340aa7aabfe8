package gitrepo

import (
	"errors"
	"fmt"
	"path"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// TagRef pairs a tag name with the commit it ultimately points at.
// Annotated tags are peeled to their target commit.
type TagRef struct {
	Name   string
	Commit string
}

// Tags returns every tag whose short name matches the glob pattern.
// An empty pattern matches all tags.
func (r *Repo) Tags(pattern string) ([]TagRef, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if pattern != "" {
			matched, matchErr := path.Match(pattern, name)
			if matchErr != nil {
				return fmt.Errorf("invalid tag pattern %q: %w", pattern, matchErr)
			}
			if !matched {
				return nil
			}
		}

		commit, peelErr := r.peelToCommit(ref.Hash())
		if peelErr != nil {
			// Tags pointing at trees or blobs carry no commit to match.
			return nil
		}
		tags = append(tags, TagRef{Name: name, Commit: commit})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	return tags, nil
}

// peelToCommit resolves a tag hash to its target commit, following
// annotated tag objects.
func (r *Repo) peelToCommit(hash plumbing.Hash) (string, error) {
	if tag, err := r.repo.TagObject(hash); err == nil {
		commit, commitErr := tag.Commit()
		if commitErr != nil {
			return "", commitErr
		}
		return commit.Hash.String(), nil
	} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return "", err
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return "", err
	}
	return commit.Hash.String(), nil
}

// commitTree returns the (optionally scoped) tree of a commit.
func (r *Repo) commitTree(commit, scopePath string) (*object.Tree, error) {
	commitObj, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return nil, fmt.Errorf("failed to find commit %s: %w", commit, err)
	}
	tree, err := commitObj.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", commit, err)
	}
	if scopePath == "" || scopePath == "." {
		return tree, nil
	}
	subtree, err := tree.Tree(scopePath)
	if err != nil {
		return nil, fmt.Errorf("failed to scope tree to %q: %w", scopePath, err)
	}
	return subtree, nil
}
