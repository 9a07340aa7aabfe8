// Package gitrepo wraps go-git with the handful of repository operations
// the review engine needs: cloning into scratch directories, turning an
// unpacked source tree into a single-commit repository, tag enumeration,
// forced checkouts and scoped tree diffs.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"
)

const sourceRemoteName = "source"

// Repo is a handle to a local working copy. Checkouts mutate the single
// working tree, so concurrent use of one handle is not safe; callers run
// one review per handle.
type Repo struct {
	repo    *git.Repository
	workdir string
}

// Clone fetches url into dir with all tags and returns a handle.
func Clone(ctx context.Context, url, dir string) (*Repo, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %q: %w", url, err)
	}
	return &Repo{repo: repo, workdir: dir}, nil
}

// Open returns a handle to an existing working copy.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %q: %w", dir, err)
	}
	return &Repo{repo: repo, workdir: dir}, nil
}

// InitFromDir initializes a repository over an existing directory and
// commits everything in it, yielding a single-commit history whose tree
// is exactly the directory contents. A directory that was already
// imported is reopened with its working tree restored to the import
// commit, undoing any checkouts performed against it since.
func InitFromDir(dir string) (*Repo, error) {
	repo, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return reopenImported(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init repository at %q: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	if addErr := worktree.AddWithOptions(&git.AddOptions{All: true}); addErr != nil {
		return nil, fmt.Errorf("failed to stage files: %w", addErr)
	}

	signature := &object.Signature{
		Name:  "whackadep",
		Email: "whackadep@localhost",
		When:  time.Now(),
	}
	if _, commitErr := worktree.Commit("import sources", &git.CommitOptions{
		Author:    signature,
		Committer: signature,
	}); commitErr != nil {
		return nil, fmt.Errorf("failed to commit imported sources: %w", commitErr)
	}

	return &Repo{repo: repo, workdir: dir}, nil
}

// reopenImported opens a repository created by InitFromDir and checks
// the import commit back out. HEAD may point anywhere after a previous
// analysis run; the import branch tip is the ground truth.
func reopenImported(dir string) (*Repo, error) {
	handle, err := Open(dir)
	if err != nil {
		return nil, err
	}
	ref, refErr := handle.repo.Reference(plumbing.Master, true)
	if refErr != nil {
		return nil, fmt.Errorf("failed to resolve import commit in %q: %w", dir, refErr)
	}
	if checkoutErr := handle.Checkout(ref.Hash().String()); checkoutErr != nil {
		return nil, checkoutErr
	}
	return handle, nil
}

// Workdir returns the path of the working tree.
func (r *Repo) Workdir() string { return r.workdir }

// Head returns the commit the working copy currently points at.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Checkout force-checks-out the given commit, discarding local changes.
func (r *Repo) Checkout(commit string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if checkoutErr := worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(commit),
		Force: true,
	}); checkoutErr != nil {
		return fmt.Errorf("failed to checkout %s: %w", commit, checkoutErr)
	}
	return nil
}

// FetchRemote registers url as a remote and fetches its branches and
// tags, making the remote's objects diffable against local trees. The
// url may be a local path, which is how two scratch repositories get
// diffed against each other.
func (r *Repo) FetchRemote(ctx context.Context, url string) error {
	remote, err := r.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: sourceRemoteName,
		URLs: []string{url},
	})
	if err != nil && !errors.Is(err, git.ErrRemoteExists) {
		return fmt.Errorf("failed to add remote %q: %w", url, err)
	}
	if remote == nil {
		if remote, err = r.repo.Remote(sourceRemoteName); err != nil {
			return fmt.Errorf("failed to look up remote: %w", err)
		}
	}

	fetchErr := remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec("+refs/heads/*:refs/remotes/" + sourceRemoteName + "/*"),
		},
		Tags: git.AllTags,
	})
	if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch from %q: %w", url, fetchErr)
	}
	return nil
}

// HasCommit reports whether the commit object is present locally.
func (r *Repo) HasCommit(commit string) bool {
	_, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		logger.Debugf("commit %s not present locally: %v", commit, err)
		return false
	}
	return true
}
