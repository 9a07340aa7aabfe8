package diff

import (
	"context"
	"errors"
	"fmt"

	"github.com/diem/whackadep/internal/gitrepo"
	"github.com/diem/whackadep/internal/matcher"
)

// CommitNotFoundError marks a version whose release commit could not be
// uniquely identified in the repository. It is a recoverable condition
// distinct from I/O failure: callers degrade to "no diff stats".
type CommitNotFoundError struct {
	Name    string
	Version string
}

func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("release commit not found in the repository for %s:%s", e.Name, e.Version)
}

// IsCommitNotFound reports whether err carries a CommitNotFoundError.
func IsCommitNotFound(err error) bool {
	var target *CommitNotFoundError
	return errors.As(err, &target)
}

// VersionDiffInfo is the outcome of diffing two versions of a package:
// the repository holding both trees, the two release commits, the
// subdirectory the diff was scoped to, and the file-level diff itself.
// It owns no state beyond the repository's working copy.
type VersionDiffInfo struct {
	Repo      *gitrepo.Repo
	CommitA   string
	CommitB   string
	ScopePath string
	Diff      *gitrepo.TreeDiff
}

// GetVersionDiffInfo diffs versionA against versionB inside one cloned
// repository, scoped to the package's subdirectory. An unresolvable
// version yields a CommitNotFoundError.
func (e *Engine) GetVersionDiffInfo(
	ctx context.Context,
	repo *gitrepo.Repo,
	name, versionA, versionB string,
) (*VersionDiffInfo, error) {
	scopePath, err := e.locatePackageDir(ctx, repo.Workdir(), name)
	if err != nil {
		return nil, err
	}

	commitA, err := e.resolveReleaseCommit(repo, name, versionA)
	if err != nil {
		return nil, err
	}
	commitB, err := e.resolveReleaseCommit(repo, name, versionB)
	if err != nil {
		return nil, err
	}

	treeDiff, err := repo.DiffTrees(ctx, commitA, commitB, scopePath)
	if err != nil {
		return nil, err
	}

	return &VersionDiffInfo{
		Repo:      repo,
		CommitA:   commitA,
		CommitB:   commitB,
		ScopePath: scopePath,
		Diff:      treeDiff,
	}, nil
}

// GetVersionDiffInfoBetweenRepos diffs the heads of two independently
// materialized repositories (typically two registry tarballs) by
// fetching one into the other's object store.
func (e *Engine) GetVersionDiffInfoBetweenRepos(
	ctx context.Context,
	repoA, repoB *gitrepo.Repo,
) (*VersionDiffInfo, error) {
	headA, err := repoA.Head()
	if err != nil {
		return nil, err
	}
	headB, err := repoB.Head()
	if err != nil {
		return nil, err
	}

	if fetchErr := repoA.FetchRemote(ctx, repoB.Workdir()); fetchErr != nil {
		return nil, fetchErr
	}

	treeDiff, err := repoA.DiffTrees(ctx, headA, headB, "")
	if err != nil {
		return nil, err
	}

	return &VersionDiffInfo{
		Repo:    repoA,
		CommitA: headA,
		CommitB: headB,
		Diff:    treeDiff,
	}, nil
}

func (e *Engine) resolveReleaseCommit(repo *gitrepo.Repo, name, version string) (string, error) {
	tags, err := repo.Tags(matcher.TagGlob(version))
	if err != nil {
		return "", err
	}
	resolution := matcher.Resolve(tags, name, version)
	if !resolution.Found() {
		return "", &CommitNotFoundError{Name: name, Version: version}
	}
	return resolution.Commit, nil
}
