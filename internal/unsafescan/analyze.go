package unsafescan

import (
	"context"
	"path"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/diem/whackadep/internal/diff"
	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/gitrepo"
)

// AnalyzeDiff checks out both sides of a version diff and reports the
// unsafe counter change for every touched file. Files that cannot be
// scanned on either side (non-Rust sources) are dropped.
func AnalyzeDiff(ctx context.Context, info *diff.VersionDiffInfo) ([]entities.FileUnsafeChangeStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priorCounters, err := scanSide(info, info.CommitA, func(d gitrepo.TreeDelta) string { return d.OldPath })
	if err != nil {
		return nil, err
	}
	postCounters, err := scanSide(info, info.CommitB, func(d gitrepo.TreeDelta) string { return d.NewPath })
	if err != nil {
		return nil, err
	}

	var stats []entities.FileUnsafeChangeStats
	for _, delta := range info.Diff.Deltas {
		prior := priorCounters[delta.OldPath]
		post := postCounters[delta.NewPath]
		if prior == nil && post == nil {
			continue
		}

		var priorDelta, postDelta entities.UnsafeDelta
		if prior != nil {
			priorDelta = prior.Delta()
		}
		if post != nil {
			postDelta = post.Delta()
		}
		change := postDelta.Sub(priorDelta)

		stats = append(stats, entities.FileUnsafeChangeStats{
			File:       delta.Path(),
			ChangeKind: delta.Kind,
			Status:     entities.ClassifyUnsafeChange(post, change),
			Delta:      change,
			PostState:  post,
		})
	}
	return stats, nil
}

// scanSide checks out one commit and scans the side-relevant file of
// every delta, returning counters keyed by repository-relative path.
func scanSide(info *diff.VersionDiffInfo, commit string, side func(gitrepo.TreeDelta) string) (map[string]*entities.UnsafeCounters, error) {
	if err := info.Repo.Checkout(commit); err != nil {
		return nil, err
	}

	counters := make(map[string]*entities.UnsafeCounters)
	for _, delta := range info.Diff.Deltas {
		rel := side(delta)
		if rel == "" {
			continue
		}
		full := filepath.Join(info.Repo.Workdir(), filepath.FromSlash(path.Join(info.ScopePath, rel)))
		c, err := ScanFile(full)
		if err != nil {
			if err != ErrNotRustFile {
				logger.Debugf("skipping unsafe scan of %q at %s: %s", rel, commit, err)
			}
			continue
		}
		counters[rel] = c
	}
	return counters, nil
}
