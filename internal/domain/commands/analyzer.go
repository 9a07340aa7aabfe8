package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/diem/whackadep/internal/diff"
	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/domain/repositories"
	"github.com/diem/whackadep/internal/unsafescan"
)

// DiffAnalyzer is the slice of the source-diff machinery the review
// assembler consumes. One analyzer serves one review and must be
// closed when the review finishes.
type DiffAnalyzer interface {
	AnalyzeCrateSourceDiff(
		ctx context.Context,
		name, version, repositoryURL string,
	) (entities.CrateSourceDiffReport, error)
	AnalyzeVersionDiff(
		ctx context.Context,
		change entities.DependencyChangeInfo,
	) (*entities.VersionDiffStats, error)
	Close()
}

// DiffAnalyzerFactory builds one analyzer per review so concurrent
// reviews never share a working tree.
type DiffAnalyzerFactory func() (DiffAnalyzer, error)

// NewEngineAnalyzerFactory is the production factory, backed by a diff
// engine with its own scratch directory.
func NewEngineAnalyzerFactory(
	registry repositories.RegistryRepository,
	graphs repositories.GraphRepository,
) DiffAnalyzerFactory {
	return func() (DiffAnalyzer, error) {
		engine, err := diff.NewEngine(registry, graphs)
		if err != nil {
			return nil, err
		}
		return &engineAnalyzer{engine: engine}, nil
	}
}

type engineAnalyzer struct {
	engine *diff.Engine
}

func (it *engineAnalyzer) Close() {
	it.engine.Close()
}

func (it *engineAnalyzer) AnalyzeCrateSourceDiff(
	ctx context.Context,
	name, version, repositoryURL string,
) (entities.CrateSourceDiffReport, error) {
	return it.engine.AnalyzeCrateSourceDiff(ctx, name, version, repositoryURL)
}

// AnalyzeVersionDiff computes source-change stats between the two
// versions of a change. Best effort: a version whose release commit
// cannot be pinned yields nil stats instead of an error.
func (it *engineAnalyzer) AnalyzeVersionDiff(
	ctx context.Context,
	change entities.DependencyChangeInfo,
) (*entities.VersionDiffStats, error) {
	info, err := it.versionDiffInfo(ctx, change)
	if err != nil {
		if diff.IsCommitNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if info == nil {
		return nil, nil
	}
	return it.buildStats(ctx, change, info)
}

// versionDiffInfo prefers diffing the two registry tarballs, since
// those reflect what the build actually consumes, and falls back to
// resolving release commits in the declared repository.
func (it *engineAnalyzer) versionDiffInfo(
	ctx context.Context,
	change entities.DependencyChangeInfo,
) (*diff.VersionDiffInfo, error) {
	repoA, errA := it.engine.MaterializeRegistryRepo(ctx, change.Name, change.OldVersion)
	if errA == nil {
		repoB, errB := it.engine.MaterializeRegistryRepo(ctx, change.Name, change.NewVersion)
		if errB == nil {
			info, err := it.engine.GetVersionDiffInfoBetweenRepos(ctx, repoA, repoB)
			if err == nil {
				return info, nil
			}
			logger.Debugf("Registry pair diff failed for %s: %v", change.Name, err)
		}
	}

	if change.Repository == "" {
		logger.Debugf("No source available to diff %s %s..%s",
			change.Name, change.OldVersion, change.NewVersion)
		return nil, nil
	}
	repo, err := it.engine.CloneDeclaredRepo(ctx, change.Name, change.Repository)
	if err != nil {
		return nil, err
	}
	return it.engine.GetVersionDiffInfo(ctx, repo, change.Name, change.OldVersion, change.NewVersion)
}

func (it *engineAnalyzer) buildStats(
	ctx context.Context,
	change entities.DependencyChangeInfo,
	info *diff.VersionDiffInfo,
) (*entities.VersionDiffStats, error) {
	stats := &entities.VersionDiffStats{
		FilesChanged: info.Diff.FilesChanged(),
		Insertions:   info.Diff.Insertions,
		Deletions:    info.Diff.Deletions,
	}
	for _, script := range change.BuildScriptPaths {
		if info.Diff.TouchesPath(script) {
			stats.ModifiedBuildScripts = append(stats.ModifiedBuildScripts, script)
		}
	}

	unsafeChanges, err := unsafescan.AnalyzeDiff(ctx, info)
	if err != nil {
		return nil, err
	}
	stats.ScannedFilesChanged = uint64(len(unsafeChanges))
	for _, fileChange := range unsafeChanges {
		if fileChange.Status != entities.NoUnsafeCode {
			stats.UnsafeFileChanged = append(stats.UnsafeFileChanged, fileChange)
		}
	}
	return stats, nil
}
