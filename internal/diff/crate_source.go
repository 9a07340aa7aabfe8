package diff

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/gitrepo"
	"github.com/diem/whackadep/internal/matcher"
)

// publishNoisePaths are rewritten by the publish pipeline on every
// release; diffing them against the upstream tree only produces false
// positives.
var publishNoisePaths = map[string]struct{}{
	".cargo_vcs_info.json": {},
	"Cargo.toml":           {},
	"Cargo.toml.orig":      {},
	"Cargo.lock":           {},
}

// AnalyzeCrateSourceDiff compares the registry-published sources of
// (name, version) with the upstream commit that released it. Every
// failure short of I/O breakage degrades to a partially filled report:
// no repository or an unparsable URL leaves the resolution fields nil,
// an unresolvable commit sets ReleaseCommitFound=false, and a commit
// whose manifest cannot be located sets ReleaseCommitAnalyzed=false.
func (e *Engine) AnalyzeCrateSourceDiff(
	ctx context.Context,
	name, version, repositoryURL string,
) (entities.CrateSourceDiffReport, error) {
	report := entities.CrateSourceDiffReport{Name: name, Version: version}

	if repositoryURL == "" {
		return report, nil
	}
	if _, err := gitrepo.TrimRemoteURL(repositoryURL); err != nil {
		logger.Warnf("Unusable repository url for %s: %v", name, err)
		return report, nil
	}

	crateRepo, err := e.MaterializeRegistryRepo(ctx, name, version)
	if err != nil {
		return report, err
	}
	tarballHead, err := crateRepo.Head()
	if err != nil {
		return report, err
	}

	sourceRepo, err := e.CloneDeclaredRepo(ctx, name, repositoryURL)
	if err != nil {
		return report, err
	}

	tags, err := sourceRepo.Tags(matcher.TagGlob(version))
	if err != nil {
		return report, err
	}
	resolution := matcher.Resolve(tags, name, version)
	if !resolution.Found() {
		report.ReleaseCommitFound = boolPtr(false)
		return report, nil
	}
	report.ReleaseCommitFound = boolPtr(true)

	// Pull the upstream objects into the tarball repository so both
	// trees live in one object store.
	if fetchErr := crateRepo.FetchRemote(ctx, sourceRepo.Workdir()); fetchErr != nil {
		return report, fetchErr
	}

	if checkoutErr := sourceRepo.Checkout(resolution.Commit); checkoutErr != nil {
		return report, checkoutErr
	}
	packageDir, err := e.locatePackageDir(ctx, sourceRepo.Workdir(), name)
	if err != nil {
		// The package may have carried another name at that commit, or
		// the graph provider cannot process the historical tree.
		logger.Debugf("Manifest for %s not locatable at %s: %v", name, resolution.Commit, err)
		report.ReleaseCommitAnalyzed = boolPtr(false)
		return report, nil
	}
	report.ReleaseCommitAnalyzed = boolPtr(true)

	treeDiff, err := crateRepo.DiffTreeAgainstCommit(ctx, resolution.Commit, packageDir, tarballHead)
	if err != nil {
		return report, err
	}

	stats := classifyCrateSourceDeltas(treeDiff.Deltas)
	// Files upstream keeps out of the published archive are expected;
	// additions and modifications relative to upstream are not.
	report.IsDifferent = boolPtr(stats.FilesAdded > 0 || stats.FilesModified > 0)
	report.FileDiffStats = &stats
	return report, nil
}

// classifyCrateSourceDeltas counts per-kind file changes, skipping the
// publish-noise ignore list.
func classifyCrateSourceDeltas(deltas []gitrepo.TreeDelta) entities.FileDiffStats {
	var stats entities.FileDiffStats
	for _, delta := range deltas {
		if _, ignored := publishNoisePaths[delta.Path()]; ignored {
			continue
		}
		switch delta.Kind {
		case entities.FileAdded:
			stats.FilesAdded++
		case entities.FileModified:
			stats.FilesModified++
		case entities.FileDeleted:
			stats.FilesDeleted++
		}
	}
	return stats
}

func boolPtr(value bool) *bool { return &value }
