package commands

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/domain/repositories"
	"github.com/diem/whackadep/internal/graphdiff"
)

// ErrNotAnUpgrade rejects a direct review request whose new version is
// not strictly greater than the old one.
var ErrNotAnUpgrade = errors.New("change is not a strict version upgrade")

const defaultParallelism = 4

// Review is the interface for the update-review command.
type Review interface {
	Execute(
		ctx context.Context,
		prior, post *entities.ResolvedGraph,
		opts ReviewOptions,
	) (*entities.UpdateReviewReport, error)
}

// ReviewOptions holds runtime options for a single review run.
type ReviewOptions struct {
	Parallelism int // concurrent package reviews; <=0 means the default
}

// ReviewCommand compares two resolved graphs and assembles an enriched
// review for every true upgrade between them.
type ReviewCommand struct {
	registry   repositories.RegistryRepository
	advisories repositories.AdvisoryRepository
	analyzers  DiffAnalyzerFactory
	cache      *ReportCache
}

// NewReviewCommand creates a new ReviewCommand with its collaborators.
func NewReviewCommand(
	registry repositories.RegistryRepository,
	advisories repositories.AdvisoryRepository,
	analyzers DiffAnalyzerFactory,
	cache *ReportCache,
) *ReviewCommand {
	return &ReviewCommand{
		registry:   registry,
		advisories: advisories,
		analyzers:  analyzers,
		cache:      cache,
	}
}

// Execute diffs the graphs, reviews each strict upgrade in parallel and
// recomputes direct/transitive conflicts. One package's failure never
// aborts the batch; its report simply stays minimal.
func (it *ReviewCommand) Execute(
	ctx context.Context,
	prior, post *entities.ResolvedGraph,
	opts ReviewOptions,
) (*entities.UpdateReviewReport, error) {
	changes := graphdiff.Compare(prior, post)

	var updates []entities.DependencyChangeInfo
	for _, change := range changes {
		if change.IsUpdate() {
			updates = append(updates, change)
		}
	}
	logger.Infof("Found %d changed packages, %d strict upgrades", len(changes), len(updates))

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}

	reports := make([]entities.DepUpdateReviewReport, len(updates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, change := range updates {
		group.Go(func() error {
			report, err := it.ReviewUpdate(groupCtx, change)
			if err != nil {
				logger.Errorf("Review of %s %s -> %s failed: %v",
					change.Name, change.OldVersion, change.NewVersion, err)
				reports[i] = entities.DepUpdateReviewReport{
					Name:           change.Name,
					PriorVersion:   entities.VersionInfo{Name: change.Name, Version: change.OldVersion},
					UpdatedVersion: entities.VersionInfo{Name: change.Name, Version: change.NewVersion},
				}
				return nil
			}
			reports[i] = *report
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &entities.UpdateReviewReport{
		DepUpdateReviewReports: reports,
		VersionConflicts:       graphdiff.DetermineVersionConflicts(changes, post),
	}, nil
}

// ReviewUpdate reviews one upgrade, serving from the cache when the
// same (name, old, new) triple was reviewed before. Enrichment is best
// effort: a failed lookup degrades only its field and logs a warning.
func (it *ReviewCommand) ReviewUpdate(
	ctx context.Context,
	change entities.DependencyChangeInfo,
) (*entities.DepUpdateReviewReport, error) {
	if !change.IsUpdate() {
		return nil, ErrNotAnUpgrade
	}

	if cached, found := it.cache.Get(change.Name, change.OldVersion, change.NewVersion); found {
		logger.Debugf("Serving cached review for %s %s -> %s",
			change.Name, change.OldVersion, change.NewVersion)
		return cached, nil
	}

	report := entities.DepUpdateReviewReport{
		Name:           change.Name,
		PriorVersion:   entities.VersionInfo{Name: change.Name, Version: change.OldVersion},
		UpdatedVersion: entities.VersionInfo{Name: change.Name, Version: change.NewVersion},
	}

	metadata, err := it.registry.GetCrateMetadata(ctx, change.Name)
	if err != nil {
		logger.Warnf("Could not fetch crate metadata for %s: %v", change.Name, err)
	} else {
		report.CrateDownloads = metadata.Downloads
	}

	analyzer, err := it.analyzers()
	if err != nil {
		return nil, err
	}
	defer analyzer.Close()

	it.enrichVersion(ctx, analyzer, &report.PriorVersion, change.Repository)
	it.enrichVersion(ctx, analyzer, &report.UpdatedVersion, change.Repository)

	diffStats, err := analyzer.AnalyzeVersionDiff(ctx, change)
	if err != nil {
		logger.Warnf("Could not diff %s %s -> %s: %v",
			change.Name, change.OldVersion, change.NewVersion, err)
	} else {
		report.DiffStats = diffStats
	}

	it.cache.Put(change.Name, change.OldVersion, change.NewVersion, report)
	return &report, nil
}

// enrichVersion fills downloads, reverse dependents, the crate-source
// diff and non-withdrawn advisories for one version, field by field.
func (it *ReviewCommand) enrichVersion(
	ctx context.Context,
	analyzer DiffAnalyzer,
	info *entities.VersionInfo,
	repositoryURL string,
) {
	downloads, err := it.registry.GetVersionDownloads(ctx, info.Name, info.Version)
	if err != nil {
		logger.Warnf("Could not fetch downloads for %s %s: %v", info.Name, info.Version, err)
	} else {
		info.Downloads = downloads
	}

	dependents, err := it.registry.GetReverseDependents(ctx, info.Name)
	if err != nil {
		logger.Warnf("Could not fetch reverse dependents for %s: %v", info.Name, err)
	} else {
		info.ReverseDependents = dependents
	}

	sourceDiff, err := analyzer.AnalyzeCrateSourceDiff(ctx, info.Name, info.Version, repositoryURL)
	if err != nil {
		logger.Warnf("Could not diff crate source for %s %s: %v", info.Name, info.Version, err)
		sourceDiff = entities.CrateSourceDiffReport{Name: info.Name, Version: info.Version}
	}
	info.CrateSourceDiff = sourceDiff

	advisories, err := it.advisories.GetAdvisories(ctx, info.Name, info.Version)
	if err != nil {
		logger.Warnf("Could not fetch advisories for %s %s: %v", info.Name, info.Version, err)
		return
	}
	info.KnownAdvisories = entities.ActiveAdvisories(advisories)
}
