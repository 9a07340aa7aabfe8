package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diem/whackadep/config"
	"github.com/diem/whackadep/internal/domain/commands"
	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/domain/repositories"
	"github.com/diem/whackadep/internal/gitrepo"
)

// ReviewController handles the "update-review" subcommand: it compares two
// dependency graphs and prints an enriched report of every upgrade.
type ReviewController struct {
	command commands.Review
	graphs  repositories.GraphRepository
	cfg     *config.Config
}

// NewReviewController creates a new ReviewController.
func NewReviewController(
	command commands.Review,
	graphs repositories.GraphRepository,
	cfg *config.Config,
) *ReviewController {
	return &ReviewController{command: command, graphs: graphs, cfg: cfg}
}

// GetBind returns the Cobra command metadata for the review controller.
func (it *ReviewController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "update-review [prior-path] [post-path]",
		Short: "Review the dependency changes between two project states",
		Long: `Compare the resolved dependency graphs of two project states and
produce a review of every upgrade between them: registry download
counts, known advisories, source diffs against the claimed release
commits and unsafe-code deltas.

The two states are either two checked-out project paths, or two
commits of one repository selected with --repo, --prior-commit and
--post-commit.`,
	}
}

// Execute runs one review.
func (it *ReviewController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			logger.Errorf("Failed to load config: %v", err)
			return
		}
		it.cfg = cfg
	}

	repoURL, _ := cmd.Flags().GetString("repo")
	priorCommit, _ := cmd.Flags().GetString("prior-commit")
	postCommit, _ := cmd.Flags().GetString("post-commit")
	asJSON, _ := cmd.Flags().GetBool("json")

	var prior, post *entities.ResolvedGraph
	var err error
	switch {
	case repoURL != "":
		if priorCommit == "" || postCommit == "" {
			logger.Error("--repo requires both --prior-commit and --post-commit")
			return
		}
		prior, post, err = it.resolveCommits(ctx, repoURL, priorCommit, postCommit)
	case len(args) == 2:
		prior, post, err = it.resolvePaths(ctx, args[0], args[1])
	default:
		logger.Error("Provide two project paths, or --repo with two commits")
		return
	}
	if err != nil {
		logger.Errorf("Failed to resolve graphs: %v", err)
		return
	}

	report, err := it.command.Execute(ctx, prior, post, commands.ReviewOptions{
		Parallelism: it.cfg.Review.Parallelism,
	})
	if err != nil {
		logger.Errorf("Review failed: %v", err)
		return
	}

	if asJSON {
		renderJSON(report)
		return
	}
	renderText(report)
}

// AddFlags adds the review-specific flags to the given Cobra command.
func (it *ReviewController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("repo", "", "Repository URL or path holding both states")
	cmd.Flags().String("prior-commit", "", "Commit of the prior state (with --repo)")
	cmd.Flags().String("post-commit", "", "Commit of the updated state (with --repo)")
	cmd.Flags().Bool("json", false, "Print the full report as JSON")
}

func (it *ReviewController) resolvePaths(
	ctx context.Context, priorPath, postPath string,
) (*entities.ResolvedGraph, *entities.ResolvedGraph, error) {
	opts := entities.DefaultResolutionOptions()
	prior, err := it.graphs.Resolve(ctx, priorPath, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("prior state: %w", err)
	}
	post, err := it.graphs.Resolve(ctx, postPath, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("updated state: %w", err)
	}
	return prior, post, nil
}

func (it *ReviewController) resolveCommits(
	ctx context.Context, repoURL, priorCommit, postCommit string,
) (*entities.ResolvedGraph, *entities.ResolvedGraph, error) {
	prior, err := it.resolveAtCommit(ctx, repoURL, priorCommit)
	if err != nil {
		return nil, nil, fmt.Errorf("prior state: %w", err)
	}
	post, err := it.resolveAtCommit(ctx, repoURL, postCommit)
	if err != nil {
		return nil, nil, fmt.Errorf("updated state: %w", err)
	}
	return prior, post, nil
}

// resolveAtCommit materializes the repository at one commit in a
// throwaway checkout and resolves its graph there.
func (it *ReviewController) resolveAtCommit(
	ctx context.Context, repoURL, commit string,
) (*entities.ResolvedGraph, error) {
	dir, err := os.MkdirTemp("", "whackadep-checkout-")
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout directory: %w", err)
	}
	defer func() {
		if cleanupErr := os.RemoveAll(dir); cleanupErr != nil {
			logger.Warnf("Failed to clean up checkout %q: %v", dir, cleanupErr)
		}
	}()

	repo, err := gitrepo.Clone(ctx, repoURL, dir)
	if err != nil {
		return nil, err
	}
	if checkoutErr := repo.Checkout(commit); checkoutErr != nil {
		return nil, checkoutErr
	}
	return it.graphs.Resolve(ctx, repo.Workdir(), entities.DefaultResolutionOptions())
}

func renderJSON(report *entities.UpdateReviewReport) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		logger.Errorf("Failed to render report: %v", err)
	}
}

func renderText(report *entities.UpdateReviewReport) {
	if len(report.DepUpdateReviewReports) == 0 {
		fmt.Println("No upgrades between the two states.")
	}
	for _, review := range report.DepUpdateReviewReports {
		fmt.Printf("%s: %s -> %s\n",
			review.Name, review.PriorVersion.Version, review.UpdatedVersion.Version)
		fmt.Printf("  downloads: %d -> %d (crate total %d), reverse dependents: %d\n",
			review.PriorVersion.Downloads,
			review.UpdatedVersion.Downloads,
			review.CrateDownloads,
			review.UpdatedVersion.ReverseDependents)
		renderSourceDiff(&review.UpdatedVersion.CrateSourceDiff)
		renderAdvisories(review.UpdatedVersion.KnownAdvisories)
		renderDiffStats(review.DiffStats)
	}
	for _, conflict := range report.VersionConflicts {
		fmt.Printf("conflict: %s pinned directly at %s but resolved transitively at %s\n",
			conflict.Name, conflict.DirectVersion, conflict.TransitiveVersion)
	}
}

func renderSourceDiff(diff *entities.CrateSourceDiffReport) {
	switch {
	case diff.ReleaseCommitFound == nil:
		fmt.Println("  release commit: not searched (no usable repository)")
	case !*diff.ReleaseCommitFound:
		fmt.Println("  release commit: not found")
	case diff.ReleaseCommitAnalyzed != nil && !*diff.ReleaseCommitAnalyzed:
		fmt.Println("  release commit: found but not analyzable")
	case diff.IsDifferent != nil && *diff.IsDifferent:
		fmt.Printf("  release commit: DIFFERS from published sources (+%d ~%d)\n",
			diff.FileDiffStats.FilesAdded, diff.FileDiffStats.FilesModified)
	default:
		fmt.Println("  release commit: matches published sources")
	}
}

func renderAdvisories(advisories []entities.Advisory) {
	for _, advisory := range advisories {
		fmt.Printf("  advisory: %s %s\n", advisory.ID, advisory.Title)
	}
}

func renderDiffStats(stats *entities.VersionDiffStats) {
	if stats == nil {
		fmt.Println("  version diff: unavailable")
		return
	}
	fmt.Printf("  version diff: %d files (+%d/-%d), %d scanned\n",
		stats.FilesChanged, stats.Insertions, stats.Deletions, stats.ScannedFilesChanged)
	for _, script := range stats.ModifiedBuildScripts {
		fmt.Printf("  build script changed: %s\n", script)
	}
	for _, change := range stats.UnsafeFileChanged {
		fmt.Printf("  unsafe change in %s: %s\n", change.File, change.Status)
	}
}
