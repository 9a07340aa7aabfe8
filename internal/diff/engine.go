// Package diff materializes point-in-time source trees of a package and
// computes file-level diffs between them: registry-published sources
// against the upstream commit that claims to have released them, and one
// released version against another.
package diff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/domain/repositories"
	"github.com/diem/whackadep/internal/gitrepo"
)

// Engine runs diff analyses inside one isolated scratch directory.
// Engines are single-use per review: concurrent reviews each get their
// own engine, so working copies never collide.
type Engine struct {
	dir      string
	registry repositories.RegistryRepository
	graphs   repositories.GraphRepository
}

// NewEngine creates an engine with a fresh scratch directory.
func NewEngine(
	registry repositories.RegistryRepository,
	graphs repositories.GraphRepository,
) (*Engine, error) {
	dir, err := os.MkdirTemp("", "whackadep-diff-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Engine{dir: dir, registry: registry, graphs: graphs}, nil
}

// Close reclaims the scratch directory and everything in it.
func (e *Engine) Close() {
	if err := os.RemoveAll(e.dir); err != nil {
		logger.Warnf("Failed to clean up scratch directory %q: %v", e.dir, err)
	}
}

// CloneDeclaredRepo clones the package's declared repository (trimmed to
// its root) into the scratch directory.
func (e *Engine) CloneDeclaredRepo(ctx context.Context, name, repositoryURL string) (*gitrepo.Repo, error) {
	trimmed, err := gitrepo.TrimRemoteURL(repositoryURL)
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(e.dir, name+"-source-")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	return gitrepo.Clone(ctx, trimmed, dir)
}

// MaterializeRegistryRepo downloads and unpacks the registry tarball for
// (name, version) and turns it into a single-commit repository. A
// version already materialized in this engine's lifetime is reopened at
// its import commit rather than downloaded and imported again.
func (e *Engine) MaterializeRegistryRepo(ctx context.Context, name, version string) (*gitrepo.Repo, error) {
	srcPath, err := e.fetchRegistrySource(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return gitrepo.InitFromDir(srcPath)
}

// locatePackageDir finds the package's directory relative to a checked
// out tree, by asking the graph provider where the manifest lives. A
// repository hosting a single package resolves to "".
func (e *Engine) locatePackageDir(ctx context.Context, checkoutDir, name string) (string, error) {
	graph, err := e.graphs.Resolve(ctx, checkoutDir, entities.DefaultResolutionOptions())
	if err != nil {
		return "", fmt.Errorf("failed to resolve graph at %q: %w", checkoutDir, err)
	}

	pkg := graph.FindPackage(name)
	if pkg == nil || pkg.ManifestPath == "" {
		return "", fmt.Errorf("package %q has no locatable manifest in %q", name, checkoutDir)
	}

	rel, err := filepath.Rel(checkoutDir, filepath.Dir(pkg.ManifestPath))
	if err != nil {
		return "", fmt.Errorf("failed to relativize manifest path: %w", err)
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || filepath.IsAbs(rel) || len(rel) > 1 && rel[:2] == ".." {
		return "", fmt.Errorf("manifest for %q resolved outside the checkout: %q", name, rel)
	}
	return filepath.ToSlash(rel), nil
}
