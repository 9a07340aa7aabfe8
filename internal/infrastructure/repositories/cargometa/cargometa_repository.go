// Package cargometa turns `cargo metadata` output into a resolved
// dependency graph. Resolution itself (feature unification, version
// selection) stays cargo's business; this package only parses and
// partitions the result.
package cargometa

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/diem/whackadep/internal/domain/entities"
)

// CargoGraphRepository implements repositories.GraphRepository by
// invoking the cargo binary on a project root.
type CargoGraphRepository struct {
	binary string
}

// NewCargoGraphRepository creates a provider using the given cargo binary.
func NewCargoGraphRepository(binary string) *CargoGraphRepository {
	if binary == "" {
		binary = "cargo"
	}
	return &CargoGraphRepository{binary: binary}
}

// Resolve runs cargo metadata at projectRoot and parses the result.
func (it *CargoGraphRepository) Resolve(
	ctx context.Context,
	projectRoot string,
	opts entities.ResolutionOptions,
) (*entities.ResolvedGraph, error) {
	args := []string{"metadata", "--format-version", "1"}
	if opts.AllFeatures {
		args = append(args, "--all-features")
	}

	cmd := exec.CommandContext(ctx, it.binary, args...)
	cmd.Dir = projectRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("cargo metadata failed at %q: %w: %s", projectRoot, err, detail)
		}
		return nil, fmt.Errorf("cargo metadata failed at %q: %w", projectRoot, err)
	}
	return ParseMetadata(output, opts)
}
