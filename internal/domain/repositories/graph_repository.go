// Package repositories declares the contracts of the external
// collaborators the review engine consumes. Implementations live under
// internal/infrastructure/repositories.
package repositories

import (
	"context"

	"github.com/diem/whackadep/internal/domain/entities"
)

// GraphRepository resolves a project root into a fully pinned dependency
// graph. Resolution itself (feature unification, version selection) is
// the provider's business; the engine only consumes the result.
type GraphRepository interface {
	Resolve(
		ctx context.Context,
		projectRoot string,
		opts entities.ResolutionOptions,
	) (*entities.ResolvedGraph, error)
}
