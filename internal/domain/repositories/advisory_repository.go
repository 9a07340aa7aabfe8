package repositories

import (
	"context"

	"github.com/diem/whackadep/internal/domain/entities"
)

// AdvisoryRepository looks up security advisories affecting a specific
// package version. Withdrawn advisories are returned with the flag set;
// filtering is the caller's decision.
type AdvisoryRepository interface {
	GetAdvisories(ctx context.Context, name, version string) ([]entities.Advisory, error)
}
