package repositories

import (
	"context"
	"io"
)

// CrateMetadata is the registry-level view of a package, independent of
// any particular version.
type CrateMetadata struct {
	Name      string
	Downloads uint64
}

// RegistryRepository is a thin client for the public package registry.
// Calls are rate-limited upstream; implementations must bound their own
// retries and never retry on behalf of the caller beyond that bound.
type RegistryRepository interface {
	GetCrateMetadata(ctx context.Context, name string) (CrateMetadata, error)

	// GetVersionDownloads returns the download count of one published
	// version.
	GetVersionDownloads(ctx context.Context, name, version string) (uint64, error)

	// GetReverseDependents returns how many packages depend on this one.
	GetReverseDependents(ctx context.Context, name string) (uint64, error)

	// DownloadVersionTarball streams the published source archive for
	// (name, version). The caller owns closing the stream.
	DownloadVersionTarball(ctx context.Context, name, version string) (io.ReadCloser, error)
}
