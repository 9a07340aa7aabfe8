//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations — no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/domain/repositories"
)

// SpyRegistryRepository implements repositories.RegistryRepository as a
// configurable spy. Configure the response fields for the methods your
// test exercises, then inspect the call counters to verify behavior.
type SpyRegistryRepository struct {
	mu sync.Mutex

	// --- GetCrateMetadata ---
	Metadata    repositories.CrateMetadata
	MetadataErr error
	// spy: names requested
	MetadataCalls []string

	// --- GetVersionDownloads ---
	Downloads    map[string]uint64 // "name@version" -> count
	DownloadsErr error
	// spy: keys requested
	DownloadsCalls []string

	// --- GetReverseDependents ---
	Dependents    uint64
	DependentsErr error
	DependentsCalls []string

	// --- DownloadVersionTarball ---
	Tarballs   map[string][]byte // "name@version" -> archive bytes
	TarballErr error
	TarballCalls []string
}

var _ repositories.RegistryRepository = (*SpyRegistryRepository)(nil)

func (s *SpyRegistryRepository) GetCrateMetadata(
	_ context.Context, name string,
) (repositories.CrateMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MetadataCalls = append(s.MetadataCalls, name)
	return s.Metadata, s.MetadataErr
}

func (s *SpyRegistryRepository) GetVersionDownloads(
	_ context.Context, name, version string,
) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := name + "@" + version
	s.DownloadsCalls = append(s.DownloadsCalls, key)
	return s.Downloads[key], s.DownloadsErr
}

func (s *SpyRegistryRepository) GetReverseDependents(
	_ context.Context, name string,
) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DependentsCalls = append(s.DependentsCalls, name)
	return s.Dependents, s.DependentsErr
}

func (s *SpyRegistryRepository) DownloadVersionTarball(
	_ context.Context, name, version string,
) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := name + "@" + version
	s.TarballCalls = append(s.TarballCalls, key)
	if s.TarballErr != nil {
		return nil, s.TarballErr
	}
	return io.NopCloser(bytes.NewReader(s.Tarballs[key])), nil
}

// SpyAdvisoryRepository implements repositories.AdvisoryRepository as a
// configurable spy.
type SpyAdvisoryRepository struct {
	mu sync.Mutex

	Advisories   []entities.Advisory
	AdvisoriesErr error
	// spy: "name@version" keys requested
	Calls []string
}

var _ repositories.AdvisoryRepository = (*SpyAdvisoryRepository)(nil)

func (s *SpyAdvisoryRepository) GetAdvisories(
	_ context.Context, name, version string,
) ([]entities.Advisory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, name+"@"+version)
	return s.Advisories, s.AdvisoriesErr
}

// SpyGraphRepository implements repositories.GraphRepository as a
// configurable spy.
type SpyGraphRepository struct {
	mu sync.Mutex

	Graph    *entities.ResolvedGraph
	GraphErr error
	// spy: project roots requested
	ResolvedRoots []string
}

var _ repositories.GraphRepository = (*SpyGraphRepository)(nil)

func (s *SpyGraphRepository) Resolve(
	_ context.Context, projectRoot string, _ entities.ResolutionOptions,
) (*entities.ResolvedGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResolvedRoots = append(s.ResolvedRoots, projectRoot)
	return s.Graph, s.GraphErr
}
