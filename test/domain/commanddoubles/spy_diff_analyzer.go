//go:build integration || unit || test

// Package commanddoubles provides test doubles for command-level
// collaborators. These are hand-crafted implementations — no mock frameworks.
package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/diem/whackadep/internal/domain/commands"
	"github.com/diem/whackadep/internal/domain/entities"
)

// SpyDiffAnalyzer implements commands.DiffAnalyzer as a configurable spy.
type SpyDiffAnalyzer struct {
	mu sync.Mutex

	// --- AnalyzeCrateSourceDiff ---
	SourceDiff    entities.CrateSourceDiffReport
	SourceDiffErr error
	// spy: "name@version" keys analyzed
	SourceDiffCalls []string

	// --- AnalyzeVersionDiff ---
	VersionDiff    *entities.VersionDiffStats
	VersionDiffErr error
	VersionDiffCalls []string

	// --- Close ---
	CloseCalls int
}

var _ commands.DiffAnalyzer = (*SpyDiffAnalyzer)(nil)

func (s *SpyDiffAnalyzer) AnalyzeCrateSourceDiff(
	_ context.Context, name, version, _ string,
) (entities.CrateSourceDiffReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SourceDiffCalls = append(s.SourceDiffCalls, name+"@"+version)
	return s.SourceDiff, s.SourceDiffErr
}

func (s *SpyDiffAnalyzer) AnalyzeVersionDiff(
	_ context.Context, change entities.DependencyChangeInfo,
) (*entities.VersionDiffStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.VersionDiffCalls = append(s.VersionDiffCalls, change.Name+"@"+change.NewVersion)
	return s.VersionDiff, s.VersionDiffErr
}

func (s *SpyDiffAnalyzer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
}

// Factory returns a commands.DiffAnalyzerFactory handing out this spy.
func (s *SpyDiffAnalyzer) Factory() commands.DiffAnalyzerFactory {
	return func() (commands.DiffAnalyzer, error) {
		return s, nil
	}
}
