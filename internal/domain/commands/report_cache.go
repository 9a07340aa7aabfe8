package commands

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/diem/whackadep/internal/domain/entities"
)

// ReportCache memoizes finished per-dependency reviews keyed by the
// (name, old version, new version) triple. Reads hand out an owned
// copy so callers can mutate a report without poisoning the cache.
type ReportCache struct {
	store *gocache.Cache
}

// NewReportCache creates an empty cache whose entries never expire.
func NewReportCache() *ReportCache {
	return &ReportCache{store: gocache.New(gocache.NoExpiration, gocache.NoExpiration)}
}

func reviewKey(name, oldVersion, newVersion string) string {
	return name + "@" + oldVersion + "->" + newVersion
}

// Get returns a copy of the cached review for the triple, if present.
func (it *ReportCache) Get(name, oldVersion, newVersion string) (*entities.DepUpdateReviewReport, bool) {
	value, found := it.store.Get(reviewKey(name, oldVersion, newVersion))
	if !found {
		return nil, false
	}
	report, ok := value.(entities.DepUpdateReviewReport)
	if !ok {
		return nil, false
	}
	owned := copyReport(report)
	return &owned, true
}

// Put stores a copy of the review under the triple.
func (it *ReportCache) Put(name, oldVersion, newVersion string, report entities.DepUpdateReviewReport) {
	it.store.SetDefault(reviewKey(name, oldVersion, newVersion), copyReport(report))
}

func copyReport(report entities.DepUpdateReviewReport) entities.DepUpdateReviewReport {
	report.PriorVersion = copyVersionInfo(report.PriorVersion)
	report.UpdatedVersion = copyVersionInfo(report.UpdatedVersion)
	if report.DiffStats != nil {
		stats := *report.DiffStats
		stats.ModifiedBuildScripts = append([]string(nil), stats.ModifiedBuildScripts...)
		stats.UnsafeFileChanged = append([]entities.FileUnsafeChangeStats(nil), stats.UnsafeFileChanged...)
		for i := range stats.UnsafeFileChanged {
			if state := stats.UnsafeFileChanged[i].PostState; state != nil {
				owned := *state
				stats.UnsafeFileChanged[i].PostState = &owned
			}
		}
		report.DiffStats = &stats
	}
	return report
}

func copyVersionInfo(info entities.VersionInfo) entities.VersionInfo {
	info.KnownAdvisories = append([]entities.Advisory(nil), info.KnownAdvisories...)
	info.CrateSourceDiff.ReleaseCommitFound = copyBoolPtr(info.CrateSourceDiff.ReleaseCommitFound)
	info.CrateSourceDiff.ReleaseCommitAnalyzed = copyBoolPtr(info.CrateSourceDiff.ReleaseCommitAnalyzed)
	info.CrateSourceDiff.IsDifferent = copyBoolPtr(info.CrateSourceDiff.IsDifferent)
	if info.CrateSourceDiff.FileDiffStats != nil {
		owned := *info.CrateSourceDiff.FileDiffStats
		info.CrateSourceDiff.FileDiffStats = &owned
	}
	return info
}

func copyBoolPtr(value *bool) *bool {
	if value == nil {
		return nil
	}
	owned := *value
	return &owned
}
