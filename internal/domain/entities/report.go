package entities

// Advisory is one security advisory published against a package version.
type Advisory struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Withdrawn bool   `json:"withdrawn"`
}

// ActiveAdvisories returns the advisories that have not been withdrawn.
// Withdrawn advisories never surface in a review.
func ActiveAdvisories(advisories []Advisory) []Advisory {
	var active []Advisory
	for _, advisory := range advisories {
		if !advisory.Withdrawn {
			active = append(active, advisory)
		}
	}
	return active
}

// FileDiffStats aggregates the file-level churn between a published
// registry version and its upstream source tree.
type FileDiffStats struct {
	FilesAdded    uint64 `json:"files_added"`
	FilesModified uint64 `json:"files_modified"`
	FilesDeleted  uint64 `json:"files_deleted"`
}

// CrateSourceDiffReport captures whether the registry-hosted source for
// a version matches the version-control source it claims to come from.
// The boolean pointers stay nil when the corresponding step never ran,
// so "unknown" is distinguishable from "false".
type CrateSourceDiffReport struct {
	Name                  string         `json:"name"`
	Version               string         `json:"version"`
	ReleaseCommitFound    *bool          `json:"release_commit_found,omitempty"`
	ReleaseCommitAnalyzed *bool          `json:"release_commit_analyzed,omitempty"`
	IsDifferent           *bool          `json:"is_different,omitempty"`
	FileDiffStats         *FileDiffStats `json:"file_diff_stats,omitempty"`
}

// VersionInfo is the enriched view of one published version of a package.
type VersionInfo struct {
	Name             string                `json:"name"`
	Version          string                `json:"version"`
	Downloads        uint64                `json:"downloads"`
	CrateSourceDiff  CrateSourceDiffReport `json:"crate_source_diff"`
	KnownAdvisories  []Advisory            `json:"known_advisories"`
	ReverseDependents uint64               `json:"reverse_dependents"`
}

// VersionDiffStats summarizes the source change between two versions of
// one package.
type VersionDiffStats struct {
	FilesChanged        uint64                  `json:"files_changed"`
	ScannedFilesChanged uint64                  `json:"scanned_files_changed"`
	Insertions          uint64                  `json:"insertions"`
	Deletions           uint64                  `json:"deletions"`
	ModifiedBuildScripts []string               `json:"modified_build_scripts"`
	UnsafeFileChanged   []FileUnsafeChangeStats `json:"unsafe_file_changed"`
}

// DepUpdateReviewReport is the full review of a single dependency
// upgrade. DiffStats is nil when no source diff could be computed.
type DepUpdateReviewReport struct {
	Name           string            `json:"name"`
	CrateDownloads uint64            `json:"crate_downloads"`
	PriorVersion   VersionInfo       `json:"prior_version"`
	UpdatedVersion VersionInfo       `json:"updated_version"`
	DiffStats      *VersionDiffStats `json:"diff_stats,omitempty"`
}

// UpdateReviewReport is the envelope a whole prior/post comparison
// produces: one review per true upgrade plus graph-wide conflicts.
type UpdateReviewReport struct {
	DepUpdateReviewReports []DepUpdateReviewReport `json:"dep_update_review_reports"`
	VersionConflicts       []VersionConflict       `json:"version_conflicts"`
}
