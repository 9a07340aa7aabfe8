package entities

// FileChangeKind mirrors the change status a tree diff assigns to a file.
type FileChangeKind string

const (
	FileAdded    FileChangeKind = "added"
	FileModified FileChangeKind = "modified"
	FileDeleted  FileChangeKind = "deleted"
)

// FileUnsafeChangeStatus classifies how a file's memory-safety opt-out
// footprint moved across a diff.
type FileUnsafeChangeStatus string

const (
	// UnsafeCounterModified: the unsafe counters changed and the post
	// state still contains unsafe code.
	UnsafeCounterModified FileUnsafeChangeStatus = "unsafe_counter_modified"
	// NoUnsafeCode: the file contained no unsafe code before or after.
	NoUnsafeCode FileUnsafeChangeStatus = "no_unsafe_code"
	// AllUnsafeCodeRemoved: unsafe code existed before and none remains.
	AllUnsafeCodeRemoved FileUnsafeChangeStatus = "all_unsafe_code_removed"
	// Uncertain: counters are unchanged but unsafe code remains; an
	// in-place edit inside an existing unsafe region is indistinguishable
	// from no change by counting alone.
	Uncertain FileUnsafeChangeStatus = "uncertain"
)

// UnsafeCounters counts occurrences of the unsafe keyword per syntactic
// position in a single file.
type UnsafeCounters struct {
	Functions   uint64 `json:"functions"`
	Expressions uint64 `json:"expressions"`
	Impls       uint64 `json:"impls"`
	Traits      uint64 `json:"traits"`
	Methods     uint64 `json:"methods"`
}

// HasUnsafe reports whether any counter is nonzero.
func (c UnsafeCounters) HasUnsafe() bool {
	return c.Functions > 0 || c.Expressions > 0 || c.Impls > 0 ||
		c.Traits > 0 || c.Methods > 0
}

// Delta returns the signed per-category difference of the counters.
func (c UnsafeCounters) Delta() UnsafeDelta {
	return UnsafeDelta{
		Functions:   int64(c.Functions),
		Expressions: int64(c.Expressions),
		Impls:       int64(c.Impls),
		Traits:      int64(c.Traits),
		Methods:     int64(c.Methods),
	}
}

// UnsafeDelta is the signed change in unsafe counters between two
// versions of a file.
type UnsafeDelta struct {
	Functions   int64 `json:"functions"`
	Expressions int64 `json:"expressions"`
	Impls       int64 `json:"impls"`
	Traits      int64 `json:"traits"`
	Methods     int64 `json:"methods"`
}

// Sub returns d - other component-wise.
func (d UnsafeDelta) Sub(other UnsafeDelta) UnsafeDelta {
	return UnsafeDelta{
		Functions:   d.Functions - other.Functions,
		Expressions: d.Expressions - other.Expressions,
		Impls:       d.Impls - other.Impls,
		Traits:      d.Traits - other.Traits,
		Methods:     d.Methods - other.Methods,
	}
}

// IsZero reports whether no category changed.
func (d UnsafeDelta) IsZero() bool {
	return d.Functions == 0 && d.Expressions == 0 && d.Impls == 0 &&
		d.Traits == 0 && d.Methods == 0
}

// FileUnsafeChangeStats is the per-file outcome of the unsafe-delta
// analysis for one diff-touched file.
type FileUnsafeChangeStats struct {
	File       string
	ChangeKind FileChangeKind
	Status     FileUnsafeChangeStatus
	Delta      UnsafeDelta
	// PostState holds the counters of the file after the change; nil for
	// a deleted file.
	PostState *UnsafeCounters
}

// ClassifyUnsafeChange derives the four-way status from a file's post
// state and its counter delta. PostState is nil for deleted files.
func ClassifyUnsafeChange(postState *UnsafeCounters, delta UnsafeDelta) FileUnsafeChangeStatus {
	if postState == nil {
		if delta.IsZero() {
			return NoUnsafeCode
		}
		return AllUnsafeCodeRemoved
	}
	switch {
	case delta.IsZero() && postState.HasUnsafe():
		return Uncertain
	case delta.IsZero():
		return NoUnsafeCode
	case postState.HasUnsafe():
		return UnsafeCounterModified
	default:
		return AllUnsafeCodeRemoved
	}
}
