//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/diem/whackadep/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// DependencyChangeBuilder helps create test dependency changes with a
// fluent interface.
type DependencyChangeBuilder struct {
	*testkit.BaseBuilder
	name       string
	repository string
	partition  entities.Partition
	oldVersion string
	newVersion string
	buildScripts []string
}

// NewDependencyChangeBuilder creates a new builder with sensible defaults.
func NewDependencyChangeBuilder() *DependencyChangeBuilder {
	return &DependencyChangeBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "test-crate",
		repository:  "https://github.com/test/test-crate",
		partition:   entities.PartitionTarget,
		oldVersion:  "1.0.0",
		newVersion:  "2.0.0",
	}
}

// WithName sets the package name.
func (b *DependencyChangeBuilder) WithName(name string) *DependencyChangeBuilder {
	b.name = name
	return b
}

// WithRepository sets the declared repository URL.
func (b *DependencyChangeBuilder) WithRepository(url string) *DependencyChangeBuilder {
	b.repository = url
	return b
}

// WithPartition sets the graph partition.
func (b *DependencyChangeBuilder) WithPartition(partition entities.Partition) *DependencyChangeBuilder {
	b.partition = partition
	return b
}

// WithOldVersion sets the prior version; empty encodes an addition.
func (b *DependencyChangeBuilder) WithOldVersion(version string) *DependencyChangeBuilder {
	b.oldVersion = version
	return b
}

// WithNewVersion sets the updated version; empty encodes a removal.
func (b *DependencyChangeBuilder) WithNewVersion(version string) *DependencyChangeBuilder {
	b.newVersion = version
	return b
}

// WithBuildScripts sets the union of declared build-script paths.
func (b *DependencyChangeBuilder) WithBuildScripts(paths ...string) *DependencyChangeBuilder {
	b.buildScripts = paths
	return b
}

// Build creates the change (satisfies testkit.Builder interface).
func (b *DependencyChangeBuilder) Build() interface{} {
	return b.BuildChange()
}

// BuildChange creates the change with a concrete return type.
func (b *DependencyChangeBuilder) BuildChange() entities.DependencyChangeInfo {
	return entities.DependencyChangeInfo{
		Name:             b.name,
		Repository:       b.repository,
		Partition:        b.partition,
		OldVersion:       b.oldVersion,
		NewVersion:       b.newVersion,
		BuildScriptPaths: b.buildScripts,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyChangeBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "test-crate"
	b.repository = "https://github.com/test/test-crate"
	b.partition = entities.PartitionTarget
	b.oldVersion = "1.0.0"
	b.newVersion = "2.0.0"
	b.buildScripts = nil
	return b
}

// Clone creates a deep copy of the DependencyChangeBuilder.
func (b *DependencyChangeBuilder) Clone() testkit.Builder {
	return &DependencyChangeBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:         b.name,
		repository:   b.repository,
		partition:    b.partition,
		oldVersion:   b.oldVersion,
		newVersion:   b.newVersion,
		buildScripts: append([]string(nil), b.buildScripts...),
	}
}
