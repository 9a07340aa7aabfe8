package entities

// PackageSource tells where a resolved package's sources come from.
type PackageSource string

const (
	SourceRegistry PackageSource = "registry"
	SourceVCS      PackageSource = "vcs"
	SourceLocal    PackageSource = "local"
)

// Partition splits the resolved graph into the build-time (host) and
// run-time (target) package sets.
type Partition string

const (
	PartitionHost   Partition = "host"
	PartitionTarget Partition = "target"
)

// Partitions lists every partition in a stable order.
func Partitions() []Partition {
	return []Partition{PartitionHost, PartitionTarget}
}

// ResolutionOptions fixes how a dependency graph is resolved. Two
// graphs are only comparable when resolved under identical options.
type ResolutionOptions struct {
	ResolverVersion int
	IncludeDev      bool
	AllFeatures     bool
}

// DefaultResolutionOptions matches the resolution used for reviews:
// resolver v2, dev-dependencies included, every feature enabled.
func DefaultResolutionOptions() ResolutionOptions {
	return ResolutionOptions{
		ResolverVersion: 2,
		IncludeDev:      true,
		AllFeatures:     true,
	}
}

// PackageRecord is one resolved package. The same name may appear more
// than once when the resolver kept several versions alive.
type PackageRecord struct {
	Name             string
	Version          string
	Source           PackageSource
	Direct           bool
	Repository       string
	ManifestPath     string
	BuildScriptPaths []string
	Partitions       []Partition
}

// InPartition reports whether the package belongs to the partition.
func (p *PackageRecord) InPartition(partition Partition) bool {
	for _, candidate := range p.Partitions {
		if candidate == partition {
			return true
		}
	}
	return false
}

// ResolvedGraph is the flattened outcome of one dependency resolution.
type ResolvedGraph struct {
	Packages []PackageRecord
}

// FindPackage returns the first package with the given name, or nil.
func (g *ResolvedGraph) FindPackage(name string) *PackageRecord {
	for i := range g.Packages {
		if g.Packages[i].Name == name {
			return &g.Packages[i]
		}
	}
	return nil
}

// DirectPackages returns the packages the project declares itself.
func (g *ResolvedGraph) DirectPackages() []PackageRecord {
	var direct []PackageRecord
	for _, pkg := range g.Packages {
		if pkg.Direct {
			direct = append(direct, pkg)
		}
	}
	return direct
}
