package entities

// DependencyChangeInfo describes one third-party package that differs
// between two resolved graphs. Exactly one of OldVersion/NewVersion is
// empty for an addition or a removal; both set means a version change.
type DependencyChangeInfo struct {
	Name             string
	Repository       string // declared repository URL, may be empty
	Partition        Partition
	OldVersion       string // empty when the dependency was added
	NewVersion       string // empty when the dependency was removed
	BuildScriptPaths []string
}

// IsUpdate reports whether the change is a strict version upgrade.
func (d *DependencyChangeInfo) IsUpdate() bool {
	return d.OldVersion != "" && d.NewVersion != "" &&
		CompareVersions(d.NewVersion, d.OldVersion) > 0
}

// IsAddition reports whether the package is new in the post graph.
func (d *DependencyChangeInfo) IsAddition() bool {
	return d.OldVersion == "" && d.NewVersion != ""
}

// IsRemoval reports whether the package left the graph.
func (d *DependencyChangeInfo) IsRemoval() bool {
	return d.OldVersion != "" && d.NewVersion == ""
}

// VersionConflict flags an internally inconsistent upgrade: the post
// graph pins a package directly at one version while carrying a
// transitive copy at another.
type VersionConflict struct {
	Name              string
	DirectVersion     string
	TransitiveVersion string
}
