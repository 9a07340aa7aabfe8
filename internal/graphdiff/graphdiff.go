// Package graphdiff compares two resolved dependency graphs and
// reports added, removed and version-changed packages per partition,
// plus direct/transitive version conflicts in the post graph.
package graphdiff

import (
	"sort"

	"github.com/diem/whackadep/internal/domain/entities"
)

// Compare diffs the prior graph against the post graph. Output is
// sorted by partition, name and versions so identical graphs always
// produce an identical change list regardless of input order.
func Compare(prior, post *entities.ResolvedGraph) []entities.DependencyChangeInfo {
	var changes []entities.DependencyChangeInfo
	for _, partition := range entities.Partitions() {
		changes = append(changes, comparePartition(prior, post, partition)...)
	}

	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Partition != b.Partition {
			return a.Partition < b.Partition
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.OldVersion != b.OldVersion {
			return a.OldVersion < b.OldVersion
		}
		return a.NewVersion < b.NewVersion
	})
	return changes
}

func comparePartition(
	prior, post *entities.ResolvedGraph,
	partition entities.Partition,
) []entities.DependencyChangeInfo {
	priorVersions := versionsByName(prior, partition)
	postVersions := versionsByName(post, partition)

	var changes []entities.DependencyChangeInfo
	for _, name := range unionNames(priorVersions, postVersions) {
		removed, added := disjointVersions(priorVersions[name], postVersions[name])
		if len(removed) == 0 && len(added) == 0 {
			continue
		}

		repository := firstRepository(name, prior, post)
		buildScripts := unionBuildScripts(name, prior, post)

		// Pair old and new versions in ascending order; the unpaired
		// tail on either side encodes pure removals or additions.
		for i := 0; i < len(removed) || i < len(added); i++ {
			change := entities.DependencyChangeInfo{
				Name:             name,
				Repository:       repository,
				Partition:        partition,
				BuildScriptPaths: buildScripts,
			}
			if i < len(removed) {
				change.OldVersion = removed[i]
			}
			if i < len(added) {
				change.NewVersion = added[i]
			}
			changes = append(changes, change)
		}
	}
	return changes
}

// versionsByName collects the distinct versions of every package that
// lives in the partition.
func versionsByName(graph *entities.ResolvedGraph, partition entities.Partition) map[string]map[string]bool {
	versions := make(map[string]map[string]bool)
	for i := range graph.Packages {
		pkg := &graph.Packages[i]
		if !pkg.InPartition(partition) {
			continue
		}
		if versions[pkg.Name] == nil {
			versions[pkg.Name] = make(map[string]bool)
		}
		versions[pkg.Name][pkg.Version] = true
	}
	return versions
}

func unionNames(a, b map[string]map[string]bool) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for name := range a {
		seen[name] = true
	}
	for name := range b {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// disjointVersions drops the versions both sides share and returns the
// remainder of each side in ascending version order.
func disjointVersions(prior, post map[string]bool) (removed, added []string) {
	for version := range prior {
		if !post[version] {
			removed = append(removed, version)
		}
	}
	for version := range post {
		if !prior[version] {
			added = append(added, version)
		}
	}
	sortVersions(removed)
	sortVersions(added)
	return removed, added
}

func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return entities.CompareVersions(versions[i], versions[j]) < 0
	})
}

// firstRepository returns the first declared repository URL found for
// the package, searching the prior graph before the post graph since
// removed packages only exist in the prior one.
func firstRepository(name string, prior, post *entities.ResolvedGraph) string {
	for _, graph := range []*entities.ResolvedGraph{prior, post} {
		for i := range graph.Packages {
			pkg := &graph.Packages[i]
			if pkg.Name == name && pkg.Repository != "" {
				return pkg.Repository
			}
		}
	}
	return ""
}

// unionBuildScripts merges the build-script paths declared wherever
// the package is present, deduplicated and sorted.
func unionBuildScripts(name string, prior, post *entities.ResolvedGraph) []string {
	seen := make(map[string]bool)
	for _, graph := range []*entities.ResolvedGraph{prior, post} {
		for i := range graph.Packages {
			pkg := &graph.Packages[i]
			if pkg.Name != name {
				continue
			}
			for _, script := range pkg.BuildScriptPaths {
				seen[script] = true
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	scripts := make([]string, 0, len(seen))
	for script := range seen {
		scripts = append(scripts, script)
	}
	sort.Strings(scripts)
	return scripts
}

// DetermineVersionConflicts flags changes whose new version disagrees
// with an explicit direct pin in the post graph. Such a split usually
// means an upgrade moved a transitive copy while the direct dependency
// stayed behind.
func DetermineVersionConflicts(
	changes []entities.DependencyChangeInfo,
	post *entities.ResolvedGraph,
) []entities.VersionConflict {
	directVersions := make(map[string]string)
	for _, pkg := range post.DirectPackages() {
		directVersions[pkg.Name] = pkg.Version
	}

	seen := make(map[entities.VersionConflict]bool)
	var conflicts []entities.VersionConflict
	for _, change := range changes {
		if change.NewVersion == "" {
			continue
		}
		direct, ok := directVersions[change.Name]
		if !ok || direct == change.NewVersion {
			continue
		}
		conflict := entities.VersionConflict{
			Name:              change.Name,
			DirectVersion:     direct,
			TransitiveVersion: change.NewVersion,
		}
		if seen[conflict] {
			continue
		}
		seen[conflict] = true
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}
