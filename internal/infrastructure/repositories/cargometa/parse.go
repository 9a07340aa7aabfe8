package cargometa

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/diem/whackadep/internal/domain/entities"
)

const (
	kindNormal = ""
	kindDev    = "dev"
	kindBuild  = "build"

	targetCustomBuild = "custom-build"
	targetProcMacro   = "proc-macro"
)

type metadataJSON struct {
	Packages         []packageJSON `json:"packages"`
	WorkspaceMembers []string      `json:"workspace_members"`
	Resolve          *resolveJSON  `json:"resolve"`
}

type packageJSON struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Source       string       `json:"source"` // null for workspace/path packages
	ManifestPath string       `json:"manifest_path"`
	Repository   string       `json:"repository"`
	Targets      []targetJSON `json:"targets"`
}

type targetJSON struct {
	Kind    []string `json:"kind"`
	SrcPath string   `json:"src_path"`
}

type resolveJSON struct {
	Nodes []nodeJSON `json:"nodes"`
}

type nodeJSON struct {
	ID   string    `json:"id"`
	Deps []depJSON `json:"deps"`
}

type depJSON struct {
	Pkg      string        `json:"pkg"`
	DepKinds []depKindJSON `json:"dep_kinds"`
}

type depKindJSON struct {
	Kind string `json:"kind"` // null for a normal dependency
}

// ParseMetadata parses `cargo metadata --format-version 1` output into
// a resolved graph. Packages reachable through a build-dependency edge
// land in the host partition, everything else keeps its parent's
// partition; dev edges only exist on workspace members and are dropped
// when opts.IncludeDev is false.
func ParseMetadata(data []byte, opts entities.ResolutionOptions) (*entities.ResolvedGraph, error) {
	var meta metadataJSON
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse cargo metadata: %w", err)
	}
	if meta.Resolve == nil {
		return nil, fmt.Errorf("cargo metadata carries no resolve graph")
	}

	packagesByID := make(map[string]*packageJSON, len(meta.Packages))
	for i := range meta.Packages {
		packagesByID[meta.Packages[i].ID] = &meta.Packages[i]
	}
	nodesByID := make(map[string]*nodeJSON, len(meta.Resolve.Nodes))
	for i := range meta.Resolve.Nodes {
		nodesByID[meta.Resolve.Nodes[i].ID] = &meta.Resolve.Nodes[i]
	}
	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}

	partitions := traversePartitions(meta, packagesByID, nodesByID, members, opts)
	direct := directDependencies(nodesByID, members, opts)

	graph := &entities.ResolvedGraph{}
	for _, pkg := range meta.Packages {
		inPartitions := partitions[pkg.ID]
		if len(inPartitions) == 0 {
			continue // never reached from a workspace member
		}
		graph.Packages = append(graph.Packages, entities.PackageRecord{
			Name:             pkg.Name,
			Version:          pkg.Version,
			Source:           packageSource(pkg.Source),
			Direct:           direct[pkg.ID],
			Repository:       pkg.Repository,
			ManifestPath:     pkg.ManifestPath,
			BuildScriptPaths: buildScriptPaths(&pkg),
			Partitions:       sortedPartitions(inPartitions),
		})
	}

	sort.Slice(graph.Packages, func(i, j int) bool {
		a, b := graph.Packages[i], graph.Packages[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return entities.CompareVersions(a.Version, b.Version) < 0
	})
	return graph, nil
}

type visit struct {
	id        string
	partition entities.Partition
}

// traversePartitions walks the resolve graph from the workspace
// members, assigning each reachable package to the host or target
// partition. A package pulled in both ways belongs to both.
func traversePartitions(
	meta metadataJSON,
	packagesByID map[string]*packageJSON,
	nodesByID map[string]*nodeJSON,
	members map[string]bool,
	opts entities.ResolutionOptions,
) map[string]map[entities.Partition]bool {
	seen := make(map[string]map[entities.Partition]bool)
	mark := func(id string, partition entities.Partition) bool {
		if seen[id] == nil {
			seen[id] = make(map[entities.Partition]bool)
		}
		if seen[id][partition] {
			return false
		}
		seen[id][partition] = true
		return true
	}

	var queue []visit
	for _, id := range meta.WorkspaceMembers {
		if mark(id, entities.PartitionTarget) {
			queue = append(queue, visit{id: id, partition: entities.PartitionTarget})
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := nodesByID[current.id]
		if node == nil {
			continue
		}
		for _, dep := range node.Deps {
			for _, kind := range depKinds(dep) {
				if kind == kindDev && (!opts.IncludeDev || !members[current.id]) {
					continue
				}
				partition := current.partition
				if kind == kindBuild || isProcMacro(packagesByID[dep.Pkg]) {
					partition = entities.PartitionHost
				}
				if mark(dep.Pkg, partition) {
					queue = append(queue, visit{id: dep.Pkg, partition: partition})
				}
			}
		}
	}
	return seen
}

// directDependencies flags every package a workspace member depends on
// itself.
func directDependencies(
	nodesByID map[string]*nodeJSON,
	members map[string]bool,
	opts entities.ResolutionOptions,
) map[string]bool {
	direct := make(map[string]bool)
	for id, node := range nodesByID {
		if !members[id] {
			continue
		}
		for _, dep := range node.Deps {
			for _, kind := range depKinds(dep) {
				if kind == kindDev && !opts.IncludeDev {
					continue
				}
				if !members[dep.Pkg] {
					direct[dep.Pkg] = true
				}
			}
		}
	}
	return direct
}

func depKinds(dep depJSON) []string {
	if len(dep.DepKinds) == 0 {
		return []string{kindNormal}
	}
	kinds := make([]string, 0, len(dep.DepKinds))
	for _, depKind := range dep.DepKinds {
		kinds = append(kinds, depKind.Kind)
	}
	return kinds
}

func isProcMacro(pkg *packageJSON) bool {
	if pkg == nil {
		return false
	}
	for _, target := range pkg.Targets {
		for _, kind := range target.Kind {
			if kind == targetProcMacro {
				return true
			}
		}
	}
	return false
}

// buildScriptPaths lists the package's build scripts relative to its
// manifest directory, so they line up with scoped tree-diff paths.
func buildScriptPaths(pkg *packageJSON) []string {
	var paths []string
	manifestDir := filepath.Dir(pkg.ManifestPath)
	for _, target := range pkg.Targets {
		for _, kind := range target.Kind {
			if kind != targetCustomBuild {
				continue
			}
			rel, err := filepath.Rel(manifestDir, target.SrcPath)
			if err != nil {
				rel = target.SrcPath
			}
			paths = append(paths, filepath.ToSlash(rel))
			break
		}
	}
	sort.Strings(paths)
	return paths
}

func packageSource(source string) entities.PackageSource {
	switch {
	case source == "":
		return entities.SourceLocal
	case len(source) >= 4 && source[:4] == "git+":
		return entities.SourceVCS
	default:
		return entities.SourceRegistry
	}
}

func sortedPartitions(set map[entities.Partition]bool) []entities.Partition {
	var partitions []entities.Partition
	for _, partition := range entities.Partitions() {
		if set[partition] {
			partitions = append(partitions, partition)
		}
	}
	return partitions
}
