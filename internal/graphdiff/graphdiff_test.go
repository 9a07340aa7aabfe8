//go:build unit

package graphdiff_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/internal/graphdiff"
)

func graphOf(packages ...entities.PackageRecord) *entities.ResolvedGraph {
	return &entities.ResolvedGraph{Packages: packages}
}

func targetPkg(name, version string) entities.PackageRecord {
	return entities.PackageRecord{
		Name:       name,
		Version:    version,
		Source:     entities.SourceRegistry,
		Partitions: []entities.Partition{entities.PartitionTarget},
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("should pair an old and a new version into one update", func(t *testing.T) {
		t.Parallel()

		// given
		prior := graphOf(targetPkg("serde", "1.0.100"), targetPkg("rand", "0.8.0"))
		post := graphOf(targetPkg("serde", "1.0.130"), targetPkg("rand", "0.8.0"))

		// when
		changes := graphdiff.Compare(prior, post)

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, "serde", changes[0].Name)
		assert.Equal(t, "1.0.100", changes[0].OldVersion)
		assert.Equal(t, "1.0.130", changes[0].NewVersion)
		assert.True(t, changes[0].IsUpdate())
	})

	t.Run("should encode additions and removals by an absent version", func(t *testing.T) {
		t.Parallel()

		// given
		prior := graphOf(targetPkg("left-pad", "1.0.0"))
		post := graphOf(targetPkg("itoa", "1.0.0"))

		// when
		changes := graphdiff.Compare(prior, post)

		// then
		require.Len(t, changes, 2)
		assert.True(t, changes[0].IsAddition())
		assert.Equal(t, "itoa", changes[0].Name)
		assert.True(t, changes[1].IsRemoval())
		assert.Equal(t, "left-pad", changes[1].Name)
	})

	t.Run("should diff partitions independently", func(t *testing.T) {
		t.Parallel()

		// given
		both := entities.PackageRecord{
			Name:       "cc",
			Version:    "1.0.0",
			Partitions: []entities.Partition{entities.PartitionHost},
		}
		upgraded := both
		upgraded.Version = "1.1.0"
		prior := graphOf(both, targetPkg("serde", "1.0.100"))
		post := graphOf(upgraded, targetPkg("serde", "1.0.100"))

		// when
		changes := graphdiff.Compare(prior, post)

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, entities.PartitionHost, changes[0].Partition)
		assert.Equal(t, "cc", changes[0].Name)
	})

	t.Run("should take the repository from the prior graph first", func(t *testing.T) {
		t.Parallel()

		// given
		removed := targetPkg("gone", "0.3.0")
		removed.Repository = "https://github.com/example/gone"

		// when
		changes := graphdiff.Compare(graphOf(removed), graphOf())

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, "https://github.com/example/gone", changes[0].Repository)
	})

	t.Run("should union build script paths across both graphs", func(t *testing.T) {
		t.Parallel()

		// given
		old := targetPkg("ring", "0.16.0")
		old.BuildScriptPaths = []string{"build.rs"}
		updated := targetPkg("ring", "0.17.0")
		updated.BuildScriptPaths = []string{"build.rs", "build/extra.rs"}

		// when
		changes := graphdiff.Compare(graphOf(old), graphOf(updated))

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, []string{"build.rs", "build/extra.rs"}, changes[0].BuildScriptPaths)
	})

	t.Run("should produce the same change set regardless of input order", func(t *testing.T) {
		t.Parallel()

		// given
		var priorPkgs, postPkgs []entities.PackageRecord
		for _, name := range []string{"alpha", "beta", "gamma", "delta"} {
			priorPkgs = append(priorPkgs, targetPkg(name, "1.0.0"))
			postPkgs = append(postPkgs, targetPkg(name, "2.0.0"))
		}
		reference := graphdiff.Compare(graphOf(priorPkgs...), graphOf(postPkgs...))

		// when
		shuffled := rand.New(rand.NewSource(42))
		shuffled.Shuffle(len(priorPkgs), func(i, j int) {
			priorPkgs[i], priorPkgs[j] = priorPkgs[j], priorPkgs[i]
		})
		shuffled.Shuffle(len(postPkgs), func(i, j int) {
			postPkgs[i], postPkgs[j] = postPkgs[j], postPkgs[i]
		})
		changes := graphdiff.Compare(graphOf(priorPkgs...), graphOf(postPkgs...))

		// then
		assert.Equal(t, reference, changes)
	})

	t.Run("should report nothing for identical graphs", func(t *testing.T) {
		t.Parallel()

		// given
		graph := graphOf(targetPkg("serde", "1.0.100"), targetPkg("rand", "0.8.0"))

		// when
		changes := graphdiff.Compare(graph, graph)

		// then
		assert.Empty(t, changes)
	})
}

func TestDetermineVersionConflicts(t *testing.T) {
	t.Parallel()

	t.Run("should flag a direct pin lagging behind a transitive copy", func(t *testing.T) {
		t.Parallel()

		// given
		direct := targetPkg("pkg-a", "1.0.0")
		direct.Direct = true
		transitive := targetPkg("pkg-a", "2.0.0")
		post := graphOf(direct, transitive)
		changes := []entities.DependencyChangeInfo{{
			Name:       "pkg-a",
			Partition:  entities.PartitionTarget,
			OldVersion: "1.9.0",
			NewVersion: "2.0.0",
		}}

		// when
		conflicts := graphdiff.DetermineVersionConflicts(changes, post)

		// then
		require.Len(t, conflicts, 1)
		assert.Equal(t, entities.VersionConflict{
			Name:              "pkg-a",
			DirectVersion:     "1.0.0",
			TransitiveVersion: "2.0.0",
		}, conflicts[0])
	})

	t.Run("should stay silent when the direct pin matches", func(t *testing.T) {
		t.Parallel()

		// given
		direct := targetPkg("pkg-a", "2.0.0")
		direct.Direct = true
		post := graphOf(direct)
		changes := []entities.DependencyChangeInfo{{
			Name:       "pkg-a",
			OldVersion: "1.9.0",
			NewVersion: "2.0.0",
		}}

		// when
		conflicts := graphdiff.DetermineVersionConflicts(changes, post)

		// then
		assert.Empty(t, conflicts)
	})

	t.Run("should ignore removals", func(t *testing.T) {
		t.Parallel()

		// given
		direct := targetPkg("pkg-a", "1.0.0")
		direct.Direct = true
		post := graphOf(direct)
		changes := []entities.DependencyChangeInfo{{
			Name:       "pkg-a",
			OldVersion: "0.9.0",
		}}

		// when
		conflicts := graphdiff.DetermineVersionConflicts(changes, post)

		// then
		assert.Empty(t, conflicts)
	})
}
