//go:build unit

package commands_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/domain/commands"
	"github.com/diem/whackadep/internal/domain/entities"
	"github.com/diem/whackadep/test/domain/entitybuilders"
	repoDoubles "github.com/diem/whackadep/test/infrastructure/repositorydoubles"
)

func newEngineAnalyzer(t *testing.T, registry *repoDoubles.SpyRegistryRepository) commands.DiffAnalyzer {
	t.Helper()
	factory := commands.NewEngineAnalyzerFactory(registry, &repoDoubles.SpyGraphRepository{})
	analyzer, err := factory()
	require.NoError(t, err)
	t.Cleanup(analyzer.Close)
	return analyzer
}

func crateTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func pairedRegistry(t *testing.T) *repoDoubles.SpyRegistryRepository {
	t.Helper()
	return &repoDoubles.SpyRegistryRepository{
		Tarballs: map[string][]byte{
			"pkg@1.0.0": crateTarGz(t, map[string]string{
				"pkg-1.0.0/Cargo.toml": "[package]\nname = \"pkg\"\n",
				"pkg-1.0.0/src/lib.rs": "pub fn add(a: u32, b: u32) -> u32 {\n    a + b\n}\n",
				"pkg-1.0.0/build.rs":   "fn main() {}\n",
			}),
			"pkg@2.0.0": crateTarGz(t, map[string]string{
				"pkg-2.0.0/Cargo.toml": "[package]\nname = \"pkg\"\n",
				"pkg-2.0.0/src/lib.rs": "pub fn add(a: u32, b: u32) -> u32 {\n    unsafe { a.unchecked_add(b) }\n}\n",
				"pkg-2.0.0/build.rs":   "fn main() {\n    println!(\"cargo:rerun-if-changed=src/lib.rs\");\n}\n",
			}),
		},
	}
}

func pairedChange() entities.DependencyChangeInfo {
	return entitybuilders.NewDependencyChangeBuilder().
		WithName("pkg").
		WithBuildScripts("build.rs").
		BuildChange()
}

func TestEngineAnalyzerAnalyzeVersionDiff(t *testing.T) {
	t.Parallel()

	t.Run("should diff the two registry tarballs when both download", func(t *testing.T) {
		t.Parallel()

		// given: both published archives are available; the declared
		// repository must never be needed
		registry := pairedRegistry(t)
		analyzer := newEngineAnalyzer(t, registry)

		// when
		stats, err := analyzer.AnalyzeVersionDiff(context.Background(), pairedChange())

		// then
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, []string{"pkg@1.0.0", "pkg@2.0.0"}, registry.TarballCalls)
		assert.Equal(t, uint64(2), stats.FilesChanged)
		assert.Equal(t, uint64(2), stats.ScannedFilesChanged)
		assert.NotZero(t, stats.Insertions)
		assert.Equal(t, []string{"build.rs"}, stats.ModifiedBuildScripts)

		require.Len(t, stats.UnsafeFileChanged, 1)
		unsafeChange := stats.UnsafeFileChanged[0]
		assert.Equal(t, "src/lib.rs", unsafeChange.File)
		assert.Equal(t, entities.UnsafeCounterModified, unsafeChange.Status)
		require.NotNil(t, unsafeChange.PostState)
		assert.Equal(t, uint64(1), unsafeChange.PostState.Expressions)
	})

	t.Run("should reuse unpacked tarballs across repeated analyses", func(t *testing.T) {
		t.Parallel()

		// given
		registry := pairedRegistry(t)
		analyzer := newEngineAnalyzer(t, registry)
		change := pairedChange()

		// when
		first, err := analyzer.AnalyzeVersionDiff(context.Background(), change)
		require.NoError(t, err)
		second, err := analyzer.AnalyzeVersionDiff(context.Background(), change)

		// then: each version downloaded once, same outcome both times
		require.NoError(t, err)
		require.NotNil(t, second)
		assert.Equal(t, first, second)
		assert.Len(t, registry.TarballCalls, 2)
	})

	t.Run("should yield no stats when no source is available at all", func(t *testing.T) {
		t.Parallel()

		// given: no archives and no declared repository
		analyzer := newEngineAnalyzer(t, &repoDoubles.SpyRegistryRepository{})
		change := entitybuilders.NewDependencyChangeBuilder().
			WithName("pkg").
			WithRepository("").
			BuildChange()

		// when
		stats, err := analyzer.AnalyzeVersionDiff(context.Background(), change)

		// then
		require.NoError(t, err)
		assert.Nil(t, stats)
	})
}
