//go:build unit

package cratesio_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/infrastructure/repositories/cratesio"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCratesIORegistryRepository(t *testing.T) {
	t.Parallel()

	t.Run("should fetch crate metadata", func(t *testing.T) {
		t.Parallel()

		// given
		server := newTestServer(t, map[string]string{
			"/api/v1/crates/serde": `{"crate": {"name": "serde", "downloads": 123456}}`,
		})
		repo := cratesio.NewCratesIORegistryRepository(server.URL, 0)

		// when
		meta, err := repo.GetCrateMetadata(context.Background(), "serde")

		// then
		require.NoError(t, err)
		assert.Equal(t, "serde", meta.Name)
		assert.Equal(t, uint64(123456), meta.Downloads)
	})

	t.Run("should fetch per version downloads", func(t *testing.T) {
		t.Parallel()

		// given
		server := newTestServer(t, map[string]string{
			"/api/v1/crates/serde/1.0.130": `{"version": {"num": "1.0.130", "downloads": 999}}`,
		})
		repo := cratesio.NewCratesIORegistryRepository(server.URL, 0)

		// when
		downloads, err := repo.GetVersionDownloads(context.Background(), "serde", "1.0.130")

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(999), downloads)
	})

	t.Run("should read the reverse dependents total from the page meta", func(t *testing.T) {
		t.Parallel()

		// given
		server := newTestServer(t, map[string]string{
			"/api/v1/crates/serde/reverse_dependencies": `{"dependencies": [], "meta": {"total": 31337}}`,
		})
		repo := cratesio.NewCratesIORegistryRepository(server.URL, 0)

		// when
		total, err := repo.GetReverseDependents(context.Background(), "serde")

		// then
		require.NoError(t, err)
		assert.Equal(t, uint64(31337), total)
	})

	t.Run("should stream the version tarball", func(t *testing.T) {
		t.Parallel()

		// given
		server := newTestServer(t, map[string]string{
			"/api/v1/crates/serde/1.0.130/download": "tarball-bytes",
		})
		repo := cratesio.NewCratesIORegistryRepository(server.URL, 0)

		// when
		stream, err := repo.DownloadVersionTarball(context.Background(), "serde", "1.0.130")

		// then
		require.NoError(t, err)
		defer stream.Close()
		body, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, "tarball-bytes", string(body))
	})

	t.Run("should surface an error for an unknown crate", func(t *testing.T) {
		t.Parallel()

		// given
		server := newTestServer(t, map[string]string{})
		repo := cratesio.NewCratesIORegistryRepository(server.URL, 0)

		// when
		_, err := repo.GetCrateMetadata(context.Background(), "definitely-not-a-crate")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}
