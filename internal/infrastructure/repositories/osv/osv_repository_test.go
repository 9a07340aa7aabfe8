//go:build unit

package osv_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/infrastructure/repositories/osv"
)

func TestOSVAdvisoryRepository(t *testing.T) {
	t.Parallel()

	t.Run("should map vulnerabilities including the withdrawn flag", func(t *testing.T) {
		t.Parallel()

		// given
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v1/query", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_, _ = w.Write([]byte(`{"vulns": [
				{"id": "RUSTSEC-2021-0073", "summary": "Buffer overflow",
				 "references": [{"type": "ADVISORY", "url": "https://rustsec.org/advisories/RUSTSEC-2021-0073"}]},
				{"id": "RUSTSEC-2020-0008", "summary": "Retracted", "withdrawn": "2021-03-04T00:00:00Z"}
			]}`))
		}))
		t.Cleanup(server.Close)
		repo := osv.NewOSVAdvisoryRepository(server.URL, 0)

		// when
		advisories, err := repo.GetAdvisories(context.Background(), "prost", "0.6.1")

		// then
		require.NoError(t, err)
		require.Len(t, advisories, 2)
		assert.Equal(t, "RUSTSEC-2021-0073", advisories[0].ID)
		assert.Equal(t, "https://rustsec.org/advisories/RUSTSEC-2021-0073", advisories[0].URL)
		assert.False(t, advisories[0].Withdrawn)
		assert.True(t, advisories[1].Withdrawn)

		pkg, ok := received["package"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "prost", pkg["name"])
		assert.Equal(t, "crates.io", pkg["ecosystem"])
		assert.Equal(t, "0.6.1", received["version"])
	})

	t.Run("should return an empty list when nothing is known", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(server.Close)
		repo := osv.NewOSVAdvisoryRepository(server.URL, 0)

		// when
		advisories, err := repo.GetAdvisories(context.Background(), "itoa", "1.0.0")

		// then
		require.NoError(t, err)
		assert.Empty(t, advisories)
	})

	t.Run("should surface server errors", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(server.Close)
		repo := osv.NewOSVAdvisoryRepository(server.URL, 0)

		// when
		_, err := repo.GetAdvisories(context.Background(), "serde", "1.0.0")

		// then
		require.Error(t, err)
	})
}
