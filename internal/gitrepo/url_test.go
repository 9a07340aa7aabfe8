//go:build unit

package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/gitrepo"
)

func TestTrimRemoteURL(t *testing.T) {
	t.Parallel()

	t.Run("should trim a monorepo subdirectory link to the repository root", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://github.com/facebookincubator/cargo-guppy/tree/main/guppy"

		// when
		trimmed, err := gitrepo.TrimRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/facebookincubator/cargo-guppy", trimmed)
	})

	t.Run("should strip a .git suffix", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://gitlab.com/group/project.git"

		// when
		trimmed, err := gitrepo.TrimRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://gitlab.com/group/project", trimmed)
	})

	t.Run("should reject a url without owner and repo", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://github.com/onlyowner"

		// when
		_, err := gitrepo.TrimRemoteURL(url)

		// then
		require.Error(t, err)
	})

	t.Run("should reject a url without a host", func(t *testing.T) {
		t.Parallel()

		// given
		url := "not-a-url"

		// when
		_, err := gitrepo.TrimRemoteURL(url)

		// then
		require.Error(t, err)
	})
}
