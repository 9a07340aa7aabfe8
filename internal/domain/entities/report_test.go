//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diem/whackadep/internal/domain/entities"
)

func TestActiveAdvisories(t *testing.T) {
	t.Parallel()

	t.Run("should keep only advisories that were never withdrawn", func(t *testing.T) {
		t.Parallel()

		// given
		advisories := []entities.Advisory{
			{ID: "RUSTSEC-2021-0073", Withdrawn: false},
			{ID: "RUSTSEC-2020-0008", Withdrawn: true},
			{ID: "RUSTSEC-2022-0001", Withdrawn: false},
		}

		// when
		active := entities.ActiveAdvisories(advisories)

		// then
		require.Len(t, active, 2)
		assert.Equal(t, "RUSTSEC-2021-0073", active[0].ID)
		assert.Equal(t, "RUSTSEC-2022-0001", active[1].ID)
	})

	t.Run("should return nothing for an empty list", func(t *testing.T) {
		t.Parallel()

		// then
		assert.Empty(t, entities.ActiveAdvisories(nil))
	})
}
