//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diem/whackadep/internal/domain/entities"
)

func TestUnsafeDelta(t *testing.T) {
	t.Parallel()

	t.Run("should equal post minus prior component-wise", func(t *testing.T) {
		t.Parallel()

		// given
		prior := entities.UnsafeCounters{Functions: 3, Expressions: 1}
		post := entities.UnsafeCounters{Functions: 1, Expressions: 4, Impls: 2}

		// when
		delta := post.Delta().Sub(prior.Delta())

		// then
		assert.Equal(t, entities.UnsafeDelta{Functions: -2, Expressions: 3, Impls: 2}, delta)
	})

	t.Run("should be zero for identical counters", func(t *testing.T) {
		t.Parallel()

		// given
		counters := entities.UnsafeCounters{Traits: 2, Methods: 5}

		// when / then
		assert.True(t, counters.Delta().Sub(counters.Delta()).IsZero())
	})
}

func TestClassifyUnsafeChange(t *testing.T) {
	t.Parallel()

	t.Run("should report no unsafe code when nothing was ever counted", func(t *testing.T) {
		t.Parallel()

		// given: prior = post = 0
		post := &entities.UnsafeCounters{}

		// when
		status := entities.ClassifyUnsafeChange(post, entities.UnsafeDelta{})

		// then
		assert.Equal(t, entities.NoUnsafeCode, status)
	})

	t.Run("should stay uncertain when counters did not move but unsafe remains", func(t *testing.T) {
		t.Parallel()

		// given: prior = post = 3
		post := &entities.UnsafeCounters{Expressions: 3}

		// when
		status := entities.ClassifyUnsafeChange(post, entities.UnsafeDelta{})

		// then
		assert.Equal(t, entities.Uncertain, status)
	})

	t.Run("should detect full removal of unsafe code", func(t *testing.T) {
		t.Parallel()

		// given: prior = 3, post = 0
		post := &entities.UnsafeCounters{}

		// when
		status := entities.ClassifyUnsafeChange(post, entities.UnsafeDelta{Expressions: -3})

		// then
		assert.Equal(t, entities.AllUnsafeCodeRemoved, status)
	})

	t.Run("should detect a modified counter", func(t *testing.T) {
		t.Parallel()

		// given: prior = 1, post = 3
		post := &entities.UnsafeCounters{Functions: 3}

		// when
		status := entities.ClassifyUnsafeChange(post, entities.UnsafeDelta{Functions: 2})

		// then
		assert.Equal(t, entities.UnsafeCounterModified, status)
	})

	t.Run("should classify a deleted file by its prior contents", func(t *testing.T) {
		t.Parallel()

		// when: deleting a safe file versus an unsafe one
		safe := entities.ClassifyUnsafeChange(nil, entities.UnsafeDelta{})
		unsafeGone := entities.ClassifyUnsafeChange(nil, entities.UnsafeDelta{Methods: -2})

		// then
		assert.Equal(t, entities.NoUnsafeCode, safe)
		assert.Equal(t, entities.AllUnsafeCodeRemoved, unsafeGone)
	})
}
