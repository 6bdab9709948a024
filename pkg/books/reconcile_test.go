package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileTags(t *testing.T) {
	t.Parallel()

	t.Run("computes the minimal diff", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags([]int{1, 2, 3}, []int{2, 3, 4})
		assert.Equal(t, []int{4}, toAdd)
		assert.Equal(t, []int{1}, toRemove)
	})

	t.Run("unchanged set produces no writes", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags([]int{5, 6}, []int{6, 5})
		assert.Empty(t, toAdd)
		assert.Empty(t, toRemove)
	})

	t.Run("empty desired set removes everything", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags([]int{1, 2}, nil)
		assert.Empty(t, toAdd)
		assert.Equal(t, []int{1, 2}, toRemove)
	})

	t.Run("empty existing set adds everything", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags(nil, []int{3, 1, 2})
		assert.Equal(t, []int{1, 2, 3}, toAdd)
		assert.Empty(t, toRemove)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags([]int{1, 1, 2}, []int{2, 2, 3, 3})
		assert.Equal(t, []int{3}, toAdd)
		assert.Equal(t, []int{1}, toRemove)
	})

	t.Run("applying the diff makes a second reconcile a no-op", func(t *testing.T) {
		t.Parallel()
		existing := []int{1, 2, 3}
		desired := []int{2, 3, 4}

		toAdd, toRemove := ReconcileTags(existing, desired)

		next := applyDiff(existing, toAdd, toRemove)
		toAdd, toRemove = ReconcileTags(next, desired)
		assert.Empty(t, toAdd)
		assert.Empty(t, toRemove)
	})

	t.Run("add and remove sets are disjoint", func(t *testing.T) {
		t.Parallel()
		toAdd, toRemove := ReconcileTags([]int{1, 2, 3, 4}, []int{3, 4, 5, 6})
		for _, a := range toAdd {
			assert.NotContains(t, toRemove, a)
		}
	})
}

func applyDiff(existing, toAdd, toRemove []int) []int {
	removed := make(map[int]struct{}, len(toRemove))
	for _, id := range toRemove {
		removed[id] = struct{}{}
	}

	var next []int
	for _, id := range existing {
		if _, ok := removed[id]; !ok {
			next = append(next, id)
		}
	}
	return append(next, toAdd...)
}
