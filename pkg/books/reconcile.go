package books

import "sort"

// ReconcileTags computes the minimal add/remove diff between a book's
// current tag set and a submitted desired set. Tags present in both sets are
// left untouched, so resubmitting an unchanged set produces no writes and
// applying the diff once makes a second reconcile a no-op. Duplicate ids in
// either input collapse to one. An empty desired set removes everything.
func ReconcileTags(existing, desired []int) (toAdd, toRemove []int) {
	existingSet := toIDSet(existing)
	desiredSet := toIDSet(desired)

	for id := range desiredSet {
		if _, ok := existingSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range existingSet {
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}

	// Stable order so the diff applies (and logs) deterministically.
	sort.Ints(toAdd)
	sort.Ints(toRemove)

	return toAdd, toRemove
}

func toIDSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
