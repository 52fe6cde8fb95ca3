package difference

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/delegateas/XrmSync-sub000/internal/compare"
	"github.com/delegateas/XrmSync-sub000/internal/model"
)

type pair[T any] struct {
	local  T
	remote T
}

// matching is the identity partition of one level.
type matching[T any] struct {
	localOnly  []T
	remoteOnly []T
	pairs      []pair[T]
}

// match partitions local and remote entities by identity key.
//
// Only the first entity per key takes part in matching. Remote entities are
// considered in ID order so the survivor does not depend on read order; any
// further duplicates are unmatched, which turns extra locals into creates and
// extra remotes into deletes.
func match[T any](cmp compare.Comparer[T], id func(T) uuid.UUID, local, remote []T) matching[T] {
	var m matching[T]

	remote = slices.Clone(remote)
	slices.SortStableFunc(remote, func(a, b T) int {
		return model.CompareIDs(id(a), id(b))
	})

	localFirst, localDupes := firstByKey(cmp, local)
	remoteFirst, remoteDupes := firstByKey(cmp, remote)

	localKeys := mapset.NewThreadUnsafeSet[string]()
	for _, e := range localFirst {
		localKeys.Add(cmp.Key(e))
	}
	remoteIndex := make(map[string]T, len(remoteFirst))
	remoteKeys := mapset.NewThreadUnsafeSet[string]()
	for _, e := range remoteFirst {
		k := cmp.Key(e)
		remoteKeys.Add(k)
		remoteIndex[k] = e
	}
	onlyLocal := localKeys.Difference(remoteKeys)

	for _, e := range localFirst {
		k := cmp.Key(e)
		if onlyLocal.Contains(k) {
			m.localOnly = append(m.localOnly, e)
			continue
		}
		m.pairs = append(m.pairs, pair[T]{local: e, remote: remoteIndex[k]})
	}
	m.localOnly = append(m.localOnly, localDupes...)

	for _, e := range remoteFirst {
		if !localKeys.Contains(cmp.Key(e)) {
			m.remoteOnly = append(m.remoteOnly, e)
		}
	}
	m.remoteOnly = append(m.remoteOnly, remoteDupes...)

	return m
}

func firstByKey[T any](cmp compare.Comparer[T], entities []T) (first, dupes []T) {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, e := range entities {
		if !seen.Add(cmp.Key(e)) {
			dupes = append(dupes, e)
			continue
		}
		first = append(first, e)
	}
	return first, dupes
}
