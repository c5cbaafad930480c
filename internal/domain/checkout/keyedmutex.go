package checkout

import (
	"hash/fnv"
	"sort"
	"sync"
)

// lockShards is the number of stripes in the keyed mutex. Collisions between
// unrelated merchandise ids only cost extra serialization, never correctness.
const lockShards = 64

// keyedMutex serializes checkout commits that touch overlapping merchandise
// ids. Each id hashes to one of a fixed set of stripes; lock acquires the
// stripes for all given ids in ascending order, which makes concurrent
// multi-id acquisitions deadlock-free.
type keyedMutex struct {
	shards [lockShards]sync.Mutex
}

// lock acquires the stripes covering ids and returns the matching unlock
// function. Duplicate ids and hash collisions are locked once.
func (m *keyedMutex) lock(ids []string) (unlock func()) {
	seen := make(map[int]struct{}, len(ids))
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		i := shardIndex(id)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		m.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			m.shards[idx[j]].Unlock()
		}
	}
}

func shardIndex(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % lockShards)
}
