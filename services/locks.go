package services

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLock serializes operations sharing a key without keeping one
// mutex per key alive forever. Two keys may share a stripe; that only
// costs contention, never correctness.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) Lock(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu
}
