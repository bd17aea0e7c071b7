package fastcache

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	// shardCount is the number of shards. Must be a power of 2 so that
	// shard selection is a mask.
	shardCount = 16
	shardMask  = shardCount - 1
)

// blobStore is a sharded LRU of compressed blobs.
//
// Each shard is bounded by an entry count and, optionally, by compressed
// bytes. Evicted blobs are flagged so that outstanding leases notice.
type blobStore struct {
	shards   [shardCount]*shard
	capacity int
	maxBytes int64
	onEvict  func(key string, b *blob)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*node
	lru     recency
	bytes   int64
}

func newBlobStore(capacity int, maxBytes int64, onEvict func(string, *blob)) *blobStore {
	s := &blobStore{capacity: capacity, maxBytes: maxBytes, onEvict: onEvict}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*node)}
	}
	return s
}

func (s *blobStore) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)&shardMask]
}

// get returns the blob for key and marks it most recently used.
func (s *blobStore) get(key string) (*blob, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	n, ok := sh.entries[key]
	if ok {
		sh.lru.moveToFront(n)
	}
	sh.mu.Unlock()

	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return n.blob, true
}

// set stores b under key, replacing and evicting as needed. A replaced
// blob is treated as evicted.
func (s *blobStore) set(key string, b *blob) {
	sh := s.shardFor(key)
	var evicted []*node

	sh.mu.Lock()
	if old, ok := sh.entries[key]; ok {
		sh.lru.remove(old)
		delete(sh.entries, key)
		sh.bytes -= old.blob.size()
		evicted = append(evicted, old)
	}
	for sh.lru.len > 0 && (sh.lru.len >= s.capacity ||
		(s.maxBytes > 0 && sh.bytes+b.size() > s.maxBytes)) {
		n := sh.lru.popBack()
		delete(sh.entries, n.key)
		sh.bytes -= n.blob.size()
		evicted = append(evicted, n)
		s.evictions.Add(1)
	}
	n := &node{key: key, blob: b}
	sh.lru.pushFront(n)
	sh.entries[key] = n
	sh.bytes += b.size()
	sh.mu.Unlock()

	s.evict(evicted)
}

// delete removes key. It reports whether the key was present.
func (s *blobStore) delete(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	n, ok := sh.entries[key]
	if ok {
		sh.lru.remove(n)
		delete(sh.entries, key)
		sh.bytes -= n.blob.size()
	}
	sh.mu.Unlock()

	if ok {
		s.evict([]*node{n})
	}
	return ok
}

// clear evicts every blob.
func (s *blobStore) clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		var evicted []*node
		for n := sh.lru.popBack(); n != nil; n = sh.lru.popBack() {
			evicted = append(evicted, n)
		}
		sh.entries = make(map[string]*node)
		sh.bytes = 0
		sh.mu.Unlock()
		s.evict(evicted)
	}
}

// evict flags blobs and runs the callback outside shard locks.
func (s *blobStore) evict(nodes []*node) {
	for _, n := range nodes {
		n.blob.evicted.Store(true)
		if s.onEvict != nil {
			s.onEvict(n.key, n.blob)
		}
	}
}

// usage returns the entry count and stored bytes across shards.
func (s *blobStore) usage() (entries int, stored, raw int64) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		entries += len(sh.entries)
		stored += sh.bytes
		for _, n := range sh.entries {
			raw += int64(n.blob.rawLen)
		}
		sh.mu.Unlock()
	}
	return entries, stored, raw
}

// shardLen returns the entry count of each shard.
func (s *blobStore) shardLen() [shardCount]int {
	var lens [shardCount]int
	for i, sh := range s.shards {
		sh.mu.Lock()
		lens[i] = len(sh.entries)
		sh.mu.Unlock()
	}
	return lens
}
