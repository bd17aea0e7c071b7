package fastcache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"

	"github.com/gogpu/pixeldata"
)

// Errors returned by Repository and Entry.
var (
	// ErrEvicted is returned by Entry.Load when the blob left the cache
	// after Retrieve. It is transient: the caller should use another
	// backing store.
	ErrEvicted = errors.New("fastcache: blob evicted")

	// ErrReleased is returned by Entry.Load after ReleaseResources.
	ErrReleased = errors.New("fastcache: entry released")

	// ErrDisabled is returned by Put on a disabled or closed repository.
	ErrDisabled = errors.New("fastcache: repository disabled")

	// ErrCorrupt is returned when a blob does not decompress to its
	// recorded length.
	ErrCorrupt = errors.New("fastcache: corrupt blob")

	// ErrEmptyKey is returned by Put for an empty image ID.
	ErrEmptyKey = errors.New("fastcache: empty image id")
)

// Config holds Repository settings.
type Config struct {
	// Enabled turns the repository on. A disabled repository misses every
	// lookup and rejects Put.
	Enabled bool

	// ShardCapacity is the maximum number of blobs per shard. The
	// repository holds at most 16 × ShardCapacity blobs.
	ShardCapacity int

	// MaxShardBytes bounds the compressed bytes per shard. 0 means no
	// byte bound.
	MaxShardBytes int64

	// Level is the zstd compression level used by Put.
	Level zstd.EncoderLevel

	// PoolBuffers bounds the number of idle decompression buffers kept
	// per size class.
	PoolBuffers int
}

// DefaultConfig returns an enabled Config with 64 blobs per shard and the
// fastest zstd level.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		ShardCapacity: 64,
		Level:         zstd.SpeedFastest,
		PoolBuffers:   8,
	}
}

// blob is one compressed frame.
type blob struct {
	data    []byte
	rawLen  int
	desc    *pixeldata.Description
	evicted atomic.Bool
}

func (b *blob) size() int64 { return int64(len(b.data)) }

// Repository is an in-process store of compressed pixel blobs keyed by
// image ID. It implements pixeldata.CacheRepository.
//
// Repository is safe for concurrent use.
type Repository struct {
	cfg   Config
	store *blobStore
	pool  *bufferPool
	enc   *zstd.Encoder
	dec   *zstd.Decoder

	mu     sync.RWMutex
	closed bool
}

// New creates a Repository. Non-positive capacities use DefaultConfig
// values.
func New(cfg Config) (*Repository, error) {
	def := DefaultConfig()
	if cfg.ShardCapacity <= 0 {
		cfg.ShardCapacity = def.ShardCapacity
	}
	if cfg.Level == 0 {
		cfg.Level = def.Level
	}
	if cfg.PoolBuffers <= 0 {
		cfg.PoolBuffers = def.PoolBuffers
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("fastcache: encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("fastcache: decoder: %w", err)
	}

	r := &Repository{
		cfg:  cfg,
		pool: newBufferPool(cfg.PoolBuffers),
		enc:  enc,
		dec:  dec,
	}
	r.store = newBlobStore(cfg.ShardCapacity, cfg.MaxShardBytes, r.evicted)
	return r, nil
}

func (r *Repository) evicted(key string, b *blob) {
	pixeldata.Logger().Debug("fastcache: evicted", "image", key, "bytes", b.rawLen)
}

// Enabled reports whether the repository serves lookups.
func (r *Repository) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg.Enabled && !r.closed
}

// Put compresses pixels and stores them under id, replacing any previous
// blob. desc, if not nil, is returned by Entry.Describe.
func (r *Repository) Put(id string, pixels []byte, desc *pixeldata.Description) error {
	if id == "" {
		return ErrEmptyKey
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.cfg.Enabled || r.closed {
		return ErrDisabled
	}

	b := &blob{
		data:   r.enc.EncodeAll(pixels, make([]byte, 0, len(pixels)/2)),
		rawLen: len(pixels),
		desc:   desc,
	}
	r.store.set(id, b)
	pixeldata.Logger().Debug("fastcache: stored", "image", id,
		"bytes", len(pixels), "compressed", len(b.data))
	return nil
}

// Retrieve returns a lease on the blob for id.
func (r *Repository) Retrieve(id string) (pixeldata.CacheEntry, bool) {
	if !r.Enabled() {
		return nil, false
	}
	b, ok := r.store.get(id)
	if !ok {
		return nil, false
	}
	return &Entry{repo: r, id: id, blob: b}, true
}

// Remove evicts the blob for id. Outstanding leases fail with ErrEvicted
// on their next Load.
func (r *Repository) Remove(id string) bool {
	return r.store.delete(id)
}

// Stats returns a snapshot of cache statistics.
func (r *Repository) Stats() Stats {
	entries, stored, raw := r.store.usage()
	hits := r.store.hits.Load()
	misses := r.store.misses.Load()

	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Entries:     entries,
		Capacity:    r.cfg.ShardCapacity * shardCount,
		Hits:        hits,
		Misses:      misses,
		HitRate:     rate,
		Evictions:   r.store.evictions.Load(),
		StoredBytes: stored,
		RawBytes:    raw,
		IdleBuffers: r.pool.idle(),
	}
}

// ResetStats zeroes the hit, miss and eviction counters.
func (r *Repository) ResetStats() {
	r.store.hits.Store(0)
	r.store.misses.Store(0)
	r.store.evictions.Store(0)
}

// Close evicts every blob and frees the codec state. Outstanding leases
// fail with ErrEvicted; buffers already loaded stay valid until released.
func (r *Repository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.store.clear()
	r.dec.Close()
	return r.enc.Close()
}

// decode decompresses b into a pooled buffer.
func (r *Repository) decode(b *blob) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrEvicted
	}

	buf := r.pool.get(b.rawLen)
	out, err := r.dec.DecodeAll(b.data, buf[:0])
	if err != nil {
		r.pool.put(buf)
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(out) != b.rawLen {
		r.pool.put(buf)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCorrupt, len(out), b.rawLen)
	}
	return out, nil
}
