package fastcache

import (
	"math/bits"
	"sync"
)

// bufferPool reuses decompression buffers. Buffers are grouped by
// power-of-two capacity class so that frames of similar size share a
// bucket.
//
// All methods are safe for concurrent use.
type bufferPool struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int // max buffers per bucket; 0 means unlimited
}

func newBufferPool(maxPerBucket int) *bufferPool {
	return &bufferPool{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// sizeClass returns the smallest c with 1<<c >= n.
func sizeClass(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// get returns a buffer of length n. Reused buffers are not cleared: the
// caller overwrites all n bytes.
func (p *bufferPool) get(n int) []byte {
	class := sizeClass(n)

	p.mu.Lock()
	bucket := p.buckets[class]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[class] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return buf[:n]
	}
	p.mu.Unlock()

	return make([]byte, n, 1<<class)
}

// put returns buf to its bucket. Buffers whose capacity is not a class
// size, or whose bucket is full, are left to the GC.
func (p *bufferPool) put(buf []byte) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	class := sizeClass(c)

	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[class]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[class] = append(bucket, buf[:0])
}

// idle returns the number of pooled buffers.
func (p *bufferPool) idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
