package fastcache

import (
	"sync"
	"testing"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3},
		{4096, 12}, {4097, 13}, {524288, 19},
	}
	for _, tt := range tests {
		if got := sizeClass(tt.n); got != tt.want {
			t.Errorf("sizeClass(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestBufferPoolReuse(t *testing.T) {
	p := newBufferPool(2)

	buf := p.get(3000)
	if len(buf) != 3000 || cap(buf) != 4096 {
		t.Fatalf("get(3000) len/cap = %d/%d, want 3000/4096", len(buf), cap(buf))
	}
	p.put(buf)
	if p.idle() != 1 {
		t.Fatalf("idle() = %d, want 1", p.idle())
	}

	again := p.get(4000)
	if &again[0] != &buf[0] {
		t.Error("same size class did not reuse the buffer")
	}
	if len(again) != 4000 {
		t.Errorf("len = %d, want 4000", len(again))
	}
	if p.idle() != 0 {
		t.Errorf("idle() = %d, want 0", p.idle())
	}
}

func TestBufferPoolLimits(t *testing.T) {
	p := newBufferPool(1)

	p.put(make([]byte, 10, 12)) // not a class size
	if p.idle() != 0 {
		t.Error("odd-capacity buffer was pooled")
	}
	p.put(nil)

	p.put(make([]byte, 0, 64))
	p.put(make([]byte, 0, 64))
	if p.idle() != 1 {
		t.Errorf("idle() = %d, want bucket limit 1", p.idle())
	}
}

func TestBufferPoolConcurrent(t *testing.T) {
	p := newBufferPool(0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				buf := p.get(100 + g*50 + i)
				buf[0] = byte(g)
				p.put(buf)
			}
		}(g)
	}
	wg.Wait()
}
