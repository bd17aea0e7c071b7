package fastcache

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of Repository counters.
type Stats struct {
	Entries  int
	Capacity int // total blob capacity across shards

	Hits      uint64
	Misses    uint64
	HitRate   float64 // 0.0 to 1.0
	Evictions uint64

	StoredBytes int64 // compressed
	RawBytes    int64 // decompressed
	IdleBuffers int
}

// Ratio returns RawBytes / StoredBytes, or 0 for an empty repository.
func (s Stats) Ratio() float64 {
	if s.StoredBytes == 0 {
		return 0
	}
	return float64(s.RawBytes) / float64(s.StoredBytes)
}

// String formats the snapshot for logs and CLI output.
func (s Stats) String() string {
	return fmt.Sprintf("%s/%s blobs, %s stored (%s raw, %.1fx), %s hits, %s misses (%.1f%%), %s evictions",
		humanize.Comma(int64(s.Entries)),
		humanize.Comma(int64(s.Capacity)),
		humanize.IBytes(uint64(s.StoredBytes)),
		humanize.IBytes(uint64(s.RawBytes)),
		s.Ratio(),
		humanize.Comma(int64(s.Hits)),
		humanize.Comma(int64(s.Misses)),
		s.HitRate*100,
		humanize.Comma(int64(s.Evictions)),
	)
}
