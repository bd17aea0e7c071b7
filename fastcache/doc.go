// Package fastcache keeps pre-decoded pixel blobs in process memory so that
// a PixelBuffer can skip mapping and decoding its file.
//
// A Repository implements pixeldata.CacheRepository. Blobs are zstd
// compressed on Put and stored in a 16-way sharded LRU keyed by image ID.
// Retrieve hands out an Entry lease; Entry.Load decompresses into a pooled
// buffer that is returned by ReleaseResources.
//
// A blob can be evicted between Retrieve and Load. Load then fails with
// ErrEvicted and the buffer falls back to its mapped region.
package fastcache
