package mapped

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/pixeldata"
	"github.com/gogpu/pixeldata/dicom"
)

// Errors returned by Store and Region.
var (
	// ErrRangeUnavailable is returned by Open when the file is missing or
	// shorter than the referenced range. It matches fs.ErrNotExist.
	ErrRangeUnavailable = fmt.Errorf("mapped: byte range unavailable: %w", fs.ErrNotExist)

	// ErrStoreClosed is returned by Open after Close.
	ErrStoreClosed = errors.New("mapped: store closed")

	// ErrReleased is returned by Lock on a released region.
	ErrReleased = errors.New("mapped: region released")
)

// Config holds Store settings.
type Config struct {
	// MaxOpenFiles bounds the number of idle file descriptors kept open.
	// Files used by a live region stay open regardless.
	MaxOpenFiles int

	// Codecs decode encapsulated pixel data on full load, keyed by
	// transfer syntax UID. A later codec with the same UID wins.
	Codecs []Codec
}

// DefaultConfig returns a Config with 64 cached descriptors and no codecs.
func DefaultConfig() Config {
	return Config{MaxOpenFiles: 64}
}

// Store opens regions of DICOM files. It caches file descriptors so that
// frames of one multi-frame file share a descriptor.
//
// Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	files  *lru.Cache[string, *sharedFile]
	codecs map[string]Codec
	align  int64
	closed bool
}

// sharedFile is one open descriptor. refs counts live regions using it.
// Fields are guarded by Store.mu.
type sharedFile struct {
	path    string
	f       *os.File
	refs    int
	evicted bool
}

// NewStore creates a Store with cfg. A non-positive MaxOpenFiles uses the
// default.
func NewStore(cfg Config) *Store {
	if cfg.MaxOpenFiles <= 0 {
		cfg.MaxOpenFiles = DefaultConfig().MaxOpenFiles
	}
	s := &Store{
		codecs: make(map[string]Codec, len(cfg.Codecs)),
		align:  int64(alignment()),
	}
	for _, c := range cfg.Codecs {
		s.codecs[c.UID()] = c
	}
	// NewWithEvict only fails for a non-positive size.
	s.files, _ = lru.NewWithEvict(cfg.MaxOpenFiles, s.onEvict)
	return s
}

// onEvict runs with s.mu held: every cache mutation happens under it.
func (s *Store) onEvict(_ string, sf *sharedFile) {
	sf.evicted = true
	if sf.refs == 0 {
		s.closeFile(sf)
	}
}

func (s *Store) closeFile(sf *sharedFile) {
	if err := sf.f.Close(); err != nil {
		pixeldata.Logger().Warn("mapped: close failed", "path", sf.path, "error", err)
	}
}

// Open validates ref and returns a Region over it. With fullLoad the
// range is mapped (and decoded, if a codec is registered) before Open
// returns; otherwise the region is header-only.
//
// A missing file or a range past the end of the file yields an error
// matching ErrRangeUnavailable and fs.ErrNotExist.
func (s *Store) Open(ref dicom.Reference, fullLoad bool) (pixeldata.Handle, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: invalid reference %s", ErrRangeUnavailable, ref)
	}
	sf, err := s.acquire(ref)
	if err != nil {
		return nil, err
	}

	r := &Region{
		store:      s,
		file:       sf,
		ref:        ref,
		codec:      s.codecs[ref.TransferSyntax],
		headerOnly: !fullLoad,
	}
	if fullLoad {
		res, err := r.load(false)
		if err != nil {
			s.release(sf)
			return nil, err
		}
		r.publish(res)
	}
	pixeldata.Logger().Debug("mapped: region opened",
		"ref", ref.String(), "full", fullLoad, "codec", r.codec != nil)
	return r, nil
}

// acquire returns an open descriptor for ref.Path with the range checked
// against the current file size.
func (s *Store) acquire(ref dicom.Reference) (*sharedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	sf, ok := s.files.Get(ref.Path)
	if !ok {
		f, err := os.Open(ref.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s: %w", ErrRangeUnavailable, ref, err)
			}
			return nil, fmt.Errorf("mapped: open %s: %w", ref.Path, err)
		}
		sf = &sharedFile{path: ref.Path, f: f}
		s.files.Add(ref.Path, sf)
	}

	fi, err := sf.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mapped: stat %s: %w", ref.Path, err)
	}
	if ref.End() > fi.Size() {
		return nil, fmt.Errorf("%w: %s exceeds file size %d", ErrRangeUnavailable, ref, fi.Size())
	}
	sf.refs++
	return sf, nil
}

// release drops a region's use of sf and closes it once it has been
// evicted and no region needs it.
func (s *Store) release(sf *sharedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf.refs--
	if sf.refs == 0 && sf.evicted {
		s.closeFile(sf)
	}
}

// OpenFiles returns the number of cached descriptors.
func (s *Store) OpenFiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.Len()
}

// Close evicts every cached descriptor. Descriptors still used by a live
// region are closed when that region is released. Later calls to Open
// return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.files.Purge()
	return nil
}
