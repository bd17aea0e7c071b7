package pixeldata

import (
	"log/slog"

	"github.com/gogpu/pixeldata/dicom"
)

// Option configures a PixelBuffer during creation.
//
// Example:
//
//	store := mapped.NewStore(mapped.DefaultConfig())
//	pb := pixeldata.New(ds,
//	    pixeldata.WithOpener(store),
//	    pixeldata.WithCacheRepository(repo),
//	)
type Option func(*options)

// options holds optional configuration for PixelBuffer creation.
type options struct {
	opener  Opener
	repo    CacheRepository
	ref     dicom.Reference
	hasRef  bool
	imageID string
	tracer  Tracer
	logger  *slog.Logger
}

// defaultOptions returns the default buffer options.
func defaultOptions() options {
	return options{
		tracer: NopTracer{},
	}
}

// WithOpener sets the store used to open mapped regions.
// Without an opener only the fast cache can serve pixels.
func WithOpener(o Opener) Option {
	return func(opts *options) {
		opts.opener = o
	}
}

// WithCacheRepository enables fast-repository mode when repo reports
// itself enabled. The repository is consulted before any mapped region is
// opened.
func WithCacheRepository(repo CacheRepository) Option {
	return func(opts *options) {
		opts.repo = repo
	}
}

// WithReference creates the buffer from a reference that is known before
// the metadata carries one. An invalid reference is ignored and the
// reference is read from metadata at resolution time.
func WithReference(ref dicom.Reference) Option {
	return func(opts *options) {
		opts.ref = ref
		opts.hasRef = ref.Valid()
	}
}

// WithImageID sets the key used for fast-cache lookups.
// By default the SOP Instance UID is used.
func WithImageID(id string) Option {
	return func(opts *options) {
		opts.imageID = id
	}
}

// WithTracer sets the observability handle for lifecycle operations.
// A nil tracer restores NopTracer.
func WithTracer(t Tracer) Option {
	return func(opts *options) {
		if t == nil {
			t = NopTracer{}
		}
		opts.tracer = t
	}
}

// WithLogger sets a logger for this buffer only. By default the package
// logger returned by Logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = l
	}
}
