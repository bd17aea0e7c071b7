// Command pixinspect prints the pixel description of a DICOM file and can
// export the first frame as TIFF.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/pixeldata"
	"github.com/gogpu/pixeldata/dicom"
	"github.com/gogpu/pixeldata/fastcache"
	"github.com/gogpu/pixeldata/mapped"
)

type config struct {
	file    string
	fast    bool
	export  string
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.file, "file", "", "DICOM file to inspect")
	flag.BoolVar(&cfg.fast, "fast", false, "warm a fast cache and read the frame back through it")
	flag.StringVar(&cfg.export, "export", "", "write the frame to this TIFF file")
	flag.BoolVar(&cfg.verbose, "v", false, "log lifecycle decisions to stderr")
	flag.Parse()

	if cfg.file == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.verbose {
		pixeldata.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("pixinspect: %v", err)
	}
}

func run(cfg config, w io.Writer) (err error) {
	ds, err := dicom.ReadFile(cfg.file)
	if err != nil {
		return err
	}

	store := mapped.NewStore(mapped.DefaultConfig())
	defer store.Close()

	opts := []pixeldata.Option{pixeldata.WithOpener(store)}
	if cfg.verbose {
		opts = append(opts, pixeldata.WithTracer(pixeldata.NewLogTracer(nil)))
	}

	var repo *fastcache.Repository
	if cfg.fast {
		if repo, err = fastcache.New(fastcache.DefaultConfig()); err != nil {
			return err
		}
		defer repo.Close()
		opts = append(opts, pixeldata.WithCacheRepository(repo))
	}

	pb := pixeldata.New(ds, opts...)
	defer func() { err = errors.Join(err, pb.Close()) }()

	fmt.Fprintf(w, "file:        %s\n", cfg.file)
	fmt.Fprintf(w, "image:       %s\n", pb.ImageID())
	fmt.Fprintf(w, "has pixels:  %t\n", pb.HasPixels())
	if !pb.HasPixels() {
		return nil
	}
	fmt.Fprintf(w, "size:        %d bytes\n", pb.Size())

	desc, err := pb.Description()
	if err != nil {
		return err
	}
	printDescription(w, desc)

	pixels, err := pb.Lock()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "state:       %s (%d locks, %d bytes)\n", pb.State(), pb.RefCount(), len(pixels))

	if repo != nil && pb.ImageID() != "" {
		if err := repo.Put(pb.ImageID(), pixels, desc); err != nil {
			_, _ = pb.Unlock()
			return err
		}
	}
	if cfg.export != "" {
		if err := exportTIFF(cfg.export, pixels, desc); err != nil {
			_, _ = pb.Unlock()
			return err
		}
		fmt.Fprintf(w, "exported:    %s\n", cfg.export)
	}

	if _, err := pb.UnlockAndClean(); err != nil {
		return err
	}
	fmt.Fprintf(w, "state:       %s\n", pb.State())

	if repo != nil && pb.ImageID() != "" {
		if err := readBack(w, repo, pb.ImageID()); err != nil {
			return err
		}
	}
	return nil
}

func printDescription(w io.Writer, d *pixeldata.Description) {
	fmt.Fprintf(w, "geometry:    %dx%d, %d sample(s), %d/%d bits, high bit %d\n",
		d.Columns, d.Rows, d.SamplesPerPixel, d.BitsStored, d.BitsAllocated, d.HighBit)
	fmt.Fprintf(w, "photometric: %s, %s interleaved, signed %t\n", d.Photometric, d.Planar, d.Signed)
	fmt.Fprintf(w, "conversion:  %s\n", d.Conversion)
}

// readBack opens a second buffer that is served by the fast cache.
func readBack(w io.Writer, repo *fastcache.Repository, id string) error {
	pb := pixeldata.New(nil, pixeldata.WithCacheRepository(repo), pixeldata.WithImageID(id))
	defer pb.Close()

	pixels, err := pb.Lock()
	if err != nil {
		return fmt.Errorf("fast cache read back: %w", err)
	}
	fmt.Fprintf(w, "fast cache:  %d bytes read back\n", len(pixels))
	if _, err := pb.Unlock(); err != nil {
		return err
	}
	fmt.Fprintf(w, "cache stats: %s\n", repo.Stats())
	return nil
}
