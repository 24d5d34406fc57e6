// Command gbsieve-sieve runs C1/C2: it sieves all integers up to a limit
// and writes the odd-only bitmap and the derived raw prime stream.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/gbio"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

var (
	limit       = flag.Uint64("limit", 0, "sieve every integer in [2, limit]")
	segmentSize = flag.Int("segment-size", sieve.DefaultSegmentSize, "odd integers processed per segment")
	bitmapOut   = flag.String("bitmap-out", "", "output path for the *.bitmap file (required)")
	rawOut      = flag.String("raw-out", "", "output path for the *.raw prime stream (required)")
	gzipped     = flag.Bool("gzip", false, "gzip-frame both output files")
)

func run() error {
	flag.Parse()
	if *limit == 0 {
		return gberrors.New(gberrors.Argument, "--limit is required and must be > 0")
	}
	if *bitmapOut == "" || *rawOut == "" {
		return gberrors.New(gberrors.Argument, "--bitmap-out and --raw-out are both required")
	}

	ctx := vcontext.Background()
	bm, err := sieve.Sieve(*limit, *segmentSize)
	if err != nil {
		return err
	}

	w, err := gbio.CreateWriter(ctx, *bitmapOut, *gzipped)
	if err != nil {
		return err
	}
	if _, err := w.Write(bm.Bytes()); err != nil {
		w.Close()
		return gberrors.Wrap(gberrors.IO, err, "gbsieve-sieve: write bitmap")
	}
	if err := w.Close(); err != nil {
		return err
	}

	n, err := primestore.Write(ctx, *rawOut, bm, *gzipped)
	if err != nil {
		return err
	}
	log.Printf("gbsieve-sieve: wrote %s (%d bytes) and %s (%d bytes)", *bitmapOut, len(bm.Bytes()), *rawOut, n)
	return nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gbsieve-sieve: %s\n", err)
		os.Exit(gberrors.KindOf(err).ExitCode())
	}
}
