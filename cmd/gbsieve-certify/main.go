// Command gbsieve-certify runs C9: it independently re-derives a bitmap,
// raw prime stream, or summary CSV and reports "OK: ..." or aborts with
// "ERROR: ..." on any detected mismatch, per spec.md section 4.9. When
// --verify-out is set, it writes the reported message followed by a
// terminal sha256=<hex> line to that file, replacing any earlier content.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/certify"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/primestore"
)

var (
	kind  = flag.String("kind", "", "what to certify: bitmap, stream, or summary")
	limit = flag.Uint64("limit", 0, "sieve limit (bitmap/stream kinds)")

	alpha          = flag.Float64("alpha", 0.5, "alpha the summary CSV was generated with (summary kind)")
	rawPath        = flag.String("raw", "", "prime raw stream backing the pair counter (summary kind)")
	hlMode         = flag.Bool("hl-a", false, "the summary was generated in HL-A mode (summary kind)")
	eulerCap       = flag.Bool("euler-cap", true, "the summary was generated with the Euler cap (summary kind)")
	includeTrivial = flag.Bool("include-trivial", false, "the summary was generated with include-trivial (summary kind)")
	tolerance      = flag.Float64("tolerance", certify.DefaultTolerance, "HL-A tolerance band (summary kind)")

	segmentSize = flag.Int("segment-size", 0, "re-sieve segment size (bitmap kind)")
	parallelism = flag.Int("parallelism", 4, "re-sieve parallelism (bitmap kind)")

	verifyOut = flag.String("verify-out", "", "path to write the *.verify report (optional)")
)

func taintedSoftens() bool {
	return os.Getenv("TAINTED") == "1"
}

func writeVerify(message string) error {
	if *verifyOut == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(message))
	content := fmt.Sprintf("%s\nsha256=%s\n", message, hex.EncodeToString(sum[:]))
	if err := os.WriteFile(*verifyOut, []byte(content), 0644); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbsieve-certify: write verify file")
	}
	return nil
}

func run() error {
	flag.Parse()
	if flag.NArg() != 1 {
		return gberrors.New(gberrors.Argument, "gbsieve-certify takes exactly one positional argument, <path>")
	}
	path := flag.Arg(0)
	ctx := vcontext.Background()

	var message string
	var err error
	switch *kind {
	case "bitmap":
		if *limit == 0 {
			return gberrors.New(gberrors.Argument, "--limit is required for --kind=bitmap")
		}
		message, err = certify.Bitmap(ctx, path, *limit, *segmentSize, *parallelism)
	case "stream":
		if *limit == 0 {
			return gberrors.New(gberrors.Argument, "--limit is required for --kind=stream")
		}
		message, err = certify.Stream(ctx, path, *limit)
	case "summary":
		if *rawPath == "" {
			return gberrors.New(gberrors.Argument, "--raw is required for --kind=summary")
		}
		var stream *primestore.Stream
		stream, err = primestore.Open(ctx, *rawPath)
		if err != nil {
			return err
		}
		defer stream.Close()
		cfg := aggregate.Config{EulerCap: *eulerCap, Compat: aggregate.CompatCurrent, IncludeTrivial: *includeTrivial, HLMode: *hlMode}
		message, err = certify.Summary(ctx, path, *alpha, stream, cfg, *tolerance)
	default:
		return gberrors.New(gberrors.Argument, "--kind: unknown value %q (want bitmap, stream, or summary)", *kind)
	}

	if err != nil {
		if taintedSoftens() {
			fmt.Fprintf(os.Stderr, "WARNING (TAINTED): %s\n", err)
			return writeVerify(fmt.Sprintf("WARNING: %s", err))
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return err
	}

	fmt.Println(message)
	return writeVerify(message)
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if err := run(); err != nil {
		os.Exit(gberrors.KindOf(err).ExitCode())
	}
}
