// Command gbsieve-summary runs C3 through C7: for each requested alpha it
// walks a range of n against a shared prime stream, counts Goldbach pairs,
// tracks the Hardy-Littlewood-A prediction, and buckets the results into
// decade or primorial windows, emitting summary CSVs per spec.md section 6.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/bucket"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
)

var (
	alphaFlag = newFloat64SliceFlag()

	traceFlag = flag.String("trace", "decade", "bucket trace to emit: decade, primorial, or none")
	modelFlag = flag.String("model", "empirical", "prediction model: empirical or hl-a")

	decNStart  = flag.Uint64("dec-n-start", 0, "first n for the decade trace (defaults to --n-start)")
	decNEnd    = flag.Uint64("dec-n-end", 0, "last n for the decade trace (defaults to --n-end)")
	primNStart = flag.Uint64("prim-n-start", 0, "first n for the primorial trace (defaults to --n-start)")
	primNEnd   = flag.Uint64("prim-n-end", 0, "last n for the primorial trace (defaults to --n-end)")
	nStart     = flag.Uint64("n-start", 4, "first n, used when --dec-n-start/--prim-n-start are unset")
	nEnd       = flag.Uint64("n-end", 0, "last n, required unless --dec-n-end/--prim-n-end are set")

	decOut  = flag.String("dec-out", "", "output path template for the decade trace (contains -=ALPHA=- and -=FORMAT=-)")
	primOut = flag.String("prim-out", "", "output path template for the primorial trace")

	compatFlag     = flag.String("compat", "current", "normalization compatibility: v0.1, v0.1.5, v0.2, or current")
	eulerCap       = flag.Bool("euler-cap", true, "apply the Euler delta cap")
	appendMode     = flag.Bool("append", false, "append to existing output files instead of truncating")
	includeTrivial = flag.Bool("include-trivial", false, "count the trivial pair (n,n) when n is prime")
	configLine     = flag.Bool("config-line", false, "print the resolved configuration and exit")
	gzipped        = flag.Bool("gzip", false, "gzip-frame output files")
)

func init() {
	flag.Var(alphaFlag, "alpha", "alpha value (repeatable; default 0.5 if none given)")
}

func parseCompat(s string) (aggregate.CompatFlavor, error) {
	switch s {
	case "v0.1":
		return aggregate.CompatV01, nil
	case "v0.1.5":
		return aggregate.CompatV015, nil
	case "v0.2":
		return aggregate.CompatV02, nil
	case "current":
		return aggregate.CompatCurrent, nil
	default:
		return 0, gberrors.New(gberrors.Argument, "--compat: unknown value %q", s)
	}
}

func parseModel(s string) (gbcsv.Model, bool, error) {
	switch s {
	case "empirical":
		return gbcsv.ModelEmpirical, false, nil
	case "hl-a":
		return gbcsv.ModelHLA, true, nil
	default:
		return 0, false, gberrors.New(gberrors.Argument, "--model: unknown value %q", s)
	}
}

type traceRange struct {
	start, end uint64
}

func resolveRange(specific, specificEnd, globalStart, globalEnd uint64) traceRange {
	start, end := globalStart, globalEnd
	if specific != 0 {
		start = specific
	}
	if specificEnd != 0 {
		end = specificEnd
	}
	return traceRange{start: start, end: end}
}

// variantOutputs opens one SummaryWriter per (full,norm,raw) variant from
// a template, per spec.md section 6 format 4's -=FORMAT=- placeholder.
func variantOutputs(ctx context.Context, template string, alpha float64, model gbcsv.Model, appendMode, gzipped bool) (map[gbcsv.Variant]*gbcsv.SummaryWriter, error) {
	writers := make(map[gbcsv.Variant]*gbcsv.SummaryWriter)
	for label, variant := range map[string]gbcsv.Variant{"full": gbcsv.VariantFull, "norm": gbcsv.VariantNorm, "raw": gbcsv.VariantRaw} {
		path := expandTemplate(template, alpha, label)
		w, err := gbcsv.OpenSummaryWriter(ctx, path, model, variant, gzipped, appendMode)
		if err != nil {
			for _, open := range writers {
				open.Close()
			}
			return nil, err
		}
		writers[variant] = w
	}
	return writers, nil
}

func closeAll(writers map[gbcsv.Variant]*gbcsv.SummaryWriter) {
	for _, w := range writers {
		w.Close()
	}
}

func writeAll(writers map[gbcsv.Variant]*gbcsv.SummaryWriter, row aggregate.Row) error {
	for _, w := range writers {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func run() error {
	flag.Parse()
	if flag.NArg() != 1 {
		return gberrors.New(gberrors.Argument, "gbsieve-summary takes exactly one positional argument, <prime_raw_file>")
	}
	rawPath := flag.Arg(0)

	compat, err := parseCompat(*compatFlag)
	if err != nil {
		return err
	}
	model, hlMode, err := parseModel(*modelFlag)
	if err != nil {
		return err
	}
	if *traceFlag != "decade" && *traceFlag != "primorial" && *traceFlag != "none" {
		return gberrors.New(gberrors.Argument, "--trace: unknown value %q", *traceFlag)
	}

	cfg := aggregate.Config{
		EulerCap:       *eulerCap,
		Compat:         compat,
		IncludeTrivial: *includeTrivial,
		HLMode:         hlMode,
	}
	alphas := alphaFlag.Sorted()

	if *configLine {
		fmt.Printf("trace=%s model=%s compat=%s euler-cap=%v include-trivial=%v append=%v alphas=%v\n",
			*traceFlag, *modelFlag, *compatFlag, *eulerCap, *includeTrivial, *appendMode, alphas)
		return nil
	}

	if *traceFlag == "none" {
		return nil
	}

	ctx := vcontext.Background()
	stream, err := primestore.Open(ctx, rawPath)
	if err != nil {
		return err
	}
	defer stream.Close()

	isPrime := func(n uint64) bool {
		idx := -1
		lo, hi := 0, stream.Len()
		for lo < hi {
			mid := (lo + hi) / 2
			if stream.At(mid) < n {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < stream.Len() && stream.At(lo) == n {
			idx = lo
		}
		return idx >= 0
	}

	var rng traceRange
	var outTemplate string
	switch *traceFlag {
	case "decade":
		rng = resolveRange(*decNStart, *decNEnd, *nStart, *nEnd)
		outTemplate = *decOut
	case "primorial":
		rng = resolveRange(*primNStart, *primNEnd, *nStart, *nEnd)
		outTemplate = *primOut
	}
	if rng.end == 0 {
		return gberrors.New(gberrors.Argument, "--n-end (or the trace-specific *-n-end) is required")
	}
	if outTemplate == "" {
		return gberrors.New(gberrors.Argument, "--dec-out/--prim-out is required for trace %q", *traceFlag)
	}

	cursor := pair.NewCursor(stream)

	var primorialBreaks []uint64
	if *traceFlag == "primorial" {
		primes := make([]uint64, 0, stream.Len())
		for i := 0; i < stream.Len(); i++ {
			primes = append(primes, stream.At(i))
		}
		primorialBreaks = bucket.GeneratePrimorialBreaks(primes, rng.end)
	}

	for _, alpha := range alphas {
		var sched, idleSched bucket.Schedule
		switch *traceFlag {
		case "decade":
			sched = bucket.NewDecadeSchedule()
			idleSched = bucket.NewPrimorialSchedule(nil)
		case "primorial":
			sched = bucket.NewPrimorialSchedule(primorialBreaks)
			idleSched = bucket.NewPrimorialSchedule(nil)
		}

		var ws *aggregate.WindowState
		if *traceFlag == "decade" {
			ws = aggregate.NewWindowState(alpha, sched, idleSched, stream)
		} else {
			ws = aggregate.NewWindowState(alpha, idleSched, sched, stream)
		}

		writers, err := variantOutputs(ctx, outTemplate, alpha, model, *appendMode, *gzipped)
		if err != nil {
			return err
		}

		for n := rng.start; n <= rng.end; n++ {
			rows, err := ws.Update(n, cursor, stream, isPrime, cfg)
			if err != nil {
				closeAll(writers)
				return err
			}
			for _, row := range rows {
				if err := writeAll(writers, row); err != nil {
					closeAll(writers)
					return err
				}
			}
		}
		closeAll(writers)
		log.Printf("gbsieve-summary: alpha=%v n=[%d,%d] trace=%s complete", alpha, rng.start, rng.end, *traceFlag)
	}
	return nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gbsieve-summary: %s\n", err)
		os.Exit(gberrors.KindOf(err).ExitCode())
	}
}
