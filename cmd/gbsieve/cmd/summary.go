package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/bucket"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
)

func newCmdSummary() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "summary",
		Short:    "Walk a range of n against a prime stream and emit bucketed summary CSVs",
		ArgsName: "prime-raw-file",
	}

	alphaFlag := newFloat64SliceFlag()
	cmd.Flags.Var(alphaFlag, "alpha", "alpha value (repeatable; default 0.5 if none given)")

	traceFlag := cmd.Flags.String("trace", "decade", "bucket trace to emit: decade, primorial, or none")
	modelFlag := cmd.Flags.String("model", "empirical", "prediction model: empirical or hl-a")

	decNStart := cmd.Flags.Uint64("dec-n-start", 0, "first n for the decade trace (defaults to --n-start)")
	decNEnd := cmd.Flags.Uint64("dec-n-end", 0, "last n for the decade trace (defaults to --n-end)")
	primNStart := cmd.Flags.Uint64("prim-n-start", 0, "first n for the primorial trace (defaults to --n-start)")
	primNEnd := cmd.Flags.Uint64("prim-n-end", 0, "last n for the primorial trace (defaults to --n-end)")
	nStart := cmd.Flags.Uint64("n-start", 4, "first n, used when --dec-n-start/--prim-n-start are unset")
	nEnd := cmd.Flags.Uint64("n-end", 0, "last n, required unless --dec-n-end/--prim-n-end are set")

	decOut := cmd.Flags.String("dec-out", "", "output path template for the decade trace (contains -=ALPHA=- and -=FORMAT=-)")
	primOut := cmd.Flags.String("prim-out", "", "output path template for the primorial trace")

	compatFlag := cmd.Flags.String("compat", "current", "normalization compatibility: v0.1, v0.1.5, v0.2, or current")
	eulerCap := cmd.Flags.Bool("euler-cap", true, "apply the Euler delta cap")
	appendMode := cmd.Flags.Bool("append", false, "append to existing output files instead of truncating")
	includeTrivial := cmd.Flags.Bool("include-trivial", false, "count the trivial pair (n,n) when n is prime")
	configLine := cmd.Flags.Bool("config-line", false, "print the resolved configuration and exit")
	gzipped := cmd.Flags.Bool("gzip", false, "gzip-frame output files")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return gberrors.New(gberrors.Argument, "summary takes exactly one positional argument, <prime_raw_file>, got %v", argv)
		}
		rawPath := argv[0]

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
			fmt.Fprintf(env.Stdout, "trace=%s model=%s compat=%s euler-cap=%v include-trivial=%v append=%v alphas=%v\n",
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
			log.Printf("gbsieve summary: alpha=%v n=[%d,%d] trace=%s complete", alpha, rng.start, rng.end, *traceFlag)
		}
		return nil
	})

	return cmd
}
