package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/gberrors"
)

// float64SliceFlag collects repeated --alpha VAL occurrences into a
// deduped, ascending-sorted slice, since flag.Parse has no native support
// for repeated numeric flags.
type float64SliceFlag struct {
	values []float64
	seen   map[float64]bool
}

func newFloat64SliceFlag() *float64SliceFlag {
	return &float64SliceFlag{seen: make(map[float64]bool)}
}

func (f *float64SliceFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(f.values))
	for i, v := range f.values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f *float64SliceFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid --alpha value %q: %w", s, err)
	}
	if !f.seen[v] {
		f.seen[v] = true
		f.values = append(f.values, v)
	}
	return nil
}

// Sorted returns the deduped alpha values in ascending order, or
// []float64{0.5} if none were given, per the documented default.
func (f *float64SliceFlag) Sorted() []float64 {
	if len(f.values) == 0 {
		return []float64{0.5}
	}
	out := make([]float64, len(f.values))
	copy(out, f.values)
	sort.Float64s(out)
	return out
}

// expandTemplate substitutes the -=ALPHA=- and -=FORMAT=- placeholders a
// --dec-out/--prim-out template contains, per spec.md section 9's
// driver-owned path templating.
func expandTemplate(template string, alpha float64, format string) string {
	out := strings.ReplaceAll(template, "-=ALPHA=-", strconv.FormatFloat(alpha, 'g', -1, 64))
	out = strings.ReplaceAll(out, "-=FORMAT=-", format)
	return out
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
