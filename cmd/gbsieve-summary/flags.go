package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
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
