// Package gbcsv implements the row schemas and CSV/raw codecs of spec.md
// section 6: the Goldbach-pairs listing, the summary CSV (with its
// empirical/HL-A and full/norm/raw column projections), and the CPS CSV.
//
// encoding/csv is used directly rather than a third-party CSV library: no
// example repo in the retrieved corpus imports one, and the format here is
// a flat, header-plus-rows text file with no need for struct tags,
// streaming decode-into-struct, or any of the features a library like
// gocsv would add over the standard reader/writer.
package gbcsv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/gbio"
)

// Model selects the empirical or Hardy-Littlewood-A prediction naming for
// summary CSV columns.
type Model int

const (
	ModelEmpirical Model = iota
	ModelHLA
)

// Variant selects which column projection of the summary schema to write,
// per spec.md section 6 format 4.
type Variant int

const (
	// VariantFull is the complete column set.
	VariantFull Variant = iota
	// VariantNorm projects to the normalized (C-value) columns only: this
	// package's resolution of the otherwise-unspecified "norm" subset (see
	// DESIGN.md).
	VariantNorm
	// VariantRaw projects to the raw empirical (G-value) columns only:
	// this package's resolution of the otherwise-unspecified "raw" subset
	// (see DESIGN.md).
	VariantRaw
)

// CompatFlavor is an alias of aggregate.CompatFlavor, re-exported so gbcsv
// callers can name it without importing aggregate themselves.
type CompatFlavor = aggregate.CompatFlavor

func cLabel(model Model) string {
	if model == ModelHLA {
		return "Cpred"
	}
	return "C"
}

func gLabel(model Model) string {
	if model == ModelHLA {
		return "Gpred"
	}
	return "G"
}

// Header returns the column names for model/variant.
func Header(model Model, variant Variant) []string {
	c, g := cLabel(model), gLabel(model)
	switch variant {
	case VariantRaw:
		return []string{
			"FIRST", "LAST", "START",
			"minAt*", fmt.Sprintf("%s(minAt*)", g),
			"maxAt*", fmt.Sprintf("%s(maxAt*)", g),
			"n_geom", "<COUNT>*",
		}
	case VariantNorm:
		return []string{
			"FIRST", "LAST", "START",
			"n_0*", fmt.Sprintf("%s_min(n_0*)", c),
			"n_1*", fmt.Sprintf("%s_max(n_1*)", c),
			"n_geom", fmt.Sprintf("%s_avg", c),
		}
	default:
		h := []string{
			"FIRST", "LAST", "START",
			"minAt*", fmt.Sprintf("%s(minAt*)", g),
			"maxAt*", fmt.Sprintf("%s(maxAt*)", g),
			"n_0*", fmt.Sprintf("%s_min(n_0*)", c),
			"n_1*", fmt.Sprintf("%s_max(n_1*)", c),
			"n_geom", "<COUNT>*", fmt.Sprintf("%s_avg", c),
		}
		if model == ModelHLA {
			h = append(h,
				"n_v", "Calign_min(n_v)",
				"n_u", "Calign_max(n_u)",
				"n_a", "CboundMin(n_a)",
				"n_b", "CboundMax(n_b)",
				"jitter",
			)
		}
		return h
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Fields projects row into the column values matching Header(model,
// variant), in the same fixed precision encoding throughout (round-trip
// exact 'g' formatting, so TestableProperty 5's idempotence holds given a
// fixed libm).
func Fields(row aggregate.Row, model Model, variant Variant) []string {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	switch variant {
	case VariantRaw:
		return []string{
			u(row.First), u(row.Last), u(row.Start),
			u(row.MinAt), formatFloat(row.GpredAtMinAt),
			u(row.MaxAt), formatFloat(row.GpredAtMaxAt),
			u(row.NGeom), formatFloat(row.Count),
		}
	case VariantNorm:
		return []string{
			u(row.First), u(row.Last), u(row.Start),
			u(row.N0), formatFloat(row.CpredMin),
			u(row.N1), formatFloat(row.CpredMax),
			u(row.NGeom), formatFloat(row.CpredAvg),
		}
	default:
		f := []string{
			u(row.First), u(row.Last), u(row.Start),
			u(row.MinAt), formatFloat(row.GpredAtMinAt),
			u(row.MaxAt), formatFloat(row.GpredAtMaxAt),
			u(row.N0), formatFloat(row.CpredMin),
			u(row.N1), formatFloat(row.CpredMax),
			u(row.NGeom), formatFloat(row.Count), formatFloat(row.CpredAvg),
		}
		if model == ModelHLA {
			f = append(f,
				u(row.Nv), formatFloat(row.CalignMin),
				u(row.Nu), formatFloat(row.CalignMax),
				u(row.Na), formatFloat(row.CboundMin),
				u(row.Nb), formatFloat(row.CboundMax),
				formatFloat(row.Jitter),
			)
		}
		return f
	}
}

// SummaryWriter writes a summary CSV, line-buffered via gbio.CreateWriter
// so a crashed process leaves a well-formed prefix.
type SummaryWriter struct {
	wc    interface{ Close() error }
	w     *csv.Writer
	model Model
	vrt   Variant
}

// OpenSummaryWriter creates path (optionally gzip-framed) and writes the
// header row immediately unless append is true and the file already has
// content (append mode assumes the header was already written by a prior
// invocation).
func OpenSummaryWriter(ctx context.Context, path string, model Model, variant Variant, gzipped, appendMode bool) (*SummaryWriter, error) {
	wc, err := gbio.CreateWriter(ctx, path, gzipped)
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(wc)
	sw := &SummaryWriter{wc: wc, w: cw, model: model, vrt: variant}
	if !appendMode {
		if err := cw.Write(Header(model, variant)); err != nil {
			return nil, gberrors.Wrap(gberrors.IO, errors.Wrap(err, "write header"), "gbcsv.OpenSummaryWriter")
		}
		cw.Flush()
	}
	return sw, nil
}

// WriteRow appends one row, flushing immediately (line-buffered synchronous
// I/O per the concurrency model's resource policy).
func (s *SummaryWriter) WriteRow(row aggregate.Row) error {
	if err := s.w.Write(Fields(row, s.model, s.vrt)); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbcsv.SummaryWriter.WriteRow")
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and releases the underlying file handle.
func (s *SummaryWriter) Close() error {
	s.w.Flush()
	return s.wc.Close()
}

// ReadSummaryRows parses a previously written summary CSV, inferring model
// and variant from the header's column count and labels (Cpred_ vs C_,
// presence of the trailing alignment/bound columns).
func ReadSummaryRows(ctx context.Context, path string) ([]aggregate.Row, Model, Variant, error) {
	bv, err := gbio.OpenBytes(ctx, path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer bv.Close()

	r := csv.NewReader(bytes.NewReader(bv.Bytes()))
	header, err := r.Read()
	if err != nil {
		return nil, 0, 0, gberrors.Wrap(gberrors.Data, err, "gbcsv.ReadSummaryRows: header")
	}
	model, variant, err := detectSchema(header)
	if err != nil {
		return nil, 0, 0, err
	}

	var rows []aggregate.Row
	for {
		rec, rerr := r.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, 0, 0, gberrors.Wrap(gberrors.Data, rerr, "gbcsv.ReadSummaryRows: row")
		}
		row, perr := parseRow(rec, model, variant)
		if perr != nil {
			return nil, 0, 0, perr
		}
		rows = append(rows, row)
	}
	return rows, model, variant, nil
}

func detectSchema(header []string) (Model, Variant, error) {
	for _, model := range []Model{ModelEmpirical, ModelHLA} {
		for _, variant := range []Variant{VariantFull, VariantNorm, VariantRaw} {
			want := Header(model, variant)
			if stringsEqual(header, want) {
				return model, variant, nil
			}
		}
	}
	return 0, 0, gberrors.New(gberrors.Data, "gbcsv: unrecognized summary header %v", header)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseU64(s, field string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, gberrors.New(gberrors.Data, "gbcsv: malformed %s field %q", field, s)
	}
	return v, nil
}

func parseF64(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, gberrors.New(gberrors.Data, "gbcsv: malformed %s field %q", field, s)
	}
	return v, nil
}

func parseRow(rec []string, model Model, variant Variant) (aggregate.Row, error) {
	var row aggregate.Row
	var err error
	get := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	if row.First, err = parseU64(get(0), "FIRST"); err != nil {
		return row, err
	}
	if row.Last, err = parseU64(get(1), "LAST"); err != nil {
		return row, err
	}
	if row.Start, err = parseU64(get(2), "START"); err != nil {
		return row, err
	}
	switch variant {
	case VariantRaw:
		if row.MinAt, err = parseU64(get(3), "minAt*"); err != nil {
			return row, err
		}
		if row.GpredAtMinAt, err = parseF64(get(4), "G(minAt*)"); err != nil {
			return row, err
		}
		if row.MaxAt, err = parseU64(get(5), "maxAt*"); err != nil {
			return row, err
		}
		if row.GpredAtMaxAt, err = parseF64(get(6), "G(maxAt*)"); err != nil {
			return row, err
		}
		if row.NGeom, err = parseU64(get(7), "n_geom"); err != nil {
			return row, err
		}
		if row.Count, err = parseF64(get(8), "<COUNT>*"); err != nil {
			return row, err
		}
	case VariantNorm:
		if row.N0, err = parseU64(get(3), "n_0*"); err != nil {
			return row, err
		}
		if row.CpredMin, err = parseF64(get(4), "C_min(n_0*)"); err != nil {
			return row, err
		}
		if row.N1, err = parseU64(get(5), "n_1*"); err != nil {
			return row, err
		}
		if row.CpredMax, err = parseF64(get(6), "C_max(n_1*)"); err != nil {
			return row, err
		}
		if row.NGeom, err = parseU64(get(7), "n_geom"); err != nil {
			return row, err
		}
		if row.CpredAvg, err = parseF64(get(8), "C_avg"); err != nil {
			return row, err
		}
	default:
		if row.MinAt, err = parseU64(get(3), "minAt*"); err != nil {
			return row, err
		}
		if row.GpredAtMinAt, err = parseF64(get(4), "G(minAt*)"); err != nil {
			return row, err
		}
		if row.MaxAt, err = parseU64(get(5), "maxAt*"); err != nil {
			return row, err
		}
		if row.GpredAtMaxAt, err = parseF64(get(6), "G(maxAt*)"); err != nil {
			return row, err
		}
		if row.N0, err = parseU64(get(7), "n_0*"); err != nil {
			return row, err
		}
		if row.CpredMin, err = parseF64(get(8), "C_min(n_0*)"); err != nil {
			return row, err
		}
		if row.N1, err = parseU64(get(9), "n_1*"); err != nil {
			return row, err
		}
		if row.CpredMax, err = parseF64(get(10), "C_max(n_1*)"); err != nil {
			return row, err
		}
		if row.NGeom, err = parseU64(get(11), "n_geom"); err != nil {
			return row, err
		}
		if row.Count, err = parseF64(get(12), "<COUNT>*"); err != nil {
			return row, err
		}
		if row.CpredAvg, err = parseF64(get(13), "C_avg"); err != nil {
			return row, err
		}
		if model == ModelHLA {
			if row.Nv, err = parseU64(get(14), "n_v"); err != nil {
				return row, err
			}
			if row.CalignMin, err = parseF64(get(15), "Calign_min(n_v)"); err != nil {
				return row, err
			}
			if row.Nu, err = parseU64(get(16), "n_u"); err != nil {
				return row, err
			}
			if row.CalignMax, err = parseF64(get(17), "Calign_max(n_u)"); err != nil {
				return row, err
			}
			if row.Na, err = parseU64(get(18), "n_a"); err != nil {
				return row, err
			}
			if row.CboundMin, err = parseF64(get(19), "CboundMin(n_a)"); err != nil {
				return row, err
			}
			if row.Nb, err = parseU64(get(20), "n_b"); err != nil {
				return row, err
			}
			if row.CboundMax, err = parseF64(get(21), "CboundMax(n_b)"); err != nil {
				return row, err
			}
			if row.Jitter, err = parseF64(get(22), "jitter"); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
