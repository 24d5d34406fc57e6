package merge

import (
	"sort"

	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/gberrors"
)

// MergeCPSAlpha implements spec.md section 4.8's CPS field-inheritance
// rules for one alpha's CPS rows. Because the CPS CSV schema (spec.md
// section 6 format 5) has no literal "n*" column -- the glossary's
// CPSRecord.n* is the selection key, not an emitted field -- this
// implementation uses each row's FIRST (its n_start) as the n* proxy the
// "nstar strictly greater than preMertens" comparisons are made against;
// see DESIGN.md for the full rationale.
func MergeCPSAlpha(rows []gbcsv.CPSRow) (gbcsv.CPSRow, []string, error) {
	if len(rows) == 0 {
		return gbcsv.CPSRow{}, nil, nil
	}
	sorted := make([]gbcsv.CPSRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].First < sorted[j].First })

	var gaps []string
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.First <= prev.Last {
			return gbcsv.CPSRow{}, nil, gberrors.New(gberrors.Overlap,
				"merge: overlapping CPS ranges [%d,%d] and [%d,%d]", prev.First, prev.Last, cur.First, cur.Last)
		}
		if cur.First != prev.Last+1 {
			gaps = append(gaps, gberrors.New(gberrors.Gap,
				"merge: gap between n=%d and n=%d", prev.Last, cur.First).Error())
		}
	}

	out := gbcsv.CPSRow{
		First: sorted[0].First,
		Last:  sorted[len(sorted)-1].Last,
		Alpha: sorted[0].Alpha,
	}

	// preMertens: first non-null (non-zero) value in the run, carried
	// forward per the glossary's "carries forward from the previous row
	// when absent" rule.
	for _, r := range sorted {
		if r.PreMertens != 0 {
			out.PreMertens = r.PreMertens
			break
		}
	}

	// nstar/deltaMertens: first row whose n* (its own FIRST) strictly
	// exceeds the effective preMertens just selected.
	for _, r := range sorted {
		if float64(r.First) > out.PreMertens {
			out.Mertens = r.Mertens
			out.DeltaMertens = r.DeltaMertens
			break
		}
	}

	// n_5percent: first non-zero occurrence.
	for _, r := range sorted {
		if r.N5Precent != 0 {
			out.N5Precent = r.N5Precent
			break
		}
	}

	// etaStat/nzeroStat: last row with nzeroStat strictly greater than
	// both preMertens and n_5percent, and etaStat > 0.
	for _, r := range sorted {
		if r.NzeroStat > out.PreMertens && r.NzeroStat > float64(out.N5Precent) && r.EtaStat > 0 {
			out.NzeroStat = r.NzeroStat
			out.EtaStat = r.EtaStat
		}
	}

	// Asymptotic variants: same two selection patterns, against the
	// asymptotic columns.
	for _, r := range sorted {
		if float64(r.First) > out.PreMertens {
			out.MertensAsymp = r.MertensAsymp
			out.DeltaMertensAsymp = r.DeltaMertensAsymp
			break
		}
	}
	for _, r := range sorted {
		if r.NzeroStatAsymp > out.PreMertens && r.NzeroStatAsymp > float64(out.N5Precent) && r.EtaStatAsymp > 0 {
			out.NzeroStatAsymp = r.NzeroStatAsymp
			out.EtaStatAsymp = r.EtaStatAsymp
		}
	}

	return out, gaps, nil
}
