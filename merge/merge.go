// Package merge implements C8, the Merger/CPS engine: it groups
// per-chunk summary rows by alpha, sorts them with an llrb.Tree keyed by
// n_start, detects overlaps (fatal) and gaps (warning), and merges each
// maximal contiguous run into a single output row, per spec.md section
// 4.8.
package merge

import (
	"math"

	"github.com/biogo/store/llrb"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gberrors"
)

// leaf adapts a Row into the llrb.Comparable interface, ordering by Start
// the way cmd/bio-bam-sort/sorter's mergeLeaf orders by (ref,pos).
type leaf struct {
	row aggregate.Row
}

func (l *leaf) Compare(other llrb.Comparable) int {
	o := other.(*leaf)
	switch {
	case l.row.Start < o.row.Start:
		return -1
	case l.row.Start > o.row.Start:
		return 1
	default:
		return 0
	}
}

// Result is the outcome of merging one alpha's rows.
type Result struct {
	Rows []aggregate.Row
	// Gaps holds a human-readable message per detected gap (non-fatal; the
	// merged output simply emits multiple rows around each gap).
	Gaps []string
}

// MergeAlpha sorts rows (all presumed to share one alpha) by Start via an
// llrb.Tree, detects overlaps and gaps, and merges each maximal
// contiguous run into one Row. Overlapping ranges are always fatal
// (gberrors, kind Overlap); gaps are reported in Result.Gaps without
// aborting the merge.
func MergeAlpha(rows []aggregate.Row) (Result, error) {
	if len(rows) == 0 {
		return Result{}, nil
	}
	rows = dedupByFingerprint(rows)

	tree := &llrb.Tree{}
	for i := range rows {
		l := &leaf{row: rows[i]}
		if prev := tree.Get(l); prev != nil {
			p := prev.(*leaf).row
			return Result{}, gberrors.New(gberrors.Overlap,
				"merge: overlapping ranges [%d,%d] and [%d,%d] for the same alpha",
				p.Start, p.Last, l.row.Start, l.row.Last)
		}
		tree.Insert(l)
	}

	sorted := make([]aggregate.Row, 0, len(rows))
	tree.Do(func(item llrb.Comparable) bool {
		sorted = append(sorted, item.(*leaf).row)
		return false
	})

	var result Result
	runStart := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) {
			prev, cur := sorted[i-1], sorted[i]
			if cur.Start <= prev.Last {
				return Result{}, gberrors.New(gberrors.Overlap,
					"merge: overlapping ranges [%d,%d] and [%d,%d] for the same alpha",
					prev.Start, prev.Last, cur.Start, cur.Last)
			}
			if cur.Start == prev.Last+1 {
				continue // contiguous, same run
			}
			result.Gaps = append(result.Gaps, gberrors.New(gberrors.Gap,
				"merge: gap between n=%d and n=%d", prev.Last, cur.Start).Error())
		}
		merged := mergeRun(sorted[runStart:i])
		result.Rows = append(result.Rows, merged)
		runStart = i
	}
	return result, nil
}

// mergeRun combines a maximal contiguous run (already sorted, gap- and
// overlap-free) into a single Row. Each extremum column (minAt/maxAt,
// n_0/n_1, the Calign/Cbound trackers) is recomputed as the true
// extremum across the run's constituent rows, so a contiguous
// fragmentation of a single run merges back to the same Row the
// unfragmented run would have produced (testable property 7).
func mergeRun(run []aggregate.Row) aggregate.Row {
	first, last := run[0], run[len(run)-1]
	out := aggregate.Row{
		First: first.First,
		Last:  last.Last,
		Start: first.Start,
		NGeom: uint64(math.Floor(math.Sqrt(float64(first.Start) * float64(last.Last+1)))),
	}

	out.MinAt, out.GpredAtMinAt = run[0].MinAt, run[0].GpredAtMinAt
	out.MaxAt, out.GpredAtMaxAt = run[0].MaxAt, run[0].GpredAtMaxAt
	out.N0, out.CpredMin = run[0].N0, run[0].CpredMin
	out.N1, out.CpredMax = run[0].N1, run[0].CpredMax
	out.Nv, out.CalignMin = run[0].Nv, run[0].CalignMin
	out.Nu, out.CalignMax = run[0].Nu, run[0].CalignMax
	out.Na, out.CboundMin = run[0].Na, run[0].CboundMin
	out.Nb, out.CboundMax = run[0].Nb, run[0].CboundMax

	var sumCount, weightedAvgNumer, weight float64
	for _, r := range run {
		if r.GpredAtMinAt < out.GpredAtMinAt {
			out.GpredAtMinAt, out.MinAt = r.GpredAtMinAt, r.MinAt
		}
		if r.GpredAtMaxAt > out.GpredAtMaxAt {
			out.GpredAtMaxAt, out.MaxAt = r.GpredAtMaxAt, r.MaxAt
		}
		if r.CpredMin < out.CpredMin {
			out.CpredMin, out.N0 = r.CpredMin, r.N0
		}
		if r.CpredMax > out.CpredMax {
			out.CpredMax, out.N1 = r.CpredMax, r.N1
		}
		if r.CalignMin < out.CalignMin {
			out.CalignMin, out.Nv = r.CalignMin, r.Nv
		}
		if r.CalignMax > out.CalignMax {
			out.CalignMax, out.Nu = r.CalignMax, r.Nu
		}
		if r.CboundMin < out.CboundMin {
			out.CboundMin, out.Na = r.CboundMin, r.Na
		}
		if r.CboundMax > out.CboundMax {
			out.CboundMax, out.Nb = r.CboundMax, r.Nb
		}
		sumCount += r.Count
		w := float64(r.Last - r.First + 1)
		weightedAvgNumer += r.CpredAvg * w
		weight += w
	}
	out.Count = sumCount
	if weight > 0 {
		out.CpredAvg = weightedAvgNumer / weight
	}
	out.Jitter = out.CpredMax - out.CpredMin
	return out
}
