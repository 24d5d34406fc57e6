// Package aggregate implements C6, the Window Aggregator: per-alpha
// accumulation of empirical and predicted Goldbach-pair statistics within
// a decade or primorial bucket, emitting a Row whenever a bucket closes.
package aggregate

import (
	"math"

	"github.com/grailbio/gbsieve/bucket"
	"github.com/grailbio/gbsieve/envelope"
	"github.com/grailbio/gbsieve/hlpredict"
	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
)

// CompatFlavor selects the historical delta-capping behavior a WindowState
// must reproduce.
type CompatFlavor int

const (
	// CompatLegacy, CompatV01 and CompatV015 share the legacy
	// delta-capping behavior (no n-3 cap for alpha <= 0.5).
	CompatLegacy CompatFlavor = iota
	CompatV01
	CompatV015
	CompatV02
	CompatCurrent
)

// Config parameterizes a WindowState's per-n update.
type Config struct {
	// EulerCap enables the delta <= ceil(((2n+1)-sqrt(8n+1))/2)-1 cap.
	EulerCap bool
	// Compat selects the delta-capping compatibility flavor.
	Compat CompatFlavor
	// IncludeTrivial adds the trivial pair (n,n) to the count when n is
	// itself prime, and shifts the normalizer denominator by 1/2.
	IncludeTrivial bool
	// HLMode selects the Hardy-Littlewood-A prediction mode; when false,
	// Cpred columns carry the empirical value instead (the "empirical"
	// summary variant of spec.md section 6 format 4).
	HLMode bool
}

// Row is one emitted summary row, matching the column set of spec.md
// section 6 format 4's "full" schema. Empirical-variant callers (gbcsv)
// read the same fields; the CSV encoder decides which columns to project.
type Row struct {
	First, Last, Start uint64

	MinAt          uint64
	GpredAtMinAt   float64
	MaxAt          uint64
	GpredAtMaxAt   float64
	N0             uint64
	CpredMin       float64
	N1             uint64
	CpredMax       float64
	NGeom          uint64
	Count          float64
	CpredAvg       float64
	Nv             uint64
	CalignMin      float64
	Nu             uint64
	CalignMax      float64
	Na             uint64
	CboundMin      float64
	Nb             uint64
	CboundMax      float64
	Jitter         float64
}

// eulerCapValue computes ceil(((2n+1)-sqrt(8n+1))/2)-1.
func eulerCapValue(n uint64) uint64 {
	v := (2*float64(n) + 1 - math.Sqrt(8*float64(n)+1)) / 2
	capv := math.Ceil(v) - 1
	if capv < 0 {
		return 0
	}
	return uint64(capv)
}

// ComputeDelta applies spec.md section 4.6 step 1 verbatim. Exported so
// the certifier can recompute delta_0/delta_1 at the argmin/argmax points
// of a summary row without duplicating the capping logic.
func ComputeDelta(n uint64, alpha float64, cfg Config) uint64 {
	return computeDelta(n, alpha, cfg)
}

func computeDelta(n uint64, alpha float64, cfg Config) uint64 {
	delta := uint64(alpha * float64(n))
	if cfg.EulerCap {
		if c := eulerCapValue(n); delta > c {
			delta = c
		}
	}
	legacy := cfg.Compat == CompatLegacy || cfg.Compat == CompatV01 || cfg.Compat == CompatV015
	if !legacy || alpha > 0.5 {
		if n > 3 {
			if maxDelta := n - 3; delta > maxDelta {
				delta = maxDelta
			}
		} else {
			delta = 0
		}
	} else if delta < 1 {
		delta = 1
	}
	// A zero-width window makes the normalizer's denominator degenerate
	// (division by zero without include_trivial); every mode floors to a
	// single-wide window rather than emitting an undefined C_n.
	if delta < 1 {
		delta = 1
	}
	return delta
}

// WindowState is the per-alpha accumulator of spec.md section 3: one
// instance per alpha, with two independent sub-accumulators tracking the
// decade and primorial bucket sequences against the same stream of (n,
// G_n, C_n) measurements.
type WindowState struct {
	Alpha     float64
	Decade    *bucketAccumulator
	Primorial *bucketAccumulator
}

// NewWindowState creates a WindowState for alpha, with decadeSched and
// primorialSched driving the two sub-accumulators' bucket boundaries.
func NewWindowState(alpha float64, decadeSched, primorialSched bucket.Schedule, stream *primestore.Stream) *WindowState {
	return &WindowState{
		Alpha:     alpha,
		Decade:    newBucketAccumulator(decadeSched, stream),
		Primorial: newBucketAccumulator(primorialSched, stream),
	}
}

// Update processes a single n against this WindowState's alpha, using
// cursor (shared, per spec.md section 5's option (ii), across every alpha
// and both sub-accumulators at this n) to count pairs. isPrime reports
// whether n itself is prime, for the include-trivial rule. It returns one
// Row per sub-accumulator whose bucket closed as a result of this n.
func (w *WindowState) Update(n uint64, cursor *pair.Cursor, stream *primestore.Stream, isPrime func(uint64) bool, cfg Config) ([]Row, error) {
	delta := computeDelta(n, w.Alpha, cfg)
	nMin := n - delta

	pc, err := cursor.CountRangedPairs(n, nMin)
	if err != nil {
		return nil, err
	}
	if cfg.IncludeTrivial && isPrime(n) {
		pc++
	}

	trivialTerm := 0.0
	if cfg.IncludeTrivial {
		trivialTerm = 0.5
	}
	lnN := math.Log(float64(n))
	norm := (lnN * lnN) / (float64(delta) + trivialTerm)
	g := float64(pc)
	c := g * norm

	var cpred float64
	if cfg.HLMode {
		cpred = hlpredict.Predict(n, stream)
	} else {
		cpred = c
	}

	var rows []Row
	if r, ok := w.Decade.absorb(n, delta, g, c, cpred, cfg, stream); ok {
		rows = append(rows, r)
	}
	if r, ok := w.Primorial.absorb(n, delta, g, c, cpred, cfg, stream); ok {
		rows = append(rows, r)
	}
	return rows, nil
}

// bucketAccumulator is the "min/max/geom/avg" running state for one
// sub-accumulator (decade or primorial), keyed implicitly by the bucket
// its Schedule currently reports.
type bucketAccumulator struct {
	schedule bucket.Schedule
	stream   *primestore.Stream

	initialized bool
	start       uint64
	last        uint64

	minAt, maxAt   uint64
	minG, maxG     float64
	n0, n1         uint64
	minC, maxC     float64
	sumPairs       float64
	sumC           float64
	sumCpred       float64
	nEvaluated     uint64
	ngeom          uint64

	alignMemo    *envelope.Memo
	boundPosMemo *envelope.Memo
	boundNegMemo *envelope.Memo

	nv, nu         uint64
	calignMin      float64
	calignMax      float64
	na, nb         uint64
	cboundMin      float64
	cboundMax      float64
	trackersSet    bool
}

func newBucketAccumulator(sched bucket.Schedule, stream *primestore.Stream) *bucketAccumulator {
	return &bucketAccumulator{
		schedule:     sched,
		stream:       stream,
		alignMemo:    envelope.NewMemo(stream),
		boundPosMemo: envelope.NewMemo(stream),
		boundNegMemo: envelope.NewMemo(stream),
	}
}

func (b *bucketAccumulator) reset() {
	b.initialized = false
	b.start, b.last = 0, 0
	b.minAt, b.maxAt = 0, 0
	b.minG, b.maxG = 0, 0
	b.n0, b.n1 = 0, 0
	b.minC, b.maxC = 0, 0
	b.sumPairs, b.sumC, b.sumCpred = 0, 0, 0
	b.nEvaluated = 0
	b.ngeom = 0
	b.trackersSet = false
	b.alignMemo.Reset()
	b.boundPosMemo.Reset()
	b.boundNegMemo.Reset()
}

// absorb folds one (n, G_n, C_n, Cpred) measurement into the
// sub-accumulator's running state, closing and emitting the previous
// bucket first if the schedule reports the bucket just advanced.
func (b *bucketAccumulator) absorb(n, delta uint64, g, c, cpred float64, cfg Config, stream *primestore.Stream) (Row, bool) {
	closed := b.schedule.Advance(n)

	var row Row
	var emitted bool
	if closed && !b.schedule.Empty() {
		row, emitted = b.buildRow()
	}
	if closed {
		b.reset()
	}

	if b.schedule.Empty() {
		return row, emitted
	}

	if !b.initialized {
		b.start = n
		b.minAt, b.maxAt = n, n
		b.minG, b.maxG = g, g
		b.n0, b.n1 = n, n
		b.minC, b.maxC = c, c
		b.ngeom = geomAnchor(b.schedule)
		b.initialized = true
	} else {
		if g < b.minG {
			b.minG, b.minAt = g, n
		}
		if g > b.maxG {
			b.maxG, b.maxAt = g, n
		}
		if c < b.minC {
			b.minC, b.n0 = c, n
		}
		if c > b.maxC {
			b.maxC, b.n1 = c, n
		}
	}
	b.last = n
	b.sumPairs += g
	b.sumC += c
	b.sumCpred += cpred
	b.nEvaluated++

	align := b.alignMemo.Compute(n, delta, envelope.Options{R: 2, Flavor: envelope.FlavorAlign})
	boundPos := b.boundPosMemo.Compute(n, delta, envelope.Options{R: 2, Flavor: envelope.FlavorBoundPositive})
	boundNeg := b.boundNegMemo.Compute(n, delta, envelope.Options{R: 2, Flavor: envelope.FlavorBoundNegative})
	if !b.trackersSet {
		b.nv, b.calignMin = n, align
		b.nu, b.calignMax = n, align
		b.na, b.cboundMin = n, boundNeg
		b.nb, b.cboundMax = n, boundPos
		b.trackersSet = true
	} else {
		if align < b.calignMin {
			b.calignMin, b.nv = align, n
		}
		if align > b.calignMax {
			b.calignMax, b.nu = align, n
		}
		if boundNeg < b.cboundMin {
			b.cboundMin, b.na = boundNeg, n
		}
		if boundPos > b.cboundMax {
			b.cboundMax, b.nb = boundPos, n
		}
	}

	return row, emitted
}

// buildRow emits the Row for the bucket currently accumulated, applying
// the HL-correction factor to Cpred_avg when configured (the ratio of the
// bucket's mean predicted value to its mean empirical value, nudging the
// empirical average toward the theoretical one exactly when per-row HL
// correction was not already applied via Cpred itself).
func (b *bucketAccumulator) buildRow() (Row, bool) {
	if b.nEvaluated == 0 {
		return Row{}, false
	}
	avg := b.sumC / float64(b.nEvaluated)
	cpredAvg := avg
	if b.sumC != 0 {
		cpredAvg = avg * (b.sumCpred / b.sumC)
	}
	return Row{
		First:        b.start,
		Last:         b.last,
		Start:        b.start,
		MinAt:        b.minAt,
		GpredAtMinAt: b.minG,
		MaxAt:        b.maxAt,
		GpredAtMaxAt: b.maxG,
		N0:           b.n0,
		CpredMin:     b.minC,
		N1:           b.n1,
		CpredMax:     b.maxC,
		NGeom:        b.ngeom,
		Count:        b.sumPairs,
		CpredAvg:     cpredAvg,
		Nv:           b.nv,
		CalignMin:    b.calignMin,
		Nu:           b.nu,
		CalignMax:    b.calignMax,
		Na:           b.na,
		CboundMin:    b.cboundMin,
		Nb:           b.nb,
		CboundMax:    b.cboundMax,
		Jitter:       b.maxC - b.minC,
	}, true
}

// geomAnchor reports the bucket's n_geom, pulling the decade-specific
// formula from a *bucket.DecadeSchedule when available and otherwise
// falling back to the geometric midpoint of [Left,Right).
func geomAnchor(s bucket.Schedule) uint64 {
	if ds, ok := s.(*bucket.DecadeSchedule); ok {
		return ds.NGeom()
	}
	left, right := float64(s.Left()), float64(s.Right())
	return uint64(math.Floor(math.Sqrt(left * right)))
}
