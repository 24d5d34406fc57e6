package certify

import (
	"context"
	"fmt"
	"math"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
)

// DefaultTolerance is the HL-A mode default tolerance band (10%), per
// spec.md section 4.9.
const DefaultTolerance = 0.10

// Summary reparses every row of the summary CSV at path and, for the
// argmin row (n_0), re-runs the pair counter at n_0 with the same delta_0
// the aggregator would have computed, checking the reported C_min (or
// Cpred_min, in HL-A mode) to 6-decimal precision; it does the same at
// n_1 for C_max/Cpred_max. In HL-A mode, exact equality is replaced by a
// tolerance band (default DefaultTolerance) and the certifier additionally
// requires the predicted value be >= the empirical value at that point,
// modulo small-count rounding.
func Summary(ctx context.Context, path string, alpha float64, stream *primestore.Stream, cfg aggregate.Config, tolerance float64) (string, error) {
	rows, model, _, err := gbcsv.ReadSummaryRows(ctx, path)
	if err != nil {
		return "", err
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	cursor := pair.NewCursor(stream)
	isPrime := func(n uint64) bool {
		lo, hi := 0, stream.Len()
		for lo < hi {
			mid := (lo + hi) / 2
			if stream.At(mid) < n {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		return lo < stream.Len() && stream.At(lo) == n
	}
	checked := 0
	for _, row := range rows {
		if err := checkPoint(cursor, stream, row.N0, alpha, cfg, model, row.CpredMin, tolerance, isPrime, "C_min", path); err != nil {
			return "", err
		}
		if err := checkPoint(cursor, stream, row.N1, alpha, cfg, model, row.CpredMax, tolerance, isPrime, "C_max", path); err != nil {
			return "", err
		}
		checked++
	}

	return fmt.Sprintf("OK: summary %s: %d rows reparsed, argmin/argmax points verified (model=%s, tolerance=%.2f%%)",
		path, checked, modelLabel(model), tolerance*100), nil
}

func modelLabel(m gbcsv.Model) string {
	if m == gbcsv.ModelHLA {
		return "hl-a"
	}
	return "empirical"
}

func checkPoint(cursor *pair.Cursor, stream *primestore.Stream, n uint64, alpha float64, cfg aggregate.Config, model gbcsv.Model, reported float64, tolerance float64, isPrime func(uint64) bool, label, path string) error {
	if n == 0 {
		return nil
	}
	delta := aggregate.ComputeDelta(n, alpha, cfg)
	nMin := n - delta
	pc, err := cursor.CountRangedPairs(n, nMin)
	if err != nil {
		return err
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
	empirical := float64(pc) * norm

	if model == gbcsv.ModelEmpirical {
		if math.Abs(reported-empirical) > 5e-7 {
			return mismatch("certify.Summary: %s: %s at n=%d: reported %.6f, recomputed %.6f", path, label, n, reported, empirical)
		}
		return nil
	}

	// HL-A mode: tolerance band, and the prediction must not undershoot the
	// empirical value beyond small-count rounding noise.
	if empirical == 0 {
		return nil
	}
	relErr := math.Abs(reported-empirical) / empirical
	if relErr > tolerance {
		return mismatch("certify.Summary: %s: %s at n=%d: reported %.6f deviates %.2f%% from recomputed empirical %.6f (tolerance %.2f%%)",
			path, label, n, reported, relErr*100, empirical, tolerance*100)
	}
	if reported < empirical-1.0 {
		return mismatch("certify.Summary: %s: %s at n=%d: predicted %.6f undershoots empirical %.6f beyond rounding",
			path, label, n, reported, empirical)
	}
	return nil
}
