package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/gbsieve/aggregate"
)

func TestFingerprintStableAcrossEqualRows(t *testing.T) {
	a := rowRange(1, 100, 2.0)
	b := a
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDiffersOnDistinctRows(t *testing.T) {
	a := rowRange(1, 100, 2.0)
	b := rowRange(1, 100, 3.0)
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestDedupByFingerprintKeepsFirstOccurrence(t *testing.T) {
	a := rowRange(1, 100, 2.0)
	b := rowRange(101, 200, 3.0)
	dup := a

	out := dedupByFingerprint([]aggregate.Row{a, b, dup})
	assert.Len(t, out, 2)
	assert.Equal(t, a, out[0])
	assert.Equal(t, b, out[1])
}
