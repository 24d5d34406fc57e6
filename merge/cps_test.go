package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/gbcsv"
)

func TestMergeCPSAlphaInheritsFields(t *testing.T) {
	rows := []gbcsv.CPSRow{
		{First: 1, Last: 100, Alpha: 0.5, PreMertens: 10, Mertens: 0, DeltaMertens: 0},
		{First: 101, Last: 200, Alpha: 0.5, Mertens: 20, DeltaMertens: 1, N5Precent: 150, NzeroStat: 160, EtaStat: 0.1},
		{First: 201, Last: 300, Alpha: 0.5, NzeroStat: 250, EtaStat: 0.2},
	}

	merged, gaps, err := MergeCPSAlpha(rows)
	require.NoError(t, err)
	assert.Empty(t, gaps)

	assert.Equal(t, uint64(1), merged.First)
	assert.Equal(t, uint64(300), merged.Last)
	assert.Equal(t, 10.0, merged.PreMertens)
	assert.Equal(t, 20.0, merged.Mertens)
	assert.Equal(t, 1.0, merged.DeltaMertens)
	assert.Equal(t, uint64(150), merged.N5Precent)
	assert.Equal(t, 250.0, merged.NzeroStat)
	assert.Equal(t, 0.2, merged.EtaStat)
}

func TestMergeCPSAlphaDetectsOverlap(t *testing.T) {
	rows := []gbcsv.CPSRow{
		{First: 1, Last: 100},
		{First: 50, Last: 150},
	}
	_, _, err := MergeCPSAlpha(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestMergeCPSAlphaReportsGap(t *testing.T) {
	rows := []gbcsv.CPSRow{
		{First: 1, Last: 100},
		{First: 150, Last: 200},
	}
	_, gaps, err := MergeCPSAlpha(rows)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
}

func TestMergeCPSAlphaEmptyInput(t *testing.T) {
	merged, gaps, err := MergeCPSAlpha(nil)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.Zero(t, merged.First)
}
