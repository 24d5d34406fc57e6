package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherFloat64SliceFlagDedupsAndSorts(t *testing.T) {
	f := newFloat64SliceFlag()
	require.NoError(t, f.Set("0.9"))
	require.NoError(t, f.Set("0.1"))
	require.NoError(t, f.Set("0.9"))
	assert.Equal(t, []float64{0.1, 0.9}, f.Sorted())
}

func TestDispatcherExpandTemplateSubstitutesAlphaAndFormat(t *testing.T) {
	got := expandTemplate("-=ALPHA=--=FORMAT=-.csv", 0.25, "raw")
	assert.Equal(t, "0.25raw.csv", got)
}

func TestDispatcherResolveRangeFavorsTraceSpecificBounds(t *testing.T) {
	rng := resolveRange(10, 20, 1, 1000)
	assert.Equal(t, traceRange{start: 10, end: 20}, rng)
}

func TestDispatcherParseCompatAndModelAgreeWithStandaloneBinary(t *testing.T) {
	for _, s := range []string{"v0.1", "v0.1.5", "v0.2", "current"} {
		_, err := parseCompat(s)
		assert.NoError(t, err, s)
	}
	_, hlMode, err := parseModel("hl-a")
	require.NoError(t, err)
	assert.True(t, hlMode)
}
