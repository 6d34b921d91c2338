package pulseq_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrlab/seqgen/pulseq"
)

func TestMakeTrapezoidAmplitude(t *testing.T) {
	sys := pulseq.Default()

	g, err := pulseq.MakeTrapezoidAmplitude(sys, pulseq.ChannelZ, 0.4*sys.MaxGrad, 6e-3, 6e-4)
	require.NoError(t, err)

	assert.Equal(t, 6e-4, g.RiseTime)
	assert.Equal(t, 6e-4, g.FallTime)
	assert.Equal(t, 6e-3, g.FlatTime)
	assert.InDelta(t, 6e-4+6e-3+6e-4, g.Duration(), 1e-12)
	assert.InDelta(t, 0.4*sys.MaxGrad*6e-3, g.FlatArea(), 1e-3)
}

func TestMakeTrapezoidAmplitudeRejectsOverflow(t *testing.T) {
	sys := pulseq.Default()

	_, err := pulseq.MakeTrapezoidAmplitude(sys, pulseq.ChannelX, 1.5*sys.MaxGrad, 1e-3, 1e-4)
	assert.ErrorContains(t, err, "maximum gradient")
}

func TestMakeTrapezoidFlatArea(t *testing.T) {
	sys := pulseq.Default()

	g, err := pulseq.MakeTrapezoidFlatArea(sys, pulseq.ChannelX, 1000, 1.28e-3)
	require.NoError(t, err)

	assert.InDelta(t, 1000, g.FlatArea(), 1e-6)
	assert.InDelta(t, 1000/1.28e-3, g.Amplitude, 1e-6)
	assertOnRaster(t, g.RiseTime, sys.GradRasterTime)
}

func TestMakeTrapezoidAreaWithDuration(t *testing.T) {
	sys := pulseq.Default()

	g, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelY, -500, 1e-3)
	require.NoError(t, err)

	assert.InDelta(t, -500, g.Area(), 1e-6)
	assert.InDelta(t, 1e-3, g.Duration(), 1e-12)
	assert.True(t, g.Amplitude < 0)
	assert.True(t, math.Abs(g.Amplitude) <= sys.MaxGrad)
}

func TestMakeTrapezoidAreaZero(t *testing.T) {
	sys := pulseq.Default()

	g, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelY, 0, 1e-3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, g.Amplitude, "zero-area gradients are kept, not elided")
	assert.InDelta(t, 1e-3, g.Duration(), 1e-12)
}

func TestMakeTrapezoidAreaShortest(t *testing.T) {
	sys := pulseq.Default()

	g, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelZ, 500, 0)
	require.NoError(t, err)

	assert.InDelta(t, 500, g.Area(), 1e-6)
	assert.True(t, math.Abs(g.Amplitude) <= sys.MaxGrad+1e-9)
	assertOnRaster(t, g.RiseTime, sys.GradRasterTime)
	assertOnRaster(t, g.FlatTime, sys.GradRasterTime)
}

func TestMakeTrapezoidAreaInfeasibleDuration(t *testing.T) {
	sys := pulseq.Default()

	_, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelX, 500, 5e-5)
	assert.ErrorContains(t, err, "slew rate")
}

func assertOnRaster(t *testing.T, value, raster float64) {
	t.Helper()

	n := math.Round(value / raster)
	assert.InDelta(t, n*raster, value, 1e-12, "value %g must sit on raster %g", value, raster)
}
