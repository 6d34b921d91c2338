package pulseq_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrlab/seqgen/pulseq"
)

func TestMakeBlockPulse(t *testing.T) {
	sys := pulseq.Default()

	rf, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
		FlipAngle: math.Pi,
		Duration:  1e-3,
		Delay:     sys.RFDeadTime,
		Use:       pulseq.UsePreparation,
	})
	require.NoError(t, err)

	assert.InDelta(t, 500, rf.Amplitude, 1e-9, "pi flip over 1 ms is 500 Hz")
	assert.InDelta(t, sys.RFDeadTime+1e-3+sys.RFRingdownTime, rf.Duration(), 1e-12)
	assert.InDelta(t, sys.RFDeadTime+0.5e-3, rf.Center(), 1e-12)

	for _, v := range rf.Envelope {
		assert.Equal(t, 1.0, v, "hard pulse envelope is constant")
	}
}

func TestMakeBlockPulseNegativeFlip(t *testing.T) {
	sys := pulseq.Default()

	rf, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
		FlipAngle: -2 * math.Pi,
		Duration:  2e-3,
	})
	require.NoError(t, err)

	assert.True(t, rf.Amplitude < 0)
	assert.InDelta(t, -500, rf.Amplitude, 1e-9)
}

func TestMakeBlockPulseRejectsBadDuration(t *testing.T) {
	_, err := pulseq.MakeBlockPulse(pulseq.Default(), pulseq.BlockPulseSpec{FlipAngle: math.Pi})
	assert.ErrorContains(t, err, "duration")
}

func TestMakeAdiabaticPulse(t *testing.T) {
	sys := pulseq.Default()

	rf, err := pulseq.MakeAdiabaticPulse(sys, pulseq.AdiabaticPulseSpec{
		PulseType:    "hypsec",
		Adiabaticity: 6,
		Beta:         800,
		Mu:           4.9,
		Duration:     10.24e-3,
		Delay:        sys.RFDeadTime,
		Use:          pulseq.UseInversion,
	})
	require.NoError(t, err)

	assert.InDelta(t, 6*math.Sqrt(4.9)*800/(2*math.Pi), rf.Amplitude, 1e-9)
	assert.InDelta(t, 10.24e-3, rf.ShapeDur, 1e-12)

	// The envelope peaks at the pulse center and decays towards the edges.
	n := len(rf.Envelope)
	assert.Greater(t, rf.Envelope[n/2], rf.Envelope[n/8])
	assert.Greater(t, rf.Envelope[n/8], rf.Envelope[0])
	assert.InDelta(t, 1, rf.Envelope[n/2], 1e-4)

	// The phase track is symmetric, so the frequency sweep is antisymmetric.
	assert.InDelta(t, rf.Phase[0], rf.Phase[n-1], 1e-9)
}

func TestMakeAdiabaticPulseRejectsUnknownType(t *testing.T) {
	_, err := pulseq.MakeAdiabaticPulse(pulseq.Default(), pulseq.AdiabaticPulseSpec{
		PulseType:    "wurst",
		Adiabaticity: 6,
		Beta:         800,
		Mu:           4.9,
		Duration:     10e-3,
	})
	assert.ErrorContains(t, err, "unsupported adiabatic pulse type")
}

func TestMakeSincPulseFlipIntegral(t *testing.T) {
	sys := pulseq.Default()
	flip := 12.0 / 180 * math.Pi

	rf, err := pulseq.MakeSincPulse(sys, pulseq.SincPulseSpec{
		FlipAngle:     flip,
		Duration:      1.28e-3,
		Apodization:   0.5,
		TimeBwProduct: 4,
		Use:           pulseq.UseExcitation,
	})
	require.NoError(t, err)

	raster := rf.ShapeDur / float64(len(rf.Envelope))
	var sum float64
	for _, v := range rf.Envelope {
		sum += v
	}

	assert.InDelta(t, flip, 2*math.Pi*rf.Amplitude*raster*sum, 1e-9,
		"flip angle is the integral of the waveform")
}

func TestMakeSliceSelectSincPulse(t *testing.T) {
	sys := pulseq.Default()

	rf, gz, gzr, err := pulseq.MakeSliceSelectSincPulse(sys, pulseq.SincPulseSpec{
		FlipAngle:      12.0 / 180 * math.Pi,
		Duration:       1.28e-3,
		SliceThickness: 8e-3,
		Apodization:    0.5,
		TimeBwProduct:  4,
		Delay:          sys.RFDeadTime,
		Use:            pulseq.UseExcitation,
	})
	require.NoError(t, err)

	bandwidth := 4 / 1.28e-3
	assert.InDelta(t, bandwidth/8e-3, gz.Amplitude, 1e-6)
	assert.Equal(t, 1.28e-3, gz.FlatTime, "the waveform plays on the plateau")

	assert.Equal(t, math.Max(sys.RFDeadTime, gz.RiseTime), rf.Delay)
	assert.InDelta(t, rf.Delay, gz.Delay+gz.RiseTime, 1e-12,
		"waveform start coincides with plateau start")

	wantArea := -(gz.FlatArea()/2 + gz.Amplitude*gz.FallTime/2)
	assert.InDelta(t, wantArea, gzr.Area(), math.Abs(wantArea)*1e-9)
}

func TestMakeSliceSelectSincPulseRejectsThinSlice(t *testing.T) {
	sys := pulseq.Default()

	_, _, _, err := pulseq.MakeSliceSelectSincPulse(sys, pulseq.SincPulseSpec{
		FlipAngle:      math.Pi / 2,
		Duration:       1e-3,
		SliceThickness: 1e-6,
		TimeBwProduct:  4,
	})
	assert.ErrorContains(t, err, "maximum gradient")
}
