package pulseq

import (
	"fmt"
	"math"
)

// timeTolerance absorbs floating-point fuzz when comparing durations
// against raster boundaries.
const timeTolerance = 1e-9

// CalcDuration returns the time span a block would need to hold all the
// given events concurrently.
func CalcDuration(events ...Event) float64 {
	var d float64
	for _, e := range events {
		d = math.Max(d, e.Duration())
	}

	return d
}

// RoundUpToRaster rounds t up to the next multiple of raster. Values that
// already sit on the raster within tolerance are returned unchanged in
// raster units.
func RoundUpToRaster(t, raster float64) float64 {
	if raster <= 0 {
		panic(fmt.Sprintf("pulseq: invalid raster %g", raster))
	}

	return math.Ceil(t/raster-timeTolerance) * raster
}

// onRaster reports whether t is an integer multiple of raster.
func onRaster(t, raster float64) bool {
	n := math.Round(t / raster)
	return math.Abs(t-n*raster) < timeTolerance
}

// MakeDelay creates a pure delay event. The delay must be non-negative;
// callers are expected to validate computed delays before insertion, so a
// negative or NaN value is a programming error.
func MakeDelay(t float64) Delay {
	if t < 0 || math.IsNaN(t) {
		panic(fmt.Sprintf("pulseq: delay must be non-negative, got %g", t))
	}

	return Delay{T: t}
}
