package pulseq

import (
	"fmt"
	"math"
)

// MakeTrapezoidAmplitude creates a trapezoid from an explicit amplitude,
// plateau time and ramp time. A zero ramp time means the shortest ramp the
// slew-rate limit allows.
func MakeTrapezoidAmplitude(system Opts, ch Channel, amplitude, flatTime, riseTime float64) (*TrapGradient, error) {
	if flatTime < 0 {
		return nil, fmt.Errorf("pulseq: flat time must be non-negative, got %g", flatTime)
	}
	if math.Abs(amplitude) > system.MaxGrad+timeTolerance {
		return nil, fmt.Errorf(
			"pulseq: gradient amplitude %g Hz/m exceeds the maximum gradient %g Hz/m",
			amplitude, system.MaxGrad)
	}

	if riseTime <= 0 {
		riseTime = RoundUpToRaster(math.Abs(amplitude)/system.MaxSlew, system.GradRasterTime)
		if riseTime < system.GradRasterTime {
			riseTime = system.GradRasterTime
		}
	} else if math.Abs(amplitude)/riseTime > system.MaxSlew+timeTolerance {
		return nil, fmt.Errorf(
			"pulseq: ramp of %g Hz/m in %g s exceeds the slew rate limit %g Hz/m/s",
			amplitude, riseTime, system.MaxSlew)
	}

	return &TrapGradient{
		Channel:   ch,
		Amplitude: amplitude,
		RiseTime:  riseTime,
		FlatTime:  flatTime,
		FallTime:  riseTime,
	}, nil
}

// MakeTrapezoidFlatArea creates a trapezoid whose plateau covers the given
// area over the given plateau time, with slew-limited ramps.
func MakeTrapezoidFlatArea(system Opts, ch Channel, flatArea, flatTime float64) (*TrapGradient, error) {
	if flatTime <= 0 {
		return nil, fmt.Errorf("pulseq: flat time must be positive, got %g", flatTime)
	}

	return MakeTrapezoidAmplitude(system, ch, flatArea/flatTime, flatTime, 0)
}

// MakeTrapezoidArea creates a trapezoid with the given total area. With a
// positive duration the ramps are solved so the trapezoid fills exactly
// that duration; with duration 0 the shortest realizable trapezoid under
// the amplitude and slew limits is returned. A zero area is legal and
// yields a zero-amplitude gradient spanning the requested duration.
func MakeTrapezoidArea(system Opts, ch Channel, area, duration float64) (*TrapGradient, error) {
	if duration > 0 {
		return trapezoidForDuration(system, ch, area, duration)
	}

	return shortestTrapezoid(system, ch, area)
}

func trapezoidForDuration(system Opts, ch Channel, area, duration float64) (*TrapGradient, error) {
	if area == 0 {
		rise := system.GradRasterTime
		if duration < 2*rise {
			return nil, fmt.Errorf("pulseq: duration %g s is shorter than two gradient rasters", duration)
		}

		return &TrapGradient{
			Channel:  ch,
			RiseTime: rise,
			FlatTime: duration - 2*rise,
			FallTime: rise,
		}, nil
	}

	// area = amp*(duration - rise) with amp = slew*rise gives a quadratic
	// in the ramp time; the smaller root is the gentler solution.
	disc := duration*duration - 4*math.Abs(area)/system.MaxSlew
	if disc < 0 {
		return nil, fmt.Errorf(
			"pulseq: area %g 1/m is not reachable within %g s under the slew rate limit", area, duration)
	}

	rise := RoundUpToRaster((duration-math.Sqrt(disc))/2, system.GradRasterTime)
	if rise < system.GradRasterTime {
		rise = system.GradRasterTime
	}

	flat := duration - 2*rise
	if flat < -timeTolerance {
		return nil, fmt.Errorf(
			"pulseq: area %g 1/m is not reachable within %g s under the slew rate limit", area, duration)
	}
	if flat < 0 {
		flat = 0
	}

	amp := area / (duration - rise)
	if math.Abs(amp) > system.MaxGrad+timeTolerance {
		return nil, fmt.Errorf(
			"pulseq: gradient amplitude %g Hz/m exceeds the maximum gradient %g Hz/m", amp, system.MaxGrad)
	}

	return &TrapGradient{
		Channel:   ch,
		Amplitude: amp,
		RiseTime:  rise,
		FlatTime:  flat,
		FallTime:  rise,
	}, nil
}

func shortestTrapezoid(system Opts, ch Channel, area float64) (*TrapGradient, error) {
	if area == 0 {
		return nil, fmt.Errorf("pulseq: shortest trapezoid requires a non-zero area")
	}

	abs := math.Abs(area)

	// Triangle first: a ramp straight up and down reaches the area fastest
	// as long as the peak stays below the amplitude limit.
	if math.Sqrt(abs*system.MaxSlew) <= system.MaxGrad {
		rise := RoundUpToRaster(math.Sqrt(abs/system.MaxSlew), system.GradRasterTime)

		return &TrapGradient{
			Channel:   ch,
			Amplitude: area / rise,
			RiseTime:  rise,
			FallTime:  rise,
		}, nil
	}

	rise := RoundUpToRaster(system.MaxGrad/system.MaxSlew, system.GradRasterTime)
	flat := RoundUpToRaster(abs/system.MaxGrad-rise, system.GradRasterTime)

	return &TrapGradient{
		Channel:   ch,
		Amplitude: area / (rise + flat),
		RiseTime:  rise,
		FlatTime:  flat,
		FallTime:  rise,
	}, nil
}
