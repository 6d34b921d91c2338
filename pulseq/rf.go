package pulseq

import (
	"errors"
	"fmt"
	"math"
)

// BlockPulseSpec parameterizes a hard (constant-envelope) RF pulse.
type BlockPulseSpec struct {
	FlipAngle   float64 // rad, may be negative
	Duration    float64 // s
	Delay       float64 // s
	FreqOffset  float64 // Hz
	PhaseOffset float64 // rad
	Use         Use
}

// MakeBlockPulse synthesizes a hard pulse. The amplitude follows directly
// from the flip angle: flip = 2*pi * amplitude * duration.
func MakeBlockPulse(system Opts, spec BlockPulseSpec) (*RFPulse, error) {
	if spec.Duration <= 0 {
		return nil, fmt.Errorf("pulseq: block pulse duration must be positive, got %g", spec.Duration)
	}

	n := numRFSamples(spec.Duration, system.RFRasterTime)
	env := make([]float64, n)
	phase := make([]float64, n)
	for i := range env {
		env[i] = 1
	}

	return &RFPulse{
		Amplitude:    spec.FlipAngle / (2 * math.Pi * spec.Duration),
		Envelope:     env,
		Phase:        phase,
		ShapeDur:     spec.Duration,
		Delay:        spec.Delay,
		FreqOffset:   spec.FreqOffset,
		PhaseOffset:  spec.PhaseOffset,
		DeadTime:     zeroIfUnset(system.RFDeadTime),
		RingdownTime: zeroIfUnset(system.RFRingdownTime),
		Use:          spec.Use,
	}, nil
}

// AdiabaticPulseSpec parameterizes an adiabatic inversion pulse.
type AdiabaticPulseSpec struct {
	PulseType    string  // only "hypsec" is supported
	Adiabaticity float64 // safety margin on the adiabatic condition
	Beta         float64 // rad/s, envelope sharpness
	Mu           float64 // dimensionless, frequency sweep factor
	Duration     float64 // s
	Delay        float64 // s
	FreqOffset   float64 // Hz
	PhaseOffset  float64 // rad
	Use          Use
}

// MakeAdiabaticPulse synthesizes a hyperbolic-secant adiabatic pulse:
// amplitude modulation sech(beta*tau) with the matching frequency sweep
// -mu*beta*tanh(beta*tau)/2pi, expressed through the closed-form phase
// track mu*ln(sech(beta*tau)). The peak amplitude is chosen so the
// adiabatic condition holds with the requested margin.
func MakeAdiabaticPulse(system Opts, spec AdiabaticPulseSpec) (*RFPulse, error) {
	if spec.PulseType != "hypsec" {
		return nil, fmt.Errorf("pulseq: unsupported adiabatic pulse type %q", spec.PulseType)
	}
	if spec.Duration <= 0 {
		return nil, fmt.Errorf("pulseq: adiabatic pulse duration must be positive, got %g", spec.Duration)
	}
	if spec.Beta <= 0 || spec.Mu <= 0 || spec.Adiabaticity <= 0 {
		return nil, errors.New("pulseq: adiabatic pulse requires positive beta, mu and adiabaticity")
	}

	n := numRFSamples(spec.Duration, system.RFRasterTime)
	raster := spec.Duration / float64(n)
	env := make([]float64, n)
	phase := make([]float64, n)

	for i := 0; i < n; i++ {
		tau := (float64(i)+0.5)*raster - spec.Duration/2
		s := 1 / math.Cosh(spec.Beta*tau)
		env[i] = s
		phase[i] = spec.Mu * math.Log(s)
	}

	return &RFPulse{
		Amplitude:    spec.Adiabaticity * math.Sqrt(spec.Mu) * spec.Beta / (2 * math.Pi),
		Envelope:     env,
		Phase:        phase,
		ShapeDur:     spec.Duration,
		Delay:        spec.Delay,
		FreqOffset:   spec.FreqOffset,
		PhaseOffset:  spec.PhaseOffset,
		DeadTime:     zeroIfUnset(system.RFDeadTime),
		RingdownTime: zeroIfUnset(system.RFRingdownTime),
		Use:          spec.Use,
	}, nil
}

// SincPulseSpec parameterizes an apodized sinc excitation pulse.
type SincPulseSpec struct {
	FlipAngle      float64 // rad
	Duration       float64 // s
	SliceThickness float64 // m, only used by MakeSliceSelectSincPulse
	Apodization    float64 // 0..1, Hanning-style window weight
	TimeBwProduct  float64
	Delay          float64 // s
	FreqOffset     float64 // Hz
	PhaseOffset    float64 // rad
	Use            Use
}

// MakeSincPulse synthesizes an apodized sinc pulse without any gradient.
func MakeSincPulse(system Opts, spec SincPulseSpec) (*RFPulse, error) {
	if spec.Duration <= 0 {
		return nil, fmt.Errorf("pulseq: sinc pulse duration must be positive, got %g", spec.Duration)
	}
	if spec.TimeBwProduct <= 0 {
		return nil, errors.New("pulseq: sinc pulse requires a positive time-bandwidth product")
	}

	n := numRFSamples(spec.Duration, system.RFRasterTime)
	raster := spec.Duration / float64(n)
	env := make([]float64, n)
	phase := make([]float64, n)

	var sum float64
	for i := 0; i < n; i++ {
		tau := (float64(i)+0.5)*raster - spec.Duration/2
		window := (1 - spec.Apodization) + spec.Apodization*math.Cos(2*math.Pi*tau/spec.Duration)
		env[i] = window * sinc(spec.TimeBwProduct*tau/spec.Duration)
		sum += env[i]
	}

	// Normalize so the flip angle is the integral of the waveform.
	peak := 0.0
	for _, v := range env {
		peak = math.Max(peak, math.Abs(v))
	}
	for i := range env {
		env[i] /= peak
	}

	return &RFPulse{
		Amplitude:    spec.FlipAngle * peak / (2 * math.Pi * raster * sum),
		Envelope:     env,
		Phase:        phase,
		ShapeDur:     spec.Duration,
		Delay:        spec.Delay,
		FreqOffset:   spec.FreqOffset,
		PhaseOffset:  spec.PhaseOffset,
		DeadTime:     zeroIfUnset(system.RFDeadTime),
		RingdownTime: zeroIfUnset(system.RFRingdownTime),
		Use:          spec.Use,
	}, nil
}

// MakeSliceSelectSincPulse synthesizes a sinc pulse together with its
// slice-selection gradient and the rewinder that refocuses the phase
// accrued between the pulse center and the end of the gradient. The RF
// delay is stretched to the gradient rise time when the rise time exceeds
// the requested delay, so the waveform plays out on the plateau.
func MakeSliceSelectSincPulse(system Opts, spec SincPulseSpec) (*RFPulse, *TrapGradient, *TrapGradient, error) {
	if spec.SliceThickness <= 0 {
		return nil, nil, nil, errors.New("pulseq: slice-selective pulse requires a positive slice thickness")
	}

	bandwidth := spec.TimeBwProduct / spec.Duration
	amp := bandwidth / spec.SliceThickness
	if amp > system.MaxGrad {
		return nil, nil, nil, fmt.Errorf(
			"pulseq: slice gradient %g Hz/m exceeds the maximum gradient %g Hz/m", amp, system.MaxGrad)
	}

	gz, err := MakeTrapezoidAmplitude(system, ChannelZ, amp, spec.Duration, 0)
	if err != nil {
		return nil, nil, nil, err
	}

	rfSpec := spec
	rfSpec.Delay = math.Max(spec.Delay, gz.RiseTime)

	rf, err := MakeSincPulse(system, rfSpec)
	if err != nil {
		return nil, nil, nil, err
	}

	gz.Delay = rf.Delay - gz.RiseTime

	// Refocus the area seen from the pulse center to the gradient end.
	gzr, err := MakeTrapezoidArea(system, ChannelZ,
		-(gz.FlatArea()/2 + gz.Amplitude*gz.FallTime/2), 0)
	if err != nil {
		return nil, nil, nil, err
	}

	return rf, gz, gzr, nil
}

// numRFSamples returns the sample count of a waveform on the RF raster.
func numRFSamples(duration, raster float64) int {
	n := int(math.Round(duration / raster))
	if n < 2 {
		n = 2
	}

	return n
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}

	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func zeroIfUnset(v float64) float64 {
	if IsUnset(v) {
		return 0
	}

	return v
}
