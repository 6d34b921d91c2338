package pulseq

import "math"

// gammaHzPerTesla is the gyromagnetic ratio of 1H.
const gammaHzPerTesla = 42.576e6

// Unset marks an optional hardware-limit field as not provided.
var Unset = math.NaN()

// IsUnset reports whether an optional hardware-limit field is not provided.
func IsUnset(v float64) bool {
	return math.IsNaN(v)
}

// GradUnit defines the unit of a gradient amplitude.
type GradUnit int

// Supported gradient amplitude units.
const (
	HzPerMeter GradUnit = iota
	MilliTeslaPerMeter
)

// SlewUnit defines the unit of a gradient slew rate.
type SlewUnit int

// Supported slew rate units.
const (
	HzPerMeterPerSecond SlewUnit = iota
	TeslaPerMeterPerSecond
)

// Opts holds the hardware limits of the scanner. It is a value type: the
// With* methods return modified copies, so a localized override (for
// example, forcing the ringdown time to zero inside a preparation block)
// can never corrupt the caller's record.
//
// Gradient strengths are stored in Hz/m and slew rates in Hz/m/s.
type Opts struct {
	MaxGrad             float64 // Hz/m
	MaxSlew             float64 // Hz/m/s
	RFDeadTime          float64 // s, quiet interval before an RF pulse
	RFRingdownTime      float64 // s, quiet interval after an RF pulse
	ADCDeadTime         float64 // s
	GradRasterTime      float64 // s
	RFRasterTime        float64 // s
	ADCRasterTime       float64 // s
	BlockDurationRaster float64 // s
}

// NewOpts returns hardware limits with the standard raster times and
// conservative amplitude limits. Dead and ringdown times start at zero.
func NewOpts() Opts {
	return Opts{
		MaxGrad:             40e-3 * gammaHzPerTesla,
		MaxSlew:             170 * gammaHzPerTesla,
		GradRasterTime:      10e-6,
		RFRasterTime:        1e-6,
		ADCRasterTime:       100e-9,
		BlockDurationRaster: 10e-6,
	}
}

// Default returns the hardware limits used whenever a caller supplies none.
func Default() Opts {
	return NewOpts().
		WithMaxGrad(30, MilliTeslaPerMeter).
		WithMaxSlew(120, TeslaPerMeterPerSecond).
		WithRFRingdownTime(30e-6).
		WithRFDeadTime(100e-6).
		WithADCDeadTime(10e-6)
}

// WithMaxGrad returns a copy with the maximum gradient amplitude replaced.
func (o Opts) WithMaxGrad(v float64, unit GradUnit) Opts {
	if unit == MilliTeslaPerMeter {
		v = v * 1e-3 * gammaHzPerTesla
	}

	o.MaxGrad = v

	return o
}

// WithMaxSlew returns a copy with the maximum slew rate replaced.
func (o Opts) WithMaxSlew(v float64, unit SlewUnit) Opts {
	if unit == TeslaPerMeterPerSecond {
		v = v * gammaHzPerTesla
	}

	o.MaxSlew = v

	return o
}

// WithRFDeadTime returns a copy with the RF dead time replaced. Pass Unset
// to mark the field as not provided.
func (o Opts) WithRFDeadTime(t float64) Opts {
	o.RFDeadTime = t
	return o
}

// WithRFRingdownTime returns a copy with the RF ringdown time replaced.
func (o Opts) WithRFRingdownTime(t float64) Opts {
	o.RFRingdownTime = t
	return o
}

// WithADCDeadTime returns a copy with the ADC dead time replaced.
func (o Opts) WithADCDeadTime(t float64) Opts {
	o.ADCDeadTime = t
	return o
}

// WithGradRasterTime returns a copy with the gradient raster time replaced.
func (o Opts) WithGradRasterTime(t float64) Opts {
	o.GradRasterTime = t
	return o
}
