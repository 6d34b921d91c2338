package pulseq

import "fmt"

// MakeADC creates a data-acquisition window with numSamples samples spread
// evenly over the given duration.
func MakeADC(system Opts, numSamples int, duration, delay float64) (*ADC, error) {
	if numSamples <= 0 {
		return nil, fmt.Errorf("pulseq: ADC needs at least one sample, got %d", numSamples)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("pulseq: ADC duration must be positive, got %g", duration)
	}
	if delay < 0 {
		return nil, fmt.Errorf("pulseq: ADC delay must be non-negative, got %g", delay)
	}

	return &ADC{
		NumSamples: numSamples,
		Dwell:      duration / float64(numSamples),
		Delay:      delay,
		DeadTime:   zeroIfUnset(system.ADCDeadTime),
	}, nil
}
