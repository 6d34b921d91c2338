package prep

import (
	"fmt"
	"math"

	"github.com/openmrlab/seqgen/pulseq"
)

// T2PrepParams parameterizes an MLEV-4 T2 preparation block.
type T2PrepParams struct {
	// EchoTime is the time from the center of the excitation pulse to
	// the center of the 270° tip-up pulse, in seconds. The total block
	// duration is always longer than the echo time.
	EchoTime float64

	// Duration180 is the length of a 180° refocusing pulse. The other
	// pulses scale linearly with their flip angles: a 90° pulse takes
	// half this time, a 360° pulse twice.
	Duration180 float64

	// AddSpoiler appends a spoiler gradient after the tip-up pulses. It
	// extends the block but never affects the echo time, which ends at
	// the tip-up pulse.
	AddSpoiler bool

	SpoilerRampTime float64
	SpoilerFlatTime float64
}

// DefaultT2PrepParams returns the standard MLEV-4 block parameters:
// 100 ms echo time with 1 ms refocusing pulses and a spoiler.
func DefaultT2PrepParams() T2PrepParams {
	return T2PrepParams{
		EchoTime:        0.1,
		Duration180:     1e-3,
		AddSpoiler:      true,
		SpoilerRampTime: 6e-4,
		SpoilerFlatTime: 6e-3,
	}
}

// AddCompositeRefocusing appends a 90°x, ±180°y, 90°x composite refocusing
// block, a robust substitute for a single imperfect 180° pulse. With
// negativeAmp the pulse phases flip from (0°, 90°, 0°) to (180°, 270°,
// 180°), alternating the refocusing polarity across an MLEV-4 train.
//
// The system limits must carry an RF dead time; the ringdown time is
// forced to zero on a private copy, since no ADC events play inside the
// block. The total duration is therefore exactly
// 2*duration180 + 3*RFDeadTime, independent of the ringdown time.
//
// It returns the sequence, the block duration, and the time from the block
// start to the midpoint of the 180° pulse, which the caller needs to align
// composite blocks around symmetric delays.
func AddCompositeRefocusing(seq *pulseq.Sequence, system pulseq.Opts, duration180 float64, negativeAmp bool) (*pulseq.Sequence, float64, float64, error) {
	if pulseq.IsUnset(system.RFDeadTime) {
		return seq, 0, 0, fmt.Errorf("%w: rf_dead_time must be provided in system limits", ErrConfiguration)
	}

	// No ADC events inside this block, so no ringdown needs reserving.
	sys := system.WithRFRingdownTime(0)

	flipAngles := []float64{90, 180, 90}
	durations := []float64{duration180 / 2, duration180, duration180 / 2}

	phases := []float64{0, 90, 0}
	if negativeAmp {
		phases = []float64{180, 270, 180}
	}

	timeStart := seq.Duration()

	for i, fa := range flipAngles {
		rf, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
			FlipAngle:   fa * math.Pi / 180,
			Duration:    durations[i],
			Delay:       sys.RFDeadTime,
			PhaseOffset: phases[i] * math.Pi / 180,
			Use:         pulseq.UsePreparation,
		})
		if err != nil {
			return seq, 0, 0, err
		}

		seq.AddBlock(rf)
	}

	blockDuration := seq.Duration() - timeStart
	timeToMidpoint := sys.RFDeadTime + durations[0] + sys.RFDeadTime + durations[1]/2

	return seq, blockDuration, timeToMidpoint, nil
}

// AddT2Prep appends an MLEV-4 T2 preparation block: a 90°x excitation, a
// (180°y, 180°y, -180°y, -180°y) train realized as composite pulses, and
// a composite 270°x + (-360°)x tip-up pair, with the inter-pulse delays
// solved so the time from the excitation center to the tip-up center is
// exactly the requested echo time. All pulses are tagged as preparation
// pulses so they stay out of any echo-time auto-detection.
//
// A nil sequence creates a fresh one; a nil system falls back to
// pulseq.Default(). It returns the sequence and the measured duration of
// the appended block.
func AddT2Prep(seq *pulseq.Sequence, system *pulseq.Opts, p T2PrepParams) (*pulseq.Sequence, float64, error) {
	sys := pulseq.Default()
	if system != nil {
		sys = *system
	}

	if pulseq.IsUnset(sys.RFDeadTime) {
		return seq, 0, fmt.Errorf("%w: rf_dead_time must be provided in system limits", ErrConfiguration)
	}

	// No ADC events inside this block, so no ringdown needs reserving.
	sys = sys.WithRFRingdownTime(0)

	if seq == nil {
		seq = pulseq.NewSequence(sys)
	}

	timeStart := seq.Duration()

	rf90, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
		FlipAngle: math.Pi / 2,
		Duration:  p.Duration180 / 2,
		Delay:     sys.RFDeadTime,
		Use:       pulseq.UsePreparation,
	})
	if err != nil {
		return seq, 0, err
	}

	seq.AddBlock(rf90)

	// Delay before the first refocusing block: the excitation center must
	// sit an eighth of the echo time before the first 180° midpoint.
	tau1 := p.EchoTime/8 -
		p.Duration180/4 - // half duration of the 90° excitation pulse
		(sys.RFDeadTime + p.Duration180/2) - // leading 90° of the composite block
		(sys.RFDeadTime + p.Duration180/2) // half of the composite 180° pulse

	if err := checkTau(tau1, p); err != nil {
		return seq, 0, err
	}

	appendDelay(seq, tau1)

	seq, refocDur, timeToMidpoint, err := AddCompositeRefocusing(seq, sys, p.Duration180, false)
	if err != nil {
		return seq, 0, err
	}

	// Delay between refocusing blocks: consecutive 180° midpoints must be
	// a quarter of the echo time apart.
	tau2 := p.EchoTime/4 -
		(refocDur - timeToMidpoint) - // midpoint to end of the previous block
		timeToMidpoint // start of the next block to its midpoint

	if err := checkTau(tau2, p); err != nil {
		return seq, 0, err
	}

	appendDelay(seq, tau2)

	if seq, _, _, err = AddCompositeRefocusing(seq, sys, p.Duration180, false); err != nil {
		return seq, 0, err
	}

	appendDelay(seq, tau2)

	if seq, _, _, err = AddCompositeRefocusing(seq, sys, p.Duration180, true); err != nil {
		return seq, 0, err
	}

	appendDelay(seq, tau2)

	if seq, _, _, err = AddCompositeRefocusing(seq, sys, p.Duration180, true); err != nil {
		return seq, 0, err
	}

	// Delay before the tip-up pair: the last 180° midpoint must sit an
	// eighth of the echo time before the 270° pulse center.
	tau3 := p.EchoTime/8 -
		(refocDur - timeToMidpoint) - // midpoint to end of the last block
		(sys.RFDeadTime + p.Duration180/2*3/2) // half duration of the 270° pulse

	if err := checkTau(tau3, p); err != nil {
		return seq, 0, err
	}

	appendDelay(seq, tau3)

	rfTipUp270, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
		FlipAngle: 3 * math.Pi / 2,
		Duration:  p.Duration180 / 2 * 3,
		Delay:     sys.RFDeadTime,
		Use:       pulseq.UsePreparation,
	})
	if err != nil {
		return seq, 0, err
	}

	rfTipUp360, err := pulseq.MakeBlockPulse(sys, pulseq.BlockPulseSpec{
		FlipAngle: -2 * math.Pi,
		Duration:  p.Duration180 * 2,
		Delay:     sys.RFDeadTime,
		Use:       pulseq.UsePreparation,
	})
	if err != nil {
		return seq, 0, err
	}

	seq.AddBlock(rfTipUp270)
	seq.AddBlock(rfTipUp360)

	if p.AddSpoiler {
		gzSpoil, err := pulseq.MakeTrapezoidAmplitude(sys, pulseq.ChannelZ,
			0.4*sys.MaxGrad, p.SpoilerFlatTime, p.SpoilerRampTime)
		if err != nil {
			return seq, 0, err
		}

		seq.AddBlock(gzSpoil)
	}

	return seq, seq.Duration() - timeStart, nil
}

func checkTau(tau float64, p T2PrepParams) error {
	if tau < 0 || math.IsNaN(tau) {
		return fmt.Errorf(
			"%w: Desired echo time (%.2f ms) is too short to create the T2 prep block with duration_180 = %.2f ms",
			ErrInfeasibleTiming, p.EchoTime*1000, p.Duration180*1000)
	}

	return nil
}

func appendDelay(seq *pulseq.Sequence, tau float64) {
	seq.AddBlock(pulseq.MakeDelay(tau))
}
