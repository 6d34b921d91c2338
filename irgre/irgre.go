package irgre

import (
	"fmt"
	"math"

	"github.com/openmrlab/seqgen/prep"
	"github.com/openmrlab/seqgen/pulseq"
)

// Recorder receives one bookkeeping row per repetition. recording.New
// returns an implementation backed by SQLite.
type Recorder interface {
	CreateTable(tableName string, sampleEntry any)
	InsertData(tableName string, entry any)
	Flush()
}

// AcquisitionTable is the name of the bookkeeping table.
const AcquisitionTable = "acquisitions"

// Acquisition is the bookkeeping row of one repetition.
type Acquisition struct {
	TIIndex       int
	PEIndex       int
	InversionTime float64
	StartTime     float64
	TRFill        float64
}

// Params configures the inversion-recovery GRE assembly.
type Params struct {
	// InversionTimes lists the inversion times, in seconds. The whole
	// phase-encoding loop runs once per entry.
	InversionTimes []float64

	// TE is the desired echo time in seconds. Zero selects the minimum
	// feasible echo time.
	TE float64

	// TR is the repetition time in seconds.
	TR float64

	// FOVxy is the field of view in x and y, in meters.
	FOVxy float64

	NumReadout       int
	NumPhaseEncoding int

	// SliceThickness of the 2D slice, in meters.
	SliceThickness float64

	// Recorder, when non-nil, receives one Acquisition row per
	// repetition.
	Recorder Recorder
}

// DefaultParams returns the standard protocol: seven inversion times from
// 25 ms to 4.8 s, a 128x128 matrix over a 128 mm field of view, and the
// minimum echo time.
func DefaultParams() Params {
	return Params{
		InversionTimes:   []float64{25e-3, 50e-3, 300e-3, 600e-3, 1200e-3, 2400e-3, 4800e-3},
		TR:               8,
		FOVxy:            128e-3,
		NumReadout:       128,
		NumPhaseEncoding: 128,
		SliceThickness:   8e-3,
	}
}

// T1 preparation settings shared by every repetition.
const (
	rfInvDuration      = 10.24e-3 // adiabatic inversion pulse [s]
	rfInvSpoilRiseTime = 0.6e-3   // spoiler ramp after the inversion pulse [s]
	rfInvSpoilFlatTime = 8.4e-3   // spoiler plateau after the inversion pulse [s]
)

// Excitation pulse settings.
const (
	rfExcDuration    = 1.28e-3 // [s]
	rfExcFlipDegrees = 12.0
	rfExcBwtProduct  = 4.0
	rfExcApodization = 0.5
)

// gxPreDuration is the length of the readout pre- and re-winder [s].
const gxPreDuration = 1.0e-3

// Build assembles the full sequence. A nil system falls back to
// pulseq.Default(). Header definitions (FOV, ReconMatrix, SliceThickness,
// TE, TR, TI) are set on the returned sequence; writing, reporting, and
// plotting are left to the caller.
func Build(system *pulseq.Opts, p Params) (*pulseq.Sequence, error) {
	sys := pulseq.Default()
	if system != nil {
		sys = *system
	}

	if len(p.InversionTimes) == 0 {
		p.InversionTimes = DefaultParams().InversionTimes
	}

	seq := pulseq.NewSequence(sys)

	rf, gz, gzr, err := pulseq.MakeSliceSelectSincPulse(sys, pulseq.SincPulseSpec{
		FlipAngle:      rfExcFlipDegrees / 180 * math.Pi,
		Duration:       rfExcDuration,
		SliceThickness: p.SliceThickness,
		Apodization:    rfExcApodization,
		TimeBwProduct:  rfExcBwtProduct,
		Delay:          sys.RFDeadTime,
		Use:            pulseq.UseExcitation,
	})
	if err != nil {
		return nil, err
	}

	adcDwell := sys.GradRasterTime
	gxFlatTime := float64(p.NumReadout) * adcDwell
	deltaK := 1 / p.FOVxy

	gx, err := pulseq.MakeTrapezoidFlatArea(sys, pulseq.ChannelX, float64(p.NumReadout)*deltaK, gxFlatTime)
	if err != nil {
		return nil, err
	}

	adc, err := pulseq.MakeADC(sys, p.NumReadout, gx.FlatTime, gx.RiseTime)
	if err != nil {
		return nil, err
	}

	gxPre, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelX, -gx.Area()/2-deltaK/2, gxPreDuration)
	if err != nil {
		return nil, err
	}

	gxPost, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelX, -gx.Area()/2+deltaK/2, gxPreDuration)
	if err != nil {
		return nil, err
	}

	// Gradient areas for linear phase encoding, and the readout sample
	// that lands on the k-space center.
	phaseAreas := make([]float64, p.NumPhaseEncoding)
	for i := range phaseAreas {
		phaseAreas[i] = (float64(i) - float64(p.NumPhaseEncoding)/2) * deltaK
	}

	k0CenterID := -1
	for i := 0; i < p.NumReadout; i++ {
		if (float64(i)-float64(p.NumReadout)/2)*deltaK == 0 {
			k0CenterID = i
			break
		}
	}
	if k0CenterID < 0 {
		return nil, fmt.Errorf("irgre: no readout sample falls on the k-space center with %d samples", p.NumReadout)
	}

	gzSpoil, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelZ, 4/p.SliceThickness, 0)
	if err != nil {
		return nil, err
	}

	minTE := rf.ShapeDur/2 + // pulse center to end of the waveform
		rf.RingdownTime +
		gzr.Duration() + // slice-selection rewinder
		gxPre.Duration() + // readout pre-winder
		gx.Delay +
		gx.RiseTime +
		float64(k0CenterID)*adc.Dwell // ADC start to the k-space center sample

	var teDelay float64
	switch {
	case p.TE == 0:
		teDelay = 0
	case p.TE >= minTE:
		teDelay = pulseq.RoundUpToRaster(p.TE-minTE, sys.GradRasterTime)
	default:
		return nil, fmt.Errorf(
			"%w: TE must be larger than %.2f ms. Current value is %.2f ms",
			prep.ErrInfeasibleTiming, minTE*1000, p.TE*1000)
	}

	if p.Recorder != nil {
		p.Recorder.CreateTable(AcquisitionTable, Acquisition{})
	}

	for tiIdx, ti := range p.InversionTimes {
		contrastLabel := pulseq.MakeLabel(pulseq.LabelSet, "ECO", tiIdx)

		for peIdx := 0; peIdx < p.NumPhaseEncoding; peIdx++ {
			peLabel := pulseq.MakeLabel(pulseq.LabelSet, "LIN", peIdx)

			startTimeTRBlock := seq.Duration()

			seq, _, err = prep.AddT1Prep(seq, &sys, prep.T1PrepParams{
				InversionTime:   ti,
				RFDuration:      rfInvDuration,
				AddSpoiler:      true,
				SpoilerRampTime: rfInvSpoilRiseTime,
				SpoilerFlatTime: rfInvSpoilFlatTime,
			})
			if err != nil {
				return nil, err
			}

			seq.AddBlock(rf, gz)
			seq.AddBlock(gzr)

			// Echo-time alignment delay, kept even when it is zero.
			seq.AddBlock(pulseq.MakeDelay(teDelay))

			gyPre, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelY, phaseAreas[peIdx], gxPreDuration)
			if err != nil {
				return nil, err
			}

			seq.AddBlock(gxPre, gyPre, peLabel, contrastLabel)
			seq.AddBlock(gx, adc)

			// Rewind the phase encoding with the opposite polarity while
			// spoiling along z.
			gyRewind := *gyPre
			gyRewind.Amplitude = -gyRewind.Amplitude
			seq.AddBlock(gxPost, &gyRewind, gzSpoil)

			durationTRBlock := seq.Duration() - startTimeTRBlock
			trDelay := pulseq.RoundUpToRaster(p.TR-durationTRBlock, sys.GradRasterTime)
			if trDelay < 0 {
				return nil, fmt.Errorf(
					"%w: Desired TR too short for given sequence parameters", prep.ErrInfeasibleTiming)
			}

			seq.AddBlock(pulseq.MakeDelay(trDelay))

			if p.Recorder != nil {
				p.Recorder.InsertData(AcquisitionTable, Acquisition{
					TIIndex:       tiIdx,
					PEIndex:       peIdx,
					InversionTime: ti,
					StartTime:     startTimeTRBlock,
					TRFill:        trDelay,
				})
			}
		}
	}

	te := p.TE
	if te == 0 {
		te = minTE
	}

	seq.SetDefinition("FOV", []float64{p.FOVxy, p.FOVxy, p.SliceThickness})
	seq.SetDefinition("ReconMatrix", []int{p.NumReadout, p.NumPhaseEncoding, 1})
	seq.SetDefinition("SliceThickness", p.SliceThickness)
	seq.SetDefinition("TE", te)
	seq.SetDefinition("TR", p.TR)
	seq.SetDefinition("TI", p.InversionTimes)

	return seq, nil
}

// MinTE returns the analytically smallest echo time the assembly can
// reach with the given parameters.
func MinTE(system *pulseq.Opts, p Params) (float64, error) {
	sys := pulseq.Default()
	if system != nil {
		sys = *system
	}

	rf, _, gzr, err := pulseq.MakeSliceSelectSincPulse(sys, pulseq.SincPulseSpec{
		FlipAngle:      rfExcFlipDegrees / 180 * math.Pi,
		Duration:       rfExcDuration,
		SliceThickness: p.SliceThickness,
		Apodization:    rfExcApodization,
		TimeBwProduct:  rfExcBwtProduct,
		Delay:          sys.RFDeadTime,
		Use:            pulseq.UseExcitation,
	})
	if err != nil {
		return 0, err
	}

	deltaK := 1 / p.FOVxy
	gxFlatTime := float64(p.NumReadout) * sys.GradRasterTime

	gx, err := pulseq.MakeTrapezoidFlatArea(sys, pulseq.ChannelX, float64(p.NumReadout)*deltaK, gxFlatTime)
	if err != nil {
		return 0, err
	}

	gxPre, err := pulseq.MakeTrapezoidArea(sys, pulseq.ChannelX, -gx.Area()/2-deltaK/2, gxPreDuration)
	if err != nil {
		return 0, err
	}

	return rf.ShapeDur/2 + rf.RingdownTime + gzr.Duration() + gxPre.Duration() +
		gx.Delay + gx.RiseTime + float64(p.NumReadout/2)*sys.GradRasterTime, nil
}
