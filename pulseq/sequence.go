package pulseq

import (
	"fmt"
	"math"
)

// Block is one time slice of a sequence. At most one RF pulse, one ADC
// window, one delay, and one gradient per axis may play concurrently;
// labels are unrestricted.
type Block struct {
	RF       *RFPulse
	Gx       *TrapGradient
	Gy       *TrapGradient
	Gz       *TrapGradient
	ADC      *ADC
	Delay    *Delay
	Labels   []Label
	duration float64
}

// Duration returns the span of the block.
func (b *Block) Duration() float64 {
	return b.duration
}

// Sequence is an ordered, append-only list of blocks plus the header
// definitions that describe the acquisition to downstream tools.
type Sequence struct {
	system   Opts
	blocks   []*Block
	defs     []Definition
	defIndex map[string]int
}

// Definition is one key/value entry of the sequence file header.
type Definition struct {
	Key   string
	Value any
}

// NewSequence creates an empty sequence bound to the given hardware limits.
func NewSequence(system Opts) *Sequence {
	return &Sequence{
		system:   system,
		defIndex: make(map[string]int),
	}
}

// System returns the hardware limits the sequence was created with.
func (s *Sequence) System() Opts {
	return s.system
}

// AddBlock appends one block holding all given events concurrently. The
// block duration is the span of the longest event. Misuse (no events,
// conflicting events in one block) is a programming error and panics.
func (s *Sequence) AddBlock(events ...Event) {
	if len(events) == 0 {
		panic("pulseq: AddBlock requires at least one event")
	}

	b := &Block{}
	for _, e := range events {
		switch ev := e.(type) {
		case *RFPulse:
			if b.RF != nil {
				panic("pulseq: block already contains an RF pulse")
			}
			b.RF = ev
		case *TrapGradient:
			slot := s.gradientSlot(b, ev.Channel)
			if *slot != nil {
				panic(fmt.Sprintf("pulseq: block already contains a gradient on channel %s", ev.Channel))
			}
			*slot = ev
		case *ADC:
			if b.ADC != nil {
				panic("pulseq: block already contains an ADC window")
			}
			b.ADC = ev
		case Delay:
			if b.Delay != nil {
				panic("pulseq: block already contains a delay")
			}
			d := ev
			b.Delay = &d
		case Label:
			b.Labels = append(b.Labels, ev)
		default:
			panic(fmt.Sprintf("pulseq: unsupported event type %T", e))
		}
	}

	b.duration = CalcDuration(events...)
	s.blocks = append(s.blocks, b)
}

func (s *Sequence) gradientSlot(b *Block, ch Channel) **TrapGradient {
	switch ch {
	case ChannelX:
		return &b.Gx
	case ChannelY:
		return &b.Gy
	case ChannelZ:
		return &b.Gz
	default:
		panic(fmt.Sprintf("pulseq: unknown gradient channel %d", ch))
	}
}

// NumBlocks returns the number of blocks appended so far.
func (s *Sequence) NumBlocks() int {
	return len(s.blocks)
}

// Blocks returns the blocks in order. The slice is shared; callers must
// not modify it.
func (s *Sequence) Blocks() []*Block {
	return s.blocks
}

// Duration returns the sum of all block durations.
func (s *Sequence) Duration() float64 {
	var d float64
	for _, b := range s.blocks {
		d += b.duration
	}

	return d
}

// BlockDurations returns the duration of every block in order.
func (s *Sequence) BlockDurations() []float64 {
	out := make([]float64, len(s.blocks))
	for i, b := range s.blocks {
		out[i] = b.duration
	}

	return out
}

// SetDefinition stores a header definition, replacing an earlier value for
// the same key while keeping the original insertion position.
func (s *Sequence) SetDefinition(key string, value any) {
	if i, ok := s.defIndex[key]; ok {
		s.defs[i].Value = value
		return
	}

	s.defIndex[key] = len(s.defs)
	s.defs = append(s.defs, Definition{Key: key, Value: value})
}

// Definition returns a stored header definition.
func (s *Sequence) Definition(key string) (any, bool) {
	i, ok := s.defIndex[key]
	if !ok {
		return nil, false
	}

	return s.defs[i].Value, true
}

// Definitions returns the header definitions in insertion order.
func (s *Sequence) Definitions() []Definition {
	return s.defs
}

// CheckTiming validates every block against the hardware limits: block
// durations must sit on the block-duration raster, RF and ADC delays must
// reserve the respective dead times, and gradient amplitudes must stay
// below the limit. It returns true with an empty report when the sequence
// is clean.
func (s *Sequence) CheckTiming() (bool, []string) {
	var report []string

	for i, b := range s.blocks {
		blockNum := i + 1

		if !onRaster(b.duration, s.system.BlockDurationRaster) {
			report = append(report, fmt.Sprintf(
				"block %d: duration %.9g s is not aligned to the block duration raster (%g s)",
				blockNum, b.duration, s.system.BlockDurationRaster))
		}

		if b.RF != nil && !IsUnset(s.system.RFDeadTime) && b.RF.Delay < s.system.RFDeadTime-timeTolerance {
			report = append(report, fmt.Sprintf(
				"block %d: RF delay %.9g s is shorter than the RF dead time (%g s)",
				blockNum, b.RF.Delay, s.system.RFDeadTime))
		}

		if b.ADC != nil && b.ADC.Delay < s.system.ADCDeadTime-timeTolerance {
			report = append(report, fmt.Sprintf(
				"block %d: ADC delay %.9g s is shorter than the ADC dead time (%g s)",
				blockNum, b.ADC.Delay, s.system.ADCDeadTime))
		}

		for _, g := range []*TrapGradient{b.Gx, b.Gy, b.Gz} {
			if g != nil && math.Abs(g.Amplitude) > s.system.MaxGrad+timeTolerance {
				report = append(report, fmt.Sprintf(
					"block %d: gradient amplitude %.9g Hz/m on channel %s exceeds the maximum gradient (%g Hz/m)",
					blockNum, g.Amplitude, g.Channel, s.system.MaxGrad))
			}
		}
	}

	return len(report) == 0, report
}
