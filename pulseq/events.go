package pulseq

// An Event is anything that can occupy a block of a Sequence.
type Event interface {
	// Duration returns the time span the event needs inside its block,
	// including any leading delay and trailing dead time.
	Duration() float64
}

// Use tags the purpose of an RF pulse. Pulses tagged UsePreparation are
// excluded from echo-time auto-detection.
type Use int

// RF pulse purpose tags.
const (
	UseUndefined Use = iota
	UseExcitation
	UseRefocusing
	UseInversion
	UsePreparation
)

func (u Use) String() string {
	switch u {
	case UseExcitation:
		return "excitation"
	case UseRefocusing:
		return "refocusing"
	case UseInversion:
		return "inversion"
	case UsePreparation:
		return "preparation"
	default:
		return "undefined"
	}
}

// Channel identifies a physical gradient axis.
type Channel int

// Gradient axes.
const (
	ChannelX Channel = iota
	ChannelY
	ChannelZ
)

func (c Channel) String() string {
	switch c {
	case ChannelX:
		return "x"
	case ChannelY:
		return "y"
	case ChannelZ:
		return "z"
	default:
		return "?"
	}
}

// RFPulse is an RF event. The waveform is Amplitude times the normalized
// Envelope, with an additional phase track in Phase. Both are sampled on
// the RF raster.
type RFPulse struct {
	Amplitude    float64   // peak amplitude, Hz (signed)
	Envelope     []float64 // normalized magnitude samples, peak 1
	Phase        []float64 // phase samples, rad
	ShapeDur     float64   // s, span of the sampled waveform
	Delay        float64   // s, from block start to first sample
	FreqOffset   float64   // Hz
	PhaseOffset  float64   // rad
	DeadTime     float64   // s
	RingdownTime float64   // s
	Use          Use
}

// Duration returns delay + waveform + ringdown.
func (r *RFPulse) Duration() float64 {
	return r.Delay + r.ShapeDur + r.RingdownTime
}

// Center returns the time from block start to the effective center of the
// pulse. All pulses synthesized by this package are symmetric.
func (r *RFPulse) Center() float64 {
	return r.Delay + r.ShapeDur/2
}

// TrapGradient is a trapezoidal gradient event on one axis.
type TrapGradient struct {
	Channel   Channel
	Amplitude float64 // Hz/m (signed)
	RiseTime  float64 // s
	FlatTime  float64 // s
	FallTime  float64 // s
	Delay     float64 // s
}

// Duration returns delay + rise + flat + fall.
func (g *TrapGradient) Duration() float64 {
	return g.Delay + g.RiseTime + g.FlatTime + g.FallTime
}

// Area returns the zeroth gradient moment in 1/m.
func (g *TrapGradient) Area() float64 {
	return g.Amplitude * (g.FlatTime + g.RiseTime/2 + g.FallTime/2)
}

// FlatArea returns the moment of the plateau only.
func (g *TrapGradient) FlatArea() float64 {
	return g.Amplitude * g.FlatTime
}

// ADC is a data-acquisition window.
type ADC struct {
	NumSamples  int
	Dwell       float64 // s per sample
	Delay       float64 // s, from block start to first sample
	DeadTime    float64 // s
	FreqOffset  float64 // Hz
	PhaseOffset float64 // rad
}

// Duration returns delay + sampling window + dead time.
func (a *ADC) Duration() float64 {
	return a.Delay + float64(a.NumSamples)*a.Dwell + a.DeadTime
}

// Delay is a pure waiting event.
type Delay struct {
	T float64 // s
}

// Duration returns the delay length.
func (d Delay) Duration() float64 {
	return d.T
}

// LabelOp selects how a label event changes a counter.
type LabelOp int

// Label operations.
const (
	LabelSet LabelOp = iota
	LabelInc
)

func (op LabelOp) String() string {
	if op == LabelInc {
		return "INC"
	}
	return "SET"
}

// Label is a zero-duration bookkeeping event attached to a block, read by
// downstream reconstruction (phase-encoding line, contrast index, ...).
type Label struct {
	Op    LabelOp
	Name  string // LIN, ECO, SLC, REP, AVG, PHS, SEG, SET
	Value int
}

// Duration of a label is always zero.
func (l Label) Duration() float64 {
	return 0
}
