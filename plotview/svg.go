// Package plotview renders a generated sequence as an SVG timing diagram
// and serves it over HTTP for inspection in a browser.
package plotview

import (
	"fmt"
	"io"
	"math"

	"github.com/openmrlab/seqgen/pulseq"
)

const (
	plotWidth  = 1160
	laneHeight = 110
	marginLeft = 60
	marginTop  = 20
)

// rfEnvelopeStride limits the number of polyline points spent on one RF
// envelope.
const rfEnvelopeStride = 16

type point struct {
	t float64
	v float64
}

type lane struct {
	name  string
	lines [][]point
	boxes [][2]float64 // ADC windows, start and end time
}

// RenderSVG writes a timing diagram of the whole sequence with one lane
// per event type (RF magnitude, the three gradient axes, and ADC windows).
func RenderSVG(seq *pulseq.Sequence, w io.Writer) error {
	total := seq.Duration()
	if total <= 0 {
		total = 1
	}

	return RenderSVGRange(seq, 0, total, w)
}

// RenderSVGRange writes the timing diagram of the blocks starting within
// the [t0, t1] window. Long sequences are easier to read one repetition
// at a time.
func RenderSVGRange(seq *pulseq.Sequence, t0, t1 float64, w io.Writer) error {
	if t1 <= t0 {
		return fmt.Errorf("plotview: empty time range [%g, %g]", t0, t1)
	}

	lanes := collectLanes(seq, t0, t1)

	xScale := float64(plotWidth) / (t1 - t0)

	height := marginTop*2 + laneHeight*len(lanes)
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" `+
			`font-family="sans-serif" font-size="12">`+"\n",
		plotWidth+marginLeft+20, height)
	if err != nil {
		return err
	}

	for i, ln := range lanes {
		top := marginTop + i*laneHeight
		mid := top + laneHeight/2
		scale := laneScale(ln)

		fmt.Fprintf(w,
			`<text x="8" y="%d">%s</text>`+"\n", mid+4, ln.name)
		fmt.Fprintf(w,
			`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#ccc"/>`+"\n",
			marginLeft, mid, marginLeft+plotWidth, mid)

		for _, b := range ln.boxes {
			x := marginLeft + int(b[0]*xScale)
			width := int((b[1] - b[0]) * xScale)
			if width < 1 {
				width = 1
			}
			fmt.Fprintf(w,
				`<rect x="%d" y="%d" width="%d" height="%d" fill="#9bd"/>`+"\n",
				x, top+laneHeight/4, width, laneHeight/2)
		}

		for _, line := range ln.lines {
			fmt.Fprintf(w, `<polyline fill="none" stroke="#036" points="`)
			for _, p := range line {
				x := float64(marginLeft) + p.t*xScale
				y := float64(mid) - p.v*scale
				fmt.Fprintf(w, "%.1f,%.1f ", x, y)
			}
			fmt.Fprintf(w, `"/>`+"\n")
		}
	}

	_, err = fmt.Fprintln(w, "</svg>")

	return err
}

func laneScale(ln lane) float64 {
	maxAbs := 0.0
	for _, line := range ln.lines {
		for _, p := range line {
			if a := math.Abs(p.v); a > maxAbs {
				maxAbs = a
			}
		}
	}

	if maxAbs == 0 {
		return 1
	}

	return float64(laneHeight) / 2 * 0.9 / maxAbs
}

func collectLanes(seq *pulseq.Sequence, t0, t1 float64) []lane {
	sys := seq.System()

	rfLane := lane{name: "RF"}
	gradLanes := map[pulseq.Channel]*lane{
		pulseq.ChannelX: {name: "Gx"},
		pulseq.ChannelY: {name: "Gy"},
		pulseq.ChannelZ: {name: "Gz"},
	}
	adcLane := lane{name: "ADC"}

	blockStart := 0.0
	for _, b := range seq.Blocks() {
		start := blockStart
		blockStart += b.Duration()

		if start < t0 || start >= t1 {
			continue
		}
		// Lane coordinates are relative to the window start.
		start -= t0

		if b.RF != nil {
			rfLane.lines = append(rfLane.lines,
				rfEnvelopeLine(b.RF, start, sys.RFRasterTime))
		}

		for ch, ln := range gradLanes {
			g := gradientOn(b, ch)
			if g != nil {
				ln.lines = append(ln.lines, trapezoidLine(g, start))
			}
		}

		if b.ADC != nil {
			adcStart := start + b.ADC.Delay
			adcEnd := adcStart + float64(b.ADC.NumSamples)*b.ADC.Dwell
			adcLane.boxes = append(adcLane.boxes, [2]float64{adcStart, adcEnd})
		}
	}

	return []lane{
		rfLane,
		*gradLanes[pulseq.ChannelX],
		*gradLanes[pulseq.ChannelY],
		*gradLanes[pulseq.ChannelZ],
		adcLane,
	}
}

func gradientOn(b *pulseq.Block, ch pulseq.Channel) *pulseq.TrapGradient {
	switch ch {
	case pulseq.ChannelX:
		return b.Gx
	case pulseq.ChannelY:
		return b.Gy
	default:
		return b.Gz
	}
}

func rfEnvelopeLine(rf *pulseq.RFPulse, t0, raster float64) []point {
	start := t0 + rf.Delay
	line := []point{{start, 0}}

	for i := 0; i < len(rf.Envelope); i += rfEnvelopeStride {
		line = append(line, point{
			t: start + float64(i)*raster,
			v: rf.Amplitude * rf.Envelope[i],
		})
	}

	line = append(line, point{start + rf.ShapeDur, 0})

	return line
}

func trapezoidLine(g *pulseq.TrapGradient, t0 float64) []point {
	start := t0 + g.Delay

	return []point{
		{start, 0},
		{start + g.RiseTime, g.Amplitude},
		{start + g.RiseTime + g.FlatTime, g.Amplitude},
		{start + g.RiseTime + g.FlatTime + g.FallTime, 0},
	}
}
