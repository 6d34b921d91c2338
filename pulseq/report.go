package pulseq

import (
	"fmt"
	"math"
	"strings"
)

// TestReport summarizes the assembled sequence: block and event counts,
// total duration, the strongest gradient played on each axis, and the
// header definitions. The timing check result is appended at the end.
func (s *Sequence) TestReport() string {
	var b strings.Builder

	numRF := 0
	numADC := 0
	numSamples := 0
	maxAmp := [3]float64{}

	for _, blk := range s.blocks {
		if blk.RF != nil {
			numRF++
		}
		if blk.ADC != nil {
			numADC++
			numSamples += blk.ADC.NumSamples
		}
		for ci, g := range []*TrapGradient{blk.Gx, blk.Gy, blk.Gz} {
			if g != nil {
				maxAmp[ci] = math.Max(maxAmp[ci], math.Abs(g.Amplitude))
			}
		}
	}

	fmt.Fprintf(&b, "Sequence report\n")
	fmt.Fprintf(&b, "  blocks: %d\n", len(s.blocks))
	fmt.Fprintf(&b, "  duration: %.6f s\n", s.Duration())
	fmt.Fprintf(&b, "  RF pulses: %d\n", numRF)
	fmt.Fprintf(&b, "  ADC windows: %d (%d samples)\n", numADC, numSamples)
	fmt.Fprintf(&b, "  max gradient (x, y, z): %.0f %.0f %.0f Hz/m\n",
		maxAmp[0], maxAmp[1], maxAmp[2])

	if len(s.defs) > 0 {
		fmt.Fprintf(&b, "  definitions:\n")
		for _, def := range s.defs {
			fmt.Fprintf(&b, "    %s: %s\n", def.Key, formatDefinitionValue(def.Value))
		}
	}

	ok, issues := s.CheckTiming()
	if ok {
		fmt.Fprintf(&b, "  timing: ok\n")
	} else {
		fmt.Fprintf(&b, "  timing: %d issue(s)\n", len(issues))
		for _, msg := range issues {
			fmt.Fprintf(&b, "    %s\n", msg)
		}
	}

	return b.String()
}
