package pulseq

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Write serializes the sequence in the Pulseq v1.4 text format: version,
// definitions, block table, event tables, label extensions, compressed
// shapes, and a trailing md5 signature over everything before it.
func (s *Sequence) Write(w io.Writer) error {
	var body bytes.Buffer

	ws := newWriteState()
	blockLines := make([]string, 0, len(s.blocks))

	for i, b := range s.blocks {
		rfID := 0
		if b.RF != nil {
			rfID = ws.rfID(b.RF)
		}

		gradIDs := [3]int{}
		for ci, g := range []*TrapGradient{b.Gx, b.Gy, b.Gz} {
			if g != nil {
				gradIDs[ci] = ws.trapID(g)
			}
		}

		adcID := 0
		if b.ADC != nil {
			adcID = ws.adcID(b.ADC)
		}

		extID := ws.extensionID(b.Labels)

		dur := int(math.Round(b.duration / s.system.BlockDurationRaster))
		blockLines = append(blockLines, fmt.Sprintf("%d %d %d %d %d %d %d %d",
			i+1, dur, rfID, gradIDs[0], gradIDs[1], gradIDs[2], adcID, extID))
	}

	fmt.Fprintf(&body, "# Pulseq sequence file\n# Created by seqgen\n\n")

	fmt.Fprintf(&body, "[VERSION]\nmajor 1\nminor 4\nrevision 0\n\n")

	s.writeDefinitions(&body)
	writeSection(&body, "[BLOCKS]", []string{
		"# Columns: id duration rf gx gy gz adc ext",
		"# Durations are in units of the block duration raster.",
	}, blockLines)

	writeSection(&body, "[RF]", []string{
		"# Format of RF events:",
		"# id amplitude mag_id phase_id time_id delay freq phase",
		"# ..        Hz      ..       ..      ..    us   Hz  rad",
	}, ws.rfLines)

	writeSection(&body, "[TRAP]", []string{
		"# Format of trapezoid gradients:",
		"# id amplitude rise flat fall delay",
		"# ..      Hz/m   us   us   us    us",
	}, ws.trapLines)

	writeSection(&body, "[ADC]", []string{
		"# Format of ADC events:",
		"# id num dwell delay freq phase",
		"# ..  ..    ns    us   Hz   rad",
	}, ws.adcLines)

	ws.writeExtensions(&body)
	ws.writeShapes(&body)

	sum := md5.Sum(body.Bytes())
	fmt.Fprintf(&body, "[SIGNATURE]\n")
	fmt.Fprintf(&body, "# This is the hash of the Pulseq file, calculated right before the [SIGNATURE] section was added\n")
	fmt.Fprintf(&body, "# It can be reproduced/verified with md5sum if the file trimmed to the position right above [SIGNATURE]\n")
	fmt.Fprintf(&body, "Type md5\n")
	fmt.Fprintf(&body, "Hash %x\n", sum)

	_, err := w.Write(body.Bytes())

	return err
}

// WriteFile serializes the sequence to a file, appending the .seq suffix
// when missing.
func (s *Sequence) WriteFile(path string) error {
	if !strings.HasSuffix(path, ".seq") {
		path += ".seq"
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return s.Write(f)
}

func (s *Sequence) writeDefinitions(w io.Writer) {
	fmt.Fprintf(w, "[DEFINITIONS]\n")
	fmt.Fprintf(w, "AdcRasterTime %s\n", formatFloat(s.system.ADCRasterTime))
	fmt.Fprintf(w, "BlockDurationRaster %s\n", formatFloat(s.system.BlockDurationRaster))
	fmt.Fprintf(w, "GradientRasterTime %s\n", formatFloat(s.system.GradRasterTime))
	fmt.Fprintf(w, "RadiofrequencyRasterTime %s\n", formatFloat(s.system.RFRasterTime))
	fmt.Fprintf(w, "TotalDuration %s\n", formatFloat(s.Duration()))

	for _, def := range s.defs {
		fmt.Fprintf(w, "%s %s\n", def.Key, formatDefinitionValue(def.Value))
	}

	fmt.Fprintf(w, "\n")
}

func writeSection(w io.Writer, header string, comments, lines []string) {
	if len(lines) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", header)
	for _, c := range comments {
		fmt.Fprintf(w, "%s\n", c)
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n", l)
	}
	fmt.Fprintf(w, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatDefinitionValue(v any) string {
	switch val := v.(type) {
	case float64:
		return formatFloat(val)
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = formatFloat(f)
		}
		return strings.Join(parts, " ")
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// extension type IDs, assigned in the order the specs are emitted.
const (
	extTypeLabelSet = 1
	extTypeLabelInc = 2
)

type writeState struct {
	shapeIDs  map[string]int
	shapes    []compressedShape
	rfIDs     map[string]int
	rfLines   []string
	trapIDs   map[string]int
	trapLines []string
	adcIDs    map[string]int
	adcLines  []string

	labelIDs   map[string]int   // per extension type
	labelLines map[int][]string // extension type -> entry lines
	chainIDs   map[string]int   // chain fingerprint -> entry id
	chainLines []string         // extension list entries in id order
}

func newWriteState() *writeState {
	return &writeState{
		shapeIDs:   make(map[string]int),
		rfIDs:      make(map[string]int),
		trapIDs:    make(map[string]int),
		adcIDs:     make(map[string]int),
		labelIDs:   make(map[string]int),
		labelLines: make(map[int][]string),
		chainIDs:   make(map[string]int),
	}
}

func (ws *writeState) shapeID(samples []float64) int {
	c := compressShape(samples)

	var key strings.Builder
	fmt.Fprintf(&key, "%d", c.NumSamples)
	for _, v := range c.Data {
		fmt.Fprintf(&key, " %s", formatFloat(v))
	}

	if id, ok := ws.shapeIDs[key.String()]; ok {
		return id
	}

	ws.shapes = append(ws.shapes, c)
	id := len(ws.shapes)
	ws.shapeIDs[key.String()] = id

	return id
}

func (ws *writeState) rfID(rf *RFPulse) int {
	amp := rf.Amplitude
	phaseOffset := rf.PhaseOffset
	if amp < 0 {
		// Negative amplitudes fold into a half-turn phase shift.
		amp = -amp
		phaseOffset += math.Pi
	}

	magID := ws.shapeID(rf.Envelope)
	phaseID := ws.shapeID(phaseShapeSamples(rf.Phase))

	line := fmt.Sprintf("%s %d %d 0 %d %s %s",
		formatFloat(amp), magID, phaseID,
		roundMicroseconds(rf.Delay),
		formatFloat(rf.FreqOffset), formatFloat(phaseOffset))

	if id, ok := ws.rfIDs[line]; ok {
		return id
	}

	id := len(ws.rfLines) + 1
	ws.rfIDs[line] = id
	ws.rfLines = append(ws.rfLines, fmt.Sprintf("%d %s", id, line))

	return id
}

func (ws *writeState) trapID(g *TrapGradient) int {
	line := fmt.Sprintf("%s %d %d %d %d",
		formatFloat(g.Amplitude),
		roundMicroseconds(g.RiseTime), roundMicroseconds(g.FlatTime),
		roundMicroseconds(g.FallTime), roundMicroseconds(g.Delay))

	if id, ok := ws.trapIDs[line]; ok {
		return id
	}

	id := len(ws.trapLines) + 1
	ws.trapIDs[line] = id
	ws.trapLines = append(ws.trapLines, fmt.Sprintf("%d %s", id, line))

	return id
}

func (ws *writeState) adcID(a *ADC) int {
	line := fmt.Sprintf("%d %d %d %s %s",
		a.NumSamples,
		int(math.Round(a.Dwell*1e9)),
		roundMicroseconds(a.Delay),
		formatFloat(a.FreqOffset), formatFloat(a.PhaseOffset))

	if id, ok := ws.adcIDs[line]; ok {
		return id
	}

	id := len(ws.adcLines) + 1
	ws.adcIDs[line] = id
	ws.adcLines = append(ws.adcLines, fmt.Sprintf("%d %s", id, line))

	return id
}

func (ws *writeState) labelID(l Label) (extType, ref int) {
	extType = extTypeLabelSet
	if l.Op == LabelInc {
		extType = extTypeLabelInc
	}

	key := fmt.Sprintf("%d %d %s", extType, l.Value, l.Name)
	if id, ok := ws.labelIDs[key]; ok {
		return extType, id
	}

	id := len(ws.labelLines[extType]) + 1
	ws.labelIDs[key] = id
	ws.labelLines[extType] = append(ws.labelLines[extType],
		fmt.Sprintf("%d %d %s", id, l.Value, l.Name))

	return extType, id
}

// extensionID returns the id of the extension-list entry heading the chain
// for the given labels, or 0 when there are none. Chains with a shared
// tail share entries.
func (ws *writeState) extensionID(labels []Label) int {
	if len(labels) == 0 {
		return 0
	}

	extType, ref := ws.labelID(labels[0])
	next := ws.extensionID(labels[1:])

	key := fmt.Sprintf("%d %d %d", extType, ref, next)
	if id, ok := ws.chainIDs[key]; ok {
		return id
	}

	id := len(ws.chainLines) + 1
	ws.chainIDs[key] = id
	ws.chainLines = append(ws.chainLines,
		fmt.Sprintf("%d %d %d %d", id, extType, ref, next))

	return id
}

func (ws *writeState) writeExtensions(w io.Writer) {
	if len(ws.chainLines) == 0 {
		return
	}

	fmt.Fprintf(w, "[EXTENSIONS]\n")
	fmt.Fprintf(w, "# Format of extension lists:\n")
	fmt.Fprintf(w, "# id type ref next_id\n")
	fmt.Fprintf(w, "# A next_id of 0 terminates the list.\n")
	for _, l := range ws.chainLines {
		fmt.Fprintf(w, "%s\n", l)
	}
	fmt.Fprintf(w, "\n")

	for _, ext := range []struct {
		typeID int
		tag    string
	}{
		{extTypeLabelSet, "LABELSET"},
		{extTypeLabelInc, "LABELINC"},
	} {
		lines := ws.labelLines[ext.typeID]
		if len(lines) == 0 {
			continue
		}

		fmt.Fprintf(w, "extension %s %d\n", ext.tag, ext.typeID)
		fmt.Fprintf(w, "# Format: id value label\n")
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n", l)
		}
		fmt.Fprintf(w, "\n")
	}
}

func (ws *writeState) writeShapes(w io.Writer) {
	if len(ws.shapes) == 0 {
		return
	}

	fmt.Fprintf(w, "[SHAPES]\n\n")
	for i, shape := range ws.shapes {
		fmt.Fprintf(w, "shape_id %d\n", i+1)
		fmt.Fprintf(w, "num_samples %d\n", shape.NumSamples)
		for _, v := range shape.Data {
			fmt.Fprintf(w, "%s\n", formatFloat(v))
		}
		fmt.Fprintf(w, "\n")
	}
}

// phaseShapeSamples maps a phase track in radians to the file convention
// of fractional turns in [0, 1).
func phaseShapeSamples(phase []float64) []float64 {
	out := make([]float64, len(phase))
	for i, p := range phase {
		turns := math.Mod(p/(2*math.Pi), 1)
		if turns < 0 {
			turns++
		}
		out[i] = turns
	}

	return out
}

func roundMicroseconds(t float64) int {
	return int(math.Round(t * 1e6))
}
