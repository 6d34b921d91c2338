package pulseq

import "fmt"

// labelNames lists the counters understood by the file format.
var labelNames = map[string]bool{
	"LIN": true,
	"PAR": true,
	"SLC": true,
	"SEG": true,
	"REP": true,
	"AVG": true,
	"ECO": true,
	"PHS": true,
	"SET": true,
}

// MakeLabel creates a label event. The name must be one of the counters
// understood by the file format.
func MakeLabel(op LabelOp, name string, value int) Label {
	if !labelNames[name] {
		panic(fmt.Sprintf("pulseq: unknown label %q", name))
	}

	return Label{Op: op, Name: name, Value: value}
}
