// The seqgen command generates quantitative MRI pulse sequences in the
// Pulseq file format.
package main

import "github.com/tebeka/atexit"

func main() {
	Execute()
	atexit.Exit(0)
}
