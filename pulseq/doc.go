// Package pulseq implements a block-based MRI pulse-sequence engine: typed
// RF, gradient, ADC, delay, and label events, constructors that synthesize
// them under a set of hardware limits, an append-only sequence container,
// timing validation, and a Pulseq-v1.4-compatible text writer.
//
// A Sequence is an ordered list of blocks. Each block is a time slice that
// holds zero or more concurrent events; its duration is the span of the
// longest event it contains. Sequence assembly is plain sequential
// composition: builders append blocks, the sequence only grows.
package pulseq
