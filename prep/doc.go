// Package prep builds magnetization-preparation blocks: an adiabatic T1
// inversion block and an MLEV-4 composite-pulse T2 preparation block. The
// builders append to a pulseq.Sequence and solve the inter-pulse delays in
// closed form so the block meets the requested inversion or echo time.
//
// Builders never roll back: blocks appended before a failing delay
// calculation stay appended, and the caller discards the sequence on error.
package prep
