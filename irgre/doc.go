// Package irgre assembles a gold-standard 2D gradient-echo inversion
// recovery sequence with one adiabatic inversion pulse before every
// readout line. Repetitions loop over the requested inversion times and
// phase-encoding steps; each one is labeled with its contrast and line
// index for downstream reconstruction.
package irgre
