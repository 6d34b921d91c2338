package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrlab/seqgen/irgre"
)

func TestApplyProtocolCard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	card := `
repetition_time: 10.0
inversion_times: [0.05, 0.1]
num_readout: 64
`
	require.NoError(t, os.WriteFile(path, []byte(card), 0o644))

	p, err := applyProtocolCard(path, irgre.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, 10.0, p.TR)
	assert.Equal(t, []float64{0.05, 0.1}, p.InversionTimes)
	assert.Equal(t, 64, p.NumReadout)

	// Untouched fields keep the protocol defaults.
	assert.Equal(t, irgre.DefaultParams().FOVxy, p.FOVxy)
	assert.Equal(t, irgre.DefaultParams().NumPhaseEncoding, p.NumPhaseEncoding)
}

func TestApplyProtocolCardMissingFile(t *testing.T) {
	_, err := applyProtocolCard("does-not-exist.yaml", irgre.DefaultParams())
	assert.Error(t, err)
}

func TestApplyProtocolCardBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := applyProtocolCard(path, irgre.DefaultParams())
	assert.Error(t, err)
}
