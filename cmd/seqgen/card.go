package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openmrlab/seqgen/irgre"
)

// protocolCard is the YAML protocol description accepted by --card. Times
// are in seconds and lengths in meters. Fields left out keep the protocol
// defaults.
type protocolCard struct {
	EchoTime         float64   `yaml:"echo_time"`
	RepetitionTime   float64   `yaml:"repetition_time"`
	InversionTimes   []float64 `yaml:"inversion_times"`
	FieldOfView      float64   `yaml:"field_of_view"`
	NumReadout       int       `yaml:"num_readout"`
	NumPhaseEncoding int       `yaml:"num_phase_encoding"`
	SliceThickness   float64   `yaml:"slice_thickness"`
}

// applyProtocolCard overlays the card at path onto the given parameters.
func applyProtocolCard(path string, p irgre.Params) (irgre.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading protocol card: %w", err)
	}

	var card protocolCard
	err = yaml.Unmarshal(data, &card)
	if err != nil {
		return p, fmt.Errorf("parsing protocol card %s: %w", path, err)
	}

	if card.EchoTime != 0 {
		p.TE = card.EchoTime
	}
	if card.RepetitionTime != 0 {
		p.TR = card.RepetitionTime
	}
	if len(card.InversionTimes) > 0 {
		p.InversionTimes = card.InversionTimes
	}
	if card.FieldOfView != 0 {
		p.FOVxy = card.FieldOfView
	}
	if card.NumReadout != 0 {
		p.NumReadout = card.NumReadout
	}
	if card.NumPhaseEncoding != 0 {
		p.NumPhaseEncoding = card.NumPhaseEncoding
	}
	if card.SliceThickness != 0 {
		p.SliceThickness = card.SliceThickness
	}

	return p, nil
}
