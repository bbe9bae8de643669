// Package audio provides the analog level input for audio-reactive patterns.
package audio

import (
	"periph.io/x/conn/v3/analog"
)

// NoiseFloor is subtracted from raw readings before patterns see the level.
const NoiseFloor = 50

// Source yields the current audio level, 0..255 after floor removal.
type Source interface {
	Level() uint8
}

// Silent is the source used when no microphone hardware is present. It reads
// the constant noise floor, which maps to level 0. Expected, not an error.
type Silent struct{}

func (Silent) Level() uint8 { return 0 }

// ADC samples a periph analog pin, typically a MAX9814 module on an ADC
// channel.
type ADC struct {
	Pin analog.PinADC
}

func (a *ADC) Level() uint8 {
	s, err := a.Pin.Read()
	if err != nil {
		return 0
	}
	min, max := a.Pin.Range()
	span := int64(max.Raw - min.Raw)
	if span <= 0 {
		return 0
	}
	raw := int64(s.Raw-min.Raw) * 255 / span
	if raw <= NoiseFloor {
		return 0
	}
	// Rescale the usable band above the floor back to 0..255.
	return uint8((raw - NoiseFloor) * 255 / (255 - NoiseFloor))
}
