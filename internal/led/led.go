// Package led owns the physical pixel path: the RGB frame type, the Driver
// abstraction over the strip transport, and a global brightness scaler.
package led

// RGB is one pixel as sent to the strip.
type RGB struct {
	R, G, B uint8
}

// Black is the off pixel.
var Black = RGB{}

// Driver abstracts the LED transport (SPI, terminal preview, capture).
type Driver interface {
	Write(frame []RGB) error
}

// Scale returns c with every channel scaled by brightness/255.
func Scale(c RGB, brightness uint8) RGB {
	if brightness == 0xFF {
		return c
	}
	b := uint16(brightness)
	return RGB{
		R: uint8(uint16(c.R) * b / 255),
		G: uint8(uint16(c.G) * b / 255),
		B: uint8(uint16(c.B) * b / 255),
	}
}

// ScaleFrame applies Scale in place across a frame.
func ScaleFrame(frame []RGB, brightness uint8) {
	if brightness == 0xFF {
		return
	}
	for i := range frame {
		frame[i] = Scale(frame[i], brightness)
	}
}
