package led

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// StripDriver writes frames to an NRZ LED strip over SPI. When no SPI port is
// available it falls back to a terminal preview so the daemon stays usable on
// a development host.
type StripDriver struct {
	drawer display.Drawer
	img    *image.NRGBA
	Spi    bool
}

// OpenStrip initializes periph and opens the first SPI port. dev may name a
// specific port ("" picks the first one).
func OpenStrip(dev string, numLEDs int, speedHz int, log zerolog.Logger) (*StripDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	d := &StripDriver{
		img: image.NewNRGBA(image.Rect(0, 0, numLEDs, 1)),
	}
	port, err := spireg.Open(dev)
	if err != nil {
		log.Warn().Err(err).Msg("no SPI port, falling back to terminal preview")
		d.drawer = screen1d.New(&screen1d.Opts{X: numLEDs})
		return d, nil
	}
	opts := nrzled.Opts{
		NumPixels: numLEDs,
		Channels:  3,
		Freq:      physic.Frequency(speedHz) * physic.Hertz,
	}
	dev2, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, err
	}
	_ = dev2.Halt()
	d.drawer = dev2
	d.Spi = true
	return d, nil
}

// Write pushes one frame to the strip. Frames shorter than the strip leave
// the remaining pixels black.
func (d *StripDriver) Write(frame []RGB) error {
	bounds := d.img.Bounds()
	draw.Draw(d.img, bounds, image.NewUniform(color.NRGBA{A: 0xFF}), image.Point{}, draw.Src)
	for i := 0; i < len(frame) && i < bounds.Dx(); i++ {
		d.img.SetNRGBA(i, 0, color.NRGBA{R: frame[i].R, G: frame[i].G, B: frame[i].B, A: 0xFF})
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{})
}

// Halt blanks the strip.
func (d *StripDriver) Halt() error {
	if h, ok := d.drawer.(interface{ Halt() error }); ok {
		return h.Halt()
	}
	return nil
}
