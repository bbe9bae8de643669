// Package pattern evaluates the parametric animation programs. Each program
// is a function of (type, colors, speed, led, column, time); a few programs
// additionally fade a persistent strip buffer between ticks.
package pattern

import (
	"math"
	"math/rand"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/audio"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// Strobe period bounds in wall-clock milliseconds. Speed maps inversely:
// speed 0 gives the slowest strobe, 255 the fastest.
const (
	StrobeMaxPeriodMS = 1000
	StrobeMinPeriodMS = 40
)

// Generator holds the little state some programs need: a persistent strip
// buffer for fading effects, a heat field for fire, and the RNG for the
// probabilistic programs.
type Generator struct {
	strip [store.StripLEDs]led.RGB
	heat  [store.StripLEDs]uint8
	rng   *rand.Rand
	src   audio.Source
}

// New builds a Generator. src may not be nil; pass audio.Silent{} when no
// microphone hardware exists.
func New(src audio.Source, seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		src: src,
	}
}

// Reset clears the persistent effect state. Called on mode and index changes
// so no animation carries over from the previous content.
func (g *Generator) Reset() {
	g.strip = [store.StripLEDs]led.RGB{}
	g.heat = [store.StripLEDs]uint8{}
}

// StrobePeriodMS returns the strobe toggle period for a speed value. The
// period derives from wall-clock time, never from a frame counter, so it is
// unaffected by the configured frame delay.
func StrobePeriodMS(speed uint8) int64 {
	return StrobeMaxPeriodMS - int64(speed)*(StrobeMaxPeriodMS-StrobeMinPeriodMS)/255
}

// RenderColumn writes the pattern's pixels for column col at time tMS
// (milliseconds since engine start) into dst, one pixel per LED.
func (g *Generator) RenderColumn(dst []led.RGB, p store.Pattern, col int, tMS int64) {
	n := len(dst)
	if n == 0 {
		return
	}
	switch p.Type {
	case store.PatternRainbow:
		hue := uint8(tMS*int64(p.Speed)/128 + int64(col)*256/store.DisplayWidth)
		c := hsv(hue, 255, 255)
		for i := range dst {
			dst[i] = c
		}

	case store.PatternWave:
		for i := range dst {
			phase := float64(i)*0.45 + float64(tMS)*float64(p.Speed)/8000.0
			env := (math.Sin(phase) + 1) / 2
			dst[i] = scaleF(p.Color1, env)
		}

	case store.PatternGradient:
		// The gradient scrolls with time; a static gradient would collapse
		// to a single hue per revolution on a spinning display.
		shift := float64(tMS) * float64(p.Speed) / 4000.0
		pos := math.Mod(float64(col)/store.DisplayWidth+shift, 1.0)
		c := blend(p.Color1, p.Color2, pos)
		for i := range dst {
			dst[i] = c
		}

	case store.PatternSparkle:
		for i := range g.strip {
			g.strip[i] = scaleF(g.strip[i], 0.80)
		}
		// Expected sparks per tick scale with speed.
		threshold := int(p.Speed)/8 + 1
		for i := 0; i < n; i++ {
			if g.rng.Intn(256) < threshold {
				g.strip[i] = p.Color1
			}
		}
		copy(dst, g.strip[:n])

	case store.PatternStrobe:
		half := StrobePeriodMS(p.Speed) / 2
		on := (tMS/half)%2 == 0
		for i := range dst {
			if on {
				dst[i] = p.Color1
			} else {
				dst[i] = led.Black
			}
		}

	case store.PatternFire:
		g.renderFire(dst, p, tMS)

	case store.PatternComet:
		for i := range g.strip {
			g.strip[i] = scaleF(g.strip[i], 0.75)
		}
		head := int(tMS*int64(p.Speed+1)/512) % n
		g.strip[head] = p.Color1
		copy(dst, g.strip[:n])

	case store.PatternBreathing:
		env := (math.Sin(float64(tMS)*float64(p.Speed+1)/20000.0) + 1) / 2
		c := scaleF(p.Color1, env)
		for i := range dst {
			dst[i] = c
		}

	case store.PatternMeteor:
		for i := range g.strip {
			if g.rng.Intn(10) > 3 {
				g.strip[i] = scaleF(g.strip[i], 0.70)
			}
		}
		head := int(tMS*int64(p.Speed+1)/512) % (2 * n)
		if head < n {
			g.strip[head] = p.Color1
		}
		copy(dst, g.strip[:n])

	case store.PatternWipe:
		// Wipes up in color1 during the first half of the cycle, then
		// un-wipes from the bottom revealing color2.
		edge := int(tMS*int64(p.Speed+1)/1024) % (2 * n)
		for i := range dst {
			lit := i <= edge
			if edge >= n {
				lit = i >= edge-n
			}
			if lit {
				dst[i] = p.Color1
			} else {
				dst[i] = p.Color2
			}
		}

	case store.PatternPlasma:
		tf := float64(tMS) * float64(p.Speed+1) / 30000.0
		for i := range dst {
			v := math.Sin(float64(i)*0.35+tf) +
				math.Sin(float64(col)*0.45-tf*1.3) +
				math.Sin(float64(i+col)*0.25+tf*0.7)
			f := (v + 3) / 6
			dst[i] = blend(p.Color1, p.Color2, f)
		}

	case store.PatternAudioLevel:
		lvl := int(g.src.Level())
		lit := lvl * n / 255
		for i := range dst {
			if i < lit {
				f := 0.0
				if n > 1 {
					f = float64(i) / float64(n-1)
				}
				dst[i] = blend(p.Color1, p.Color2, f)
			} else {
				dst[i] = led.Black
			}
		}

	case store.PatternAudioPulse:
		c := scaleF(p.Color1, float64(g.src.Level())/255.0)
		for i := range dst {
			dst[i] = c
		}

	default:
		for i := range dst {
			dst[i] = led.Black
		}
	}
}

func (g *Generator) renderFire(dst []led.RGB, p store.Pattern, tMS int64) {
	n := len(dst)
	// Cool every cell a little.
	for i := 0; i < n; i++ {
		cool := uint8(g.rng.Intn(550/n + 2))
		if g.heat[i] > cool {
			g.heat[i] -= cool
		} else {
			g.heat[i] = 0
		}
	}
	// Heat drifts upward.
	for i := n - 1; i >= 2; i-- {
		g.heat[i] = uint8((uint16(g.heat[i-1]) + 2*uint16(g.heat[i-2])) / 3)
	}
	// New sparks near the base, more often at higher speed.
	if g.rng.Intn(255) < int(p.Speed)/2+60 {
		i := g.rng.Intn(3)
		h := uint16(g.heat[i]) + uint16(160+g.rng.Intn(95))
		if h > 255 {
			h = 255
		}
		g.heat[i] = uint8(h)
	}
	for i := 0; i < n; i++ {
		dst[i] = heatColor(g.heat[i])
	}
}

// heatColor maps 0..255 heat onto the classic black-red-yellow-white ramp.
func heatColor(h uint8) led.RGB {
	t := uint16(h) * 191 / 255
	ramp := uint8((t % 64) * 4)
	switch {
	case t >= 128:
		return led.RGB{R: 255, G: 255, B: ramp}
	case t >= 64:
		return led.RGB{R: 255, G: ramp, B: 0}
	default:
		return led.RGB{R: ramp, G: 0, B: 0}
	}
}

func hsv(h, s, v uint8) led.RGB {
	if s == 0 {
		return led.RGB{R: v, G: v, B: v}
	}
	region := h / 43
	rem := (h - region*43) * 6
	p := uint8(uint16(v) * (255 - uint16(s)) / 255)
	q := uint8(uint16(v) * (255 - uint16(s)*uint16(rem)/255) / 255)
	t := uint8(uint16(v) * (255 - uint16(s)*(255-uint16(rem))/255) / 255)
	switch region {
	case 0:
		return led.RGB{R: v, G: t, B: p}
	case 1:
		return led.RGB{R: q, G: v, B: p}
	case 2:
		return led.RGB{R: p, G: v, B: t}
	case 3:
		return led.RGB{R: p, G: q, B: v}
	case 4:
		return led.RGB{R: t, G: p, B: v}
	default:
		return led.RGB{R: v, G: p, B: q}
	}
}

func blend(a, b led.RGB, f float64) led.RGB {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return led.RGB{
		R: uint8(float64(a.R)*(1-f) + float64(b.R)*f),
		G: uint8(float64(a.G)*(1-f) + float64(b.G)*f),
		B: uint8(float64(a.B)*(1-f) + float64(b.B)*f),
	}
}

func scaleF(c led.RGB, f float64) led.RGB {
	return led.RGB{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}
