// Package engine drives the display: a mode/index/cursor state machine that
// renders exactly one column per tick and pushes it through the LED driver.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/pattern"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// Mode selects the active renderer.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeImage
	ModePattern
	ModeSequence
	ModeLive

	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeImage:
		return "image"
	case ModePattern:
		return "pattern"
	case ModeSequence:
		return "sequence"
	case ModeLive:
		return "live"
	default:
		return "invalid"
	}
}

// Valid reports whether m maps to a defined renderer.
func (m Mode) Valid() bool { return m < modeCount }

// Frame delay clamp range in milliseconds.
const (
	MinFrameDelayMS = 1
	MaxFrameDelayMS = 1000
)

// DefaultFrameDelay approximates 60 columns per second.
const DefaultFrameDelay = 16 * time.Millisecond

// Engine is the display state machine. It is driven from the cooperative
// loop; all mutation happens on that goroutine.
type Engine struct {
	st  *store.Store
	gen *pattern.Generator
	drv led.Driver
	log zerolog.Logger

	mode       Mode
	index      int
	cursor     int
	brightness uint8
	delay      time.Duration

	// sequence playback
	seqPos     int
	seqElapsed time.Duration
	seqDone    bool

	start    time.Time
	lastTick time.Time
	ticked   bool

	frame [store.StripLEDs]led.RGB
	out   [store.StripLEDs]led.RGB
}

func New(st *store.Store, gen *pattern.Generator, drv led.Driver, log zerolog.Logger) *Engine {
	now := time.Now()
	return &Engine{
		st:         st,
		gen:        gen,
		drv:        drv,
		log:        log,
		mode:       ModeIdle,
		brightness: 128,
		delay:      DefaultFrameDelay,
		start:      now,
		lastTick:   now,
	}
}

// SetMode switches the active renderer. The cursor and any in-flight
// animation state always reset so the first frame of the new content is
// stable.
func (e *Engine) SetMode(m Mode, index int) {
	e.mode = m
	e.index = index
	e.cursor = 0
	e.seqPos = 0
	e.seqElapsed = 0
	e.seqDone = false
	e.gen.Reset()
	e.log.Debug().Stringer("mode", m).Int("index", index).Msg("mode change")
}

// SetBrightness sets the global output scalar. Stored content is never
// rescaled.
func (e *Engine) SetBrightness(b uint8) { e.brightness = b }

// SetFrameDelay clamps the inter-column interval into the documented range.
func (e *Engine) SetFrameDelay(d time.Duration) {
	if d < MinFrameDelayMS*time.Millisecond {
		d = MinFrameDelayMS * time.Millisecond
	}
	if d > MaxFrameDelayMS*time.Millisecond {
		d = MaxFrameDelayMS * time.Millisecond
	}
	e.delay = d
}

func (e *Engine) Mode() Mode               { return e.mode }
func (e *Engine) Index() int               { return e.index }
func (e *Engine) Cursor() int              { return e.cursor }
func (e *Engine) Brightness() uint8        { return e.brightness }
func (e *Engine) FrameDelay() time.Duration { return e.delay }

// Due reports whether the frame delay has elapsed since the last tick. The
// first tick is always due.
func (e *Engine) Due(now time.Time) bool {
	return !e.ticked || now.Sub(e.lastTick) >= e.delay
}

// Tick renders one column and writes it to the driver. Empty or invalid
// content renders black; the loop never stops for content errors.
func (e *Engine) Tick(now time.Time) error {
	dt := now.Sub(e.lastTick)
	if !e.ticked {
		// The gap between construction and the first frame is startup time,
		// not playback time.
		dt = 0
		e.ticked = true
	}
	e.lastTick = now
	tMS := now.Sub(e.start).Milliseconds()

	for i := range e.frame {
		e.frame[i] = led.Black
	}

	switch e.mode {
	case ModeImage:
		e.renderImage(e.index)
	case ModePattern:
		e.renderPattern(e.index, tMS)
	case ModeSequence:
		e.renderSequence(dt, tMS)
	case ModeLive:
		live := e.st.Live()
		copy(e.frame[:], live[:])
	}

	e.out = e.frame
	led.ScaleFrame(e.out[:], e.brightness)
	return e.drv.Write(e.out[:])
}

func (e *Engine) renderImage(index int) {
	im, err := e.st.Image(index)
	if err != nil {
		return
	}
	im.Column(e.cursor, e.frame[:])
	e.cursor = (e.cursor + 1) % im.Width
}

func (e *Engine) renderPattern(index int, tMS int64) {
	p, err := e.st.Pattern(index)
	if err != nil {
		return
	}
	e.gen.RenderColumn(e.frame[:], p, e.cursor, tMS)
	e.cursor = (e.cursor + 1) % store.DisplayWidth
}

// renderSequence tracks item time independently of the column cursor: the
// active item advances when its duration elapses, and the cursor resets so
// each item starts at column zero.
func (e *Engine) renderSequence(dt time.Duration, tMS int64) {
	q, err := e.st.Sequence(e.index)
	if err != nil || e.seqDone {
		return
	}
	e.seqElapsed += dt
	item := q.Items[e.seqPos]
	for e.seqElapsed >= time.Duration(item.DurationMS)*time.Millisecond {
		e.seqElapsed -= time.Duration(item.DurationMS) * time.Millisecond
		e.seqPos++
		if e.seqPos >= q.Count {
			if q.Loop {
				e.seqPos = 0
			} else {
				e.seqDone = true
				return
			}
		}
		e.cursor = 0
		e.gen.Reset()
		item = q.Items[e.seqPos]
		if item.DurationMS == 0 {
			// Zero-length items would spin here forever.
			break
		}
	}
	switch item.Kind {
	case store.SeqImage:
		e.renderImage(int(item.Index))
	case store.SeqPattern:
		e.renderPattern(int(item.Index), tMS)
	}
}
