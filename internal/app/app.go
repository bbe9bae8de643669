// Package app wires the core together and runs the cooperative loop: one
// goroutine interleaving serial drain and display ticks. Neither task ever
// blocks past a bounded wait, so a stalled peer cannot stop the render.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/dispatch"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/engine"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/protocol"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/serialio"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// serialSlice bounds the mid-frame wait for command bytes. It is short
// enough to never starve the tick at the minimum frame delay.
const serialSlice = 2 * time.Millisecond

type Loop struct {
	port serialio.Port
	dec  *protocol.Decoder
	disp *dispatch.Dispatcher
	eng  *engine.Engine
	log  zerolog.Logger
}

func NewLoop(port serialio.Port, disp *dispatch.Dispatcher, eng *engine.Engine, log zerolog.Logger) *Loop {
	// Each hardware poll must return well inside the serial slice; an idle
	// link would otherwise hold every iteration for the full port timeout.
	_ = port.SetReadTimeout(serialSlice / 2)
	return &Loop{
		port: port,
		dec:  protocol.NewDecoder(port),
		disp: disp,
		eng:  eng,
		log:  log,
	}
}

// Run drives the loop until the context is canceled. Command errors are
// answered on the wire and never propagate; only a driver failure or
// cancellation ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().Msg("render loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.drainSerial()

		now := time.Now()
		if l.eng.Due(now) {
			if err := l.eng.Tick(now); err != nil {
				return err
			}
		}
	}
}

// drainSerial decodes at most one frame per call with a time-boxed wait.
// Reply policy per failure mode: malformed framing and checksum mismatches
// nack, truncation stays silent (the sender retries on its own timeout),
// oversized frames only log.
func (l *Loop) drainSerial() {
	f, err := l.dec.ReadFrame(time.Now().Add(serialSlice))
	switch err {
	case nil:
		l.disp.Handle(f)
	case protocol.ErrNoData, protocol.ErrTruncated:
		// Quiet paths.
	case protocol.ErrChecksum, protocol.ErrBadFrame:
		_ = protocol.WriteNack(l.port)
	case protocol.ErrOversized:
		l.log.Warn().Msg("oversized frame discarded")
	default:
		l.log.Error().Err(err).Msg("serial read")
	}
}

// StartupWipe runs the power-on sweep: green fill from the bottom, a short
// hold, then clear.
func StartupWipe(drv led.Driver, delay time.Duration) {
	var frame [store.StripLEDs]led.RGB
	for i := range frame {
		frame[i] = led.RGB{G: 0xFF}
		_ = drv.Write(frame[:])
		time.Sleep(delay)
	}
	time.Sleep(500 * time.Millisecond)
	for i := range frame {
		frame[i] = led.Black
	}
	_ = drv.Write(frame[:])
}
