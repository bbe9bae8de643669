// Command povd is the POV display daemon: it owns the LED strip and serves
// the command protocol on the co-processor serial link.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/app"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/audio"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/config"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/dispatch"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/engine"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/monitor"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/pattern"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/serialio"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/storage"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

func main() {
	cfgPath := flag.String("config", "povd.yaml", "config file path")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", *cfgPath).Msg("config not loaded, using defaults")
		cfg = config.Default()
	}

	var drv led.Driver
	switch cfg.Driver {
	case "capture":
		drv = &led.CaptureDriver{}
	default:
		strip, err := led.OpenStrip(cfg.SPI.Dev, store.StripLEDs, cfg.SPI.SpeedHz, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("LED driver init failed")
		}
		drv = strip
	}

	if cfg.Monitor.Enabled {
		mon := monitor.New(logger)
		drv = mon.Driver(drv)
		go func() {
			if err := mon.Serve(cfg.Monitor.Addr); err != nil {
				logger.Error().Err(err).Msg("monitor server stopped")
			}
		}()
	}

	sd, err := storage.New(cfg.StorageDir, logger)
	if err != nil {
		// SD operations will nack; everything else keeps working.
		logger.Warn().Err(err).Msg("storage unavailable")
		sd = nil
	}

	port, err := serialio.Open(cfg.Serial.Dev, cfg.Serial.Baud,
		time.Duration(cfg.Serial.ReadTimeoutMs)*time.Millisecond)
	if err != nil {
		logger.Fatal().Err(err).Str("dev", cfg.Serial.Dev).Msg("serial open failed")
	}

	st := store.New()
	gen := pattern.New(audio.Silent{}, time.Now().UnixNano())
	eng := engine.New(st, gen, drv, logger)
	eng.SetBrightness(uint8(cfg.Brightness))
	eng.SetFrameDelay(time.Duration(cfg.FrameMs) * time.Millisecond)
	disp := dispatch.New(st, eng, sd, port, logger)

	app.StartupWipe(drv, 10*time.Millisecond)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := app.NewLoop(port, disp, eng, logger)
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("render loop failed")
	}
	logger.Info().Msg("shutdown")
}
