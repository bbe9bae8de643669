package monitor

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
)

func TestTeeDriverPassesThrough(t *testing.T) {
	m := New(zerolog.Nop())
	capture := &led.CaptureDriver{}
	drv := m.Driver(capture)

	frame := []led.RGB{{R: 1}, {G: 2}}
	if err := drv.Write(frame); err != nil {
		t.Fatal(err)
	}
	if len(capture.Frames) != 1 {
		t.Fatalf("wrapped driver not called: %d frames", len(capture.Frames))
	}
	if capture.Last()[1].G != 2 {
		t.Fatalf("frame mangled: %+v", capture.Last())
	}
}

func TestBroadcastWithoutClientsIsCheap(t *testing.T) {
	m := New(zerolog.Nop())
	// No clients connected: frameID must not advance, nothing marshals.
	m.broadcast([]led.RGB{{R: 9}})
	if m.frameID != 0 {
		t.Fatalf("frameID advanced with no clients: %d", m.frameID)
	}
}
