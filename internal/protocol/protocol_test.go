package protocol

import (
	"testing"
	"time"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/serialio"
)

func deadline() time.Time { return time.Now().Add(50 * time.Millisecond) }

func TestLegacyRoundTrip(t *testing.T) {
	cases := []struct {
		cmd     byte
		payload []byte
	}{
		{CmdSetMode, []byte{0x02, 0x01}},
		{CmdSetBrightness, []byte{0x80}},
		{CmdGetStatus, nil},
		{CmdUploadPattern, []byte{0, 1, 255, 0, 0, 0, 0, 255, 100}},
		{CmdUploadImage, make([]byte, 400)}, // forces the 16-bit length path
	}
	for _, c := range cases {
		lb := serialio.NewLoopback()
		if err := WriteLegacy(lb, c.cmd, c.payload); err != nil {
			t.Fatalf("encode cmd 0x%02x: %v", c.cmd, err)
		}
		// Reads happen from the device's perspective.
		lb.Feed(lb.TakeOut())
		d := NewDecoder(lb)
		f, err := d.ReadFrame(deadline())
		if err != nil {
			t.Fatalf("decode cmd 0x%02x: %v", c.cmd, err)
		}
		if !f.Legacy || f.Cmd != c.cmd {
			t.Fatalf("cmd 0x%02x: got legacy=%v cmd=0x%02x", c.cmd, f.Legacy, f.Cmd)
		}
		if len(f.Payload) != len(c.payload) {
			t.Fatalf("cmd 0x%02x: payload length %d, want %d", c.cmd, len(f.Payload), len(c.payload))
		}
		for i := range c.payload {
			if f.Payload[i] != c.payload[i] {
				t.Fatalf("cmd 0x%02x: payload byte %d differs", c.cmd, i)
			}
		}
	}
}

func TestStructuredRoundTrip(t *testing.T) {
	lb := serialio.NewLoopback()
	payload := []byte{1, 2, 3, 4, 5}
	if err := WriteMessage(lb, MsgCommand, payload); err != nil {
		t.Fatalf("encode: %v", err)
	}
	lb.Feed(lb.TakeOut())
	d := NewDecoder(lb)
	f, err := d.ReadFrame(deadline())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Legacy || f.Type != MsgCommand {
		t.Fatalf("got legacy=%v type=0x%02x", f.Legacy, f.Type)
	}
	if string(f.Payload) != string(payload) {
		t.Fatalf("payload %v, want %v", f.Payload, payload)
	}
}

func TestStructuredSingleBitFlipRejected(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}
	base := serialio.NewLoopback()
	if err := WriteMessage(base, MsgCommand, payload); err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire := base.TakeOut()

	// Flip every bit of every payload and checksum byte in turn; each
	// corruption must be caught by the XOR checksum.
	for pos := 3; pos < len(wire); pos++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), wire...)
			corrupt[pos] ^= 1 << bit
			lb := serialio.NewLoopback()
			lb.Feed(corrupt)
			d := NewDecoder(lb)
			if _, err := d.ReadFrame(deadline()); err != ErrChecksum {
				t.Fatalf("flip byte %d bit %d: got %v, want ErrChecksum", pos, bit, err)
			}
		}
	}
}

func TestTruncatedFrameAbandonedAfterStall(t *testing.T) {
	lb := serialio.NewLoopback()
	lb.Feed([]byte{LegacyStart, CmdSetMode, 5, 1, 2}) // declares 5 bytes, sends 2
	d := NewDecoder(lb)

	// The partial frame survives short reads until the inter-byte budget runs
	// out, then gets dropped.
	start := time.Now()
	var err error
	for {
		_, err = d.ReadFrame(time.Now().Add(2 * time.Millisecond))
		if err != ErrNoData {
			break
		}
		if time.Since(start) > 2*time.Second {
			t.Fatal("stalled frame was never abandoned")
		}
	}
	if err != ErrTruncated {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestLargeFrameAssemblesAcrossReads(t *testing.T) {
	// A full-size image upload takes longer on the wire than any single read
	// slice; the decoder must keep the partial frame across calls instead of
	// dropping it.
	payload := make([]byte, 6000)
	for i := range payload {
		payload[i] = byte(i)
	}
	enc := serialio.NewLoopback()
	if err := WriteMessage(enc, MsgImageData, payload); err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire := enc.TakeOut()

	lb := serialio.NewLoopback()
	d := NewDecoder(lb)
	start := time.Now()
	var f Frame
	var err error
	for len(wire) > 0 {
		n := 512
		if n > len(wire) {
			n = len(wire)
		}
		lb.Feed(wire[:n])
		wire = wire[n:]
		f, err = d.ReadFrame(time.Now().Add(time.Millisecond))
		if len(wire) > 0 && err != ErrNoData {
			t.Fatalf("mid-frame read: got %v, want ErrNoData", err)
		}
	}
	if err != nil {
		t.Fatalf("final read: %v", err)
	}
	if f.Type != MsgImageData || len(f.Payload) != len(payload) {
		t.Fatalf("frame type=0x%02x len=%d", f.Type, len(f.Payload))
	}
	for i := range payload {
		if f.Payload[i] != payload[i] {
			t.Fatalf("payload byte %d differs", i)
		}
	}
	if time.Since(start) > time.Second {
		t.Fatal("chunked reads blocked instead of returning at their deadlines")
	}
}

func TestOversizedFrameDiscarded(t *testing.T) {
	lb := serialio.NewLoopback()
	lb.Feed([]byte{byte(MsgImageData), 0xFF, 0xFF})
	d := NewDecoder(lb)
	if _, err := d.ReadFrame(deadline()); err != ErrOversized {
		t.Fatalf("got %v, want ErrOversized", err)
	}
}

func TestResyncAfterGarbage(t *testing.T) {
	lb := serialio.NewLoopback()
	lb.Feed([]byte{0x99}) // not a marker, not a valid type
	if err := WriteLegacy(lb, CmdSetBrightness, []byte{10}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	lb.Feed(lb.TakeOut())

	d := NewDecoder(lb)
	if _, err := d.ReadFrame(deadline()); err != ErrBadFrame {
		t.Fatalf("garbage byte: got %v, want ErrBadFrame", err)
	}
	f, err := d.ReadFrame(deadline())
	if err != nil {
		t.Fatalf("decode after resync: %v", err)
	}
	if f.Cmd != CmdSetBrightness || f.Payload[0] != 10 {
		t.Fatalf("unexpected frame after resync: %+v", f)
	}
}

func TestNoDataBeforeDeadline(t *testing.T) {
	d := NewDecoder(serialio.NewLoopback())
	if _, err := d.ReadFrame(time.Now().Add(2 * time.Millisecond)); err != ErrNoData {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestChecksumXOR(t *testing.T) {
	if Checksum(nil) != 0 {
		t.Fatal("empty checksum should be 0")
	}
	if Checksum([]byte{0xAA, 0x55}) != 0xFF {
		t.Fatal("xor mismatch")
	}
	if Checksum([]byte{0x12, 0x12}) != 0 {
		t.Fatal("self-canceling bytes should xor to 0")
	}
}
