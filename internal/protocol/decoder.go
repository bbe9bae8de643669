package protocol

import (
	"errors"
	"time"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/serialio"
)

// Decode outcomes. ErrNoData covers both an idle link and a frame still
// assembling, and is the quiet steady-state result; the others describe
// discarded frames.
var (
	ErrNoData    = errors.New("protocol: no data before deadline")
	ErrTruncated = errors.New("protocol: frame truncated")
	ErrBadFrame  = errors.New("protocol: malformed frame")
	ErrChecksum  = errors.New("protocol: checksum mismatch")
	ErrOversized = errors.New("protocol: declared length exceeds buffer")
)

// interByteTimeout bounds the silence between consecutive bytes of one frame.
// It is a per-byte budget, not a per-frame one: a full-size image upload takes
// over half a second at link speed and must keep assembling across calls.
const interByteTimeout = 250 * time.Millisecond

type decodeState uint8

const (
	stateIdle decodeState = iota
	stateLegacyCmd
	stateLength
	statePayload
	stateLegacyEnd
	stateChecksum
	stateDiscard // swallowing a broken legacy frame through its end marker
)

// Decoder reads frames from a Port with bounded waits. Frame assembly is
// incremental: each call consumes the bytes that have arrived and returns
// ErrNoData until the frame completes, so a slow large upload never holds the
// caller past its deadline. The decoder owns a fixed receive buffer; decoded
// payloads alias it.
type Decoder struct {
	port serialio.Port

	payload [MaxPayload]byte

	rbuf [512]byte
	rpos int
	rlen int

	// in-flight frame
	state    decodeState
	legacy   bool
	cmd      byte
	mtype    MsgType
	lenBuf   [2]byte
	lenN     int
	need     int
	got      int
	lastByte time.Time
}

func NewDecoder(port serialio.Port) *Decoder {
	return &Decoder{port: port}
}

func (d *Decoder) reset() {
	d.state = stateIdle
	d.lenN = 0
	d.got = 0
}

// readByte returns the next byte, polling the port until the deadline. The
// port's own read timeout bounds each poll, so the loop wakes often enough
// to honor deadlines in the low-millisecond range.
func (d *Decoder) readByte(deadline time.Time) (byte, error) {
	for {
		if d.rpos < d.rlen {
			b := d.rbuf[d.rpos]
			d.rpos++
			return b, nil
		}
		if !time.Now().Before(deadline) {
			return 0, ErrNoData
		}
		n, err := d.port.Read(d.rbuf[:])
		if err != nil {
			return 0, err
		}
		d.rpos, d.rlen = 0, n
	}
}

// ReadFrame consumes the bytes available before deadline and returns the next
// complete frame. A frame in flight survives across calls; a partial frame
// whose next byte stays absent past interByteTimeout is dropped as
// ErrTruncated and the stream resynchronizes at the next marker byte.
func (d *Decoder) ReadFrame(deadline time.Time) (Frame, error) {
	for {
		b, err := d.readByte(deadline)
		if err != nil {
			if err == ErrNoData && d.state != stateIdle &&
				time.Since(d.lastByte) > interByteTimeout {
				d.reset()
				return Frame{}, ErrTruncated
			}
			return Frame{}, err
		}
		d.lastByte = time.Now()
		f, done, err := d.consume(b)
		if err != nil {
			return Frame{}, err
		}
		if done {
			return f, nil
		}
	}
}

func (d *Decoder) trailer() decodeState {
	if d.legacy {
		return stateLegacyEnd
	}
	return stateChecksum
}

// consume advances the frame state machine by one byte.
func (d *Decoder) consume(b byte) (Frame, bool, error) {
	switch d.state {
	case stateIdle:
		switch {
		case b == LegacyStart:
			d.legacy = true
			d.state = stateLegacyCmd
		case MsgType(b).Valid():
			d.legacy = false
			d.mtype = MsgType(b)
			d.lenN = 0
			d.state = stateLength
		default:
			// Not a start marker. Drop the byte and let the caller try again.
			return Frame{}, false, ErrBadFrame
		}

	case stateLegacyCmd:
		d.cmd = b
		d.lenN = 0
		d.state = stateLength

	case stateLength:
		d.lenBuf[d.lenN] = b
		d.lenN++
		// Image uploads outgrow one length byte; the two bytes that follow
		// the command code carry a 16-bit payload length instead.
		want := 2
		if d.legacy && d.cmd != CmdUploadImage {
			want = 1
		}
		if d.lenN < want {
			break
		}
		if want == 1 {
			d.need = int(d.lenBuf[0])
		} else {
			d.need = int(d.lenBuf[0])<<8 | int(d.lenBuf[1])
		}
		if d.need > MaxPayload {
			if d.legacy {
				d.state = stateDiscard
			} else {
				d.reset()
			}
			return Frame{}, false, ErrOversized
		}
		d.got = 0
		if d.need == 0 {
			d.state = d.trailer()
		} else {
			d.state = statePayload
		}

	case statePayload:
		d.payload[d.got] = b
		d.got++
		if d.got == d.need {
			d.state = d.trailer()
		}

	case stateLegacyEnd:
		if b != LegacyEnd {
			d.state = stateDiscard
			return Frame{}, false, ErrBadFrame
		}
		f := Frame{Legacy: true, Cmd: d.cmd, Payload: d.payload[:d.need]}
		d.reset()
		return f, true, nil

	case stateChecksum:
		n := d.need
		t := d.mtype
		d.reset()
		if Checksum(d.payload[:n]) != b {
			return Frame{}, false, ErrChecksum
		}
		return Frame{Type: t, Payload: d.payload[:n]}, true, nil

	case stateDiscard:
		if b == LegacyEnd {
			d.reset()
		}
	}
	return Frame{}, false, nil
}
