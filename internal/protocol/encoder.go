package protocol

import (
	"errors"
	"io"
)

var ErrTooLong = errors.New("protocol: payload exceeds 16-bit length")

// WriteMessage emits one structured frame.
func WriteMessage(w io.Writer, t MsgType, payload []byte) error {
	if len(payload) > 0xFFFF {
		return ErrTooLong
	}
	hdr := [3]byte{byte(t), byte(len(payload) >> 8), byte(len(payload))}
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{Checksum(payload)})
	return err
}

// WriteAck emits an empty acknowledgement frame.
func WriteAck(w io.Writer) error { return WriteMessage(w, MsgAck, nil) }

// WriteNack emits an empty negative-acknowledgement frame.
func WriteNack(w io.Writer) error { return WriteMessage(w, MsgNack, nil) }

// WriteLegacy emits one legacy frame, as a handheld controller would send
// it. All replies from this side use the structured framing.
func WriteLegacy(w io.Writer, cmd byte, payload []byte) error {
	if cmd == CmdUploadImage {
		if len(payload) > 0xFFFF {
			return ErrTooLong
		}
		hdr := [4]byte{LegacyStart, cmd, byte(len(payload) >> 8), byte(len(payload))}
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
	} else {
		if len(payload) > 0xFF {
			return ErrTooLong
		}
		hdr := [3]byte{LegacyStart, cmd, byte(len(payload))}
		if _, err := w.Write(hdr[:]); err != nil {
			return err
		}
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{LegacyEnd})
	return err
}
