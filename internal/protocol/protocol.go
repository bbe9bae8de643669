// Package protocol implements the serial command protocol shared with the
// network co-processor. Two framings coexist on the same byte stream: the
// compact legacy format used by handheld controllers and the checksummed
// structured format used for bulk transfers and replies.
//
// Legacy:     0xFF [cmd] [len] [data...] 0xFE
// Structured: [type] [len_hi] [len_lo] [data...] [xor checksum]
//
// The image upload command is the one legacy exception: it carries a 16-bit
// payload length in place of the single length byte.
package protocol

// Legacy frame markers.
const (
	LegacyStart = 0xFF
	LegacyEnd   = 0xFE
)

// Legacy command codes.
const (
	CmdSetMode        = 0x01
	CmdUploadImage    = 0x02
	CmdUploadPattern  = 0x03
	CmdUploadSequence = 0x04
	CmdLiveFrame      = 0x05
	CmdSetBrightness  = 0x06
	CmdSetFrameRate   = 0x07
	CmdGetStatus      = 0x08
)

// MsgType identifies a structured frame.
type MsgType byte

// Structured message types.
const (
	MsgImageData MsgType = 0x01
	MsgCommand   MsgType = 0x02
	MsgStatus    MsgType = 0x03
	MsgAck       MsgType = 0x04
	MsgNack      MsgType = 0x05

	MsgSDSave    MsgType = 0x10
	MsgSDList    MsgType = 0x11
	MsgSDDelete  MsgType = 0x12
	MsgSDGetInfo MsgType = 0x13
	MsgSDLoad    MsgType = 0x14
)

// Valid reports whether t is a defined structured type.
func (t MsgType) Valid() bool {
	switch t {
	case MsgImageData, MsgCommand, MsgStatus, MsgAck, MsgNack,
		MsgSDSave, MsgSDList, MsgSDDelete, MsgSDGetInfo, MsgSDLoad:
		return true
	}
	return false
}

// MaxPayload is the receive buffer capacity. Frames declaring more are
// discarded.
const MaxPayload = 8192

// Checksum is the XOR of the payload bytes.
func Checksum(data []byte) byte {
	var c byte
	for _, b := range data {
		c ^= b
	}
	return c
}

// Frame is one decoded command frame. Payload aliases the decoder's receive
// buffer and is only valid until the next ReadFrame call.
type Frame struct {
	Legacy  bool
	Cmd     byte    // legacy command code
	Type    MsgType // structured message type
	Payload []byte
}
