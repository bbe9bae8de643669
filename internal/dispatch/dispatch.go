// Package dispatch interprets decoded protocol frames and applies them to
// the content store, display engine and storage collaborator. Every frame is
// answered: ack, nack, or a typed reply. Handlers validate payload length
// before touching a single byte.
package dispatch

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/engine"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/imaging"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/protocol"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/storage"
	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/store"
)

// Image upload flag bits.
const (
	FlagNoVerticalFlip = 1 << 0
	FlagHorizontalFlip = 1 << 1
)

// Dispatcher routes commands. sd may be nil when no storage is mounted; SD
// operations then nack without side effects.
type Dispatcher struct {
	st  *store.Store
	eng *engine.Engine
	sd  *storage.Store
	w   io.Writer
	log zerolog.Logger
}

func New(st *store.Store, eng *engine.Engine, sd *storage.Store, w io.Writer, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{st: st, eng: eng, sd: sd, w: w, log: log}
}

// Handle applies one decoded frame. It never returns an error: every failure
// becomes a nack so the render loop keeps running regardless.
func (d *Dispatcher) Handle(f protocol.Frame) {
	if f.Legacy {
		d.handleCommand(f.Cmd, f.Payload)
		return
	}
	switch f.Type {
	case protocol.MsgCommand:
		if len(f.Payload) < 1 {
			d.nack("empty command frame")
			return
		}
		d.handleCommand(f.Payload[0], f.Payload[1:])
	case protocol.MsgImageData:
		d.uploadImage(f.Payload)
	case protocol.MsgSDSave:
		d.sdSave(f.Payload)
	case protocol.MsgSDLoad:
		d.sdLoad(f.Payload)
	case protocol.MsgSDList:
		d.sdList()
	case protocol.MsgSDDelete:
		d.sdDelete(f.Payload)
	case protocol.MsgSDGetInfo:
		d.sdGetInfo(f.Payload)
	case protocol.MsgAck, protocol.MsgNack, protocol.MsgStatus:
		// Peer replies; nothing to do.
	default:
		d.nack("unknown message type")
	}
}

func (d *Dispatcher) handleCommand(cmd byte, p []byte) {
	switch cmd {
	case protocol.CmdSetMode:
		d.setMode(p)
	case protocol.CmdUploadImage:
		d.uploadImage(p)
	case protocol.CmdUploadPattern:
		d.uploadPattern(p)
	case protocol.CmdUploadSequence:
		d.uploadSequence(p)
	case protocol.CmdLiveFrame:
		d.liveFrame(p)
	case protocol.CmdSetBrightness:
		d.setBrightness(p)
	case protocol.CmdSetFrameRate:
		d.setFrameRate(p)
	case protocol.CmdGetStatus:
		d.status()
	default:
		d.log.Warn().Uint8("cmd", cmd).Msg("unknown command")
		d.nack("unknown command")
	}
}

func (d *Dispatcher) ack() { _ = protocol.WriteAck(d.w) }

func (d *Dispatcher) nack(reason string) {
	d.log.Debug().Str("reason", reason).Msg("nack")
	_ = protocol.WriteNack(d.w)
}

// setMode payload: [mode][index].
func (d *Dispatcher) setMode(p []byte) {
	if len(p) < 2 {
		d.nack("set mode: short payload")
		return
	}
	m := engine.Mode(p[0])
	if !m.Valid() {
		d.nack("set mode: undefined mode")
		return
	}
	index := int(p[1])
	switch m {
	case engine.ModeImage:
		if index >= store.MaxImages {
			d.nack("set mode: image slot out of range")
			return
		}
	case engine.ModePattern:
		if index >= store.MaxPatterns {
			d.nack("set mode: pattern slot out of range")
			return
		}
	case engine.ModeSequence:
		if index >= store.MaxSequences {
			d.nack("set mode: sequence slot out of range")
			return
		}
	}
	d.eng.SetMode(m, index)
	d.ack()
}

// uploadImage payload: [slot][flags][w:2][h:2][rgb...]. The bitmap is
// resampled to the display width before it is stored; a short pixel payload
// fills the remainder black inside the resampler.
func (d *Dispatcher) uploadImage(p []byte) {
	if len(p) < 6 {
		d.nack("upload image: short header")
		return
	}
	slot := int(p[0])
	flags := p[1]
	srcW := int(p[2])<<8 | int(p[3])
	srcH := int(p[4])<<8 | int(p[5])
	im, err := imaging.Resample(p[6:], srcW, srcH, imaging.Options{
		NoVerticalFlip: flags&FlagNoVerticalFlip != 0,
		FlipHorizontal: flags&FlagHorizontalFlip != 0,
	})
	if err != nil {
		d.nack("upload image: bad source dimensions")
		return
	}
	if err := d.st.SetImage(slot, im); err != nil {
		d.nack("upload image: " + err.Error())
		return
	}
	if d.eng.Mode() == engine.ModeImage && d.eng.Index() == slot {
		// Restart the new content from column zero.
		d.eng.SetMode(engine.ModeImage, slot)
	}
	d.log.Info().Int("slot", slot).Int("w", im.Width).Int("h", im.Height).Msg("image stored")
	d.ack()
}

// uploadPattern payload: [slot][type][r1 g1 b1][r2 g2 b2][speed].
func (d *Dispatcher) uploadPattern(p []byte) {
	if len(p) < 9 {
		d.nack("upload pattern: short payload")
		return
	}
	pat := store.Pattern{
		Type:   store.PatternType(p[1]),
		Color1: led.RGB{R: p[2], G: p[3], B: p[4]},
		Color2: led.RGB{R: p[5], G: p[6], B: p[7]},
		Speed:  p[8],
	}
	if !pat.Type.Valid() {
		d.nack("upload pattern: undefined type")
		return
	}
	if err := d.st.SetPattern(int(p[0]), pat); err != nil {
		d.nack("upload pattern: " + err.Error())
		return
	}
	d.ack()
}

// uploadSequence payload: [slot][loop][count] then count * [kind][index][dur:2].
func (d *Dispatcher) uploadSequence(p []byte) {
	if len(p) < 3 {
		d.nack("upload sequence: short payload")
		return
	}
	count := int(p[2])
	if count == 0 || count > store.MaxSequenceItems {
		d.nack("upload sequence: bad item count")
		return
	}
	if len(p) < 3+count*4 {
		d.nack("upload sequence: truncated items")
		return
	}
	q := store.Sequence{Loop: p[1] != 0, Count: count}
	for i := 0; i < count; i++ {
		o := 3 + i*4
		item := store.SeqItem{
			Kind:       store.SeqKind(p[o]),
			Index:      p[o+1],
			DurationMS: uint16(p[o+2])<<8 | uint16(p[o+3]),
		}
		switch item.Kind {
		case store.SeqImage:
			if int(item.Index) >= store.MaxImages {
				d.nack("upload sequence: image ref out of range")
				return
			}
		case store.SeqPattern:
			if int(item.Index) >= store.MaxPatterns {
				d.nack("upload sequence: pattern ref out of range")
				return
			}
		default:
			d.nack("upload sequence: unknown item kind")
			return
		}
		q.Items[i] = item
	}
	if err := d.st.SetSequence(int(p[0]), q); err != nil {
		d.nack("upload sequence: " + err.Error())
		return
	}
	d.ack()
}

// liveFrame payload: one RGB triple per LED; short frames leave the rest
// black.
func (d *Dispatcher) liveFrame(p []byte) {
	var frame [store.StripLEDs]led.RGB
	n := len(p) / 3
	if n > store.StripLEDs {
		n = store.StripLEDs
	}
	for i := 0; i < n; i++ {
		frame[i] = led.RGB{R: p[i*3], G: p[i*3+1], B: p[i*3+2]}
	}
	d.st.SetLive(frame[:])
	d.ack()
}

func (d *Dispatcher) setBrightness(p []byte) {
	if len(p) < 1 {
		d.nack("set brightness: short payload")
		return
	}
	d.eng.SetBrightness(p[0])
	d.ack()
}

// setFrameRate payload: [delay_ms:2]; clamped by the engine.
func (d *Dispatcher) setFrameRate(p []byte) {
	if len(p) < 2 {
		d.nack("set frame rate: short payload")
		return
	}
	ms := int(p[0])<<8 | int(p[1])
	d.eng.SetFrameDelay(time.Duration(ms) * time.Millisecond)
	d.ack()
}

// status reply payload:
// [mode][index][brightness][delay:2][images][patterns][sequences].
func (d *Dispatcher) status() {
	images, patterns, sequences := d.st.Counts()
	delay := d.eng.FrameDelay().Milliseconds()
	p := []byte{
		byte(d.eng.Mode()),
		byte(d.eng.Index()),
		d.eng.Brightness(),
		byte(delay >> 8), byte(delay),
		byte(images), byte(patterns), byte(sequences),
	}
	_ = protocol.WriteMessage(d.w, protocol.MsgStatus, p)
}

func readName(p []byte) (name string, rest []byte, ok bool) {
	if len(p) < 1 {
		return "", nil, false
	}
	n := int(p[0])
	if n == 0 || n > storage.MaxFilename || len(p) < 1+n {
		return "", nil, false
	}
	return string(p[1 : 1+n]), p[1+n:], true
}

// sdSave payload: [nameLen][name][w:1][h:1][rgb...].
func (d *Dispatcher) sdSave(p []byte) {
	if d.sd == nil {
		d.nack("sd save: no storage")
		return
	}
	name, rest, ok := readName(p)
	if !ok || len(rest) < 2 {
		d.nack("sd save: bad payload")
		return
	}
	w, h := int(rest[0]), int(rest[1])
	if w <= 0 || w > store.DisplayWidth || h <= 0 || h > store.MaxImageHeight {
		d.nack("sd save: bad dimensions")
		return
	}
	im := &store.Image{Width: w, Height: h}
	n := copy(im.Data[:w*h*3], rest[2:])
	for i := n; i < w*h*3; i++ {
		im.Data[i] = 0
	}
	if err := d.sd.Save(name, im); err != nil {
		d.log.Error().Err(err).Str("name", name).Msg("sd save failed")
		d.nack("sd save: " + err.Error())
		return
	}
	d.ack()
}

// sdLoad payload: [slot][nameLen][name]; the file lands in a content slot.
func (d *Dispatcher) sdLoad(p []byte) {
	if d.sd == nil {
		d.nack("sd load: no storage")
		return
	}
	if len(p) < 1 {
		d.nack("sd load: short payload")
		return
	}
	slot := int(p[0])
	name, _, ok := readName(p[1:])
	if !ok {
		d.nack("sd load: bad name")
		return
	}
	im, err := d.sd.Load(name)
	if err != nil {
		d.log.Warn().Err(err).Str("name", name).Msg("sd load failed")
		d.nack("sd load: " + err.Error())
		return
	}
	if err := d.st.SetImage(slot, im); err != nil {
		d.nack("sd load: " + err.Error())
		return
	}
	d.ack()
}

// sdList reply: newline-joined filenames.
func (d *Dispatcher) sdList() {
	if d.sd == nil {
		d.nack("sd list: no storage")
		return
	}
	names, err := d.sd.List()
	if err != nil {
		d.nack("sd list: " + err.Error())
		return
	}
	var out []byte
	for i, n := range names {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, n...)
	}
	_ = protocol.WriteMessage(d.w, protocol.MsgSDList, out)
}

// sdDelete payload: [nameLen][name].
func (d *Dispatcher) sdDelete(p []byte) {
	if d.sd == nil {
		d.nack("sd delete: no storage")
		return
	}
	name, _, ok := readName(p)
	if !ok {
		d.nack("sd delete: bad name")
		return
	}
	if err := d.sd.Delete(name); err != nil {
		d.nack("sd delete: " + err.Error())
		return
	}
	d.ack()
}

// sdGetInfo payload: [nameLen][name]; reply: [w:1][h:1][size:4].
func (d *Dispatcher) sdGetInfo(p []byte) {
	if d.sd == nil {
		d.nack("sd info: no storage")
		return
	}
	name, _, ok := readName(p)
	if !ok {
		d.nack("sd info: bad name")
		return
	}
	w, h, size, err := d.sd.Info(name)
	if err != nil {
		d.nack("sd info: " + err.Error())
		return
	}
	reply := []byte{
		byte(w), byte(h),
		byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size),
	}
	_ = protocol.WriteMessage(d.w, protocol.MsgSDGetInfo, reply)
}
