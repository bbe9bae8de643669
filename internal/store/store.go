// Package store holds the display content: fixed-capacity slots for images,
// patterns and sequences plus the live frame buffer. Slots are plain arrays
// with occupancy flags; nothing here allocates after construction.
package store

import (
	"errors"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
)

// Platform maxima. The display is 31 columns wide; stored images are clamped
// to 64 rows; the strip carries 32 LEDs.
const (
	DisplayWidth   = 31
	MaxImageHeight = 64
	StripLEDs      = 32

	MaxImages        = 10
	MaxPatterns      = 8
	MaxSequences     = 4
	MaxSequenceItems = 16
)

var (
	ErrSlotRange  = errors.New("store: slot index out of range")
	ErrEmptySlot  = errors.New("store: slot is empty")
	ErrDimensions = errors.New("store: dimensions exceed platform maxima")
)

// Image is one stored bitmap in column-major RGB order: the pixel at (x, y)
// lives at Data[(x*Height+y)*3]. Column-major keeps each rendered column
// contiguous.
type Image struct {
	Width  int
	Height int
	Data   [DisplayWidth * MaxImageHeight * 3]byte
}

// Column copies column x into dst, top pixel first. Out-of-range columns wrap
// modulo Width.
func (im *Image) Column(x int, dst []led.RGB) {
	if im.Width == 0 {
		return
	}
	x = x % im.Width
	if x < 0 {
		x += im.Width
	}
	base := x * im.Height * 3
	for y := 0; y < im.Height && y < len(dst); y++ {
		o := base + y*3
		dst[y] = led.RGB{R: im.Data[o], G: im.Data[o+1], B: im.Data[o+2]}
	}
}

// PatternType selects one of the closed set of pattern programs.
type PatternType uint8

const (
	PatternRainbow PatternType = iota
	PatternWave
	PatternGradient
	PatternSparkle
	PatternStrobe
	PatternFire
	PatternComet
	PatternBreathing
	PatternMeteor
	PatternWipe
	PatternPlasma
	PatternAudioLevel
	PatternAudioPulse

	patternCount
)

// Valid reports whether t names a defined pattern program.
func (t PatternType) Valid() bool { return t < patternCount }

// Pattern is one parametric animation slot.
type Pattern struct {
	Type   PatternType
	Color1 led.RGB
	Color2 led.RGB
	Speed  uint8
}

// SeqKind says what a sequence item references.
type SeqKind uint8

const (
	SeqImage SeqKind = iota
	SeqPattern
)

// SeqItem is one step of a sequence: a content reference and how long to
// show it.
type SeqItem struct {
	Kind       SeqKind
	Index      uint8
	DurationMS uint16
}

// Sequence is an ordered program of content slots.
type Sequence struct {
	Items [MaxSequenceItems]SeqItem
	Count int
	Loop  bool
}

// Store owns all content slots. It is written only by the dispatcher and read
// only by the display engine, both on the loop goroutine, so it carries no
// locking.
type Store struct {
	images     [MaxImages]Image
	imageSet   [MaxImages]bool
	patterns   [MaxPatterns]Pattern
	patternSet [MaxPatterns]bool
	sequences  [MaxSequences]Sequence
	seqSet     [MaxSequences]bool

	live    [StripLEDs]led.RGB
	liveSet bool
}

func New() *Store { return &Store{} }

// SetImage replaces slot i. The image is validated before any slot state is
// touched so a rejected upload leaves the previous content intact.
func (s *Store) SetImage(i int, im *Image) error {
	if i < 0 || i >= MaxImages {
		return ErrSlotRange
	}
	if im.Width <= 0 || im.Width > DisplayWidth || im.Height <= 0 || im.Height > MaxImageHeight {
		return ErrDimensions
	}
	s.images[i] = *im
	s.imageSet[i] = true
	return nil
}

// Image returns the image in slot i.
func (s *Store) Image(i int) (*Image, error) {
	if i < 0 || i >= MaxImages {
		return nil, ErrSlotRange
	}
	if !s.imageSet[i] {
		return nil, ErrEmptySlot
	}
	return &s.images[i], nil
}

func (s *Store) SetPattern(i int, p Pattern) error {
	if i < 0 || i >= MaxPatterns {
		return ErrSlotRange
	}
	if !p.Type.Valid() {
		return ErrDimensions
	}
	s.patterns[i] = p
	s.patternSet[i] = true
	return nil
}

func (s *Store) Pattern(i int) (Pattern, error) {
	if i < 0 || i >= MaxPatterns {
		return Pattern{}, ErrSlotRange
	}
	if !s.patternSet[i] {
		return Pattern{}, ErrEmptySlot
	}
	return s.patterns[i], nil
}

func (s *Store) SetSequence(i int, q Sequence) error {
	if i < 0 || i >= MaxSequences {
		return ErrSlotRange
	}
	if q.Count <= 0 || q.Count > MaxSequenceItems {
		return ErrDimensions
	}
	s.sequences[i] = q
	s.seqSet[i] = true
	return nil
}

func (s *Store) Sequence(i int) (*Sequence, error) {
	if i < 0 || i >= MaxSequences {
		return nil, ErrSlotRange
	}
	if !s.seqSet[i] {
		return nil, ErrEmptySlot
	}
	return &s.sequences[i], nil
}

// SetLive replaces the live frame. Short frames leave trailing LEDs black.
func (s *Store) SetLive(frame []led.RGB) {
	for i := range s.live {
		if i < len(frame) {
			s.live[i] = frame[i]
		} else {
			s.live[i] = led.Black
		}
	}
	s.liveSet = true
}

// Live returns the current live frame buffer; all black until the first push.
func (s *Store) Live() *[StripLEDs]led.RGB { return &s.live }

// Counts reports slot occupancy for the status reply.
func (s *Store) Counts() (images, patterns, sequences int) {
	for _, ok := range s.imageSet {
		if ok {
			images++
		}
	}
	for _, ok := range s.patternSet {
		if ok {
			patterns++
		}
	}
	for _, ok := range s.seqSet {
		if ok {
			sequences++
		}
	}
	return
}
