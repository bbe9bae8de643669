// Package serialio abstracts the byte stream to the network co-processor.
package serialio

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Port is the transport the protocol codec reads and writes. Read returns
// (0, nil) when the read timeout elapses with no data, mirroring the
// underlying serial semantics; the codec treats that as a poll deadline, so
// a stalled peer can never block the render loop.
type Port interface {
	io.ReadWriter
	SetReadTimeout(d time.Duration) error
}

// Open opens a hardware serial port at the fixed link baud rate.
func Open(dev string, baud int, readTimeout time.Duration) (Port, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Loopback is an in-memory Port for tests: bytes written with Feed become
// readable; Write captures the device's replies.
type Loopback struct {
	mu      sync.Mutex
	in      []byte
	Out     []byte
	timeout time.Duration
}

func NewLoopback() *Loopback { return &Loopback{timeout: time.Millisecond} }

// Feed queues bytes for the device to read.
func (l *Loopback) Feed(p []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.in = append(l.in, p...)
}

func (l *Loopback) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.in) == 0 {
		// Timeout with no data, like a serial read deadline.
		return 0, nil
	}
	n := copy(p, l.in)
	l.in = l.in[n:]
	return n, nil
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Out = append(l.Out, p...)
	return len(p), nil
}

func (l *Loopback) SetReadTimeout(d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeout = d
	return nil
}

// ReadTimeout reports the configured read timeout.
func (l *Loopback) ReadTimeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeout
}

// TakeOut drains and returns everything the device wrote so far.
func (l *Loopback) TakeOut() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.Out
	l.Out = nil
	return out
}
