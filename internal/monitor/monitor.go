// Package monitor broadcasts rendered frames to browser clients over a
// websocket, giving a live preview of the strip without hardware. Purely
// observational; the control path stays on the serial protocol.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/urztaiamandude/wireless-pov-poi-sub001/internal/led"
)

type Monitor struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	frameID uint64
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Monitor {
	return &Monitor{
		clients: map[*websocket.Conn]bool{},
		log:     log,
	}
}

// HandleFrames upgrades an HTTP request to the frame stream.
func (m *Monitor) HandleFrames(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Driver wraps an led.Driver, teeing every frame to the websocket clients.
func (m *Monitor) Driver(next led.Driver) led.Driver {
	return &teeDriver{m: m, next: next}
}

type teeDriver struct {
	m    *Monitor
	next led.Driver
}

func (d *teeDriver) Write(frame []led.RGB) error {
	d.m.broadcast(frame)
	return d.next.Write(frame)
}

type wireFrame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (m *Monitor) broadcast(frame []led.RGB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.clients) == 0 {
		return
	}
	m.frameID++
	rgb := make([]byte, len(frame)*3)
	for i, c := range frame {
		rgb[i*3], rgb[i*3+1], rgb[i*3+2] = c.R, c.G, c.B
	}
	b, _ := json.Marshal(wireFrame{T: time.Now().UnixNano(), FrameID: m.frameID, RGB: rgb})
	for c := range m.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			m.log.Debug().Err(err).Msg("monitor write")
		}
	}
}

// Serve runs the monitor HTTP endpoint until the listener fails.
func (m *Monitor) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/frames", m.HandleFrames)
	return http.ListenAndServe(addr, mux)
}
