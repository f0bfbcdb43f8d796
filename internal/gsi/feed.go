package gsi

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/castmate/castmate/internal/domain"
	"github.com/castmate/castmate/internal/logger"
)

// FeedMessage is one entry on the live event feed, consumed by stream
// overlays.
type FeedMessage struct {
	Type       string    `json:"type"`
	Priority   string    `json:"priority,omitempty"`
	Text       string    `json:"text,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// Feed fans dispatched commentary out to connected websocket clients. A
// client that cannot keep up is dropped rather than allowed to stall the
// broadcast.
type Feed struct {
	log *logger.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeed creates an empty feed.
func NewFeed(log *logger.Logger) *Feed {
	return &Feed{
		log:   log,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Add registers a connection and holds it open until the peer closes it.
func (f *Feed) Add(conn *websocket.Conn) {
	f.mu.Lock()
	f.conns[conn] = struct{}{}
	n := len(f.conns)
	f.mu.Unlock()

	f.log.Info("feed client connected (%d total)", n)

	// Reads are discarded; the feed is one-way. The read loop notices
	// when the peer goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.remove(conn)
				return
			}
		}
	}()
}

// Broadcast sends one event to every connected client.
func (f *Feed) Broadcast(ev domain.Event, priority domain.Priority, text string) {
	msg := FeedMessage{
		Type:       string(ev.Type),
		Priority:   priority.String(),
		Text:       text,
		DetectedAt: ev.DetectedAt,
	}

	f.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(f.conns))
	for c := range f.conns {
		conns = append(conns, c)
	}
	f.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteJSON(msg); err != nil {
			f.log.Debug("feed client write failed, dropping: %v", err)
			f.remove(c)
		}
	}
}

// Close disconnects all clients.
func (f *Feed) Close() {
	f.mu.Lock()
	for c := range f.conns {
		_ = c.Close()
	}
	f.conns = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()
}

func (f *Feed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.conns[conn]; ok {
		delete(f.conns, conn)
		_ = conn.Close()
	}
	n := len(f.conns)
	f.mu.Unlock()

	f.log.Debug("feed client disconnected (%d left)", n)
}
