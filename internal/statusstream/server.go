// Package statusstream pushes a raid.Volume's event feed to subscribed
// clients over a websocket, modeled on
// internal/agentexec/server.go's connection bookkeeping (per-connection
// write mutex, origin check, ping loop) but stripped to the one thing
// this surface needs: broadcasting read-only status events. Nothing here
// can influence volume state — subscribers only ever receive.
package statusstream

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     isAllowedOrigin,
}

var (
	pingInterval  = 25 * time.Second
	pingWriteWait = 5 * time.Second
)

// EventSource is the subset of raid.Volume the server depends on; kept
// narrow and interface-typed so the server never touches internal/raid
// directly (the status stream is an observer, not a collaborator of the
// core). VolumeSource in adapter.go is the one place this package imports
// internal/raid.
type EventSource interface {
	Subscribe(ch chan Event) func()
	Recent() []Event
}

// Event mirrors raid.Event's wire shape. Kept as a distinct type (rather
// than importing raid.Event) so this transport package has no compile-time
// dependency on the core's internal event kinds beyond what it serializes.
type Event struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Device int    `json:"device,omitempty"`
	Status string `json:"status"`
}

// Server manages the set of connected status-stream subscribers.
type Server struct {
	mu     sync.RWMutex
	conns  map[string]*conn
	logger *zerolog.Logger
}

type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// NewServer returns a Server. logger may be nil.
func NewServer(logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{conns: make(map[string]*conn), logger: logger}
}

// ServeHTTP upgrades the request to a websocket and streams events from
// src until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request, src EventSource) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("status stream upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &conn{ws: ws}

	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		ws.Close()
	}()

	ch := make(chan Event, 32)
	unsub := src.Subscribe(ch)
	defer unsub()

	for _, ev := range src.Recent() {
		if err := c.writeJSON(ev); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := c.writeJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.writeMu.Lock()
			ws.SetWriteDeadline(time.Now().Add(pingWriteWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// ConnectionCount returns the number of currently connected subscribers,
// exposed so cmd/raid5ctl can fold it into the /metrics endpoint if
// desired.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (c *conn) writeJSON(ev Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func isAllowedOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}
