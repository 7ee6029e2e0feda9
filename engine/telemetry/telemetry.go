// Package telemetry streams per-frame renderer statistics to websocket clients and
// accepts runtime control messages from them.
package telemetry

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout bounds how long a single client may block a broadcast.
const writeTimeout = time.Second

// FrameStats is the JSON document broadcast once per reporting interval.
type FrameStats struct {
	Frame            uint64  `json:"frame"`
	FPS              float64 `json:"fps"`
	NumLights        int     `json:"numLights"`
	Clusters         int     `json:"clusters"`
	ClustersX        int     `json:"clustersX"`
	ClustersY        int     `json:"clustersY"`
	ClustersZ        int     `json:"clustersZ"`
	MaxOccupancy     int     `json:"maxOccupancy"`
	OccupiedClusters int     `json:"occupiedClusters"`
	Objects          int     `json:"objects"`
	Drawn            int     `json:"drawn"`
}

// ControlMessage is a client request. Absent fields are left unchanged.
type ControlMessage struct {
	NumLights *int `json:"numLights,omitempty"`
}

// ControlHandler receives every decoded control message.
type ControlHandler func(msg ControlMessage)

// client is one websocket connection. mu serializes writes to conn.
type client struct {
	mu   *sync.Mutex
	conn *websocket.Conn
}

// hub is the implementation of the Hub interface.
type hub struct {
	mu *sync.RWMutex

	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]*client
	onControl ControlHandler
	closed    bool
}

// Hub is an http.Handler that upgrades requests to websockets, fans FrameStats out to
// every connected client and forwards control messages to a handler.
type Hub interface {
	http.Handler

	// Broadcast sends stats to every client. Clients whose write fails are dropped.
	//
	// Parameters:
	//   - stats: the statistics to send
	Broadcast(stats FrameStats)

	// Clients returns the number of connected clients.
	//
	// Returns:
	//   - int: the client count
	Clients() int

	// Close disconnects every client and rejects new ones.
	Close()
}

var _ Hub = &hub{}

// NewHub creates a hub with no clients. Upgrades from a browser page on another origin are
// rejected unless WithCheckOrigin says otherwise.
//
// Parameters:
//   - options: functional options to further configure the hub
//
// Returns:
//   - Hub: the hub
func NewHub(options ...HubBuilderOption) Hub {
	h := &hub{
		mu:      &sync.RWMutex{},
		clients: make(map[*websocket.Conn]*client),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "telemetry hub closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Telemetry] upgrade failed: %v", err)
		return
	}
	c := &client{mu: &sync.Mutex{}, conn: conn}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	log.Printf("[Telemetry] client %s connected", conn.RemoteAddr())

	defer h.drop(conn)
	for {
		var msg ControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Telemetry] client %s read: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if h.onControl != nil {
			h.onControl(msg)
		}
	}
}

// drop removes and closes a connection. Safe to call more than once.
func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}

func (h *hub) Broadcast(stats FrameStats) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var failed []*websocket.Conn
	for _, c := range targets {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteJSON(stats)
		c.mu.Unlock()
		if err != nil {
			failed = append(failed, c.conn)
		}
	}
	for _, conn := range failed {
		log.Printf("[Telemetry] dropping client %s", conn.RemoteAddr())
		h.drop(conn)
	}
}

func (h *hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		h.drop(conn)
	}
}

// Server serves a Hub on /ws.
type Server struct {
	hub Hub
	srv *http.Server
}

// NewServer creates a server for hub listening on addr. It does not start listening.
//
// Parameters:
//   - addr: the listen address, e.g. ":8089"
//   - hub: the hub to mount on /ws
//
// Returns:
//   - *Server: the server
func NewServer(addr string, hub Hub) *Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	return &Server{hub: hub, srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

// Start listens in a new goroutine. Listen errors other than a normal shutdown are logged.
func (s *Server) Start() {
	go func() {
		log.Printf("[Telemetry] listening on %s/ws", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Telemetry] server stopped: %v", err)
		}
	}()
}

// Shutdown closes every client and stops the server.
//
// Parameters:
//   - ctx: bounds the graceful shutdown
//
// Returns:
//   - error: the http.Server shutdown error
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}
