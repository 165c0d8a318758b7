package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/felthq/cardroom/internal/engine"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	registry    *Registry
}

// NewServer creates a new WebSocket server serving the given rooms
func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		registry:    registry,
	}
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// The seat survives the dropped socket so the player can
				// reconnect with chips and cards intact.
				playerID := conn.GetPlayer()
				roomID := conn.GetRoom()
				if playerID != "" && roomID != "" {
					if room := s.registry.Get(roomID); room != nil {
						s.logger.Info("Marking dropped player disconnected", "player", playerID, "room", roomID)
						_ = room.Leave(playerID) // Ignore errors during cleanup
					}
				}
				_ = conn.Close() // Ignore close errors during unregistration
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.registry)
	s.register <- client
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// RoomChanged fans the room's new state out to every connection in the
// room. Each viewer gets their own redacted snapshot, so hole cards never
// leave the server except to their owner or at showdown.
func (s *Server) RoomChanged(roomID string, res *engine.Result) {
	room := s.registry.Get(roomID)
	if room == nil {
		return
	}

	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		if conn.GetRoom() == roomID {
			conns = append(conns, conn)
		}
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		state := room.StateFor(conn.GetPlayer())
		msg, err := NewMessage(MessageTypeState, StateData{State: state})
		if err != nil {
			s.logger.Error("Failed to build state message", "error", err)
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send state", "error", err, "player", conn.GetPlayer())
		}
	}

	// Hand endings carry the winners and any revealed hands for everyone.
	if res != nil && (res.Advance == engine.AdvanceHandOver || res.Advance == engine.AdvanceShowdown) {
		msg, err := NewMessage(MessageTypeHandResult, HandResultData{RoomID: roomID, Result: res})
		if err != nil {
			s.logger.Error("Failed to build hand result message", "error", err)
			return
		}
		for _, conn := range conns {
			_ = conn.SendMessage(msg) // Ignore send errors
		}
	}
}

// PlayerTimedOut announces a turn-timer expiry to the room.
func (s *Server) PlayerTimedOut(roomID, playerName, action string) {
	msg, err := NewMessage(MessageTypePlayerTimeout, PlayerTimeoutData{
		RoomID:     roomID,
		PlayerName: playerName,
		Action:     action,
	})
	if err != nil {
		s.logger.Error("Failed to build timeout message", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.GetRoom() == roomID {
			_ = conn.SendMessage(msg) // Ignore send errors
		}
	}
}

// GetConnectedPlayers returns a list of connected player IDs
func (s *Server) GetConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if playerID := conn.GetPlayer(); playerID != "" {
			players = append(players, playerID)
		}
	}

	return players
}
