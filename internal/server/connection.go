package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/felthq/cardroom/internal/engine"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	roomID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	registry  *Registry
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, registry *Registry) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *Message, 256),
		logger:   logger.WithPrefix("conn"),
		ctx:      ctx,
		cancel:   cancel,
		registry: registry,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom returns the associated room ID
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		var data LeaveRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leave room data")
			return
		}
		c.handleLeaveRoom(data)

	case MessageTypeListRooms:
		c.handleListRooms()

	case MessageTypeStartHand:
		var data StartHandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start hand data")
			return
		}
		c.handleStartHand(data)

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse action data")
			return
		}
		c.handleAction(data)

	case MessageTypeSitOut:
		var data SitOutData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse sit out data")
			return
		}
		c.handleSitOut(data)

	case MessageTypeRebuy:
		var data RebuyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse rebuy data")
			return
		}
		c.handleRebuy(data)

	case MessageTypeNewGame:
		var data NewGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse new game data")
			return
		}
		c.handleNewGame(data)

	case MessageTypeGetState:
		var data GetStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse get state data")
			return
		}
		c.handleGetState(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

// sendEngineError maps an engine error to its wire code.
func (c *Connection) sendEngineError(err error) {
	c.sendError(errorCode(err), err.Error())
}

// room resolves the authenticated player's room for a request, sending the
// appropriate error when either is missing.
func (c *Connection) room(roomID string) (*Room, string, bool) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return nil, "", false
	}

	room := c.registry.Get(roomID)
	if room == nil {
		c.sendError("room_not_found", "Unknown room: "+roomID)
		return nil, "", false
	}
	return room, playerID, true
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "playerName", data.PlayerName)

	// Simple authentication - just accept any player name
	if data.PlayerName == "" {
		c.sendError("invalid_auth", "Player name required")
		return
	}

	c.SetPlayer(data.PlayerName)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: data.PlayerName,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	c.logger.Info("Join room request", "roomId", data.RoomID, "player", c.GetPlayer())

	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	p, err := room.Join(playerID, playerID, data.BuyIn)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	c.SetRoom(data.RoomID)

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomID: data.RoomID,
		Seat:   p.Seat,
		Chips:  p.Chips,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleLeaveRoom(data LeaveRoomData) {
	c.logger.Info("Leave room request", "roomId", data.RoomID, "player", c.GetPlayer())

	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	if err := room.Leave(playerID); err != nil {
		c.sendEngineError(err)
		return
	}

	c.SetRoom("")

	response, _ := NewMessage(MessageTypeRoomLeft, map[string]string{"roomId": data.RoomID})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleListRooms() {
	c.logger.Info("List rooms request", "player", c.GetPlayer())

	rooms := c.registry.List()
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}

	response, _ := NewMessage(MessageTypeRoomList, RoomListData{Rooms: infos})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleStartHand(data StartHandData) {
	c.logger.Info("Start hand request", "roomId", data.RoomID, "player", c.GetPlayer())

	room, _, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	if _, err := room.StartHand(engine.Settings{
		SmallBlind: data.SmallBlind,
		BigBlind:   data.BigBlind,
	}); err != nil {
		c.sendEngineError(err)
	}
	// No direct response; the room broadcast carries the new state.
}

func (c *Connection) handleAction(data ActionData) {
	c.logger.Info("Action request", "roomId", data.RoomID, "player", c.GetPlayer(),
		"action", data.Action, "amount", data.Amount)

	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	action, err := engine.ParseAction(data.Action)
	if err != nil {
		c.sendEngineError(err)
		return
	}

	if _, err := room.Act(playerID, action, data.Amount); err != nil {
		c.sendEngineError(err)
	}
}

func (c *Connection) handleSitOut(data SitOutData) {
	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	if err := room.SitOut(playerID, data.SitOut); err != nil {
		c.sendEngineError(err)
	}
}

func (c *Connection) handleRebuy(data RebuyData) {
	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	if _, err := room.Rebuy(playerID); err != nil {
		c.sendEngineError(err)
	}
}

func (c *Connection) handleNewGame(data NewGameData) {
	c.logger.Info("New game request", "roomId", data.RoomID, "player", c.GetPlayer())

	room, _, ok := c.room(data.RoomID)
	if !ok {
		return
	}
	room.NewGame()
}

func (c *Connection) handleGetState(data GetStateData) {
	room, playerID, ok := c.room(data.RoomID)
	if !ok {
		return
	}

	response, err := NewMessage(MessageTypeState, StateData{State: room.StateFor(playerID)})
	if err != nil {
		c.logger.Error("Failed to build state message", "error", err)
		return
	}
	_ = c.SendMessage(response) // Ignore send errors
}

// errorCode maps the engine's sentinel errors to stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, engine.ErrMustCallOrFold):
		return "must_call_or_fold"
	case errors.Is(err, engine.ErrRaiseTooLow):
		return "raise_too_low"
	case errors.Is(err, engine.ErrInsufficientChips):
		return "insufficient_chips"
	case errors.Is(err, engine.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, engine.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, engine.ErrTableFull):
		return "table_full"
	case errors.Is(err, engine.ErrAlreadySeated):
		return "already_seated"
	case errors.Is(err, engine.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, engine.ErrHandInProgress):
		return "hand_in_progress"
	case errors.Is(err, engine.ErrRebuyNotAllowed):
		return "rebuy_not_allowed"
	default:
		return "internal_error"
	}
}
