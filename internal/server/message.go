package server

import (
	"encoding/json"
	"time"

	"github.com/felthq/cardroom/internal/engine"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeAuth      MessageType = "auth"
	MessageTypeJoinRoom  MessageType = "join_room"
	MessageTypeLeaveRoom MessageType = "leave_room"
	MessageTypeListRooms MessageType = "list_rooms"
	MessageTypeStartHand MessageType = "start_hand"
	MessageTypeAction    MessageType = "action"
	MessageTypeSitOut    MessageType = "sit_out"
	MessageTypeRebuy     MessageType = "rebuy"
	MessageTypeNewGame   MessageType = "new_game"
	MessageTypeGetState  MessageType = "get_state"

	// Server to client messages
	MessageTypeAuthResponse  MessageType = "auth_response"
	MessageTypeRoomJoined    MessageType = "room_joined"
	MessageTypeRoomLeft      MessageType = "room_left"
	MessageTypeRoomList      MessageType = "room_list"
	MessageTypeState         MessageType = "state"
	MessageTypeHandResult    MessageType = "hand_result"
	MessageTypePlayerTimeout MessageType = "player_timeout"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
	Token      string `json:"token,omitempty"`
}

type JoinRoomData struct {
	RoomID string `json:"roomId"`
	BuyIn  int    `json:"buyIn,omitempty"`
}

type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

type StartHandData struct {
	RoomID     string `json:"roomId"`
	SmallBlind int    `json:"smallBlind,omitempty"`
	BigBlind   int    `json:"bigBlind,omitempty"`
}

type ActionData struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type SitOutData struct {
	RoomID string `json:"roomId"`
	SitOut bool   `json:"sitOut"`
}

type RebuyData struct {
	RoomID string `json:"roomId"`
}

type NewGameData struct {
	RoomID string `json:"roomId"`
}

type GetStateData struct {
	RoomID string `json:"roomId"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomInfo struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Stakes      string `json:"stakes"`
	Phase       string `json:"phase"`
}

type RoomListData struct {
	Rooms []RoomInfo `json:"rooms"`
}

type RoomJoinedData struct {
	RoomID string `json:"roomId"`
	Seat   int    `json:"seat"`
	Chips  int    `json:"chips"`
}

// StateData is the per-viewer snapshot broadcast after every change.
type StateData struct {
	State *engine.GameView `json:"state"`
}

// HandResultData announces how a hand ended to the whole room.
type HandResultData struct {
	RoomID string         `json:"roomId"`
	Result *engine.Result `json:"result"`
}

type PlayerTimeoutData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Action     string `json:"action"` // The action taken due to timeout (fold/check)
}
