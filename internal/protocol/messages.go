// Package protocol defines the WebSocket message protocol between chat clients and the relay.
package protocol

import "github.com/YinChingZ/LawAI/internal/domain"

// Message types from client to server
const (
	TypeChat = "chat"
)

// Message types from server to client
const (
	TypeMeta  = "meta"
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatMessage is sent by the client to relay one query. SessionID continues an
// existing conversation.
type ChatMessage struct {
	BaseMessage
	Username string `json:"username,omitempty"`
	GuestID  string `json:"guest_id,omitempty"`
	Message  string `json:"message"`
}

// MetaMessage opens a relay with the conversation it belongs to.
type MetaMessage struct {
	BaseMessage
	Title   string `json:"title"`
	IsGuest bool   `json:"is_guest"`
}

// DeltaMessage carries the full answer accumulated so far.
type DeltaMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// DoneMessage ends a successful relay. Guests receive the conversation to store.
type DoneMessage struct {
	BaseMessage
	Content  string               `json:"content"`
	ChatData *domain.Conversation `json:"chat_data,omitempty"`
}

// ErrorMessage is sent when a relay cannot start or breaks.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes beyond the domain codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeBusy           = "busy"
	ErrorCodeStreamFailed   = "stream_failed"
)
