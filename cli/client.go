package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YinChingZ/LawAI/internal/protocol"
)

// Client is a WebSocket chat client.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	guestID   string
	username  string
}

// NewClient connects to the relay. token, when set, is sent as a bearer token.
func NewClient(addr, token string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(addr, header)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// SendChat sends one query, continuing the current conversation if any.
func (c *Client) SendChat(content string) error {
	msg := protocol.ChatMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeChat,
			Ts:        time.Now().UnixMilli(),
			SessionID: c.sessionID,
			RequestID: fmt.Sprintf("req_%d", time.Now().UnixNano()),
		},
		Username: c.username,
		GuestID:  c.guestID,
		Message:  content,
	}
	return c.conn.WriteJSON(msg)
}

// ReadAnswer reads frames until the query completes, printing the answer as it grows.
func (c *Client) ReadAnswer(p *printer) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var base protocol.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}

		switch base.Type {
		case protocol.TypeMeta:
			var meta protocol.MetaMessage
			json.Unmarshal(data, &meta)
			c.sessionID = meta.SessionID
			p.Meta(meta.Title, meta.SessionID, meta.IsGuest)
		case protocol.TypeDelta:
			var delta protocol.DeltaMessage
			json.Unmarshal(data, &delta)
			p.Update(delta.Content)
		case protocol.TypeDone:
			var done protocol.DoneMessage
			json.Unmarshal(data, &done)
			p.Update(done.Content)
			p.End()
			return nil
		case protocol.TypeError:
			var errMsg protocol.ErrorMessage
			json.Unmarshal(data, &errMsg)
			p.End()
			return fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}
	}
}
