// Package ws relays chat queries over WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/domain"
	"github.com/YinChingZ/LawAI/internal/protocol"
	"github.com/YinChingZ/LawAI/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, svc *service.Service) *Server {
	return &Server{
		cfg:     cfg,
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
// GET /ws/chat
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warnf("failed to upgrade websocket: %v", err)
		return nil
	}

	conn := newConnection(ws, bearerToken(c.Request()))
	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads frames until the client goes away, then cancels in-flight relays.
func (s *Server) readPump(conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		conn.Close()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseInternalServerErr) {
				log.Warnf("websocket %s error: %v", conn.ID, err)
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		s.handleMessage(ctx, conn, message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg := <-conn.send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.Conn.WriteMessage(msg.messageType, msg.data); err != nil {
				log.Warnf("failed to write to websocket %s: %v", conn.ID, err)
				return
			}
			if msg.messageType == websocket.CloseMessage {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-conn.done:
			return
		}
	}
}

// handleMessage dispatches incoming messages.
func (s *Server) handleMessage(ctx context.Context, conn *Connection, data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case protocol.TypeChat:
		var msg protocol.ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(conn, base.RequestID, protocol.ErrorCodeInvalidMessage, "invalid chat message")
			return
		}
		if !conn.busy.CompareAndSwap(false, true) {
			s.sendError(conn, msg.RequestID, protocol.ErrorCodeBusy, "a query is already streaming on this connection")
			return
		}
		go func() {
			final, aborted := s.relay(ctx, conn, msg)
			conn.busy.Store(false)
			conn.SendJSON(final)
			if aborted {
				conn.CloseWith(websocket.CloseInternalServerErr, "stream interrupted")
			}
		}()
	default:
		s.sendError(conn, base.RequestID, protocol.ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// relay runs one chat query and returns the frame that ends it. A failure before
// streaming leaves the connection open; aborted reports a failure while streaming,
// after which the connection is closed with code 1011.
func (s *Server) relay(ctx context.Context, conn *Connection, msg protocol.ChatMessage) (final interface{}, aborted bool) {
	identity, err := s.service.ResolveIdentity(conn.bearer, msg.Username, msg.GuestID)
	if err != nil {
		return errorFrame(msg.RequestID, domain.ErrorCode(err), err.Error()), false
	}

	session, err := s.service.StartChat(ctx, service.ChatRequest{
		Identity:       identity,
		ConversationID: msg.SessionID,
		Message:        msg.Message,
	})
	if err != nil {
		code := domain.ErrorCode(err)
		text := err.Error()
		if code == "InternalError" {
			log.Errorf("websocket %s: failed to start chat: %v", conn.ID, err)
			text = "Failed to process request"
		}
		return errorFrame(msg.RequestID, code, text), false
	}

	meta := session.Meta()
	base := func(typ string) protocol.BaseMessage {
		return protocol.BaseMessage{Type: typ, Ts: time.Now().UnixMilli(), RequestID: msg.RequestID, SessionID: meta.ConversationID}
	}

	// A lost connection surfaces through the stream below, which rolls the conversation back.
	_ = conn.SendJSON(protocol.MetaMessage{BaseMessage: base(protocol.TypeMeta), Title: meta.Title, IsGuest: meta.IsGuest})

	var last domain.RelayEvent
	err = s.service.StreamChat(ctx, session, func(ev domain.RelayEvent) error {
		last = ev
		if ev.Chat != nil {
			return nil
		}
		return conn.SendJSON(protocol.DeltaMessage{BaseMessage: base(protocol.TypeDelta), Content: ev.Content})
	})
	if err != nil {
		log.Errorf("websocket %s: relay of conversation %s aborted: %v", conn.ID, meta.ConversationID, err)
		return errorFrame(msg.RequestID, protocol.ErrorCodeStreamFailed, "stream interrupted"), true
	}

	return protocol.DoneMessage{BaseMessage: base(protocol.TypeDone), Content: last.Content, ChatData: last.Chat}, false
}

func (s *Server) sendError(conn *Connection, requestID, code, message string) {
	conn.SendJSON(errorFrame(requestID, code, message))
}

func errorFrame(requestID, code, message string) protocol.ErrorMessage {
	return protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: requestID,
		},
		Code:    code,
		Message: message,
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
