package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/domain"
	"github.com/YinChingZ/LawAI/internal/service"
)

// ChatRequest is the body of POST /api/fetchAi.
type ChatRequest struct {
	Username string `json:"username,omitempty"`
	GuestID  string `json:"guestId,omitempty"`
	ChatID   string `json:"chatId,omitempty"`
	Message  string `json:"message"`
}

// FetchAI relays one query and streams the growing answer as server-sent events.
// POST /api/fetchAi
func (h *Handler) FetchAI(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body", Code: "InvalidRequest"})
	}

	identity, err := h.resolveIdentity(c, req.Username, req.GuestID)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	session, err := h.service.StartChat(ctx, service.ChatRequest{
		Identity:       identity,
		ConversationID: req.ChatID,
		Message:        req.Message,
	})
	if err != nil {
		return writeError(c, err)
	}

	meta := session.Meta()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set(HeaderSessionID, meta.ConversationID)
	res.Header().Set(HeaderChatTitle, EncodeTitle(meta.Title))
	res.Header().Set(HeaderIsGuest, strconv.FormatBool(meta.IsGuest))
	res.WriteHeader(http.StatusOK)
	res.Flush()

	err = h.service.StreamChat(ctx, session, func(ev domain.RelayEvent) error {
		return writeEvent(res, "", ev)
	})
	if err != nil {
		log.Errorf("relay of conversation %s aborted: %v", meta.ConversationID, err)
		_ = writeEvent(res, "error", domain.ErrorResponse{Error: "stream interrupted"})
		// Abort the chunked body so the client sees a broken stream, not a clean close.
		panic(http.ErrAbortHandler)
	}
	return nil
}

func writeEvent(res *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(res, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// EncodeTitle percent-encodes a title the way encodeURIComponent does for the
// characters a title can contain.
func EncodeTitle(title string) string {
	return strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}
