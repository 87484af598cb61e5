// Package v1 provides the HTTP handlers of the chat relay API.
package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/YinChingZ/LawAI/internal/domain"
	"github.com/YinChingZ/LawAI/internal/service"
)

// Response headers fixed before a relay stream starts.
const (
	HeaderSessionID = "X-Session-Id"
	HeaderChatTitle = "X-Chat-Title"
	HeaderIsGuest   = "X-Is-Guest"
	HeaderGuestID   = "X-Guest-Id"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat relay
	e.POST("/api/fetchAi", h.FetchAI)

	// Chat history
	e.POST("/api/getChats", h.GetChats)
	e.DELETE("/api/chats/:chat_id", h.DeleteChat)

	// Stats
	e.GET("/api/stats/weekly-queries", h.WeeklyQueries)

	// Accounts
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// resolveIdentity resolves the caller from the bearer token, the body username, or
// the guest id taken from the body or the X-Guest-Id header.
func (h *Handler) resolveIdentity(c echo.Context, username, guestID string) (domain.Identity, error) {
	if guestID == "" {
		guestID = c.Request().Header.Get(HeaderGuestID)
	}
	return h.service.ResolveIdentity(bearerToken(c.Request()), username, guestID)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
