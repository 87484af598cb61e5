package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/YinChingZ/LawAI/internal/domain"
)

type getChatsRequest struct {
	Username string `json:"username"`
}

// GetChats lists the caller's conversations without system messages.
// POST /api/getChats
func (h *Handler) GetChats(c echo.Context) error {
	var req getChatsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body", Code: "InvalidRequest"})
	}

	identity, err := h.resolveIdentity(c, req.Username, "")
	if err != nil {
		return writeError(c, err)
	}
	if identity.IsGuest() {
		return writeError(c, domain.ErrIdentityRequired)
	}

	chats, err := h.service.ListChats(c.Request().Context(), identity.Identifier)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"chats": chats,
	})
}

// DeleteChat deletes one of the caller's conversations.
// DELETE /api/chats/:chat_id
func (h *Handler) DeleteChat(c echo.Context) error {
	identity, err := h.resolveIdentity(c, c.QueryParam("username"), "")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.service.DeleteChat(c.Request().Context(), identity, c.Param("chat_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
