package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// CredentialsRequest is the body of the register and login endpoints.
type CredentialsRequest struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// Register creates an account and returns a bearer token.
// POST /api/auth/register
func (h *Handler) Register(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body", Code: "InvalidRequest"})
	}

	res, err := h.service.Register(c.Request().Context(), req.Username, req.Name, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Login checks credentials and returns a bearer token.
// POST /api/auth/login
func (h *Handler) Login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body", Code: "InvalidRequest"})
	}

	res, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
