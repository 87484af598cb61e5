package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrIdentityRequired),
		errors.Is(err, domain.ErrMessageRequired),
		errors.Is(err, domain.ErrQueryRejected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a non-streaming failure. Internal errors are logged and hidden.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("%s %s failed: %v", c.Request().Method, c.Path(), err)
		message = "Failed to process request"
	}
	return c.JSON(status, domain.ErrorResponse{Error: message, Code: domain.ErrorCode(err)})
}
