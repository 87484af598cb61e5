package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// WeeklyQueries reports the number of queries answered since Monday.
// GET /api/stats/weekly-queries
func (h *Handler) WeeklyQueries(c echo.Context) error {
	count, err := h.service.WeeklyQueryCount(c.Request().Context())
	if err != nil {
		log.Errorf("weekly query count failed: %v", err)
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: "Failed to fetch weekly query count"})
	}
	return c.JSON(http.StatusOK, domain.WeeklyStats{Count: count})
}
