// Package http provides the HTTP server of the chat relay.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/service"
	v1 "github.com/YinChingZ/LawAI/internal/transport/http/v1"
	"github.com/YinChingZ/LawAI/internal/transport/ws"
)

// NewServer creates and configures the HTTP server serving the REST, SSE and
// WebSocket endpoints.
func NewServer(cfg *config.Config, svc *service.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.Level())

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		ExposeHeaders: []string{v1.HeaderSessionID, v1.HeaderChatTitle, v1.HeaderIsGuest},
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc)
	wsServer := ws.NewServer(cfg, svc)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/ws/chat", wsServer.HandleWebSocket)

	return e
}
