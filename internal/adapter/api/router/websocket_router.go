package router

import (
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the realtime endpoint. No auth middleware
// here: the handler authenticates the token query parameter itself, since
// browsers cannot attach headers to WebSocket handshakes.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
