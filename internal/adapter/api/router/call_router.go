package router

import (
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/handler"
	"talentlink/internal/adapter/api/middleware"
)

// SetupCallRouter sets up call signaling routes.
func SetupCallRouter(e *echo.Echo, callHandler *handler.CallHandler, authMiddleware *middleware.AuthMiddleware) {
	calls := e.Group("/v1/calls")
	calls.Use(authMiddleware.Authenticate)

	calls.POST("", callHandler.CreateCall)                 // POST /v1/calls - Initiate a call
	calls.GET("", callHandler.GetCallHistory)              // GET /v1/calls - Paginated call history
	calls.PUT("/:id/status", callHandler.UpdateCallStatus) // PUT /v1/calls/:id/status - Advance the call state machine
}
