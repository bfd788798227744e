package router

import (
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/handler"
	"talentlink/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all conversation and message routes (excluding WebSocket).
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	// Conversation management
	conversations.POST("", chatHandler.StartConversation)            // POST /v1/conversations - Find or create a conversation
	conversations.GET("", chatHandler.GetConversations)              // GET /v1/conversations - List user's conversations
	conversations.GET("/unread-count", chatHandler.GetUnreadCount)   // GET /v1/conversations/unread-count - Total unread badge
	conversations.GET("/:id", chatHandler.GetConversationByID)       // GET /v1/conversations/:id - Get specific conversation
	conversations.DELETE("/:id", chatHandler.DeleteConversation)     // DELETE /v1/conversations/:id - Soft delete for caller
	conversations.PUT("/:id/read", chatHandler.MarkConversationAsRead) // PUT /v1/conversations/:id/read - Reset unread counter

	// Message management
	conversations.POST("/:id/messages", chatHandler.SendMessage)                  // POST /v1/conversations/:id/messages - Send message (JSON or multipart)
	conversations.GET("/:id/messages", chatHandler.GetMessages)                   // GET /v1/conversations/:id/messages - Paginated history
	conversations.DELETE("/:id/messages/:messageId", chatHandler.DeleteMessage)   // DELETE /v1/conversations/:id/messages/:messageId?scope=me|everyone
}
