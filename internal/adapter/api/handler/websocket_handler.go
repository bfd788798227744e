package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"talentlink/internal/adapter/api/middleware"
	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

// WebSocketHandler is the I/O boundary adapter between the realtime
// transport and the core: it authenticates the connection, registers it
// with the Broadcaster and translates inbound frames into manager/usecase
// calls. No core logic lives here.
type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	chatUseCase    chatFrameHandler
}

// chatFrameHandler is the slice of the messaging service the realtime
// protocol needs.
type chatFrameHandler interface {
	HandleTyping(ctx context.Context, userID, conversationID string, isTyping bool)
	MarkConversationAsRead(ctx context.Context, userID, conversationID string) error
	CanAccessConversation(ctx context.Context, userID, conversationID string) bool
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, chatUseCase chatFrameHandler) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		chatUseCase:    chatUseCase,
	}
}

// HandleWebSocket authenticates via the token query parameter (browsers
// cannot set headers on WebSocket handshakes), upgrades the connection and
// joins the user's personal channel.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register(client)

	go client.ReadPump(h.wsManager, h.handleFrame)
	go client.WritePump()

	return nil
}

// handleFrame translates one inbound transport frame into a core call.
func (h *WebSocketHandler) handleFrame(client *ws.Client, payload []byte) {
	var frame ws.ClientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		logger.Warn("Invalid frame from %s: %v", client.UserID, err)
		h.sendError(client, "Invalid message format")
		return
	}

	ctx := context.Background()

	switch frame.Type {
	case ws.FrameTypePing:
		h.wsManager.SendToUser(client.UserID, ws.NewEvent(ws.EventPong, map[string]string{"status": "alive"}).Marshal())

	case ws.FrameTypeJoinRoom:
		if frame.ConversationID == "" {
			h.sendError(client, "Missing conversation_id")
			return
		}
		if !h.chatUseCase.CanAccessConversation(ctx, client.UserID, frame.ConversationID) {
			h.sendError(client, "Not a participant of this conversation")
			return
		}
		h.wsManager.JoinRoom(frame.ConversationID, client)

	case ws.FrameTypeLeaveRoom:
		if frame.ConversationID == "" {
			h.sendError(client, "Missing conversation_id")
			return
		}
		h.wsManager.LeaveRoom(frame.ConversationID, client)

	case ws.FrameTypeTyping:
		var data struct {
			IsTyping bool `json:"is_typing"`
		}
		if frame.Data != nil {
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				h.sendError(client, "Invalid typing payload")
				return
			}
		}
		h.chatUseCase.HandleTyping(ctx, client.UserID, frame.ConversationID, data.IsTyping)

	case ws.FrameTypeMarkRead:
		if frame.ConversationID == "" {
			h.sendError(client, "Missing conversation_id")
			return
		}
		if err := h.chatUseCase.MarkConversationAsRead(ctx, client.UserID, frame.ConversationID); err != nil {
			logger.Warn("mark_read from %s failed: %v", client.UserID, err)
		}

	default:
		h.sendError(client, "Unknown message type")
	}
}

func (h *WebSocketHandler) sendError(client *ws.Client, message string) {
	h.wsManager.SendToUser(client.UserID, ws.NewEvent(ws.EventError, map[string]string{"error": message}).Marshal())
}
