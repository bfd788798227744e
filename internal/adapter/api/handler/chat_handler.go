package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"talentlink/internal/usecase"
	"talentlink/pkg/response"
	"talentlink/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startConversationRequest struct {
	RecipientID    string `json:"recipient_id" validate:"required"`
	JobID          string `json:"job_id"`
	ApplicationID  string `json:"application_id"`
	InitialMessage string `json:"initial_message"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// StartConversation starts (or idempotently returns) a conversation with a
// recipient, optionally scoped to a job application.
func (h *ChatHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	result, err := h.chatUseCase.StartConversation(c.Request().Context(), userID, usecase.StartConversationInput{
		RecipientID:    req.RecipientID,
		JobID:          req.JobID,
		ApplicationID:  req.ApplicationID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// GetConversations lists the authenticated user's conversations,
// most recently updated first.
func (h *ChatHandler) GetConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	conversations, total, err := h.chatUseCase.GetConversations(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, params.PageSize, params.Offset)
}

func (h *ChatHandler) GetConversationByID(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	conversation, err := h.chatUseCase.GetConversationByID(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// SendMessage sends a message to a conversation. Accepts JSON for plain
// text, or multipart/form-data with a "content" field and an optional
// "file" part which is passed through the attachment gateway.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	input := usecase.SendMessageInput{ConversationID: conversationID}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		input.Content = c.FormValue("content")

		fileHeader, err := c.FormFile("file")
		if err == nil {
			src, err := fileHeader.Open()
			if err != nil {
				return response.Error(c, err)
			}
			defer src.Close()

			input.Upload = &usecase.AttachmentUpload{
				File:         src,
				Size:         fileHeader.Size,
				MimeType:     fileHeader.Header.Get("Content-Type"),
				OriginalName: fileHeader.Filename,
			}
		}
	} else {
		var req sendMessageRequest
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
		input.Content = req.Content
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetMessages returns a page of messages and marks the conversation read
// for the requesting user.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	messages, total, err := h.chatUseCase.GetMessages(c.Request().Context(), userID, conversationID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.PageSize, params.Offset)
}

func (h *ChatHandler) MarkConversationAsRead(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkConversationAsRead(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// DeleteMessage deletes a message for the caller (scope=me, default) or for
// everyone (scope=everyone, sender only).
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	conversationID := c.Param("id")
	messageID := c.Param("messageId")
	userID := c.Get("uid").(string)

	scope := c.QueryParam("scope")
	if scope == "" {
		scope = "me"
	}

	if err := h.chatUseCase.DeleteMessage(c.Request().Context(), userID, conversationID, messageID, scope); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *ChatHandler) DeleteConversation(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.DeleteConversation(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *ChatHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)

	count, err := h.chatUseCase.GetTotalUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread": count})
}
