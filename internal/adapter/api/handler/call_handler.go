package handler

import (
	"github.com/labstack/echo/v4"

	"talentlink/internal/usecase"
	"talentlink/pkg/response"
	"talentlink/pkg/utils"
)

type CallHandler struct {
	callUseCase *usecase.CallUseCase
}

func NewCallHandler(callUseCase *usecase.CallUseCase) *CallHandler {
	return &CallHandler{
		callUseCase: callUseCase,
	}
}

type createCallRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	CallType       string `json:"call_type" validate:"required,oneof=audio video"`
}

type updateCallStatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=accepted declined missed connected ended"`
	Duration int    `json:"duration"` // advisory; server computes from answer time
}

func (h *CallHandler) CreateCall(c echo.Context) error {
	var req createCallRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	call, err := h.callUseCase.CreateCall(c.Request().Context(), userID, usecase.CreateCallInput{
		ConversationID: req.ConversationID,
		CallType:       req.CallType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, call)
}

func (h *CallHandler) UpdateCallStatus(c echo.Context) error {
	callID := c.Param("id")

	var req updateCallStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	call, err := h.callUseCase.UpdateStatus(c.Request().Context(), userID, callID, req.Status, req.Duration)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, call)
}

func (h *CallHandler) GetCallHistory(c echo.Context) error {
	userID := c.Get("uid").(string)
	params := utils.GetPaginationParams(c)

	calls, total, err := h.callUseCase.GetCallHistory(c.Request().Context(), userID, params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, calls, total, params.PageSize, params.Offset)
}
