package usecase

import (
	"context"
	"time"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

// CallUseCase runs the per-call state machine layered on the conversation
// participant model. Call records are retained indefinitely as history.
type CallUseCase struct {
	callRepo         repository.CallRepository
	conversationRepo repository.ConversationRepository
	wsManager        *ws.Manager
}

func NewCallUseCase(
	callRepo repository.CallRepository,
	conversationRepo repository.ConversationRepository,
	wsManager *ws.Manager,
) *CallUseCase {
	return &CallUseCase{
		callRepo:         callRepo,
		conversationRepo: conversationRepo,
		wsManager:        wsManager,
	}
}

type CreateCallInput struct {
	ConversationID string
	CallType       string
}

func (uc *CallUseCase) CreateCall(ctx context.Context, callerID string, input CreateCallInput) (*entity.Call, error) {
	if input.CallType != entity.CallTypeAudio && input.CallType != entity.CallTypeVideo {
		return nil, errors.Validation("Call type must be one of: audio, video", nil)
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(callerID) {
		return nil, errors.Forbidden("User is not a participant in this conversation", nil)
	}
	if !conversation.IsActive {
		return nil, errors.Forbidden("Conversation is no longer active", nil)
	}

	call := &entity.Call{
		ConversationID: conversation.ID,
		CallerID:       callerID,
		ReceiverID:     conversation.OtherParticipant(callerID),
		CallType:       input.CallType,
		Status:         entity.CallStatusInitiated,
		InitiatedAt:    time.Now(),
	}

	if err := uc.callRepo.Create(ctx, call); err != nil {
		logger.Error("CreateCall: failed to create call in conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	uc.wsManager.SendToUser(call.ReceiverID, ws.NewEvent(ws.EventCallIncoming, call).Marshal())

	return call, nil
}

// UpdateStatus validates the requested transition against the call state
// machine. AnsweredAt is stamped on the first entry into accepted or
// connected; EndedAt on ended. Duration is computed server-side as
// endedAt-answeredAt; any client-reported duration is advisory only and
// used solely when no answer timestamp exists.
func (uc *CallUseCase) UpdateStatus(ctx context.Context, userID, callID, newStatus string, clientDuration int) (*entity.Call, error) {
	call, err := uc.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}

	if !call.IsParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this call", nil)
	}

	if !call.CanTransition(newStatus) {
		return nil, errors.InvalidTransition(call.Status, newStatus)
	}

	now := time.Now()

	switch newStatus {
	case entity.CallStatusAccepted, entity.CallStatusConnected:
		if call.AnsweredAt == nil {
			call.AnsweredAt = &now
		}
	case entity.CallStatusEnded:
		call.EndedAt = &now
		if call.AnsweredAt != nil {
			call.Duration = int(now.Sub(*call.AnsweredAt).Seconds())
		} else if clientDuration > 0 {
			call.Duration = clientDuration
		}
	}

	call.Status = newStatus

	if err := uc.callRepo.Update(ctx, call); err != nil {
		logger.Error("UpdateStatus: failed to update call %s: %v", callID, err)
		return nil, err
	}

	payload := ws.NewEvent(ws.EventCallStatus, call).Marshal()
	counterpart := call.CallerID
	if userID == call.CallerID {
		counterpart = call.ReceiverID
	}
	uc.wsManager.SendToUser(counterpart, payload)

	return call, nil
}

func (uc *CallUseCase) GetCallHistory(ctx context.Context, userID string, limit, offset int) ([]*entity.Call, int64, error) {
	return uc.callRepo.ListByUserID(ctx, userID, limit, offset)
}
