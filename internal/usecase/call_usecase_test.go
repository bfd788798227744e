package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentlink/internal/domain/entity"
	ws "talentlink/internal/infrastructure/websocket"
	"talentlink/pkg/errors"
)

type memoryCallRepo struct {
	calls map[string]*entity.Call
}

func newMemoryCallRepo() *memoryCallRepo {
	return &memoryCallRepo{calls: make(map[string]*entity.Call)}
}

func (r *memoryCallRepo) Create(ctx context.Context, call *entity.Call) error {
	call.ID = uuid.New().String()
	if call.InitiatedAt.IsZero() {
		call.InitiatedAt = time.Now()
	}
	r.calls[call.ID] = call
	return nil
}

func (r *memoryCallRepo) GetByID(ctx context.Context, id string) (*entity.Call, error) {
	call, ok := r.calls[id]
	if !ok {
		return nil, errors.NotFound("Call", nil)
	}
	return call, nil
}

func (r *memoryCallRepo) Update(ctx context.Context, call *entity.Call) error {
	if _, ok := r.calls[call.ID]; !ok {
		return errors.NotFound("Call", nil)
	}
	r.calls[call.ID] = call
	return nil
}

func (r *memoryCallRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Call, int64, error) {
	var result []*entity.Call
	for _, call := range r.calls {
		if call.IsParticipant(userID) {
			result = append(result, call)
		}
	}
	return result, int64(len(result)), nil
}

func newCallFixture(t *testing.T) (*CallUseCase, *entity.Call) {
	t.Helper()
	ctx := context.Background()

	conversationRepo := newMemoryConversationRepo()
	chatUC := NewChatUseCase(conversationRepo, &fakeUploader{}, ws.NewManager())
	started, err := chatUC.StartConversation(ctx, "alice", StartConversationInput{RecipientID: "bob"})
	require.NoError(t, err)

	callRepo := newMemoryCallRepo()
	uc := NewCallUseCase(callRepo, conversationRepo, ws.NewManager())

	call, err := uc.CreateCall(ctx, "alice", CreateCallInput{
		ConversationID: started.Conversation.ID,
		CallType:       entity.CallTypeVideo,
	})
	require.NoError(t, err)
	return uc, call
}

func TestCreateCall(t *testing.T) {
	_, call := newCallFixture(t)

	assert.Equal(t, "alice", call.CallerID)
	assert.Equal(t, "bob", call.ReceiverID)
	assert.Equal(t, entity.CallStatusInitiated, call.Status)
	assert.Equal(t, entity.CallTypeVideo, call.CallType)
	assert.False(t, call.InitiatedAt.IsZero())
	assert.Nil(t, call.AnsweredAt)
	assert.Nil(t, call.EndedAt)
	assert.Zero(t, call.Duration)
}

func TestCreateCallValidatesType(t *testing.T) {
	uc, call := newCallFixture(t)

	_, err := uc.CreateCall(context.Background(), "alice", CreateCallInput{
		ConversationID: call.ConversationID,
		CallType:       "hologram",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestCallLifecycleComputesDuration(t *testing.T) {
	uc, call := newCallFixture(t)
	ctx := context.Background()

	call, err := uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusAccepted, 0)
	require.NoError(t, err)
	require.NotNil(t, call.AnsweredAt)
	answeredAt := *call.AnsweredAt

	call, err = uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusConnected, 0)
	require.NoError(t, err)
	assert.Equal(t, answeredAt, *call.AnsweredAt, "answer timestamp is stamped once")

	// A client-reported duration is ignored once an answer timestamp exists.
	call, err = uc.UpdateStatus(ctx, "alice", call.ID, entity.CallStatusEnded, 9999)
	require.NoError(t, err)
	assert.Equal(t, entity.CallStatusEnded, call.Status)
	require.NotNil(t, call.EndedAt)
	assert.Equal(t, int(call.EndedAt.Sub(answeredAt).Seconds()), call.Duration)
	assert.Less(t, call.Duration, 9999)
}

func TestCallCannotSkipStates(t *testing.T) {
	uc, call := newCallFixture(t)
	ctx := context.Background()

	_, err := uc.UpdateStatus(ctx, "alice", call.ID, entity.CallStatusEnded, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_TRANSITION"))

	_, err = uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusConnected, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_TRANSITION"))
}

func TestDeclinedCallIsTerminal(t *testing.T) {
	uc, call := newCallFixture(t)
	ctx := context.Background()

	call, err := uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusDeclined, 0)
	require.NoError(t, err)
	assert.Nil(t, call.AnsweredAt)
	assert.Nil(t, call.EndedAt)
	assert.Zero(t, call.Duration)

	for _, status := range []string{entity.CallStatusAccepted, entity.CallStatusConnected, entity.CallStatusEnded} {
		_, err := uc.UpdateStatus(ctx, "bob", call.ID, status, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, "INVALID_TRANSITION"))
	}
}

func TestEndedCallIsTerminal(t *testing.T) {
	uc, call := newCallFixture(t)
	ctx := context.Background()

	_, err := uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusAccepted, 0)
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusConnected, 0)
	require.NoError(t, err)
	_, err = uc.UpdateStatus(ctx, "bob", call.ID, entity.CallStatusEnded, 0)
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, "alice", call.ID, entity.CallStatusConnected, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_TRANSITION"))
}

func TestUpdateStatusRejectsNonParticipant(t *testing.T) {
	uc, call := newCallFixture(t)

	_, err := uc.UpdateStatus(context.Background(), "mallory", call.ID, entity.CallStatusAccepted, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestGetCallHistory(t *testing.T) {
	uc, call := newCallFixture(t)

	calls, total, err := uc.GetCallHistory(context.Background(), "bob", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, calls, 1)
	assert.Equal(t, call.ID, calls[0].ID)

	calls, total, err = uc.GetCallHistory(context.Background(), "mallory", 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, calls)
}
