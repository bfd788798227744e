package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
	"talentlink/pkg/logger"
)

type firestoreCallRepository struct {
	client *firestore.Client
}

func NewFirestoreCallRepository(client *firestore.Client) repository.CallRepository {
	return &firestoreCallRepository{
		client: client,
	}
}

func (r *firestoreCallRepository) Create(ctx context.Context, call *entity.Call) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.InitiatedAt.IsZero() {
		call.InitiatedAt = time.Now()
	}

	_, err := r.client.Collection("calls").Doc(call.ID).Set(ctx, call)
	if err != nil {
		return errors.Internal("Failed to create call", err)
	}

	return nil
}

func (r *firestoreCallRepository) GetByID(ctx context.Context, id string) (*entity.Call, error) {
	doc, err := r.client.Collection("calls").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Call", err)
		}
		return nil, errors.Internal("Failed to get call", err)
	}

	var call entity.Call
	if err := doc.DataTo(&call); err != nil {
		return nil, errors.Internal("Failed to parse call data", err)
	}

	return &call, nil
}

func (r *firestoreCallRepository) Update(ctx context.Context, call *entity.Call) error {
	_, err := r.client.Collection("calls").Doc(call.ID).Set(ctx, call)
	if err != nil {
		return errors.Internal("Failed to update call", err)
	}
	return nil
}

func (r *firestoreCallRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Call, int64, error) {
	// Two single-field queries instead of a composite OR index; merged and
	// sorted in memory like the conversation listing.
	var calls []*entity.Call

	for _, field := range []string{"callerId", "receiverId"} {
		docs, err := r.client.Collection("calls").Where(field, "==", userID).Documents(ctx).GetAll()
		if err != nil {
			logger.Error("Firestore error while fetching calls for user %s: %v", userID, err)
			return nil, 0, errors.Internal("Failed to fetch calls", err)
		}
		for _, doc := range docs {
			var call entity.Call
			if err := doc.DataTo(&call); err != nil {
				logger.Warn("Skipping malformed call %s: %v", doc.Ref.ID, err)
				continue
			}
			calls = append(calls, &call)
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].InitiatedAt.After(calls[j].InitiatedAt)
	})

	total := int64(len(calls))

	start := offset
	if start > len(calls) {
		start = len(calls)
	}
	end := len(calls)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return calls[start:end], total, nil
}
