package repository

import (
	"context"

	"talentlink/internal/domain/entity"
)

type CallRepository interface {
	Create(ctx context.Context, call *entity.Call) error
	GetByID(ctx context.Context, id string) (*entity.Call, error)
	Update(ctx context.Context, call *entity.Call) error
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Call, int64, error)
}
