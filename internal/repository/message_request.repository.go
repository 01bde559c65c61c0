package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/pkg/pg"
)

type MessageRequestRepository struct {
	*pg.DB
}

func NewMessageRequestRepository(db *pg.DB) *MessageRequestRepository {
	return &MessageRequestRepository{
		db,
	}
}

func (r *MessageRequestRepository) Create(ctx context.Context, req *model.MessageRequest) (*model.MessageRequest, error) {
	entity := toMessageRequestEntity(req)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageRequestModel(entity), nil
}

// ListByMessageIDs loads the request rows for a page of messages in one query.
func (r *MessageRequestRepository) ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) ([]*model.MessageRequest, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var entities []*MessageRequestEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return toMessageRequestModels(entities), nil
}
