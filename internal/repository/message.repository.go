package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a message does not exist.
	ErrNotFound = errors.New("message not found")
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	var entity MessageEntity
	err := r.Read(ctx).WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toMessageModel(&entity), nil
}

// ListForAuthor returns the messages visible to an author: the ones they
// authored and the ones delivered to them. Ordering is created_at then id so
// pages are stable across identical timestamps.
func (r *MessageRepository) ListForAuthor(ctx context.Context, authorID uuid.UUID, f model.MessageFilter) ([]*model.Message, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&MessageEntity{}).
		Where("author_id = ? OR id IN (?)",
			authorID,
			r.Read(ctx).Model(&MessageDeliveryEntity{}).Select("message_id").Where("recipient_id = ?", authorID),
		)

	if f.Since != nil {
		q = q.Where("composed_at >= ?", *f.Since)
	}

	limit, offset := f.Window()

	var entities []*MessageEntity
	if err := q.Order("created_at ASC, id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, err
	}

	return toMessageModels(entities), nil
}
