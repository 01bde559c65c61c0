package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/nimasrn/messaging-api/pkg/pg"
	"gorm.io/gorm"
)

type MessageDeliveryRepository struct {
	*pg.DB
}

func NewMessageDeliveryRepository(db *pg.DB) *MessageDeliveryRepository {
	return &MessageDeliveryRepository{
		db,
	}
}

func (r *MessageDeliveryRepository) Create(ctx context.Context, d *model.MessageDelivery) (*model.MessageDelivery, error) {
	entity := toMessageDeliveryEntity(d)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageDeliveryModel(entity), nil
}

// CreateBatch inserts all fan-out deliveries of a message at once.
func (r *MessageDeliveryRepository) CreateBatch(ctx context.Context, deliveries []*model.MessageDelivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	entities := toMessageDeliveryEntities(deliveries)
	return r.Write(ctx).WithContext(ctx).Create(entities).Error
}

// FindByMessageAndRecipient returns the delivery of a message to a recipient,
// or nil when none exists. Absence is not an error here: the thread linker
// treats a missing parent delivery as "no linkage".
func (r *MessageDeliveryRepository) FindByMessageAndRecipient(ctx context.Context, messageID, recipientID uuid.UUID) (*model.MessageDelivery, error) {
	var entity MessageDeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		First(&entity, "message_id = ? AND recipient_id = ?", messageID, recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toMessageDeliveryModel(&entity), nil
}
