package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
)

type MessageDeliveryEntity struct {
	ID              uuid.UUID  `db:"id"                gorm:"column:id;type:uuid;primaryKey"`
	MessageID       uuid.UUID  `db:"message_id"        gorm:"column:message_id;type:uuid;not null;index"`
	RecipientID     uuid.UUID  `db:"recipient_id"      gorm:"column:recipient_id;type:uuid;not null;index"`
	ParentMessageID *uuid.UUID `db:"parent_message_id" gorm:"column:parent_message_id;type:uuid"`
	CreatedAt       time.Time  `db:"created_at"        gorm:"column:created_at;not null"`
}

func (MessageDeliveryEntity) TableName() string {
	return "message_delivery"
}

func toMessageDeliveryEntity(m *model.MessageDelivery) *MessageDeliveryEntity {
	if m == nil {
		return nil
	}
	return &MessageDeliveryEntity{
		ID:              m.ID,
		MessageID:       m.MessageID,
		RecipientID:     m.RecipientID,
		ParentMessageID: m.ParentMessageID,
		CreatedAt:       m.CreatedAt,
	}
}

func toMessageDeliveryModel(e *MessageDeliveryEntity) *model.MessageDelivery {
	if e == nil {
		return nil
	}
	return &model.MessageDelivery{
		ID:              e.ID,
		MessageID:       e.MessageID,
		RecipientID:     e.RecipientID,
		ParentMessageID: e.ParentMessageID,
		CreatedAt:       e.CreatedAt,
	}
}

func toMessageDeliveryEntities(models []*model.MessageDelivery) []*MessageDeliveryEntity {
	if models == nil {
		return nil
	}
	entities := make([]*MessageDeliveryEntity, len(models))
	for i, m := range models {
		entities[i] = toMessageDeliveryEntity(m)
	}
	return entities
}
