package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
)

type MessageRequestEntity struct {
	ID                      uuid.UUID  `db:"id"                        gorm:"column:id;type:uuid;primaryKey"`
	AuthorHandle            string     `db:"author_handle"             gorm:"column:author_handle;not null"`
	RecipientHandle         *string    `db:"recipient_handle"          gorm:"column:recipient_handle"`
	RecipientOrganizationID *uuid.UUID `db:"recipient_organization_id" gorm:"column:recipient_organization_id;type:uuid"`
	RecipientRegionID       *uuid.UUID `db:"recipient_region_id"       gorm:"column:recipient_region_id;type:uuid"`
	ParentMessageID         *uuid.UUID `db:"parent_message_id"         gorm:"column:parent_message_id;type:uuid"`
	MessageID               uuid.UUID  `db:"message_id"                gorm:"column:message_id;type:uuid;not null;index"`
	CreatedAt               time.Time  `db:"created_at"                gorm:"column:created_at;not null"`
}

func (MessageRequestEntity) TableName() string {
	return "message_request"
}

func toMessageRequestEntity(m *model.MessageRequest) *MessageRequestEntity {
	if m == nil {
		return nil
	}
	return &MessageRequestEntity{
		ID:                      m.ID,
		AuthorHandle:            m.AuthorHandle,
		RecipientHandle:         m.RecipientHandle,
		RecipientOrganizationID: m.RecipientOrganizationID,
		RecipientRegionID:       m.RecipientRegionID,
		ParentMessageID:         m.ParentMessageID,
		MessageID:               m.MessageID,
		CreatedAt:               m.CreatedAt,
	}
}

func toMessageRequestModel(e *MessageRequestEntity) *model.MessageRequest {
	if e == nil {
		return nil
	}
	return &model.MessageRequest{
		ID:                      e.ID,
		AuthorHandle:            e.AuthorHandle,
		RecipientHandle:         e.RecipientHandle,
		RecipientOrganizationID: e.RecipientOrganizationID,
		RecipientRegionID:       e.RecipientRegionID,
		ParentMessageID:         e.ParentMessageID,
		MessageID:               e.MessageID,
		CreatedAt:               e.CreatedAt,
	}
}

func toMessageRequestModels(entities []*MessageRequestEntity) []*model.MessageRequest {
	if entities == nil {
		return nil
	}
	models := make([]*model.MessageRequest, len(entities))
	for i, e := range entities {
		models[i] = toMessageRequestModel(e)
	}
	return models
}
