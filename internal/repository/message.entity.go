package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
)

type MessageEntity struct {
	ID              uuid.UUID  `db:"id"              gorm:"column:id;type:uuid;primaryKey"`
	ParentMessageID *uuid.UUID `db:"parent_message_id" gorm:"column:parent_message_id;type:uuid"`
	AuthorID        uuid.UUID  `db:"author_id"       gorm:"column:author_id;type:uuid;not null;index"`
	Subject         string     `db:"subject"         gorm:"column:subject;not null"`
	Body            string     `db:"body"            gorm:"column:body;not null"`
	ComposedAt      time.Time  `db:"composed_at"     gorm:"column:composed_at;not null"`
	VideoLink       *string    `db:"video_link"      gorm:"column:video_link"`
	SurveyID        *uuid.UUID `db:"survey_id"       gorm:"column:survey_id;type:uuid"`
	SurveyResponse  *string    `db:"survey_response" gorm:"column:survey_response"`
	Active          bool       `db:"active"          gorm:"column:active;not null;default:true"`
	CreatedAt       time.Time  `db:"created_at"      gorm:"column:created_at;not null"`
}

func (MessageEntity) TableName() string {
	return "message"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		ID:              m.ID,
		ParentMessageID: m.ParentMessageID,
		AuthorID:        m.AuthorID,
		Subject:         m.Subject,
		Body:            m.Body,
		ComposedAt:      m.ComposedAt,
		VideoLink:       m.VideoLink,
		SurveyID:        m.SurveyID,
		SurveyResponse:  m.SurveyResponse,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		ID:              e.ID,
		ParentMessageID: e.ParentMessageID,
		AuthorID:        e.AuthorID,
		Subject:         e.Subject,
		Body:            e.Body,
		ComposedAt:      e.ComposedAt,
		VideoLink:       e.VideoLink,
		SurveyID:        e.SurveyID,
		SurveyResponse:  e.SurveyResponse,
		Active:          e.Active,
		CreatedAt:       e.CreatedAt,
	}
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	if entities == nil {
		return nil
	}
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
