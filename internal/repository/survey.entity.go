package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
)

type SurveyEntity struct {
	ID        uuid.UUID `db:"id"         gorm:"column:id;type:uuid;primaryKey"`
	Title     string    `db:"title"      gorm:"column:title;not null"`
	Active    bool      `db:"active"     gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;not null"`

	Questions []*SurveyQuestionEntity `gorm:"foreignKey:SurveyID"`
}

func (SurveyEntity) TableName() string {
	return "survey"
}

type SurveyQuestionEntity struct {
	ID       uuid.UUID `db:"id"        gorm:"column:id;type:uuid;primaryKey"`
	SurveyID uuid.UUID `db:"survey_id" gorm:"column:survey_id;type:uuid;not null;index"`
	Rank     int       `db:"rank"      gorm:"column:rank;not null"`
	Prompt   string    `db:"prompt"    gorm:"column:prompt;not null"`
	// Choices is a JSON-encoded array of strings, preserving order.
	Choices string `db:"choices" gorm:"column:choices;not null"`
}

func (SurveyQuestionEntity) TableName() string {
	return "survey_question"
}

func encodeChoices(choices []string) string {
	b, _ := json.Marshal(choices)
	return string(b)
}

func decodeChoices(raw string) []string {
	var choices []string
	_ = json.Unmarshal([]byte(raw), &choices)
	return choices
}

func toSurveyEntity(s *model.Survey) *SurveyEntity {
	if s == nil {
		return nil
	}
	e := &SurveyEntity{
		ID:        s.ID,
		Title:     s.Title,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
	}
	for _, q := range s.Questions {
		e.Questions = append(e.Questions, &SurveyQuestionEntity{
			ID:       q.ID,
			SurveyID: q.SurveyID,
			Rank:     q.Rank,
			Prompt:   q.Prompt,
			Choices:  encodeChoices(q.Choices),
		})
	}
	return e
}

func toSurveyModel(e *SurveyEntity) *model.Survey {
	if e == nil {
		return nil
	}
	s := &model.Survey{
		ID:        e.ID,
		Title:     e.Title,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
	}
	for _, q := range e.Questions {
		s.Questions = append(s.Questions, &model.SurveyQuestion{
			ID:       q.ID,
			SurveyID: q.SurveyID,
			Rank:     q.Rank,
			Prompt:   q.Prompt,
			Choices:  decodeChoices(q.Choices),
		})
	}
	return s
}

func toSurveyModels(entities []*SurveyEntity) []*model.Survey {
	if entities == nil {
		return nil
	}
	models := make([]*model.Survey, len(entities))
	for i, e := range entities {
		models[i] = toSurveyModel(e)
	}
	return models
}
