package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxSurveyQuestions = 3

var (
	ErrSurveyTitleRequired     = errors.New("survey title is required")
	ErrSurveyQuestionsRequired = errors.New("survey questions must be a non-empty array")
	ErrSurveyTooManyQuestions  = errors.New("survey cannot have more than 3 questions")
	ErrSurveyQuestionShape     = errors.New("survey questions must have a prompt and at least one choice")
)

type Survey struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`

	Questions []*SurveyQuestion `json:"questions"`
}

func (Survey) TableName() string { return "survey" }

type SurveyQuestion struct {
	ID       uuid.UUID `json:"id"`
	SurveyID uuid.UUID `json:"survey_id"`
	Rank     int       `json:"rank"`
	Prompt   string    `json:"prompt"`
	Choices  []string  `json:"choices"`
}

func (SurveyQuestion) TableName() string { return "survey_question" }

// SurveyPayload is the inline survey shape of a send request.
type SurveyPayload struct {
	Title     string            `json:"title"`
	Questions []QuestionPayload `json:"questions"`
}

type QuestionPayload struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

func (p SurveyPayload) Validate() error {
	if p.Title == "" {
		return ErrSurveyTitleRequired
	}
	if len(p.Questions) == 0 {
		return ErrSurveyQuestionsRequired
	}
	if len(p.Questions) > MaxSurveyQuestions {
		return ErrSurveyTooManyQuestions
	}
	for _, q := range p.Questions {
		if q.Prompt == "" || len(q.Choices) == 0 {
			return ErrSurveyQuestionShape
		}
	}
	return nil
}

// NewSurvey validates the payload and builds the survey with its questions
// ranked 1..N in payload order. A malformed payload never produces a survey.
func NewSurvey(p SurveyPayload) (*Survey, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Survey{
		ID:        uuid.New(),
		Title:     p.Title,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	for i, q := range p.Questions {
		s.Questions = append(s.Questions, &SurveyQuestion{
			ID:       uuid.New(),
			SurveyID: s.ID,
			Rank:     i + 1,
			Prompt:   q.Prompt,
			Choices:  q.Choices,
		})
	}
	return s, nil
}
