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
	// ErrSurveyNotFound is returned when a survey does not exist.
	ErrSurveyNotFound = errors.New("survey not found")
)

type SurveyRepository struct {
	*pg.DB
}

func NewSurveyRepository(db *pg.DB) *SurveyRepository {
	return &SurveyRepository{
		db,
	}
}

// Create persists the survey and its question rows. Runs inside the caller's
// transaction when one is on the context.
func (r *SurveyRepository) Create(ctx context.Context, s *model.Survey) (*model.Survey, error) {
	entity := toSurveyEntity(s)
	questions := entity.Questions
	entity.Questions = nil

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := r.Write(ctx).WithContext(ctx).Create(questions).Error; err != nil {
			return nil, err
		}
	}

	entity.Questions = questions
	return toSurveyModel(entity), nil
}

func (r *SurveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	var entity SurveyEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}
	return toSurveyModel(&entity), nil
}

// ListByIDs loads the surveys referenced by a page of messages, questions
// included, in one round trip.
func (r *SurveyRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Survey, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var entities []*SurveyEntity
	err := r.Read(ctx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Where("id IN ?", ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	return toSurveyModels(entities), nil
}
