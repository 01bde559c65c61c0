package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSurvey(t *testing.T) *model.Survey {
	t.Helper()
	s, err := model.NewSurvey(model.SurveyPayload{
		Title: "Planting conditions",
		Questions: []model.QuestionPayload{
			{Prompt: "How was the soil?", Choices: []string{"dry", "moist", "wet"}},
			{Prompt: "Any pests?", Choices: []string{"yes", "no"}},
		},
	})
	require.NoError(t, err)
	return s
}

func TestSurveyRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	survey := newTestSurvey(t)
	created, err := repo.Create(ctx, survey)
	require.NoError(t, err)
	assert.Equal(t, survey.ID, created.ID)
	require.Len(t, created.Questions, 2)
	assert.Equal(t, 1, created.Questions[0].Rank)
	assert.Equal(t, 2, created.Questions[1].Rank)
}

func TestSurveyRepository_GetByID(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	survey := newTestSurvey(t)
	_, err := repo.Create(ctx, survey)
	require.NoError(t, err)

	t.Run("round-trips questions in rank order with ordered choices", func(t *testing.T) {
		got, err := repo.GetByID(ctx, survey.ID)
		require.NoError(t, err)
		assert.Equal(t, survey.Title, got.Title)
		require.Len(t, got.Questions, 2)
		assert.Equal(t, "How was the soil?", got.Questions[0].Prompt)
		assert.Equal(t, []string{"dry", "moist", "wet"}, got.Questions[0].Choices)
		assert.Equal(t, "Any pests?", got.Questions[1].Prompt)
		assert.Equal(t, []string{"yes", "no"}, got.Questions[1].Choices)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrSurveyNotFound)
	})
}

func TestSurveyRepository_ListByIDs(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewSurveyRepository(db)
	ctx := context.Background()

	first := newTestSurvey(t)
	second := newTestSurvey(t)
	for _, s := range []*model.Survey{first, second} {
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}

	t.Run("loads surveys with questions", func(t *testing.T) {
		surveys, err := repo.ListByIDs(ctx, []uuid.UUID{first.ID, second.ID})
		require.NoError(t, err)
		require.Len(t, surveys, 2)
		for _, s := range surveys {
			assert.Len(t, s.Questions, 2)
		}
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		surveys, err := repo.ListByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, surveys)
	})
}
