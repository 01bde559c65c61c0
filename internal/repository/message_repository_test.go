package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	t.Run("create message successfully", func(t *testing.T) {
		msg := model.NewMessage(uuid.New(), model.MessageParams{
			Subject: "Weekly update",
			Body:    "Planting numbers are in.",
		})

		created, err := repo.Create(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, created.ID)
		assert.Equal(t, msg.AuthorID, created.AuthorID)
		assert.Equal(t, msg.Subject, created.Subject)
		assert.True(t, created.Active)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("create message with optional fields", func(t *testing.T) {
		parentID := uuid.New()
		surveyID := uuid.New()
		videoLink := "https://example.com/intro.mp4"
		msg := model.NewMessage(uuid.New(), model.MessageParams{
			Subject:         "Survey follow-up",
			Body:            "Please answer below.",
			ParentMessageID: &parentID,
			SurveyID:        &surveyID,
			VideoLink:       &videoLink,
		})

		created, err := repo.Create(ctx, msg)
		require.NoError(t, err)
		require.NotNil(t, created.ParentMessageID)
		assert.Equal(t, parentID, *created.ParentMessageID)
		require.NotNil(t, created.SurveyID)
		assert.Equal(t, surveyID, *created.SurveyID)
		require.NotNil(t, created.VideoLink)
		assert.Equal(t, videoLink, *created.VideoLink)
	})
}

func TestMessageRepository_GetByID(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := model.NewMessage(uuid.New(), model.MessageParams{
		Subject: "Hello",
		Body:    "World",
	})
	_, err := repo.Create(ctx, msg)
	require.NoError(t, err)

	t.Run("get existing message", func(t *testing.T) {
		got, err := repo.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, msg.Subject, got.Subject)
		assert.Equal(t, msg.Body, got.Body)
	})

	t.Run("get missing message", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageRepository_ListForAuthor(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	deliveryRepo := NewMessageDeliveryRepository(db)
	ctx := context.Background()

	authorID := uuid.New()
	otherID := uuid.New()

	for i := 0; i < 3; i++ {
		msg := model.NewMessage(authorID, model.MessageParams{
			Subject:    "Authored",
			Body:       "body",
			ComposedAt: time.Date(2024, 3, 1, 10, i, 0, 0, time.UTC),
		})
		_, err := repo.Create(ctx, msg)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	// A message from someone else, delivered to the author.
	received := model.NewMessage(otherID, model.MessageParams{
		Subject:    "Received",
		Body:       "body",
		ComposedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	})
	_, err := repo.Create(ctx, received)
	require.NoError(t, err)
	_, err = deliveryRepo.Create(ctx, model.NewMessageDelivery(received.ID, authorID, nil))
	require.NoError(t, err)

	// A message the author has nothing to do with.
	unrelated := model.NewMessage(otherID, model.MessageParams{
		Subject: "Unrelated",
		Body:    "body",
	})
	_, err = repo.Create(ctx, unrelated)
	require.NoError(t, err)

	t.Run("lists authored and received messages", func(t *testing.T) {
		messages, err := repo.ListForAuthor(ctx, authorID, model.MessageFilter{})
		require.NoError(t, err)
		assert.Len(t, messages, 4)
		for _, m := range messages {
			assert.NotEqual(t, unrelated.ID, m.ID)
		}
	})

	t.Run("ordered by created_at then id", func(t *testing.T) {
		messages, err := repo.ListForAuthor(ctx, authorID, model.MessageFilter{})
		require.NoError(t, err)
		for i := 0; i < len(messages)-1; i++ {
			assert.False(t, messages[i].CreatedAt.After(messages[i+1].CreatedAt))
		}
	})

	t.Run("since filters on composed_at inclusively", func(t *testing.T) {
		since := time.Date(2024, 3, 1, 10, 2, 0, 0, time.UTC)
		messages, err := repo.ListForAuthor(ctx, authorID, model.MessageFilter{Since: &since})
		require.NoError(t, err)
		assert.Len(t, messages, 2)
		for _, m := range messages {
			assert.False(t, m.ComposedAt.Before(since))
		}
	})

	t.Run("pagination window", func(t *testing.T) {
		page1, err := repo.ListForAuthor(ctx, authorID, model.MessageFilter{Limit: 2, Offset: 0})
		require.NoError(t, err)
		assert.Len(t, page1, 2)

		page2, err := repo.ListForAuthor(ctx, authorID, model.MessageFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("no results for unknown author", func(t *testing.T) {
		messages, err := repo.ListForAuthor(ctx, uuid.New(), model.MessageFilter{})
		require.NoError(t, err)
		assert.Len(t, messages, 0)
	})
}
