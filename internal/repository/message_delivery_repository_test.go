package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDeliveryRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageDeliveryRepository(db)
	ctx := context.Background()

	t.Run("create delivery", func(t *testing.T) {
		d := model.NewMessageDelivery(uuid.New(), uuid.New(), nil)

		created, err := repo.Create(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, d.ID, created.ID)
		assert.Nil(t, created.ParentMessageID)
	})

	t.Run("create delivery with parent linkage", func(t *testing.T) {
		parentDeliveryID := uuid.New()
		d := model.NewMessageDelivery(uuid.New(), uuid.New(), &parentDeliveryID)

		created, err := repo.Create(ctx, d)
		require.NoError(t, err)
		require.NotNil(t, created.ParentMessageID)
		assert.Equal(t, parentDeliveryID, *created.ParentMessageID)
	})
}

func TestMessageDeliveryRepository_CreateBatch(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageDeliveryRepository(db)
	ctx := context.Background()

	messageID := uuid.New()
	recipients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var deliveries []*model.MessageDelivery
	for _, rid := range recipients {
		deliveries = append(deliveries, model.NewMessageDelivery(messageID, rid, nil))
	}

	err := repo.CreateBatch(ctx, deliveries)
	require.NoError(t, err)

	for _, rid := range recipients {
		found, err := repo.FindByMessageAndRecipient(ctx, messageID, rid)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, messageID, found.MessageID)
	}

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.CreateBatch(ctx, nil))
	})
}

func TestMessageDeliveryRepository_FindByMessageAndRecipient(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageDeliveryRepository(db)
	ctx := context.Background()

	messageID := uuid.New()
	recipientID := uuid.New()
	d := model.NewMessageDelivery(messageID, recipientID, nil)
	_, err := repo.Create(ctx, d)
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		found, err := repo.FindByMessageAndRecipient(ctx, messageID, recipientID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, d.ID, found.ID)
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		found, err := repo.FindByMessageAndRecipient(ctx, messageID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
