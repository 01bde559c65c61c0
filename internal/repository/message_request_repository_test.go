package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/messaging-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRequestRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRequestRepository(db)
	ctx := context.Background()

	t.Run("direct target sets recipient_handle only", func(t *testing.T) {
		target := model.Target{Kind: model.TargetDirect, Handle: "recipient"}
		req := model.NewMessageRequest(uuid.New(), "author", target, nil)

		created, err := repo.Create(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, created.RecipientHandle)
		assert.Equal(t, "recipient", *created.RecipientHandle)
		assert.Nil(t, created.RecipientOrganizationID)
		assert.Nil(t, created.RecipientRegionID)
	})

	t.Run("organization target sets organization column only", func(t *testing.T) {
		orgID := uuid.New()
		target := model.Target{Kind: model.TargetOrganization, OrganizationID: orgID}
		req := model.NewMessageRequest(uuid.New(), "author", target, nil)

		created, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, created.RecipientHandle)
		require.NotNil(t, created.RecipientOrganizationID)
		assert.Equal(t, orgID, *created.RecipientOrganizationID)
		assert.Nil(t, created.RecipientRegionID)
	})

	t.Run("region target sets region column only", func(t *testing.T) {
		regionID := uuid.New()
		target := model.Target{Kind: model.TargetRegion, RegionID: regionID}
		req := model.NewMessageRequest(uuid.New(), "author", target, nil)

		created, err := repo.Create(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, created.RecipientHandle)
		assert.Nil(t, created.RecipientOrganizationID)
		require.NotNil(t, created.RecipientRegionID)
		assert.Equal(t, regionID, *created.RecipientRegionID)
	})
}

func TestMessageRequestRepository_ListByMessageIDs(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRequestRepository(db)
	ctx := context.Background()

	target := model.Target{Kind: model.TargetDirect, Handle: "recipient"}

	msgA := uuid.New()
	msgB := uuid.New()
	msgC := uuid.New()
	for _, id := range []uuid.UUID{msgA, msgB, msgC} {
		_, err := repo.Create(ctx, model.NewMessageRequest(id, "author", target, nil))
		require.NoError(t, err)
	}

	t.Run("returns requests for the given messages", func(t *testing.T) {
		requests, err := repo.ListByMessageIDs(ctx, []uuid.UUID{msgA, msgB})
		require.NoError(t, err)
		assert.Len(t, requests, 2)
		for _, r := range requests {
			assert.Contains(t, []uuid.UUID{msgA, msgB}, r.MessageID)
		}
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		requests, err := repo.ListByMessageIDs(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, requests)
	})
}
