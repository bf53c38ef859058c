package repository

import (
	"context"
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRepository_CountsFollowCategory(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	accounts := NewAccountRepository(testDB.DB)
	repo := NewInventoryRepository(testDB.DB)

	owner := testutil.CreateTestAccount("fe", "1A", 0)
	require.NoError(t, accounts.Create(ctx, owner))

	consumable := testutil.CreateTestSlot(owner.ID, "Sticker", 3)
	require.NoError(t, repo.Create(ctx, consumable))

	skill := testutil.CreateTestSlot(owner.ID, "Free Spin", 0)
	skill.Category = entities.CategoryRankSkill
	skill.Effect = entities.EffectFreeSpin
	skill.UsesRemaining = 2
	require.NoError(t, repo.Create(ctx, skill))

	tx, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	slots, err := newInventoryRepository(tx).ListByOwnerForUpdate(ctx, entities.PersonalContainerRef(owner.ID))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, consumable.ID, slots[0].ID)
	assert.Equal(t, 3, slots[0].Quantity)
	assert.Equal(t, 0, slots[0].UsesRemaining)
	assert.Equal(t, entities.PersonalContainerRef(owner.ID), slots[0].Owner)

	assert.Equal(t, skill.ID, slots[1].ID)
	assert.Equal(t, 2, slots[1].UsesRemaining)
	assert.Equal(t, 0, slots[1].Quantity)
}

func TestInventoryRepository_UpdateCountsRejectsZeroQuantity(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	accounts := NewAccountRepository(testDB.DB)
	repo := NewInventoryRepository(testDB.DB)

	owner := testutil.CreateTestAccount("gil", "1A", 0)
	require.NoError(t, accounts.Create(ctx, owner))

	slot := testutil.CreateTestSlot(owner.ID, "Pencil", 1)
	require.NoError(t, repo.Create(ctx, slot))

	slot.Quantity = 0
	assert.Error(t, repo.UpdateCounts(ctx, slot))

	slot.Quantity = 5
	require.NoError(t, repo.UpdateCounts(ctx, slot))
}

func TestInventoryRepository_DeleteExpiredBefore(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	roomID := testutil.InsertClassroom(t, testDB.DB, "3A")
	repo := NewInventoryRepository(testDB.DB)

	now := time.Now().UTC().Truncate(time.Microsecond)
	long := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	for _, expiry := range []*time.Time{&long, &recent, &future, nil} {
		slot := testutil.CreateTestSlot(0, "Poster", 1)
		slot.Owner = entities.RoomContainerRef(roomID)
		slot.ExpiresAt = expiry
		require.NoError(t, repo.Create(ctx, slot))
	}

	removed, err := repo.DeleteExpiredBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	tx, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	left, err := newInventoryRepository(tx).ListByOwnerForUpdate(ctx, entities.RoomContainerRef(roomID))
	require.NoError(t, err)
	assert.Len(t, left, 3)
}
