package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetByID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		account, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("account found with buffs", func(t *testing.T) {
		created := testutil.CreateTestAccount("ana", "3A", 500)
		created.Cargos = []string{entities.CargoCollectiveExempt}
		require.NoError(t, repo.Create(ctx, created))

		expires := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
		require.NoError(t, repo.UpsertBuff(ctx, created.ID, entities.Buff{Effect: "double_xp", ExpiresAt: expires}))

		account, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, account)

		assert.Equal(t, "ana", account.ExternalID)
		assert.Equal(t, int64(500), account.Balance)
		assert.Equal(t, []string{entities.CargoCollectiveExempt}, account.Cargos)
		require.Len(t, account.Buffs, 1)
		assert.Equal(t, "double_xp", account.Buffs[0].Effect)
		assert.True(t, expires.Equal(account.Buffs[0].ExpiresAt))
	})
}

func TestAccountRepository_UpsertBuffReplacesSameEffect(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount("bia", "3A", 0)
	require.NoError(t, repo.Create(ctx, account))

	first := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	second := first.Add(24 * time.Hour)
	require.NoError(t, repo.UpsertBuff(ctx, account.ID, entities.Buff{Effect: "shield", ExpiresAt: first}))
	require.NoError(t, repo.UpsertBuff(ctx, account.ID, entities.Buff{Effect: "shield", ExpiresAt: second}))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, got.Buffs, 1)
	assert.True(t, second.Equal(got.Buffs[0].ExpiresAt))
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := testutil.CreateTestAccount("caio", "3B", 100)
	require.NoError(t, repo.Create(ctx, account))

	t.Run("writes balance and peak", func(t *testing.T) {
		require.NoError(t, repo.UpdateBalance(ctx, account.ID, 250, 250))

		got, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(250), got.Balance)
		assert.Equal(t, int64(250), got.MaxBalance)
	})

	t.Run("negative balance is rejected by the floor", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, account.ID, -1, 250)
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrInsufficientFunds))
	})

	t.Run("missing account", func(t *testing.T) {
		err := repo.UpdateBalance(ctx, 999999, 10, 10)
		assert.Error(t, err)
	})
}

func TestAccountRepository_ListByTurmaForUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	repo := NewAccountRepository(testDB.DB)

	for _, a := range []*entities.Account{
		testutil.CreateTestAccount("d1", "2C", 10),
		testutil.CreateTestAccount("d2", "2C", 20),
		testutil.CreateTestAccount("d3", "2º c", 40),
		testutil.CreateTestAccount("e1", "1A", 30),
	} {
		require.NoError(t, repo.Create(ctx, a))
	}

	tx, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	members, err := newAccountRepository(tx).ListByTurmaForUpdate(ctx, "2C")
	require.NoError(t, err)
	require.Len(t, members, 3, "spellings of the same classroom are one group")
	assert.Less(t, members[0].ID, members[1].ID)
	assert.Less(t, members[1].ID, members[2].ID)
	assert.Equal(t, "d1", members[0].ExternalID)
	assert.Equal(t, "d3", members[2].ExternalID)

	none, err := newAccountRepository(tx).ListByTurmaForUpdate(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, none)
}
