package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/testhelpers"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTransaction(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		store := testhelpers.NewMemoryStore()
		account := store.AddAccount(&entities.Account{ExternalID: "ana", Balance: 10})

		got, err := WithTransaction(context.Background(), store, func(uow interfaces.UnitOfWork) (int64, error) {
			return 25, uow.AccountRepository().UpdateBalance(context.Background(), account.ID, 25, 25)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(25), got)
		assert.Equal(t, int64(25), store.Account(account.ID).Balance)
	})

	t.Run("domain errors roll back and pass through", func(t *testing.T) {
		t.Parallel()
		store := testhelpers.NewMemoryStore()
		account := store.AddAccount(&entities.Account{ExternalID: "ana", Balance: 10})

		_, err := WithTransaction(context.Background(), store, func(uow interfaces.UnitOfWork) (struct{}, error) {
			if err := uow.AccountRepository().UpdateBalance(context.Background(), account.ID, 0, 10); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, entities.Detailed(entities.ErrOutOfStock, "gone")
		})
		require.ErrorIs(t, err, entities.ErrOutOfStock)
		de, ok := entities.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "gone", de.Message)
		assert.Equal(t, int64(10), store.Account(account.ID).Balance)
	})

	t.Run("lock contention becomes a retryable storage error", func(t *testing.T) {
		t.Parallel()
		store := testhelpers.NewMemoryStore()

		_, err := WithTransaction(context.Background(), store, func(uow interfaces.UnitOfWork) (struct{}, error) {
			return struct{}{}, fmt.Errorf("failed to lock account: %w", &pgconn.PgError{Code: "40P01"})
		})
		require.ErrorIs(t, err, entities.ErrStorageUnavailable)
		de, _ := entities.AsDomainError(err)
		assert.True(t, de.Retryable)
	})

	t.Run("commit failure is a retryable storage error", func(t *testing.T) {
		t.Parallel()
		store := testhelpers.NewMemoryStore()
		account := store.AddAccount(&entities.Account{ExternalID: "ana", Balance: 10})
		store.FailNextCommit(errors.New("connection reset"))

		_, err := WithTransaction(context.Background(), store, func(uow interfaces.UnitOfWork) (struct{}, error) {
			return struct{}{}, uow.AccountRepository().UpdateBalance(context.Background(), account.ID, 99, 99)
		})
		require.ErrorIs(t, err, entities.ErrStorageUnavailable)
		de, _ := entities.AsDomainError(err)
		assert.True(t, de.Retryable)
		assert.Equal(t, int64(10), store.Account(account.ID).Balance)

		// The store is usable again after the failed commit
		_, err = WithTransaction(context.Background(), store, func(uow interfaces.UnitOfWork) (struct{}, error) {
			return struct{}{}, nil
		})
		assert.NoError(t, err)
	})
}
