package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/testhelpers"
	"pcbank/domain/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepCounter map[string]int64

func (c sweepCounter) RecordSweep(kind string, count int64) {
	c[kind] += count
}

func TestMaintenanceWorker_RunOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	store := testhelpers.NewMemoryStore()
	account := store.AddAccount(&entities.Account{ExternalID: "ana", Role: entities.RoleStudent})
	expired := now.Add(-48 * time.Hour)
	store.AddSlot(&entities.InventorySlot{
		Owner:      entities.PersonalContainerRef(account.ID),
		Name:       "Pass",
		Category:   entities.CategoryConsumable,
		Quantity:   1,
		AcquiredAt: now.Add(-72 * time.Hour),
		ExpiresAt:  &expired,
	})
	loan := store.AddLoan(&entities.Loan{BorrowerID: account.ID, Principal: 100, AmountDue: 115, DueAt: now.Add(-time.Hour), Status: entities.LoanStatusPending})

	counter := sweepCounter{}
	worker := NewMaintenanceWorker(store, &utils.FixedClock{T: now}, 24*time.Hour, counter)

	result, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &entities.SweepResult{ExpiredSlotsRemoved: 1, LoansMarkedOverdue: 1}, result)
	assert.Equal(t, sweepCounter{"expired_slots": 1, "overdue_loans": 1}, counter)
	assert.Empty(t, store.Snapshot().Slots)
	assert.Equal(t, entities.LoanStatusOverdue, store.Loan(loan.ID).Status)
}

func TestMaintenanceWorker_FailedStepDoesNotBlockTheOther(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	store := testhelpers.NewMemoryStore()
	account := store.AddAccount(&entities.Account{ExternalID: "ana", Role: entities.RoleStudent})
	loan := store.AddLoan(&entities.Loan{BorrowerID: account.ID, Principal: 100, AmountDue: 115, DueAt: now.Add(-time.Hour), Status: entities.LoanStatusPending})
	store.FailNextCommit(errors.New("connection reset"))

	worker := NewMaintenanceWorker(store, &utils.FixedClock{T: now}, time.Hour, nil)

	result, err := worker.RunOnce(context.Background())
	require.ErrorIs(t, err, entities.ErrStorageUnavailable)
	assert.Equal(t, int64(1), result.LoansMarkedOverdue)
	assert.Equal(t, entities.LoanStatusOverdue, store.Loan(loan.ID).Status)
}
