package services

import (
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceService_Sweep(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	holder := f.student("ana", 0)
	slotExpiring := func(at time.Time) *entities.InventorySlot {
		return f.store.AddSlot(&entities.InventorySlot{
			Owner:      entities.PersonalContainerRef(holder.ID),
			Name:       "Pass",
			Category:   entities.CategoryConsumable,
			Quantity:   1,
			AcquiredAt: fixtureNow.Add(-30 * 24 * time.Hour),
			ExpiresAt:  &at,
		})
	}
	longGone := slotExpiring(fixtureNow.Add(-72 * time.Hour))
	justExpired := slotExpiring(fixtureNow.Add(-time.Hour))

	overdue := f.store.AddLoan(&entities.Loan{BorrowerID: holder.ID, Principal: 100, AmountDue: 115, DueAt: fixtureNow.Add(-time.Minute), Status: entities.LoanStatusPending})
	current := f.store.AddLoan(&entities.Loan{BorrowerID: holder.ID, Principal: 100, AmountDue: 115, DueAt: fixtureNow.Add(time.Hour), Status: entities.LoanStatusPending})

	var result *entities.SweepResult
	require.NoError(t, f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewMaintenanceService(uow, f.clock).Sweep(f.ctx, 24*time.Hour)
		return err
	}))

	assert.Equal(t, int64(1), result.ExpiredSlotsRemoved)
	assert.Equal(t, int64(1), result.LoansMarkedOverdue)

	remaining := f.store.Snapshot().Slots
	assert.NotContains(t, remaining, longGone.ID)
	assert.Contains(t, remaining, justExpired.ID, "expired slots inside the grace window are kept")
	assert.Equal(t, entities.LoanStatusOverdue, f.store.Loan(overdue.ID).Status)
	assert.Equal(t, entities.LoanStatusPending, f.store.Loan(current.ID).Status)
}
