package services

import (
	"context"
	"fmt"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
)

type maintenanceService struct {
	inventoryRepo interfaces.InventoryRepository
	loanRepo      interfaces.LoanRepository
	clock         interfaces.Clock
}

// NewMaintenanceService creates the housekeeping operations for one unit of work
func NewMaintenanceService(uow interfaces.UnitOfWork, clock interfaces.Clock) interfaces.MaintenanceService {
	return &maintenanceService{
		inventoryRepo: uow.InventoryRepository(),
		loanRepo:      uow.LoanRepository(),
		clock:         clock,
	}
}

// SweepExpiredSlots purges slots whose expiry passed more than grace ago.
// Reads already hide expired slots; this only reclaims storage.
func (s *maintenanceService) SweepExpiredSlots(ctx context.Context, grace time.Duration) (int64, error) {
	n, err := s.inventoryRepo.DeleteExpiredBefore(ctx, s.clock.Now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired slots: %w", err)
	}
	return n, nil
}

// MarkOverdueLoans flips pending loans past their due date
func (s *maintenanceService) MarkOverdueLoans(ctx context.Context) (int64, error) {
	n, err := s.loanRepo.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue loans: %w", err)
	}
	return n, nil
}

// Sweep runs both housekeeping steps
func (s *maintenanceService) Sweep(ctx context.Context, grace time.Duration) (*entities.SweepResult, error) {
	removed, err := s.SweepExpiredSlots(ctx, grace)
	if err != nil {
		return nil, err
	}
	overdue, err := s.MarkOverdueLoans(ctx)
	if err != nil {
		return nil, err
	}
	return &entities.SweepResult{ExpiredSlotsRemoved: removed, LoansMarkedOverdue: overdue}, nil
}
