package application

import (
	"context"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/services"

	log "github.com/sirupsen/logrus"
)

// SweepObserver is told how many rows each sweep step touched
type SweepObserver interface {
	RecordSweep(kind string, count int64)
}

// MaintenanceWorker runs the periodic housekeeping passes
type MaintenanceWorker struct {
	uowFactory interfaces.UnitOfWorkFactory
	clock      interfaces.Clock
	grace      time.Duration
	observer   SweepObserver
}

// NewMaintenanceWorker creates a new maintenance worker
func NewMaintenanceWorker(uowFactory interfaces.UnitOfWorkFactory, clock interfaces.Clock, grace time.Duration, observer SweepObserver) *MaintenanceWorker {
	return &MaintenanceWorker{
		uowFactory: uowFactory,
		clock:      clock,
		grace:      grace,
		observer:   observer,
	}
}

// RunOnce sweeps expired slots and marks overdue loans, each step in its own
// transaction. A failed step does not prevent the other.
func (w *MaintenanceWorker) RunOnce(ctx context.Context) (*entities.SweepResult, error) {
	result := &entities.SweepResult{}

	removed, sweepErr := WithTransaction(ctx, w.uowFactory, func(uow interfaces.UnitOfWork) (int64, error) {
		return services.NewMaintenanceService(uow, w.clock).SweepExpiredSlots(ctx, w.grace)
	})
	if sweepErr != nil {
		log.WithError(sweepErr).Error("Failed to sweep expired slots")
	} else {
		result.ExpiredSlotsRemoved = removed
		w.record("expired_slots", removed)
	}

	overdue, loanErr := WithTransaction(ctx, w.uowFactory, func(uow interfaces.UnitOfWork) (int64, error) {
		return services.NewMaintenanceService(uow, w.clock).MarkOverdueLoans(ctx)
	})
	if loanErr != nil {
		log.WithError(loanErr).Error("Failed to mark overdue loans")
	} else {
		result.LoansMarkedOverdue = overdue
		w.record("overdue_loans", overdue)
	}

	log.WithFields(log.Fields{
		"expired_slots_removed": result.ExpiredSlotsRemoved,
		"loans_marked_overdue":  result.LoansMarkedOverdue,
	}).Info("Completed maintenance sweep")

	return result, firstError(sweepErr, loanErr)
}

func (w *MaintenanceWorker) record(kind string, count int64) {
	if w.observer != nil {
		w.observer.RecordSweep(kind, count)
	}
}

// Start runs RunOnce every interval until ctx is done or the returned stop
// function is called
func (w *MaintenanceWorker) Start(ctx context.Context, interval time.Duration) func() {
	stopChan := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		log.WithField("interval", interval).Info("Maintenance worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Maintenance worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Maintenance worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				_, _ = w.RunOnce(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}
