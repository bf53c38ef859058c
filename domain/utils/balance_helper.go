package utils

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"
	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange appends a ledger entry and stages a balance change event.
// Every balance mutation in the engine goes through it.
func RecordBalanceChange(ctx context.Context, ledgerRepo interfaces.LedgerRepository, eventPublisher interfaces.EventPublisher, entry *entities.LedgerEntry) error {
	if err := ledgerRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		AccountID:       entry.AccountID,
		OldBalance:      entry.BalanceBefore,
		NewBalance:      entry.BalanceAfter,
		ChangeAmount:    entry.ChangeAmount,
		TransactionType: entry.TransactionType,
	}
	log.WithFields(log.Fields{
		"accountID":       event.AccountID,
		"oldBalance":      event.OldBalance,
		"newBalance":      event.NewBalance,
		"transactionType": event.TransactionType,
		"changeAmount":    event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}

// RecordAudit stages an audit entry for the acting account
func RecordAudit(recorder interfaces.AuditRecorder, actor entities.Actor, target *int64, action entities.AuditAction, format string, args ...any) {
	recorder.Record(&entities.AuditEntry{
		ActorID:       actor.AccountID,
		TargetID:      target,
		Action:        action,
		Detail:        fmt.Sprintf(format, args...),
		OriginAddress: actor.OriginAddress,
	})
}
