package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type transferService struct {
	accountRepo interfaces.AccountRepository
	ledger      interfaces.LedgerService
	delivery    itemDelivery
	audit       interfaces.AuditRecorder
	policy      entities.EconomyPolicy
	clock       interfaces.Clock
}

// NewTransferService creates the peer transfer flow for one unit of work
func NewTransferService(uow interfaces.UnitOfWork, policy entities.EconomyPolicy, clock interfaces.Clock) interfaces.TransferService {
	return &transferService{
		accountRepo: uow.AccountRepository(),
		ledger:      NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:    newItemDelivery(uow, clock),
		audit:       uow.AuditLog(),
		policy:      policy,
		clock:       clock,
	}
}

// Transfer moves currency to another account. The credential was verified by
// the caller before the transaction opened.
func (s *transferService) Transfer(ctx context.Context, actor entities.Actor, req entities.TransferRequest) (*entities.TransferResult, error) {
	recipient, err := s.accountRepo.GetByExternalID(ctx, req.RecipientExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if recipient == nil {
		return nil, entities.Detailed(entities.ErrRecipientNotFound, "no account named %q", req.RecipientExternalID)
	}
	if recipient.ID == actor.AccountID {
		return nil, entities.ErrSelfTransfer
	}

	// Lock both rows in id order so balances are read under the lock
	sender, recipient, err := lockPair(ctx, s.accountRepo, actor.AccountID, recipient.ID)
	if err != nil {
		return nil, err
	}

	fee := s.policy.TransferFee
	var exemption *entities.InventorySlot
	var exemptionFrom interfaces.InventoryContainer
	if req.RequestExemption {
		exemptionFrom = s.delivery.personal(sender.ID)
		exemption, err = findSource(ctx, exemptionFrom, req.ExemptionSource, entities.EffectTransferFeeExempt)
		if err != nil {
			return nil, err
		}
		if exemption == nil {
			return nil, entities.Detailed(entities.ErrExemptionUnavailable, "you have no fee exemption to use")
		}
		fee = 0
	}

	if !sender.CanAfford(req.Amount + fee) {
		return nil, entities.Detailed(entities.ErrInsufficientFunds,
			"transfer of %d PC$ plus %d PC$ fee exceeds your balance of %d PC$", req.Amount, fee, sender.Balance)
	}

	year := s.clock.Now().Year()
	limit := s.policy.AnnualInflowCap(recipient.Turma)
	headroom := max(limit-recipient.InflowForYear(year), 0)
	if req.Amount > headroom {
		return nil, entities.Detailed(entities.ErrAnnualLimitExceeded,
			"%s can receive only %d PC$ more this year", recipient.DisplayName, headroom)
	}

	if exemption != nil {
		if err := exemptionFrom.ConsumeOne(ctx, exemption); err != nil {
			return nil, err
		}
	}

	meta := map[string]any{
		"sender_id":    sender.ID,
		"recipient_id": recipient.ID,
		"amount":       req.Amount,
		"fee":          fee,
	}
	if err := s.ledger.Debit(ctx, sender, req.Amount+fee, entities.TransactionTypeTransferOut, meta); err != nil {
		return nil, err
	}
	if err := s.ledger.Credit(ctx, recipient, req.Amount, entities.TransactionTypeTransferIn, meta); err != nil {
		return nil, err
	}
	if err := s.ledger.RecordIfPeak(ctx, recipient); err != nil {
		return nil, err
	}

	recipient.AddInflow(req.Amount, year)
	if err := s.accountRepo.UpdateInflow(ctx, recipient.ID, recipient.ReceivedThisYear, recipient.ReceivedYear); err != nil {
		return nil, fmt.Errorf("failed to update recipient inflow: %w", err)
	}

	utils.RecordAudit(s.audit, actor, &recipient.ID, entities.AuditTransferSent,
		"sent %d PC$ to %s (fee %d PC$)", req.Amount, recipient.DisplayName, fee)
	utils.RecordAudit(s.audit, entities.Actor{AccountID: recipient.ID, OriginAddress: actor.OriginAddress}, &sender.ID,
		entities.AuditTransferReceived, "received %d PC$ from %s", req.Amount, sender.DisplayName)

	log.WithFields(log.Fields{
		"senderID":    sender.ID,
		"recipientID": recipient.ID,
		"amount":      req.Amount,
		"fee":         fee,
	}).Info("Transfer completed")

	return &entities.TransferResult{
		Amount:        req.Amount,
		Fee:           fee,
		FeeWaived:     exemption != nil,
		NewBalance:    sender.Balance,
		RecipientName: recipient.DisplayName,
	}, nil
}

// findSource picks a slot carrying effect: a rank-skill charge, a physical
// copy, or with SourceAuto the skill first and the copy second.
func findSource(ctx context.Context, container interfaces.InventoryContainer, kind entities.SourceKind, effect string) (*entities.InventorySlot, error) {
	order := []entities.SlotCategory{entities.CategoryRankSkill, entities.CategoryConsumable}
	switch kind {
	case entities.SourceSkill:
		order = order[:1]
	case entities.SourceItem:
		order = order[1:]
	}
	for _, category := range order {
		slot, err := container.FindWithEffect(ctx, category, effect)
		if err != nil {
			return nil, err
		}
		if slot != nil {
			return slot, nil
		}
	}
	return nil, nil
}
