package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type giftService struct {
	accountRepo interfaces.AccountRepository
	giftRepo    interfaces.GiftRepository
	ledger      interfaces.LedgerService
	delivery    itemDelivery
	audit       interfaces.AuditRecorder
	clock       interfaces.Clock
}

// NewGiftService creates the gift claim flow for one unit of work
func NewGiftService(uow interfaces.UnitOfWork, clock interfaces.Clock) interfaces.GiftService {
	return &giftService{
		accountRepo: uow.AccountRepository(),
		giftRepo:    uow.GiftRepository(),
		ledger:      NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:    newItemDelivery(uow, clock),
		audit:       uow.AuditLog(),
		clock:       clock,
	}
}

// Claim pays out a pending gift to its recipient exactly once
func (s *giftService) Claim(ctx context.Context, actor entities.Actor, giftID int64) (*entities.GiftClaimResult, error) {
	now := s.clock.Now()

	gift, err := s.giftRepo.GetByIDForUpdate(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gift: %w", err)
	}
	if gift == nil || gift.RecipientID != actor.AccountID {
		return nil, entities.ErrGiftNotFound
	}
	if gift.Status == entities.GiftStatusClaimed {
		return nil, entities.ErrGiftAlreadyClaimed
	}
	if gift.IsExpired(now) {
		return nil, entities.Detailed(entities.ErrGiftExpired, "gift %d expired on %s", gift.ID, gift.ExpiresAt.Format("2006-01-02"))
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	result := &entities.GiftClaimResult{Gift: gift}
	if gift.Amount > 0 {
		if err := s.ledger.Credit(ctx, account, gift.Amount, entities.TransactionTypeGiftClaim, map[string]any{
			"gift_id": gift.ID,
		}); err != nil {
			return nil, err
		}
		if err := s.ledger.RecordIfPeak(ctx, account); err != nil {
			return nil, err
		}
	}
	if gift.Item != nil {
		snap := *gift.Item
		snap.ExpiresAt = nil
		slot, err := s.delivery.deliver(ctx, account, snap, gift.IsHouse, entities.OriginGift)
		if err != nil {
			return nil, err
		}
		result.Slot = slot
	}

	gift.MarkClaimed(now)
	if err := s.giftRepo.Update(ctx, gift); err != nil {
		return nil, fmt.Errorf("failed to mark gift claimed: %w", err)
	}
	result.NewBalance = account.Balance

	utils.RecordAudit(s.audit, actor, gift.GrantedBy, entities.AuditGiftClaim, "claimed gift %d", gift.ID)

	log.WithFields(log.Fields{
		"accountID": account.ID,
		"giftID":    gift.ID,
		"amount":    gift.Amount,
		"hasItem":   gift.Item != nil,
	}).Info("Gift claimed")

	return result, nil
}
