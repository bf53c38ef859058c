package services

import (
	"context"
	"fmt"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"
)

type ledgerService struct {
	accountRepo    interfaces.AccountRepository
	ledgerRepo     interfaces.LedgerRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates the balance mutation primitives for one unit of work
func NewLedgerService(
	accountRepo interfaces.AccountRepository,
	ledgerRepo interfaces.LedgerRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		eventPublisher: eventPublisher,
	}
}

// Credit adds amount to the account balance
func (s *ledgerService) Credit(ctx context.Context, account *entities.Account, amount int64, txType entities.TransactionType, metadata map[string]any) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}
	return s.apply(ctx, account, amount, txType, metadata)
}

// Debit removes amount from the account balance
func (s *ledgerService) Debit(ctx context.Context, account *entities.Account, amount int64, txType entities.TransactionType, metadata map[string]any) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must not be negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}
	if !account.CanAfford(amount) {
		return entities.Detailed(entities.ErrInsufficientFunds,
			"%s needs %d PC$ but has %d PC$", account.DisplayName, amount, account.Balance)
	}
	return s.apply(ctx, account, -amount, txType, metadata)
}

// RecordIfPeak ratchets the lifetime maximum when the balance exceeds it
func (s *ledgerService) RecordIfPeak(ctx context.Context, account *entities.Account) error {
	if account.Balance <= account.MaxBalance {
		return nil
	}
	if err := s.accountRepo.UpdateBalance(ctx, account.ID, account.Balance, account.Balance); err != nil {
		return fmt.Errorf("failed to record peak balance: %w", err)
	}
	account.MaxBalance = account.Balance
	return nil
}

func (s *ledgerService) apply(ctx context.Context, account *entities.Account, delta int64, txType entities.TransactionType, metadata map[string]any) error {
	before := account.Balance
	after := before + delta

	if err := s.accountRepo.UpdateBalance(ctx, account.ID, after, account.MaxBalance); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	account.Balance = after

	entry := &entities.LedgerEntry{
		AccountID:       account.ID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    delta,
		TransactionType: txType,
		Metadata:        metadata,
	}
	return utils.RecordBalanceChange(ctx, s.ledgerRepo, s.eventPublisher, entry)
}
