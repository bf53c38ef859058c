package services

import (
	"context"
	"fmt"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/events"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"

	log "github.com/sirupsen/logrus"
)

type bankService struct {
	accountRepo    interfaces.AccountRepository
	loanRepo       interfaces.LoanRepository
	ledger         interfaces.LedgerService
	delivery       itemDelivery
	audit          interfaces.AuditRecorder
	eventPublisher interfaces.EventPublisher
	policy         entities.EconomyPolicy
	clock          interfaces.Clock
}

// NewBankService creates the loan flows for one unit of work
func NewBankService(uow interfaces.UnitOfWork, policy entities.EconomyPolicy, clock interfaces.Clock) interfaces.BankService {
	return &bankService{
		accountRepo:    uow.AccountRepository(),
		loanRepo:       uow.LoanRepository(),
		ledger:         NewLedgerService(uow.AccountRepository(), uow.LedgerRepository(), uow.EventBus()),
		delivery:       newItemDelivery(uow, clock),
		audit:          uow.AuditLog(),
		eventPublisher: uow.EventBus(),
		policy:         policy,
		clock:          clock,
	}
}

// CreditLine reports the current limit and eligibility of the actor
func (s *bankService) CreditLine(ctx context.Context, actor entities.Actor) (*entities.CreditLine, error) {
	account, err := s.accountRepo.GetByID(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	active, err := s.loanRepo.GetActiveByBorrowerForUpdate(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active loan: %w", err)
	}

	personal := s.delivery.personal(account.ID)
	skill, err := personal.FindWithEffect(ctx, entities.CategoryRankSkill, entities.EffectCreditUnlock)
	if err != nil {
		return nil, err
	}
	item, err := personal.FindWithEffect(ctx, entities.CategoryConsumable, entities.EffectCreditUnlock)
	if err != nil {
		return nil, err
	}

	line := &entities.CreditLine{
		Limit:          s.limit(account),
		MinAmount:      s.policy.LoanMinAmount,
		HasUnlockSkill: skill != nil,
		HasUnlockItem:  item != nil,
		ActiveLoan:     active,
	}
	line.Eligible = active == nil && (line.HasUnlockSkill || line.HasUnlockItem) && line.Limit >= line.MinAmount
	return line, nil
}

// IssueLoan consumes one unlock charge or copy and credits the principal
func (s *bankService) IssueLoan(ctx context.Context, actor entities.Actor, req entities.LoanRequest) (*entities.LoanResult, error) {
	account, err := s.accountRepo.GetByIDForUpdate(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	active, err := s.loanRepo.GetActiveByBorrowerForUpdate(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active loan: %w", err)
	}
	if active != nil {
		return nil, entities.Detailed(entities.ErrLoanAlreadyActive,
			"loan %d of %d PC$ is still %s", active.ID, active.AmountDue, active.EffectiveStatus(s.clock.Now()))
	}

	personal := s.delivery.personal(account.ID)
	unlock, err := findSource(ctx, personal, req.UnlockSource, entities.EffectCreditUnlock)
	if err != nil {
		return nil, err
	}
	if unlock == nil {
		if req.UnlockSource == entities.SourceSkill {
			return nil, entities.Detailed(entities.ErrNoChargesLeft, "your credit unlock skill has no charges left")
		}
		return nil, entities.ErrUnlockItemRequired
	}

	limit := s.limit(account)
	if req.Amount < s.policy.LoanMinAmount || req.Amount > limit {
		return nil, entities.Detailed(entities.ErrLoanAmountOutOfRange,
			"loan amount must be between %d and %d PC$", s.policy.LoanMinAmount, limit)
	}

	if err := personal.ConsumeOne(ctx, unlock); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	loan := &entities.Loan{
		BorrowerID: account.ID,
		Principal:  req.Amount,
		AmountDue:  amountDue(req.Amount, s.policy.LoanInterestRate),
		DueAt:      now.Add(s.policy.LoanTerm),
		Status:     entities.LoanStatusPending,
		CreatedAt:  now,
	}
	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	if err := s.ledger.Credit(ctx, account, loan.Principal, entities.TransactionTypeLoanIssued, map[string]any{
		"loan_id":    loan.ID,
		"amount_due": loan.AmountDue,
	}); err != nil {
		return nil, err
	}
	if err := s.ledger.RecordIfPeak(ctx, account); err != nil {
		return nil, err
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditLoanIssue,
		"borrowed %d PC$, %d PC$ due %s", loan.Principal, loan.AmountDue, loan.DueAt.Format(time.RFC3339))

	if err := s.eventPublisher.Publish(events.LoanIssuedEvent{
		LoanID:     loan.ID,
		BorrowerID: loan.BorrowerID,
		Principal:  loan.Principal,
		AmountDue:  loan.AmountDue,
		DueAtUnix:  loan.DueAt.Unix(),
	}); err != nil {
		log.WithError(err).Warn("Failed to stage loan issued event")
	}

	return &entities.LoanResult{Loan: loan, NewBalance: account.Balance}, nil
}

// RepayLoan pays the full amount due of a loan
func (s *bankService) RepayLoan(ctx context.Context, actor entities.Actor, loanID int64) (*entities.LoanResult, error) {
	loan, err := s.loanRepo.GetByIDForUpdate(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	if loan == nil || loan.BorrowerID != actor.AccountID {
		return nil, entities.ErrLoanNotFound
	}
	if !loan.IsActive() {
		return nil, entities.Detailed(entities.ErrNoActiveLoan, "loan %d was already paid", loan.ID)
	}

	account, err := s.accountRepo.GetByIDForUpdate(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	if err := s.ledger.Debit(ctx, account, loan.AmountDue, entities.TransactionTypeLoanRepaid, map[string]any{
		"loan_id": loan.ID,
	}); err != nil {
		return nil, err
	}

	loan.MarkPaid(s.clock.Now())
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to mark loan paid: %w", err)
	}

	utils.RecordAudit(s.audit, actor, nil, entities.AuditLoanRepay, "repaid loan %d with %d PC$", loan.ID, loan.AmountDue)

	return &entities.LoanResult{Loan: loan, NewBalance: account.Balance}, nil
}

// MarkOverdueLoans flips loans past their due date to ATRASADO
func (s *bankService) MarkOverdueLoans(ctx context.Context) (int64, error) {
	n, err := s.loanRepo.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue loans: %w", err)
	}
	return n, nil
}

func (s *bankService) limit(account *entities.Account) int64 {
	return account.Balance / s.policy.LoanLimitDivisor
}
