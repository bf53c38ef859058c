package services

import (
	"testing"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueLoan(f *economyFixture, actor entities.Actor, req entities.LoanRequest) (*entities.LoanResult, error) {
	var result *entities.LoanResult
	err := f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewBankService(uow, f.policy, f.clock).IssueLoan(f.ctx, actor, req)
		return err
	})
	return result, err
}

func repayLoan(f *economyFixture, actor entities.Actor, loanID int64) (*entities.LoanResult, error) {
	var result *entities.LoanResult
	err := f.exec(func(uow interfaces.UnitOfWork) error {
		var err error
		result, err = NewBankService(uow, f.policy, f.clock).RepayLoan(f.ctx, actor, loanID)
		return err
	})
	return result, err
}

func (f *economyFixture) unlockItems(a *entities.Account, skillCharges, copies int) (skill, item *entities.CatalogItem) {
	skill = f.catalogItem("Banker", 0, entities.CategoryRankSkill)
	skill.Effect = entities.EffectCreditUnlock
	if skillCharges >= 0 {
		f.give(a, skill, skillCharges)
	}
	item = f.catalogItem("Credit card", 30, entities.CategoryConsumable)
	item.Effect = entities.EffectCreditUnlock
	if copies > 0 {
		f.give(a, item, copies)
	}
	return skill, item
}

func TestBankService_CreditLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		balance      int64
		skillCharges int
		copies       int
		wantLimit    int64
		wantEligible bool
	}{
		{"limit is a third of the balance", 900, 1, 0, 300, true},
		{"limit rounds down", 1000, 0, 1, 333, true},
		{"no unlock", 900, -1, 0, 300, false},
		{"skill without charges", 900, 0, 0, 300, false},
		{"limit below minimum", 299, 1, 1, 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newEconomyFixture(t)
			borrower := f.student("ana", tt.balance)
			f.unlockItems(borrower, tt.skillCharges, tt.copies)

			var line *entities.CreditLine
			require.NoError(t, f.exec(func(uow interfaces.UnitOfWork) error {
				var err error
				line, err = NewBankService(uow, f.policy, f.clock).CreditLine(f.ctx, f.actor(borrower))
				return err
			}))

			assert.Equal(t, tt.wantLimit, line.Limit)
			assert.Equal(t, f.policy.LoanMinAmount, line.MinAmount)
			assert.Equal(t, tt.wantEligible, line.Eligible)
			assert.Nil(t, line.ActiveLoan)
		})
	}
}

func TestBankService_IssueAndRepay(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	borrower := f.student("ana", 900)
	skill, _ := f.unlockItems(borrower, 2, 0)

	result, err := issueLoan(f, f.actor(borrower), entities.LoanRequest{Amount: 300})
	require.NoError(t, err)

	loan := result.Loan
	assert.Equal(t, int64(300), loan.Principal)
	assert.Equal(t, int64(345), loan.AmountDue)
	assert.Equal(t, fixtureNow.Add(f.policy.LoanTerm), loan.DueAt)
	assert.Equal(t, entities.LoanStatusPending, loan.Status)
	assert.Equal(t, int64(1200), result.NewBalance)
	assert.Equal(t, int64(1200), f.store.Account(borrower.ID).MaxBalance)
	assert.Equal(t, 1, f.unitCount(skill.ID), "one unlock charge consumed")

	f.requireUnchangedOnError(entities.ErrLoanAlreadyActive, func(uow interfaces.UnitOfWork) error {
		_, err := NewBankService(uow, f.policy, f.clock).IssueLoan(f.ctx, f.actor(borrower), entities.LoanRequest{Amount: 100})
		return err
	})

	repaid, err := repayLoan(f, f.actor(borrower), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(855), repaid.NewBalance)
	assert.Equal(t, entities.LoanStatusPaid, f.store.Loan(loan.ID).Status)
	assert.Equal(t, fixtureNow, *f.store.Loan(loan.ID).PaidAt)

	f.requireUnchangedOnError(entities.ErrNoActiveLoan, func(uow interfaces.UnitOfWork) error {
		_, err := NewBankService(uow, f.policy, f.clock).RepayLoan(f.ctx, f.actor(borrower), loan.ID)
		return err
	})
}

func TestBankService_IssueRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		skillCharges int
		copies       int
		req          entities.LoanRequest
		wantErr      error
	}{
		{"no unlock item", -1, 0, entities.LoanRequest{Amount: 200}, entities.ErrUnlockItemRequired},
		{"skill requested without charges", 0, 1, entities.LoanRequest{Amount: 200, UnlockSource: entities.SourceSkill}, entities.ErrNoChargesLeft},
		{"item requested but only a skill held", 1, 0, entities.LoanRequest{Amount: 200, UnlockSource: entities.SourceItem}, entities.ErrUnlockItemRequired},
		{"below the minimum", 1, 0, entities.LoanRequest{Amount: 99}, entities.ErrLoanAmountOutOfRange},
		{"above the limit", 1, 0, entities.LoanRequest{Amount: 301}, entities.ErrLoanAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newEconomyFixture(t)
			borrower := f.student("ana", 900)
			f.unlockItems(borrower, tt.skillCharges, tt.copies)

			f.requireUnchangedOnError(tt.wantErr, func(uow interfaces.UnitOfWork) error {
				_, err := NewBankService(uow, f.policy, f.clock).IssueLoan(f.ctx, f.actor(borrower), tt.req)
				return err
			})
		})
	}
}

func TestBankService_IssueWithItemConsumesCopy(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	borrower := f.student("ana", 600)
	skill, item := f.unlockItems(borrower, 1, 1)

	_, err := issueLoan(f, f.actor(borrower), entities.LoanRequest{Amount: 150, UnlockSource: entities.SourceItem})
	require.NoError(t, err)
	assert.Equal(t, 0, f.unitCount(item.ID))
	assert.Equal(t, 1, f.unitCount(skill.ID))
}

func TestBankService_RepayRejections(t *testing.T) {
	t.Parallel()
	f := newEconomyFixture(t)

	borrower := f.student("ana", 100)
	other := f.student("bia", 1000)
	loan := f.store.AddLoan(&entities.Loan{
		BorrowerID: borrower.ID,
		Principal:  200,
		AmountDue:  230,
		DueAt:      fixtureNow.Add(-time.Hour),
		Status:     entities.LoanStatusPending,
	})

	f.requireUnchangedOnError(entities.ErrLoanNotFound, func(uow interfaces.UnitOfWork) error {
		_, err := NewBankService(uow, f.policy, f.clock).RepayLoan(f.ctx, f.actor(other), loan.ID)
		return err
	})
	f.requireUnchangedOnError(entities.ErrInsufficientFunds, func(uow interfaces.UnitOfWork) error {
		_, err := NewBankService(uow, f.policy, f.clock).RepayLoan(f.ctx, f.actor(borrower), loan.ID)
		return err
	})

	// Overdue loans stay repayable
	require.NoError(t, f.exec(func(uow interfaces.UnitOfWork) error {
		_, err := NewBankService(uow, f.policy, f.clock).MarkOverdueLoans(f.ctx)
		return err
	}))
	assert.Equal(t, entities.LoanStatusOverdue, f.store.Loan(loan.ID).Status)

	_, err := transfer(f, f.actor(other), entities.TransferRequest{RecipientExternalID: "ana", Amount: 200})
	require.NoError(t, err)
	repaid, err := repayLoan(f, f.actor(borrower), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), repaid.NewBalance)
}
