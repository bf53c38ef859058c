package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, borrower_id, principal, amount_due, due_at, status, paid_at, created_at`

// activeLoanIndex backs the one-active-loan-per-borrower rule
const activeLoanIndex = "loans_one_active_per_borrower"

type loanRepository struct {
	q Queryable
}

// NewLoanRepository creates a loan repository on the pool
func NewLoanRepository(db *database.DB) interfaces.LoanRepository {
	return &loanRepository{q: db.Pool}
}

func newLoanRepository(tx Queryable) interfaces.LoanRepository {
	return &loanRepository{q: tx}
}

func (r *loanRepository) getOne(ctx context.Context, query string, arg any) (*entities.Loan, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	loan, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[entities.Loan])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return loan, err
}

// Create inserts a loan and sets its ID. A second active loan for the same
// borrower fails with ErrLoanAlreadyActive.
func (r *loanRepository) Create(ctx context.Context, loan *entities.Loan) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO loans (borrower_id, principal, amount_due, due_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		loan.BorrowerID, loan.Principal, loan.AmountDue, loan.DueAt, loan.Status,
	).Scan(&loan.ID, &loan.CreatedAt)
	if database.IsUniqueViolation(err, activeLoanIndex) {
		return entities.Detailed(entities.ErrLoanAlreadyActive, "account %d already has an active loan", loan.BorrowerID)
	}
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves and locks a loan
func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Loan, error) {
	loan, err := r.getOne(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock loan %d: %w", id, err)
	}
	return loan, nil
}

// GetActiveByBorrowerForUpdate returns the PENDING or ATRASADO loan of a borrower
func (r *loanRepository) GetActiveByBorrowerForUpdate(ctx context.Context, borrowerID int64) (*entities.Loan, error) {
	loan, err := r.getOne(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE borrower_id = $1 AND status IN ('PENDING', 'ATRASADO')
		FOR UPDATE`, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock active loan of account %d: %w", borrowerID, err)
	}
	return loan, nil
}

// Update writes the status and payment time
func (r *loanRepository) Update(ctx context.Context, loan *entities.Loan) error {
	_, err := r.q.Exec(ctx, `
		UPDATE loans
		SET status = $2, paid_at = $3
		WHERE id = $1`, loan.ID, loan.Status, loan.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to update loan %d: %w", loan.ID, err)
	}
	return nil
}

// MarkOverdue flips every PENDING loan due before now to ATRASADO
func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE loans
		SET status = 'ATRASADO'
		WHERE status = 'PENDING' AND due_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue loans: %w", err)
	}
	return tag.RowsAffected(), nil
}
