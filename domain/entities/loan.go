package entities

import "time"

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending LoanStatus = "PENDING"
	LoanStatusOverdue LoanStatus = "ATRASADO"
	LoanStatusPaid    LoanStatus = "PAGO"
)

// Loan is a short-term credit line drawn by a borrower
type Loan struct {
	ID         int64      `db:"id" json:"id"`
	BorrowerID int64      `db:"borrower_id" json:"borrower_id"`
	Principal  int64      `db:"principal" json:"principal"`
	AmountDue  int64      `db:"amount_due" json:"amount_due"`
	DueAt      time.Time  `db:"due_at" json:"due_at"`
	Status     LoanStatus `db:"status" json:"status"`
	PaidAt     *time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// IsActive reports whether the loan still blocks a new one
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusPending || l.Status == LoanStatusOverdue
}

// EffectiveStatus reports overdue loans even before the sweeper marks them
func (l *Loan) EffectiveStatus(now time.Time) LoanStatus {
	if l.Status == LoanStatusPending && now.After(l.DueAt) {
		return LoanStatusOverdue
	}
	return l.Status
}

// MarkPaid records the repayment
func (l *Loan) MarkPaid(at time.Time) {
	l.Status = LoanStatusPaid
	l.PaidAt = &at
}
