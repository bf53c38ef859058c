package entities

import "time"

// LedgerEntry is one recorded balance change
type LedgerEntry struct {
	ID              int64           `db:"id"`
	AccountID       int64           `db:"account_id"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
}

// IsCredit returns true if the change added currency
func (e *LedgerEntry) IsCredit() bool {
	return e.ChangeAmount > 0
}
