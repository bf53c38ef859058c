package entities

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusUsed    TicketStatus = "USED"
)

// TicketCodeAlphabet leaves out characters that are easy to confuse when typed
const TicketCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Ticket is a claim-check redeemable in person
type Ticket struct {
	ID          int64        `db:"id" json:"id"`
	Code        string       `db:"code" json:"code"`
	AccountID   int64        `db:"account_id" json:"account_id"`
	ClassroomID *int64       `db:"classroom_id" json:"classroom_id"`
	Item        ItemSnapshot `db:"item" json:"item"`
	Status      TicketStatus `db:"status" json:"status"`
	ValidatedBy *int64       `db:"validated_by" json:"validated_by"`
	UsedAt      *time.Time   `db:"used_at" json:"used_at"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// IsPending reports whether the ticket can still be validated or cancelled
func (t *Ticket) IsPending() bool {
	return t.Status == TicketStatusPending
}

// IsRoomTicket reports whether the item came from a classroom chest
func (t *Ticket) IsRoomTicket() bool {
	return t.ClassroomID != nil
}

// MarkUsed records the redemption
func (t *Ticket) MarkUsed(validatorID int64, at time.Time) {
	t.Status = TicketStatusUsed
	t.ValidatedBy = &validatorID
	t.UsedAt = &at
}

// GenerateTicketCode returns a random code from TicketCodeAlphabet
func GenerateTicketCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid ticket code length %d", length)
	}
	limit := big.NewInt(int64(len(TicketCodeAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate ticket code: %w", err)
		}
		b.WriteByte(TicketCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeTicketCode uppercases a typed code and strips separators
func NormalizeTicketCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.NewReplacer("-", "", " ", "").Replace(code)
}
