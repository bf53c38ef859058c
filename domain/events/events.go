package events

import "pcbank/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeTradeProposed  EventType = "trade_proposed"
	EventTypeTradeResolved  EventType = "trade_resolved"
	EventTypeListingSold    EventType = "listing_sold"
	EventTypeTicketRedeemed EventType = "ticket_redeemed"
	EventTypeLoanIssued     EventType = "loan_issued"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID       int64                    `json:"account_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	ChangeAmount    int64                    `json:"change_amount"`
	TransactionType entities.TransactionType `json:"transaction_type"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// TradeProposedEvent notifies the target of a new barter proposal
type TradeProposedEvent struct {
	TradeID       int64   `json:"trade_id"`
	InitiatorID   int64   `json:"initiator_id"`
	TargetID      int64   `json:"target_id"`
	FairnessRatio float64 `json:"fairness_ratio"`
}

func (e TradeProposedEvent) Type() EventType {
	return EventTypeTradeProposed
}

// TradeResolvedEvent notifies both parties that a trade reached a terminal state
type TradeResolvedEvent struct {
	TradeID     int64                `json:"trade_id"`
	InitiatorID int64                `json:"initiator_id"`
	TargetID    int64                `json:"target_id"`
	Status      entities.TradeStatus `json:"status"`
}

func (e TradeResolvedEvent) Type() EventType {
	return EventTypeTradeResolved
}

// ListingSoldEvent notifies a seller that their listing sold
type ListingSoldEvent struct {
	ListingID int64  `json:"listing_id"`
	SellerID  int64  `json:"seller_id"`
	BuyerID   int64  `json:"buyer_id"`
	ItemName  string `json:"item_name"`
	Proceeds  int64  `json:"proceeds"`
}

func (e ListingSoldEvent) Type() EventType {
	return EventTypeListingSold
}

// TicketRedeemedEvent notifies a holder that staff validated their ticket
type TicketRedeemedEvent struct {
	TicketID    int64  `json:"ticket_id"`
	AccountID   int64  `json:"account_id"`
	ValidatedBy int64  `json:"validated_by"`
	ItemName    string `json:"item_name"`
}

func (e TicketRedeemedEvent) Type() EventType {
	return EventTypeTicketRedeemed
}

// LoanIssuedEvent records a new loan for downstream reminders
type LoanIssuedEvent struct {
	LoanID     int64 `json:"loan_id"`
	BorrowerID int64 `json:"borrower_id"`
	Principal  int64 `json:"principal"`
	AmountDue  int64 `json:"amount_due"`
	DueAtUnix  int64 `json:"due_at_unix"`
}

func (e LoanIssuedEvent) Type() EventType {
	return EventTypeLoanIssued
}
