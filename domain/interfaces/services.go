package interfaces

import (
	"context"
	"time"

	"pcbank/domain/entities"
)

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// RandomSource supplies uniform draws in [0, 1)
type RandomSource interface {
	Float64() float64
}

// CredentialVerifier re-checks a sender's credential before a transfer.
// It returns entities.ErrInvalidCredential on mismatch.
type CredentialVerifier interface {
	Verify(ctx context.Context, accountID int64, credential string) error
}

// AuditRecorder stages audit entries inside a unit of work
type AuditRecorder interface {
	Record(entry *entities.AuditEntry)
}

// AuditSink receives committed audit entries for asynchronous persistence
type AuditSink interface {
	Enqueue(entries ...*entities.AuditEntry)
}

// LedgerService defines the balance mutation primitives
type LedgerService interface {
	// Credit adds amount to the account
	Credit(ctx context.Context, account *entities.Account, amount int64, txType entities.TransactionType, metadata map[string]any) error

	// Debit removes amount, failing with ErrInsufficientFunds below zero
	Debit(ctx context.Context, account *entities.Account, amount int64, txType entities.TransactionType, metadata map[string]any) error

	// RecordIfPeak ratchets the lifetime maximum balance
	RecordIfPeak(ctx context.Context, account *entities.Account) error
}

// InventoryContainer is one slot collection, personal or room
type InventoryContainer interface {
	// Ref identifies the container
	Ref() entities.ContainerRef

	// Active returns the unexpired slots in id order
	Active(ctx context.Context) ([]*entities.InventorySlot, error)

	// FindByReference finds an active slot by slot id or catalog item id
	FindByReference(ctx context.Context, ref int64) (*entities.InventorySlot, error)

	// FindOwnedBy finds an active slot by reference attributed to the acquirer
	FindOwnedBy(ctx context.Context, ref int64, acquirerID int64) (*entities.InventorySlot, error)

	// FindByID finds an active slot by its own id only. A non-nil acquirerID
	// also requires the slot to be attributed to that account.
	FindByID(ctx context.Context, slotID int64, acquirerID *int64) (*entities.InventorySlot, error)

	// FindWithEffect finds the first active slot of a category carrying an effect
	FindWithEffect(ctx context.Context, category entities.SlotCategory, effect string) (*entities.InventorySlot, error)

	// FindStack finds an active slot the snapshot can be re-stacked onto
	FindStack(ctx context.Context, snapshot entities.ItemSnapshot) (*entities.InventorySlot, error)

	// DecrementOrRemove removes one unit of quantity, deleting the slot at zero
	DecrementOrRemove(ctx context.Context, slot *entities.InventorySlot) error

	// ConsumeCharge removes one use, failing with ErrNoChargesLeft at zero
	ConsumeCharge(ctx context.Context, slot *entities.InventorySlot) error

	// ConsumeOne dispatches to ConsumeCharge or DecrementOrRemove by category
	ConsumeOne(ctx context.Context, slot *entities.InventorySlot) error

	// Append stores a new slot in this container
	Append(ctx context.Context, slot *entities.InventorySlot) error

	// Restack adds one unit or charge to an existing slot
	Restack(ctx context.Context, slot *entities.InventorySlot) error
}

// StoreService defines the catalog purchase flows
type StoreService interface {
	// Purchase buys one unit of a catalog item for the actor
	Purchase(ctx context.Context, actor entities.Actor, itemID int64) (*entities.PurchaseResult, error)

	// CollectivePurchase buys a cart for the actor's classroom, splitting the cost
	CollectivePurchase(ctx context.Context, actor entities.Actor, cart []entities.CartLine) (*entities.CollectivePurchaseResult, error)
}

// MarketplaceService defines the player-to-player listing flows
type MarketplaceService interface {
	List(ctx context.Context, actor entities.Actor, slotRef int64, price int64) (*entities.MarketListing, error)
	Buy(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketSaleResult, error)
	Cancel(ctx context.Context, actor entities.Actor, listingID int64) (*entities.MarketListing, error)
}

// TransferService defines direct currency transfers between accounts
type TransferService interface {
	Transfer(ctx context.Context, actor entities.Actor, req entities.TransferRequest) (*entities.TransferResult, error)
}

// TradeService defines the barter flows
type TradeService interface {
	Propose(ctx context.Context, actor entities.Actor, req entities.ProposeTradeRequest) (*entities.Trade, error)
	Accept(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)
	Cancel(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)
	Reject(ctx context.Context, actor entities.Actor, tradeID int64) (*entities.Trade, error)
}

// BankService defines the loan facility
type BankService interface {
	CreditLine(ctx context.Context, actor entities.Actor) (*entities.CreditLine, error)
	IssueLoan(ctx context.Context, actor entities.Actor, req entities.LoanRequest) (*entities.LoanResult, error)
	RepayLoan(ctx context.Context, actor entities.Actor, loanID int64) (*entities.LoanResult, error)
	MarkOverdueLoans(ctx context.Context) (int64, error)
}

// RouletteService defines the gacha spin
type RouletteService interface {
	Spin(ctx context.Context, actor entities.Actor, req entities.SpinRequest) (*entities.SpinResult, error)
}

// TicketService defines the redemption ticket flows
type TicketService interface {
	// Issue consumes one unit of a slot into a ticket or an active buff
	Issue(ctx context.Context, actor entities.Actor, slotRef int64) (*entities.TicketIssueResult, error)

	// Validate redeems a ticket by code; staff only
	Validate(ctx context.Context, actor entities.Actor, code string) (*entities.Ticket, error)

	// Cancel deletes a pending ticket and restores its item
	Cancel(ctx context.Context, actor entities.Actor, ticketID int64) (*entities.InventorySlot, error)
}

// GiftService defines the gift claim flow
type GiftService interface {
	Claim(ctx context.Context, actor entities.Actor, giftID int64) (*entities.GiftClaimResult, error)
}

// MaintenanceService defines periodic housekeeping
type MaintenanceService interface {
	SweepExpiredSlots(ctx context.Context, grace time.Duration) (int64, error)
	MarkOverdueLoans(ctx context.Context) (int64, error)
	Sweep(ctx context.Context, grace time.Duration) (*entities.SweepResult, error)
}
