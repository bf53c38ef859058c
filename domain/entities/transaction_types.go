package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	// Store
	TransactionTypeStorePurchase      TransactionType = "store_purchase"
	TransactionTypeCollectivePurchase TransactionType = "collective_purchase"

	// Marketplace
	TransactionTypeMarketBuy  TransactionType = "market_buy"
	TransactionTypeMarketSale TransactionType = "market_sale"

	// Transfers and trades
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTradeOut    TransactionType = "trade_out"
	TransactionTypeTradeIn     TransactionType = "trade_in"

	// Bank
	TransactionTypeLoanIssued TransactionType = "loan_issued"
	TransactionTypeLoanRepaid TransactionType = "loan_repaid"

	// Chance and gifts
	TransactionTypeRouletteSpin  TransactionType = "roulette_spin"
	TransactionTypeRoulettePrize TransactionType = "roulette_prize"
	TransactionTypeGiftClaim     TransactionType = "gift_claim"
)

// IsTransferType returns true if the change came from a direct transfer
func (tt TransactionType) IsTransferType() bool {
	return tt == TransactionTypeTransferIn || tt == TransactionTypeTransferOut
}

// AuditAction tags an audit log entry
type AuditAction string

const (
	AuditStorePurchase      AuditAction = "STORE_PURCHASE"
	AuditCollectivePurchase AuditAction = "COLLECTIVE_PURCHASE"
	AuditMarketList         AuditAction = "MARKET_LIST"
	AuditMarketBuy          AuditAction = "MARKET_BUY"
	AuditMarketSale         AuditAction = "MARKET_SALE"
	AuditMarketCancel       AuditAction = "MARKET_CANCEL"
	AuditTransferSent       AuditAction = "TRANSFER_SENT"
	AuditTransferReceived   AuditAction = "TRANSFER_RECEIVED"
	AuditTradePropose       AuditAction = "TRADE_PROPOSE"
	AuditTradeAccept        AuditAction = "TRADE_ACCEPT"
	AuditTradeCancel        AuditAction = "TRADE_CANCEL"
	AuditTradeReject        AuditAction = "TRADE_REJECT"
	AuditLoanIssue          AuditAction = "LOAN_ISSUE"
	AuditLoanRepay          AuditAction = "LOAN_REPAY"
	AuditRouletteSpin       AuditAction = "ROULETTE_SPIN"
	AuditTicketIssue        AuditAction = "TICKET_ISSUE"
	AuditBuffActivate       AuditAction = "BUFF_ACTIVATE"
	AuditTicketValidate     AuditAction = "TICKET_VALIDATE"
	AuditTicketCancel       AuditAction = "TICKET_CANCEL"
	AuditGiftClaim          AuditAction = "GIFT_CLAIM"
)
