package entities

// SourceKind selects between a skill charge and a physical item copy
type SourceKind string

const (
	SourceAuto  SourceKind = ""
	SourceSkill SourceKind = "skill"
	SourceItem  SourceKind = "item"
)

// IsValid reports whether the source kind is known
func (s SourceKind) IsValid() bool {
	return s == SourceAuto || s == SourceSkill || s == SourceItem
}

// CartLine is one entry of a collective purchase
type CartLine struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// TransferRequest is the input of a peer transfer
type TransferRequest struct {
	RecipientExternalID string
	Amount              int64
	Credential          string
	RequestExemption    bool
	ExemptionSource     SourceKind
}

// OfferItemRef points at one slot unit pledged in a trade. The container is
// resolved server-side.
type OfferItemRef struct {
	InventoryID int64 `json:"inventory_id"`
}

// OfferInput is one side of a trade as sent by the initiator
type OfferInput struct {
	Currency int64          `json:"currency"`
	Items    []OfferItemRef `json:"items"`
}

// ProposeTradeRequest is the input of a trade proposal
type ProposeTradeRequest struct {
	TargetAccountID int64
	InitiatorOffer  OfferInput
	TargetOffer     OfferInput
}

// LoanRequest is the input of a loan issuance
type LoanRequest struct {
	Amount       int64
	UnlockSource SourceKind
}

// PaymentMethod selects how a roulette spin is paid
type PaymentMethod string

const (
	PaymentCurrency PaymentMethod = "currency"
	PaymentSkill    PaymentMethod = "skill"
)

// SpinRequest is the input of a roulette spin
type SpinRequest struct {
	RouletteID  int64
	Payment     PaymentMethod
	SkillSlotID *int64
	UseLuck     bool
}
