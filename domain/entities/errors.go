package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers deciding how to react
type ErrorKind string

const (
	// ErrorKindValidation is malformed or missing input; no transaction was opened
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindPrecondition is a business rule that rejected the flow
	ErrorKindPrecondition ErrorKind = "precondition"
	// ErrorKindNotFound is a referenced resource that does not exist for the actor
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindForbidden is an actor without the required role or ownership
	ErrorKindForbidden ErrorKind = "forbidden"
	// ErrorKindConflict is a resource already in a terminal or incompatible state
	ErrorKindConflict ErrorKind = "conflict"
	// ErrorKindStorage is an infrastructure failure, possibly retryable
	ErrorKindStorage ErrorKind = "storage"
)

// Reason is the machine-readable error code returned to clients
type Reason string

const (
	ReasonInvalidInput          Reason = "invalid_input"
	ReasonForbidden             Reason = "forbidden"
	ReasonAccountBlocked        Reason = "account_blocked"
	ReasonAccountNotFound       Reason = "account_not_found"
	ReasonInsufficientFunds     Reason = "insufficient_funds"
	ReasonItemNotFound          Reason = "item_not_found"
	ReasonItemInactive          Reason = "item_inactive"
	ReasonOutOfStock            Reason = "out_of_stock"
	ReasonClassroomNotFound     Reason = "classroom_not_found"
	ReasonNoEligibleMembers     Reason = "no_eligible_members"
	ReasonNoChargesLeft         Reason = "no_charges_left"
	ReasonItemNotTradeable      Reason = "item_not_tradeable"
	ReasonListingNotFound       Reason = "listing_not_found"
	ReasonListingUnavailable    Reason = "listing_unavailable"
	ReasonOwnListing            Reason = "own_listing"
	ReasonNotListingOwner       Reason = "not_listing_owner"
	ReasonRecipientNotFound     Reason = "recipient_not_found"
	ReasonSelfTransfer          Reason = "self_transfer"
	ReasonInvalidCredential     Reason = "invalid_credential"
	ReasonAnnualLimitExceeded   Reason = "annual_limit_exceeded"
	ReasonExemptionUnavailable  Reason = "exemption_unavailable"
	ReasonUnfairTrade           Reason = "unfair_trade"
	ReasonTradeNotFound         Reason = "trade_not_found"
	ReasonTradeNotPending       Reason = "trade_not_pending"
	ReasonNotTradeParty         Reason = "not_trade_party"
	ReasonItemNoLongerAvailable Reason = "item_no_longer_available"
	ReasonLoanAlreadyActive     Reason = "loan_already_active"
	ReasonUnlockItemRequired    Reason = "unlock_item_required"
	ReasonLoanAmountOutOfRange  Reason = "loan_amount_out_of_range"
	ReasonLoanNotFound          Reason = "loan_not_found"
	ReasonNoActiveLoan          Reason = "no_active_loan"
	ReasonRouletteNotFound      Reason = "roulette_not_found"
	ReasonRouletteInactive      Reason = "roulette_inactive"
	ReasonRouletteEmpty         Reason = "roulette_empty"
	ReasonInvalidTicket         Reason = "invalid_ticket"
	ReasonAlreadyRedeemed       Reason = "already_redeemed"
	ReasonTicketNotFound        Reason = "ticket_not_found"
	ReasonGiftNotFound          Reason = "gift_not_found"
	ReasonGiftAlreadyClaimed    Reason = "gift_already_claimed"
	ReasonGiftExpired           Reason = "gift_expired"
	ReasonStorageUnavailable    Reason = "storage_unavailable"
)

// DomainError is the error type every flow surfaces to its caller
type DomainError struct {
	Kind      ErrorKind
	Reason    Reason
	Message   string
	Retryable bool
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same reason, so detailed errors
// built from a sentinel still satisfy errors.Is(err, sentinel).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Reason == t.Reason
}

// Sentinels for errors.Is checks
var (
	ErrInvalidInput          = &DomainError{Kind: ErrorKindValidation, Reason: ReasonInvalidInput, Message: "invalid input"}
	ErrForbidden             = &DomainError{Kind: ErrorKindForbidden, Reason: ReasonForbidden, Message: "not allowed"}
	ErrAccountBlocked        = &DomainError{Kind: ErrorKindForbidden, Reason: ReasonAccountBlocked, Message: "account is blocked"}
	ErrAccountNotFound       = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonAccountNotFound, Message: "account not found"}
	ErrInsufficientFunds     = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonInsufficientFunds, Message: "insufficient funds"}
	ErrItemNotFound          = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonItemNotFound, Message: "item not found"}
	ErrItemInactive          = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonItemInactive, Message: "item is not available for purchase"}
	ErrOutOfStock            = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonOutOfStock, Message: "item is out of stock"}
	ErrClassroomNotFound     = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonClassroomNotFound, Message: "no classroom matches the actor's group"}
	ErrNoEligibleMembers     = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonNoEligibleMembers, Message: "no eligible members to share the cost"}
	ErrNoChargesLeft         = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonNoChargesLeft, Message: "no charges left"}
	ErrItemNotTradeable      = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonItemNotTradeable, Message: "skills cannot be traded or sold"}
	ErrListingNotFound       = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonListingNotFound, Message: "listing not found"}
	ErrListingUnavailable    = &DomainError{Kind: ErrorKindConflict, Reason: ReasonListingUnavailable, Message: "listing is no longer active"}
	ErrOwnListing            = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonOwnListing, Message: "cannot buy your own listing"}
	ErrNotListingOwner       = &DomainError{Kind: ErrorKindForbidden, Reason: ReasonNotListingOwner, Message: "only the seller can cancel a listing"}
	ErrRecipientNotFound     = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonRecipientNotFound, Message: "recipient not found"}
	ErrSelfTransfer          = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonSelfTransfer, Message: "cannot transfer to yourself"}
	ErrInvalidCredential     = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonInvalidCredential, Message: "credential verification failed"}
	ErrAnnualLimitExceeded   = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonAnnualLimitExceeded, Message: "recipient annual inflow limit exceeded"}
	ErrExemptionUnavailable  = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonExemptionUnavailable, Message: "no fee exemption item available"}
	ErrUnfairTrade           = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonUnfairTrade, Message: "trade is too unbalanced"}
	ErrTradeNotFound         = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonTradeNotFound, Message: "trade not found"}
	ErrTradeNotPending       = &DomainError{Kind: ErrorKindConflict, Reason: ReasonTradeNotPending, Message: "trade is no longer pending"}
	ErrNotTradeParty         = &DomainError{Kind: ErrorKindForbidden, Reason: ReasonNotTradeParty, Message: "actor cannot act on this trade"}
	ErrItemNoLongerAvailable = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonItemNoLongerAvailable, Message: "item is no longer available"}
	ErrLoanAlreadyActive     = &DomainError{Kind: ErrorKindConflict, Reason: ReasonLoanAlreadyActive, Message: "a loan is already active"}
	ErrUnlockItemRequired    = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonUnlockItemRequired, Message: "a credit unlock item is required"}
	ErrLoanAmountOutOfRange  = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonLoanAmountOutOfRange, Message: "loan amount out of range"}
	ErrLoanNotFound          = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonLoanNotFound, Message: "loan not found"}
	ErrNoActiveLoan          = &DomainError{Kind: ErrorKindConflict, Reason: ReasonNoActiveLoan, Message: "loan is already paid"}
	ErrRouletteNotFound      = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonRouletteNotFound, Message: "roulette not found"}
	ErrRouletteInactive      = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonRouletteInactive, Message: "roulette is not active"}
	ErrRouletteEmpty         = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonRouletteEmpty, Message: "roulette has no available prizes"}
	ErrInvalidTicket         = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonInvalidTicket, Message: "ticket code not found"}
	ErrAlreadyRedeemed       = &DomainError{Kind: ErrorKindConflict, Reason: ReasonAlreadyRedeemed, Message: "ticket already redeemed"}
	ErrTicketNotFound        = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonTicketNotFound, Message: "ticket not found"}
	ErrGiftNotFound          = &DomainError{Kind: ErrorKindNotFound, Reason: ReasonGiftNotFound, Message: "gift not found"}
	ErrGiftAlreadyClaimed    = &DomainError{Kind: ErrorKindConflict, Reason: ReasonGiftAlreadyClaimed, Message: "gift already claimed"}
	ErrGiftExpired           = &DomainError{Kind: ErrorKindPrecondition, Reason: ReasonGiftExpired, Message: "gift has expired"}
	ErrStorageUnavailable    = &DomainError{Kind: ErrorKindStorage, Reason: ReasonStorageUnavailable, Message: "storage temporarily unavailable, try again", Retryable: true}
)

// Detailed returns a copy of a sentinel with a more specific message
func Detailed(sentinel *DomainError, format string, args ...any) *DomainError {
	e := *sentinel
	e.Message = fmt.Sprintf(format, args...)
	return &e
}

// Validation builds an invalid-input error naming the offending field
func Validation(format string, args ...any) *DomainError {
	return Detailed(ErrInvalidInput, format, args...)
}

// StorageError wraps an infrastructure failure. Retryable failures invite the
// caller to replay the whole flow.
func StorageError(err error, retryable bool) *DomainError {
	e := *ErrStorageUnavailable
	e.Err = err
	e.Retryable = retryable
	if !retryable {
		e.Message = "storage failure"
	}
	return &e
}

// AsDomainError extracts a DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
