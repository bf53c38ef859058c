package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// EconomyPolicy holds the tunable constants of every flow
type EconomyPolicy struct {
	TransferFee            int64
	AnnualInflowCaps       map[string]int64
	AnnualInflowCapDefault int64

	MarketTaxRate          decimal.Decimal
	OverpricedMultiplier   decimal.Decimal
	TradeFairnessThreshold float64

	LoanMinAmount    int64
	LoanLimitDivisor int64
	LoanInterestRate decimal.Decimal
	LoanTerm         time.Duration

	BuffDefaultDuration time.Duration
	TicketCodeLength    int
}

// DefaultEconomyPolicy returns the production defaults
func DefaultEconomyPolicy() EconomyPolicy {
	return EconomyPolicy{
		TransferFee:            5,
		AnnualInflowCaps:       map[string]int64{},
		AnnualInflowCapDefault: 5000,
		MarketTaxRate:          decimal.NewFromFloat(0.10),
		OverpricedMultiplier:   decimal.NewFromInt(2),
		TradeFairnessThreshold: 0.8,
		LoanMinAmount:          100,
		LoanLimitDivisor:       3,
		LoanInterestRate:       decimal.NewFromFloat(0.15),
		LoanTerm:               7 * 24 * time.Hour,
		BuffDefaultDuration:    24 * time.Hour,
		TicketCodeLength:       6,
	}
}

// AnnualInflowCap returns the transfer inflow ceiling for a turma
func (p EconomyPolicy) AnnualInflowCap(turma string) int64 {
	key := NormalizeClassroomName(turma)
	for group, limit := range p.AnnualInflowCaps {
		if NormalizeClassroomName(group) == key {
			return limit
		}
	}
	return p.AnnualInflowCapDefault
}
