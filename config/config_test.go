package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.CacheType)
	assert.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, int64(5), cfg.TransferFee)
	assert.Equal(t, 0.8, cfg.TradeFairnessThreshold)
	assert.True(t, cfg.MarketTaxRate.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, cfg.OverpricedMultiplier.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 7*24*time.Hour, cfg.LoanTerm)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ANNUAL_INFLOW_CAPS", "3A:8000,3B:6000")
	t.Setenv("LOAN_INTEREST_RATE", "0.25")
	t.Setenv("CACHE_TYPE", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	policy := cfg.EconomyPolicy()
	assert.Equal(t, int64(8000), policy.AnnualInflowCap("3a"))
	assert.Equal(t, int64(6000), policy.AnnualInflowCap("3B"))
	assert.Equal(t, cfg.AnnualInflowCapDefault, policy.AnnualInflowCap("1A"))
	assert.True(t, policy.LoanInterestRate.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, "redis", cfg.CacheType)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "test config is valid", mutate: func(*Config) {}},
		{name: "database required outside tests", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "DATABASE_URL"},
		{name: "unknown cache", mutate: func(c *Config) { c.CacheType = "memcached" }, wantErr: "CACHE_TYPE"},
		{name: "short ticket code", mutate: func(c *Config) { c.TicketCodeLength = 2 }, wantErr: "TICKET_CODE_LENGTH"},
		{name: "tax rate of one", mutate: func(c *Config) { c.MarketTaxRate = decimal.NewFromInt(1) }, wantErr: "MARKET_TAX_RATE"},
		{name: "zero fairness", mutate: func(c *Config) { c.TradeFairnessThreshold = 0 }, wantErr: "TRADE_FAIRNESS_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetTestConfig(t *testing.T) {
	cfg := NewTestConfig()
	cfg.TransferFee = 42
	SetTestConfig(cfg)
	defer ResetConfig()

	assert.Equal(t, int64(42), Get().TransferFee)
}

func TestGetDatabaseURL(t *testing.T) {
	t.Parallel()

	cfg := NewTestConfig()
	cfg.DatabaseURL = "postgres://u:p@localhost:5432"
	assert.Equal(t, "postgres://u:p@localhost:5432", cfg.GetDatabaseURL())

	cfg.DatabaseName = "pcbank"
	assert.Contains(t, cfg.GetDatabaseURL(), "/pcbank?")
}
