package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"pcbank/database"
	"pcbank/domain/entities"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseURL         string        `envconfig:"DATABASE_URL"`
	DatabaseName        string        `envconfig:"DATABASE_NAME"`
	DatabaseMaxConns    int32         `envconfig:"DATABASE_MAX_CONNS" default:"20"`
	DatabaseMinConns    int32         `envconfig:"DATABASE_MIN_CONNS" default:"2"`
	DatabaseMaxConnLife time.Duration `envconfig:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`

	// HTTP transport
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	GatewayKey          string        `envconfig:"GATEWAY_KEY"`
	CORSAllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Event push
	NATSServers string `envconfig:"NATS_SERVERS"`

	// Audit queue
	AuditFlushInterval time.Duration `envconfig:"AUDIT_FLUSH_INTERVAL" default:"2s"`
	AuditMaxBatch      int           `envconfig:"AUDIT_MAX_BATCH" default:"500"`

	// Public stats cache
	CacheType      string        `envconfig:"CACHE_TYPE" default:"memory"`
	StatsCacheTTL  time.Duration `envconfig:"STATS_CACHE_TTL" default:"5m"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string        `envconfig:"REDIS_KEY_PREFIX" default:"pcbank"`

	// Maintenance
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	SweepGrace    time.Duration `envconfig:"SWEEP_GRACE" default:"24h"`

	// Economy constants
	TransferFee            int64            `envconfig:"TRANSFER_FEE" default:"5"`
	AnnualInflowCaps       map[string]int64 `envconfig:"ANNUAL_INFLOW_CAPS"`
	AnnualInflowCapDefault int64            `envconfig:"ANNUAL_INFLOW_CAP_DEFAULT" default:"5000"`
	MarketTaxRate          decimal.Decimal  `envconfig:"MARKET_TAX_RATE" default:"0.10"`
	OverpricedMultiplier   decimal.Decimal  `envconfig:"OVERPRICED_MULTIPLIER" default:"2"`
	TradeFairnessThreshold float64          `envconfig:"TRADE_FAIRNESS_THRESHOLD" default:"0.8"`
	LoanMinAmount          int64            `envconfig:"LOAN_MIN_AMOUNT" default:"100"`
	LoanLimitDivisor       int64            `envconfig:"LOAN_LIMIT_DIVISOR" default:"3"`
	LoanInterestRate       decimal.Decimal  `envconfig:"LOAN_INTEREST_RATE" default:"0.15"`
	LoanTerm               time.Duration    `envconfig:"LOAN_TERM" default:"168h"`
	BuffDefaultDuration    time.Duration    `envconfig:"BUFF_DEFAULT_DURATION" default:"24h"`
	TicketCodeLength       int              `envconfig:"TICKET_CODE_LENGTH" default:"6"`

	// OpenTelemetry
	OTelEnabled        bool          `envconfig:"OTEL_ENABLED" default:"false"`
	OTelServiceName    string        `envconfig:"OTEL_SERVICE_NAME" default:"pcbank"`
	OTelExporterType   string        `envconfig:"OTEL_EXPORTER_TYPE" default:"console"`
	OTelOTLPEndpoint   string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTelExportInterval time.Duration `envconfig:"OTEL_EXPORT_INTERVAL" default:"30s"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads configuration from the environment without touching the singleton
func Load() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a running service cannot do without
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.CacheType {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_TYPE %q", c.CacheType)
	}
	if c.TicketCodeLength < 4 {
		return fmt.Errorf("TICKET_CODE_LENGTH must be at least 4")
	}
	if c.LoanLimitDivisor <= 0 {
		return fmt.Errorf("LOAN_LIMIT_DIVISOR must be positive")
	}
	if c.MarketTaxRate.IsNegative() || c.MarketTaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("MARKET_TAX_RATE must be in [0, 1)")
	}
	if c.TradeFairnessThreshold <= 0 || c.TradeFairnessThreshold > 1 {
		return fmt.Errorf("TRADE_FAIRNESS_THRESHOLD must be in (0, 1]")
	}
	return nil
}

// GetDatabaseURL returns the connection string for the configured database
func (c *Config) GetDatabaseURL() string {
	if c.DatabaseName == "" {
		return c.DatabaseURL
	}
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// EconomyPolicy returns the economy constants used by the domain services
func (c *Config) EconomyPolicy() entities.EconomyPolicy {
	caps := make(map[string]int64, len(c.AnnualInflowCaps))
	for turma, limit := range c.AnnualInflowCaps {
		caps[turma] = limit
	}
	return entities.EconomyPolicy{
		TransferFee:            c.TransferFee,
		AnnualInflowCaps:       caps,
		AnnualInflowCapDefault: c.AnnualInflowCapDefault,
		MarketTaxRate:          c.MarketTaxRate,
		OverpricedMultiplier:   c.OverpricedMultiplier,
		TradeFairnessThreshold: c.TradeFairnessThreshold,
		LoanMinAmount:          c.LoanMinAmount,
		LoanLimitDivisor:       c.LoanLimitDivisor,
		LoanInterestRate:       c.LoanInterestRate,
		LoanTerm:               c.LoanTerm,
		BuffDefaultDuration:    c.BuffDefaultDuration,
		TicketCodeLength:       c.TicketCodeLength,
	}
}

// SetTestConfig sets a test configuration (only for use in tests)
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the configuration (only for use in tests)
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config with the production economy defaults
func NewTestConfig() *Config {
	policy := entities.DefaultEconomyPolicy()
	return &Config{
		Environment:            "test",
		LogLevel:               "debug",
		HTTPAddr:               ":0",
		CORSAllowedOrigins:     []string{"*"},
		AuditFlushInterval:     time.Second,
		AuditMaxBatch:          100,
		CacheType:              "memory",
		StatsCacheTTL:          5 * time.Minute,
		SweepInterval:          time.Hour,
		SweepGrace:             24 * time.Hour,
		TransferFee:            policy.TransferFee,
		AnnualInflowCaps:       map[string]int64{},
		AnnualInflowCapDefault: policy.AnnualInflowCapDefault,
		MarketTaxRate:          policy.MarketTaxRate,
		OverpricedMultiplier:   policy.OverpricedMultiplier,
		TradeFairnessThreshold: policy.TradeFairnessThreshold,
		LoanMinAmount:          policy.LoanMinAmount,
		LoanLimitDivisor:       policy.LoanLimitDivisor,
		LoanInterestRate:       policy.LoanInterestRate,
		LoanTerm:               policy.LoanTerm,
		BuffDefaultDuration:    policy.BuffDefaultDuration,
		TicketCodeLength:       policy.TicketCodeLength,
		OTelServiceName:        "pcbank-test",
		OTelExporterType:       "none",
	}
}
