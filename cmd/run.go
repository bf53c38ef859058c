package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pcbank/application"
	"pcbank/cache"
	"pcbank/config"
	"pcbank/database"
	"pcbank/domain/interfaces"
	"pcbank/domain/utils"
	"pcbank/infrastructure"
	"pcbank/infrastructure/observability"
	"pcbank/repository"
	transport "pcbank/transport/http"
	"pcbank/transport/http/handler"

	log "github.com/sirupsen/logrus"
)

// closer is released in reverse order on shutdown
type closer struct {
	name string
	fn   func() error
}

// app holds the wired dependencies shared by the serve and sweep commands
type app struct {
	cfg        *config.Config
	db         *database.DB
	uowFactory interfaces.UnitOfWorkFactory
	metrics    *observability.MetricsProvider
	checks     []handler.Check
	closers    []closer
}

// ConfigureLogging applies the configured log level and formatter
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg := config.Get()
	ConfigureLogging(cfg)

	a := &app{cfg: cfg}

	// Metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}
	a.metrics = observability.GetMetrics()
	a.onClose("metrics", func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return observability.ShutdownGlobalMetrics(shutdownCtx)
	})

	// Database
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		MaxConnLifetime: cfg.DatabaseMaxConnLife,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	a.onClose("database", func() error {
		db.Close()
		return nil
	})
	a.checks = append(a.checks, handler.Check{Name: "database", Probe: db.Ping})
	log.Info("Database connection established successfully")

	// Event push
	publisher, err := a.eventPublisher(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// Audit queue
	auditQueue := infrastructure.NewAuditQueue(infrastructure.NewDatabaseAuditWriter(db), cfg.AuditFlushInterval, cfg.AuditMaxBatch)
	auditQueue.OnFailure(a.metrics.RecordAuditDropped)
	a.onClose("audit queue", auditQueue.Close)

	a.uowFactory = infrastructure.NewUnitOfWorkFactory(db, publisher, auditQueue)
	return a, nil
}

// eventPublisher connects to NATS when configured and falls back to a no-op
// publisher otherwise
func (a *app) eventPublisher(ctx context.Context) (interfaces.EventPublisher, error) {
	if a.cfg.NATSServers == "" {
		log.Info("NATS_SERVERS not set, domain events will not be pushed")
		return infrastructure.NewNoopEventPublisher(), nil
	}

	client := infrastructure.NewNATSClient(a.cfg.NATSServers, "pcbank")
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.onClose("nats", client.Close)

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	a.checks = append(a.checks, handler.Check{Name: "nats", Probe: func(context.Context) error {
		if !client.IsConnected() {
			return errors.New("not connected")
		}
		return nil
	}})

	publisher := infrastructure.NewNATSEventPublisher(client, mapper)
	publisher.OnPublished(a.metrics.RecordEventPublished)
	return publisher, nil
}

// statsCache builds the configured public stats cache
func (a *app) statsCache(ctx context.Context, clock interfaces.Clock) (cache.StatsCache, error) {
	loader := repository.NewStatsRepository(a.db).GetPublicStats

	switch strings.ToLower(a.cfg.CacheType) {
	case "redis":
		redisCache, err := cache.NewRedisStatsCache(ctx, cache.RedisConfig{
			Addr:      a.cfg.RedisAddr,
			Password:  a.cfg.RedisPassword,
			DB:        a.cfg.RedisDB,
			KeyPrefix: a.cfg.RedisKeyPrefix,
			TTL:       a.cfg.StatsCacheTTL,
		}, loader)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis stats cache: %w", err)
		}
		redisCache.Observe(a.metrics.RecordStatsLookup)
		a.onClose("redis", redisCache.Close)
		a.checks = append(a.checks, handler.Check{Name: "redis", Probe: redisCache.Ping})
		return redisCache, nil
	default:
		memoryCache := cache.NewMemoryStatsCache(loader, a.cfg.StatsCacheTTL, clock)
		memoryCache.Observe(a.metrics.RecordStatsLookup)
		return memoryCache, nil
	}
}

func (a *app) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		log.WithField("resource", c.name).Info("Closing")
		if err := c.fn(); err != nil {
			log.WithError(err).WithField("resource", c.name).Warn("Error closing resource")
		}
	}
	a.closers = nil
}

// Run starts the HTTP API and the maintenance worker and blocks until ctx is
// cancelled
func Run(ctx context.Context) error {
	log.Info("Starting pcbank...")

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	clock := utils.SystemClock{}
	stats, err := a.statsCache(ctx, clock)
	if err != nil {
		return err
	}

	engine := application.NewEngine(application.EngineDeps{
		UnitOfWorkFactory:  a.uowFactory,
		Policy:             a.cfg.EconomyPolicy(),
		Clock:              clock,
		Random:             utils.SystemRandom{},
		CredentialVerifier: infrastructure.NewBcryptCredentialVerifier(a.db),
		Stats:              stats,
		Observer:           a.metrics,
	})

	// Maintenance worker
	worker := application.NewMaintenanceWorker(a.uowFactory, clock, a.cfg.SweepGrace, a.metrics)
	stopWorker := worker.Start(ctx, a.cfg.SweepInterval)
	defer stopWorker()

	// HTTP server
	router := transport.NewRouter(handler.New(engine, a.checks...), transport.RouterConfig{
		GatewayKey:     a.cfg.GatewayKey,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
	})
	server := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", a.cfg.HTTPAddr).Infof("HTTP API listening in %s mode", a.cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down HTTP API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	log.Info("Shutdown completed")
	return nil
}

// Sweep runs a single maintenance pass and exits
func Sweep(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	worker := application.NewMaintenanceWorker(a.uowFactory, utils.SystemClock{}, a.cfg.SweepGrace, a.metrics)
	result, err := worker.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("maintenance sweep failed: %w", err)
	}

	log.WithFields(log.Fields{
		"expired_slots_removed": result.ExpiredSlotsRemoved,
		"loans_marked_overdue":  result.LoansMarkedOverdue,
	}).Info("Maintenance sweep finished")
	return nil
}
