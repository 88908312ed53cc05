package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/engine"
	"github.com/sells-group/supplier-risk/internal/events"
	"github.com/sells-group/supplier-risk/internal/notify"
	"github.com/sells-group/supplier-risk/internal/resilience"
	"github.com/sells-group/supplier-risk/internal/risk"
	"github.com/sells-group/supplier-risk/internal/store"
	"github.com/sells-group/supplier-risk/internal/verify"
)

// engineEnv holds the initialized store and engine stack shared by the
// recompute/assess/serve commands.
type engineEnv struct {
	Store     store.Store
	Driver    *engine.Driver
	Simulator *verify.Simulator
}

// Close drains in-flight verification checks and releases the store.
func (e *engineEnv) Close() {
	if e.Simulator != nil {
		e.Simulator.Drain()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "supplier-risk.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine sets up the store, reference tables, registry client, event
// sink, and the risk driver. Callers should defer env.Close().
func initEngine(ctx context.Context) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	tables := risk.DefaultTables()
	if cfg.Risk.TablesPath != "" {
		tables, err = risk.LoadTables(cfg.Risk.TablesPath)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		zap.L().Info("reference tables loaded", zap.String("path", cfg.Risk.TablesPath))
	}

	var emitter events.Emitter = events.Log{}
	if cfg.Notify.WebhookURL != "" {
		emitter = events.Multi{events.Log{}, notify.NewWebhook(cfg.Notify.WebhookURL)}
		zap.L().Info("webhook notifications enabled")
	}

	var registry verify.RegistryClient
	if cfg.Verify.RegistryURL != "" {
		registry = verify.NewHTTPRegistry(cfg.Verify.RegistryURL,
			time.Duration(cfg.Verify.TimeoutSecs)*time.Second, cfg.Verify.RatePerSec)
		zap.L().Info("external registry enabled", zap.String("url", cfg.Verify.RegistryURL))
	} else {
		registry = verify.NewSimulatedRegistry(tables,
			time.Duration(cfg.Verify.SimLatencyMs)*time.Millisecond)
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.Verify.MaxRetries > 0 {
		retry.MaxAttempts = cfg.Verify.MaxRetries + 1
	}
	sim := verify.NewSimulator(st, registry, emitter, verify.WithRetry(retry))
	verifier := verify.NewEngine(verify.DefaultRules(), st, emitter, sim)
	driver := engine.New(st, risk.NewCalculator(tables), verifier, emitter, engine.Options{
		Concurrency: cfg.Batch.MaxConcurrentSuppliers,
	})

	return &engineEnv{Store: st, Driver: driver, Simulator: sim}, nil
}
