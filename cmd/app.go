package cmd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/config"
	"github.com/abhisek/mixcoach/internal/events"
	"github.com/abhisek/mixcoach/internal/learning"
	"github.com/abhisek/mixcoach/internal/logging"
	"github.com/abhisek/mixcoach/internal/metrics"
	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/store"
)

// app holds the dependencies shared by serve and the data commands.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	backend   store.Backend
	pending   store.PendingRepo
	publisher events.Publisher
	metrics   *metrics.Metrics
	catalog   *catalog.Catalog
	svc       *learning.Service

	closers []func() error
}

func newApp(cfg *config.Config) (*app, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, catalog: catalog.Default(), metrics: metrics.New()}

	if err := a.openBackend(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openPending(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openPublisher(); err != nil {
		a.Close()
		return nil, err
	}

	a.svc = learning.New(learning.Deps{
		Content:     a.catalog,
		Questions:   questionbank.Default(),
		Users:       a.backend.Users(),
		Plans:       a.backend.Plans(),
		History:     a.backend.History(),
		Tx:          a.backend,
		Pending:     a.pending,
		Events:      a.publisher,
		Metrics:     a.metrics,
		Logger:      log,
		PerCategory: cfg.Assessment.PerCategory,
	})
	return a, nil
}

func (a *app) openBackend() error {
	switch a.cfg.Store.Driver {
	case "sqlite":
		path, err := resolveDBPath(a.cfg)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		a.backend = st
		a.log.Info("store opened", zap.String("driver", "sqlite"), zap.String("path", path))
	default:
		a.backend = store.NewMemory()
		a.log.Info("store opened", zap.String("driver", "memory"))
	}
	a.closers = append(a.closers, a.backend.Close)
	return nil
}

func (a *app) openPending() error {
	if a.cfg.Store.Pending != "redis" {
		a.pending = a.backend.Pending(a.cfg.Store.PendingTTL)
		return nil
	}
	rdb, err := store.DialRedis(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)
	a.pending = store.NewRedisPending(rdb, a.cfg.Store.PendingTTL)
	a.log.Info("pending assessments in redis", zap.String("addr", a.cfg.Redis.Addr))
	return nil
}

func (a *app) openPublisher() error {
	if a.cfg.Events.Driver != "amqp" {
		a.publisher = events.NewLogPublisher(a.log)
		return nil
	}
	p, err := events.NewAMQPPublisher(a.cfg.Events.AMQPURL, a.cfg.Events.Exchange, a.log)
	if err != nil {
		return fmt.Errorf("connect amqp: %w", err)
	}
	a.closers = append(a.closers, p.Close)
	a.publisher = events.WithRetry(p, a.cfg.Events.Retry, a.log)
	return nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.log.Sync()
	return errors.Join(errs...)
}
