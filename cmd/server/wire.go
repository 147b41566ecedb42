package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"talentkyc/internal/kyc/catalog"
	"talentkyc/internal/kyc/events"
	kycmetrics "talentkyc/internal/kyc/metrics"
	"talentkyc/internal/kyc/service"
	"talentkyc/internal/kyc/store/document"
	"talentkyc/internal/kyc/store/statuscache"
	"talentkyc/internal/kyc/sweeper"
	"talentkyc/internal/platform/config"
	"talentkyc/internal/platform/kafka"
	"talentkyc/internal/platform/postgres"
	"talentkyc/internal/platform/redis"
	"talentkyc/pkg/platform/httputil"
)

type app struct {
	service    *service.Service
	dispatcher *events.Dispatcher
	sweeper    *sweeper.Sweeper

	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

// buildApp picks Postgres, Redis and Kafka when configured and falls back to
// in-process implementations otherwise.
func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	var store service.DocumentStore
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, log)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return nil, err
		}
		store = document.NewPostgres(db)
		log.Info("using postgres document store")
	} else {
		store = document.NewInMemory()
		log.Warn("DATABASE_URL not set, documents are kept in memory")
	}

	var cache service.StatusCache
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.redis = rc
		cache = statuscache.NewRedis(rc, cfg.AggregateCacheTTL)
	} else {
		cache = statuscache.NewMemory(cfg.AggregateCacheTTL)
	}

	registry := catalog.NewRegistry()
	if cfg.CatalogPath != "" {
		c, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(c); err != nil {
			return nil, err
		}
		if err := registry.Activate(c.Version); err != nil {
			return nil, err
		}
		log.Info("requirement catalog activated", "version", c.Version)
	}

	var publisher events.Publisher
	kc, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if kc != nil {
		a.kafka = kc
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.Topic, cfg.Kafka.Partitions, log); err != nil {
			return nil, err
		}
		publisher = events.NewKafkaPublisher(kc, cfg.Kafka.Topic)
	} else {
		publisher = events.NewMemoryPublisher(cfg.EventBufferSize)
		log.Warn("KAFKA_BROKERS not set, events are kept in memory")
	}

	kycMetrics := kycmetrics.New(reg)
	a.dispatcher = events.NewDispatcher(publisher,
		events.WithLogger(log),
		events.WithMetrics(kycMetrics),
		events.WithBufferSize(cfg.EventBufferSize),
	)

	svc, err := service.New(store, registry,
		service.WithLogger(log),
		service.WithMetrics(kycMetrics),
		service.WithStatusCache(cache),
		service.WithEventEmitter(a.dispatcher),
	)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	a.service = svc
	a.sweeper = sweeper.New(svc, cfg.Sweep.Interval, cfg.Sweep.BatchSize, log)

	ok = true
	return a, nil
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	if a.db != nil {
		checks["postgres"] = "ok"
		if err := a.db.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
	}
	if a.redis != nil {
		checks["redis"] = "ok"
		if err := a.redis.Health(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
}

func (a *app) close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
