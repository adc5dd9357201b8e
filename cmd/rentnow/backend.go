package main

import (
	"context"
	"errors"
	"log/slog"

	"rentnow/internal/app/engine"
	"rentnow/internal/app/middleware"
	"rentnow/internal/app/outbox"
	"rentnow/internal/app/uow"
	domainlistings "rentnow/internal/domain/listings"
	"rentnow/internal/infra/broker/kafka"
	"rentnow/internal/infra/config"
	mongostore "rentnow/internal/infra/db/mongo"
	"rentnow/internal/infra/db/postgres"
	"rentnow/internal/infra/fixtures"
	"rentnow/internal/infra/inbox"
	"rentnow/internal/infra/obs"
	outboxworker "rentnow/internal/infra/outbox"
	"rentnow/internal/infra/storage/memory"
)

type worker func(ctx context.Context) error

// backend is the storage and messaging stack for one STORAGE_MODE.
type backend struct {
	factory     uow.UoWFactory
	sink        outbox.Sink
	idempotency middleware.IdempotencyStore
	putProperty fixtures.PutFunc
	ready       func(ctx context.Context) error
	workers     func(eng engine.Engine) []worker
	closers     []func(ctx context.Context) error
}

func (b *backend) close(logger *slog.Logger) {
	ctx := context.Background()
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			logger.Warn("shutdown close failed", "error", err)
		}
	}
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*backend, error) {
	if cfg.Storage == config.StoragePostgres {
		return openPostgresBackend(ctx, cfg, logger, metrics)
	}
	return openMemoryBackend(cfg, logger), nil
}

// openMemoryBackend keeps everything in process. Events stay in the sink.
func openMemoryBackend(cfg config.Config, logger *slog.Logger) *backend {
	store := memory.NewStore()
	logger.Warn("using in-memory storage; data is lost on restart")
	return &backend{
		factory:     memory.Factory{Store: store},
		sink:        memory.NewOutboxSink(),
		idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		putProperty: func(_ context.Context, p domainlistings.Property) error { return store.PutProperty(p) },
		ready:       func(context.Context) error { return nil },
		workers:     func(engine.Engine) []worker { return nil },
	}
}

// openPostgresBackend keeps bookings in Postgres, the outbox, inbox and
// idempotency records in Mongo, and relays events through Kafka.
func openPostgresBackend(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (_ *backend, err error) {
	be := &backend{}
	defer func() {
		if err != nil {
			be.close(logger)
		}
	}()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	be.closers = append(be.closers, func(context.Context) error { return db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, err
	}
	if err := metrics.RegisterDB(db, "rentnow"); err != nil {
		return nil, err
	}

	mc, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	be.closers = append(be.closers, mc.Close)
	idem, err := mongostore.NewIdempotencyStore(ctx, mc.DB, cfg.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	outboxStore, err := outboxworker.NewStore(ctx, mc.DB)
	if err != nil {
		return nil, err
	}
	inboxStore, err := inbox.NewStore(ctx, mc.DB, cfg.KafkaConsumerGroup, cfg.IdempotencyTTL)
	if err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, err
	}
	be.closers = append(be.closers, func(context.Context) error { return producer.Close() })

	be.factory = postgres.NewFactory(db)
	be.sink = outboxStore
	be.idempotency = idem
	be.putProperty = func(ctx context.Context, p domainlistings.Property) error { return postgres.PutProperty(ctx, db, p) }
	be.ready = func(ctx context.Context) error {
		return errors.Join(db.PingContext(ctx), mc.Ping(ctx))
	}
	be.workers = func(eng engine.Engine) []worker {
		relay := &outboxworker.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Metrics:     metrics,
			Logger:      logger,
		}
		payments := &kafka.PaymentEventHandler{Commands: eng.Commands, Inbox: inboxStore, Metrics: metrics, Logger: logger}
		consume := func(ctx context.Context) error {
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, payments, cfg.RetryBackoff, logger)
			if err != nil {
				return err
			}
			defer consumer.Close()
			return consumer.Run(ctx, []string{cfg.Topic(cfg.PaymentEventsTopic)})
		}
		return []worker{relay.Run, consume}
	}
	return be, nil
}
