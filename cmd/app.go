package cmd

import (
	"context"
	"fmt"

	"tourbooking/config"
	"tourbooking/database"
	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/services/booking"
	"tourbooking/services/notification"
	"tourbooking/services/payment"
	"tourbooking/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

const (
	storeMemory   = "memory"
	storeMongo    = "mongo"
	storePostgres = "postgres"
)

// app holds the process-wide dependencies shared by serve and worker.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   reservationRepo.Store
	redis   *redis.Client
	queue   *asynq.Client
	checks  map[string]utils.HealthCheck
	closers []func()
}

func loadApp(ctx context.Context) (*app, error) {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	stripe.Key = cfg.StripeSecretKey

	a := &app{cfg: cfg, logger: logger, checks: map[string]utils.HealthCheck{}}
	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.openRedis(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openStore selects the reservation backend once, from STORE_DRIVER.
func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case storeMemory, "":
		a.logger.Warn("using in-memory reservation store, data is lost on restart")
		a.store = reservationRepo.NewMemoryStore()

	case storeMongo:
		client, err := database.ConnectMongo(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		ms := reservationRepo.NewMongoStore(client, a.cfg.MongoDatabase, a.cfg.StorageTimeout)
		if err := ms.EnsureIndexes(); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		a.store = ms

	case storePostgres:
		pool, err := database.OpenPostgres(ctx, a.cfg.PostgresURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		a.store = reservationRepo.NewPostgresStore(pool, a.cfg.StorageTimeout)

	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", a.cfg.StoreDriver)
	}

	a.checks["store"] = a.store.Ping
	a.logger.Info("reservation store ready", zap.String("driver", a.cfg.StoreDriver))
	return nil
}

// inProcessStore reports whether reservations live in this process only.
func (a *app) inProcessStore() bool {
	return a.cfg.StoreDriver == storeMemory || a.cfg.StoreDriver == ""
}

// openRedis connects the event ledger and the notification queue. Only the
// memory driver may run without Redis.
func (a *app) openRedis() error {
	if a.cfg.RedisAddr == "" {
		if !a.inProcessStore() {
			return fmt.Errorf("REDIS_ADDR is required with STORE_DRIVER=%s", a.cfg.StoreDriver)
		}
		return nil
	}
	client, err := utils.NewRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisCacheDB)
	if err != nil {
		if a.inProcessStore() {
			a.logger.Warn("redis unavailable, notifications are sent inline", zap.Error(err))
			return nil
		}
		return err
	}
	a.redis = client
	a.queue = asynq.NewClient(a.queueOpts())
	a.closers = append(a.closers, func() {
		_ = a.queue.Close()
		_ = client.Close()
	})
	a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return nil
}

func (a *app) queueOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisQueueDB,
	}
}

func (a *app) mailer() notification.Mailer {
	if a.cfg.SMTPHost == "" {
		return notification.LogMailer{Logger: a.logger}
	}
	return notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     a.cfg.SMTPHost,
		Port:     a.cfg.SMTPPort,
		Username: a.cfg.SMTPUsername,
		Password: a.cfg.SMTPPassword,
		From:     a.cfg.MailFrom,
	})
}

// dispatcher must be built once per process. Inline mail and the RabbitMQ
// mirror go through a bounded buffer so requests never wait on delivery.
func (a *app) dispatcher() *notification.Dispatcher {
	var pub notification.Publisher
	if a.queue != nil {
		pub = notification.NewQueuePublisher(a.queue)
	} else {
		inline := notification.NewAsyncPublisher(notification.MailerPublisher{Mailer: a.mailer()}, 0, 0, a.logger)
		a.closers = append(a.closers, inline.Close)
		pub = inline
	}
	if a.cfg.AMQPURL != "" {
		events := notification.NewAMQPPublisher(a.cfg.AMQPURL, a.cfg.AMQPQueue)
		a.closers = append(a.closers, func() { _ = events.Close() })
		mirror := notification.NewAsyncPublisher(events, 0, 0, a.logger)
		a.closers = append(a.closers, mirror.Close)
		pub = notification.Fanout{pub, mirror}
	}
	return notification.NewDispatcher(pub, a.store, a.logger)
}

func (a *app) bookingService(notifier *notification.Dispatcher) *booking.DefaultBookingService {
	return booking.NewBookingService(
		a.store,
		notifier,
		payment.NewStripeGateway(),
		utils.SystemClock{},
		booking.Options{
			Capacity:            a.cfg.SessionCapacity,
			PricePerPersonCents: a.cfg.PricePerPersonCents,
			Currency:            a.cfg.Currency,
			Location:            a.cfg.Location(),
			CancellationCutoff:  a.cfg.CancellationCutoff,
			PendingExpiry:       a.cfg.PendingExpiry,
			StorageRetries:      a.cfg.StorageRetries,
		},
		a.logger,
	)
}

func (a *app) reconciler(notifier *notification.Dispatcher) *payment.Reconciler {
	var ledger payment.EventLedger = payment.NewMemoryLedger()
	if a.redis != nil {
		ledger = payment.NewRedisLedger(a.redis, 0)
	}
	return payment.NewReconciler(
		payment.NewStripeVerifier(a.cfg.StripeWebhookSecret),
		a.store,
		notifier,
		ledger,
		utils.SystemClock{},
		a.cfg.SessionCapacity,
		a.cfg.StorageRetries,
		a.logger,
	)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}
