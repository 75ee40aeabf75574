package cron

import (
	"context"
	"fmt"

	"tourbooking/services/booking"
	"tourbooking/services/notification"
	"tourbooking/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker runs queued notification deliveries and the periodic expiry sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewWorker wires the task handlers. sweepSpec is a cron or "@every" spec;
// empty disables the expiry sweep.
func NewWorker(redisOpts asynq.RedisClientOpt, mailer notification.Mailer, svc booking.BookingService, sweepSpec string, logger *zap.Logger) (*Worker, error) {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationSend, HandleNotificationTask(mailer, logger))
	mux.HandleFunc(tasks.TypeExpirePending, HandleExpireTask(svc, logger))

	w := &Worker{server: srv, mux: mux, logger: logger}
	if sweepSpec != "" {
		w.scheduler = asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Logger: logger.Sugar()})
		task, opts := tasks.NewExpirePendingTask()
		if _, err := w.scheduler.Register(sweepSpec, task, opts...); err != nil {
			return nil, fmt.Errorf("register expiry sweep %q: %w", sweepSpec, err)
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled, then drains in-flight tasks.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.server.Shutdown()
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	w.logger.Info("worker started")

	<-ctx.Done()
	w.logger.Info("worker shutting down")
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	return nil
}

// HandleNotificationTask delivers one notification. A payload that cannot be
// decoded is dropped without retry.
func HandleNotificationTask(mailer notification.Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := tasks.ParseNotificationTask(task)
		if err != nil {
			logger.Error("invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode notification: %v: %w", err, asynq.SkipRetry)
		}
		if err := mailer.Send(ctx, n); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("kind", string(n.Kind)),
				zap.String("reservationID", n.ReservationID),
				zap.Error(err))
			return err
		}
		logger.Info("notification delivered",
			zap.String("kind", string(n.Kind)),
			zap.String("reservationID", n.ReservationID))
		return nil
	}
}

// HandleExpireTask cancels stale unpaid reservations.
func HandleExpireTask(svc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return sweep(ctx, svc, logger)
	}
}
