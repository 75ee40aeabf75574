package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"tourbooking/cron"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued notifications and expire stale pending bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if a.queue == nil {
				return errors.New("worker needs a reachable REDIS_ADDR")
			}

			// an in-memory store belongs to the serve process, which sweeps it
			sweepSpec := a.cfg.ExpirySweepEvery
			if a.inProcessStore() {
				a.logger.Warn("expiry sweep runs inside serve with the memory store")
				sweepSpec = ""
			}

			w, err := cron.NewWorker(a.queueOpts(), a.mailer(), a.bookingService(a.dispatcher()), sweepSpec, a.logger)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
}
