package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbooking/config"
	"tourbooking/cron"
	"tourbooking/handlers"
	"tourbooking/routes"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var healthEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			logger := a.logger

			if config.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			notifier := a.dispatcher()
			svc := a.bookingService(notifier)
			if a.inProcessStore() {
				every, err := cron.SweepInterval(a.cfg.ExpirySweepEvery)
				if err != nil {
					return err
				}
				go cron.RunExpirySweeper(ctx, svc, every, logger)
			}
			bundle := handlers.NewHandlerBundle(
				svc,
				a.reconciler(notifier),
				handlers.AdminSettings{
					PasswordHash: a.cfg.AdminPasswordHash,
					TokenSecret:  a.cfg.JWTSecret,
					TokenTTL:     a.cfg.AdminTokenTTL,
				},
			)
			router := routes.NewRouter(logger, a.cfg.MaxRequestsPerMin, bundle)

			utils.StartHealthMonitor(ctx, healthEvery, a.checks)

			port := a.cfg.AppPort
			if port == "" {
				port = "8080"
			}
			srv := &http.Server{
				Addr:              "0.0.0.0:" + port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Sugar().Infof("Starting server on %s...", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}
			logger.Info("server is shutting down...")

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server forced to shutdown", zap.Error(err))
				return err
			}
			logger.Info("server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().DurationVar(&healthEvery, "health-interval", 30*time.Second, "dependency probe interval")
	return cmd
}
