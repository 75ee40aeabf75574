package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourbooking/services/booking"

	"go.uber.org/zap"
)

// SweepInterval reads the period out of an "@every <duration>" spec.
func SweepInterval(spec string) (time.Duration, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(spec), "@every ")
	if !ok {
		return 0, fmt.Errorf("in-process expiry sweep needs an @every spec, got %q", spec)
	}
	every, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("expiry sweep interval: %w", err)
	}
	if every <= 0 {
		return 0, fmt.Errorf("expiry sweep interval must be positive, got %s", every)
	}
	return every, nil
}

// RunExpirySweeper expires stale pending reservations every interval until
// ctx is cancelled. It serves stores that live inside the API process.
func RunExpirySweeper(ctx context.Context, svc booking.BookingService, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("in-process expiry sweep started", zap.Duration("every", every))
	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweep stopped")
			return
		case <-ticker.C:
			_ = sweep(ctx, svc, logger)
		}
	}
}

func sweep(ctx context.Context, svc booking.BookingService, logger *zap.Logger) error {
	n, err := svc.ExpirePending(ctx)
	if err != nil {
		logger.Error("expiry sweep failed", zap.Error(err))
		return err
	}
	if n > 0 {
		logger.Info("expired pending reservations", zap.Int("count", n))
	}
	return nil
}
