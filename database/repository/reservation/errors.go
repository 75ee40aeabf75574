package reservationRepo

import (
	"context"
	"errors"
	"fmt"

	"tourbooking/models"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// classify turns driver failures into the storage error taxonomy. Domain
// errors raised inside a transaction pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded models.Coded
	if errors.As(err, &coded) || errors.Is(err, models.ErrVersionConflict) {
		return err
	}
	if isDuplicate(err) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrDuplicateReservation, err)
	}
	if isTransient(err) {
		return &models.TransientStorageError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDuplicate(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("UnknownTransactionCommitResult")) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "57014":
			// serialization failure, deadlock, lock not available, query canceled
			return true
		}
		return pgErr.Code[:2] == "08"
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
