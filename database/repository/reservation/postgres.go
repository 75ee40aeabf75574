package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourbooking/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore serialises admissions per session with a row lock on
// tour_sessions held for the rest of the transaction.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{pool: pool, timeout: timeout}
}

const reservationColumns = `id, reference, customer_id, date, slot, adults, children, participants,
	price_per_person_cents, total_cents, currency, status, payment_status, payment_id,
	pickup_location, special_requests, last_payment_error, payment_failed_at, cancelled_at,
	created_at, updated_at, version`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.Reference, &r.CustomerID, &r.Date, &r.Slot, &r.Adults, &r.Children, &r.Participants,
		&r.PricePerPersonCents, &r.TotalCents, &r.Currency, &r.Status, &r.PaymentStatus, &r.PaymentID,
		&r.PickupLocation, &r.SpecialRequests, &r.LastPaymentError, &r.PaymentFailedAt, &r.CancelledAt,
		&r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
	return classify(op, err)
}

// lockSession takes the session row lock and returns the active seats on it,
// ignoring excludeID.
func lockSession(ctx context.Context, tx pgx.Tx, key models.SessionKey, excludeID string) (int, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO tour_sessions (date, slot) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		key.Date, string(key.Slot),
	); err != nil {
		return 0, fmt.Errorf("ensure session row: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM tour_sessions WHERE date=$1 AND slot=$2 FOR UPDATE`,
		key.Date, string(key.Slot),
	); err != nil {
		return 0, fmt.Errorf("lock session: %w", err)
	}
	var booked int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(participants), 0) FROM reservations
		WHERE date=$1 AND slot=$2 AND status <> 'cancelled' AND id <> $3
	`, key.Date, string(key.Slot), excludeID).Scan(&booked)
	if err != nil {
		return 0, fmt.Errorf("sum session seats: %w", err)
	}
	return booked, nil
}

func (s *PostgresStore) Insert(ctx context.Context, r *models.Reservation, capacity int) error {
	err := s.inTx(ctx, "insert reservation", func(ctx context.Context, tx pgx.Tx) error {
		if r.Active() {
			booked, err := lockSession(ctx, tx, r.Key(), r.ID)
			if err != nil {
				return err
			}
			if booked+r.Participants > capacity {
				return capacityError(r.Key(), r.Participants, booked, capacity)
			}
		}
		_, err := tx.Exec(ctx, `INSERT INTO reservations (`+reservationColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,1)`,
			r.ID, r.Reference, r.CustomerID, r.Date, string(r.Slot), r.Adults, r.Children, r.Participants,
			r.PricePerPersonCents, r.TotalCents, r.Currency, string(r.Status), string(r.PaymentStatus), r.PaymentID,
			r.PickupLocation, r.SpecialRequests, r.LastPaymentError, r.PaymentFailedAt, r.CancelledAt,
			r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert reservation failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.Version = 1
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Reservation, expectedVersion int64, capacity int) error {
	err := s.inTx(ctx, "update reservation", func(ctx context.Context, tx pgx.Tx) error {
		current, err := scanReservation(tx.QueryRow(ctx,
			`SELECT `+reservationColumns+` FROM reservations WHERE id=$1 FOR UPDATE`, r.ID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return reservationNotFound(r.ID)
			}
			return err
		}
		if current.Version != expectedVersion {
			return models.ErrVersionConflict
		}
		if needsAdmission(current, r) {
			booked, err := lockSession(ctx, tx, r.Key(), r.ID)
			if err != nil {
				return err
			}
			if booked+r.Participants > capacity {
				return capacityError(r.Key(), r.Participants, booked, capacity)
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE reservations SET
				date=$3, slot=$4, adults=$5, children=$6, participants=$7,
				price_per_person_cents=$8, total_cents=$9, currency=$10, status=$11, payment_status=$12,
				payment_id=$13, pickup_location=$14, special_requests=$15, last_payment_error=$16,
				payment_failed_at=$17, cancelled_at=$18, updated_at=$19, version=version+1
			WHERE id=$1 AND version=$2`,
			r.ID, expectedVersion, r.Date, string(r.Slot), r.Adults, r.Children, r.Participants,
			r.PricePerPersonCents, r.TotalCents, r.Currency, string(r.Status), string(r.PaymentStatus),
			r.PaymentID, r.PickupLocation, r.SpecialRequests, r.LastPaymentError,
			r.PaymentFailedAt, r.CancelledAt, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update reservation failed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) getOne(ctx context.Context, op, key, where string, arg any) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := scanReservation(s.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reservationNotFound(key)
		}
		return nil, classify(op, err)
	}
	return r, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	return s.getOne(ctx, "get reservation", id, `id=$1`, id)
}

func (s *PostgresStore) GetByReference(ctx context.Context, reference string) (*models.Reservation, error) {
	return s.getOne(ctx, "get reservation by reference", reference, `reference=$1`, strings.ToUpper(reference))
}

func (s *PostgresStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Reservation, error) {
	if paymentID == "" {
		return nil, reservationNotFound(paymentID)
	}
	return s.getOne(ctx, "get reservation by payment", paymentID, `payment_id=$1`, paymentID)
}

func (s *PostgresStore) BookedBySlot(ctx context.Context, date string) (map[models.Slot]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT slot, SUM(participants) FROM reservations
		WHERE date=$1 AND status <> 'cancelled'
		GROUP BY slot`, date)
	if err != nil {
		return nil, classify("aggregate availability", err)
	}
	defer rows.Close()

	out := map[models.Slot]int{}
	for rows.Next() {
		var slot string
		var booked int
		if err := rows.Scan(&slot, &booked); err != nil {
			return nil, classify("aggregate availability", err)
		}
		out[models.Slot(slot)] = booked
	}
	return out, classify("aggregate availability", rows.Err())
}

func (s *PostgresStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE status='pending' AND payment_status='unpaid' AND created_at < $1
		ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, classify("list pending", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, classify("list pending", err)
		}
		out = append(out, r)
	}
	return out, classify("list pending", rows.Err())
}

func (s *PostgresStore) SaveCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stored models.Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, full_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = CASE WHEN EXCLUDED.phone = '' THEN customers.phone ELSE EXCLUDED.phone END,
			updated_at = EXCLUDED.updated_at
		RETURNING id, full_name, email, phone, created_at, updated_at`,
		c.ID, c.FullName, strings.ToLower(strings.TrimSpace(c.Email)), c.Phone, c.CreatedAt, c.UpdatedAt,
	).Scan(&stored.ID, &stored.FullName, &stored.Email, &stored.Phone, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, classify("save customer", err)
	}
	return &stored, nil
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var c models.Customer
	err := s.pool.QueryRow(ctx, `SELECT id, full_name, email, phone, created_at, updated_at FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customerNotFound(id)
		}
		return nil, classify("get customer", err)
	}
	return &c, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
