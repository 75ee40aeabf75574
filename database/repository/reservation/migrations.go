package reservationRepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// tour_sessions rows exist only to be locked; the seat total is always the
// sum over reservations.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tour_sessions (
	date TEXT NOT NULL,
	slot TEXT NOT NULL,
	PRIMARY KEY (date, slot)
);

CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	reference TEXT UNIQUE NOT NULL,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	date TEXT NOT NULL,
	slot TEXT NOT NULL,
	adults INT NOT NULL CHECK (adults >= 0),
	children INT NOT NULL CHECK (children >= 0),
	participants INT NOT NULL CHECK (participants >= 1),
	price_per_person_cents BIGINT NOT NULL,
	total_cents BIGINT NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	payment_id TEXT NOT NULL DEFAULT '',
	pickup_location TEXT NOT NULL DEFAULT '',
	special_requests TEXT NOT NULL DEFAULT '',
	last_payment_error TEXT NOT NULL DEFAULT '',
	payment_failed_at TIMESTAMPTZ,
	cancelled_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	CHECK (participants = adults + children)
);

CREATE INDEX IF NOT EXISTS idx_reservations_session ON reservations(date, slot) WHERE status <> 'cancelled';
CREATE INDEX IF NOT EXISTS idx_reservations_payment ON reservations(payment_id) WHERE payment_id <> '';
CREATE INDEX IF NOT EXISTS idx_reservations_pending ON reservations(created_at) WHERE status = 'pending';
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
