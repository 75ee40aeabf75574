package reservationRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the reservation queries rely on.
func (s *MongoStore) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reservationIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_reference"),
		},
		// availability aggregation
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "slot", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("date_slot_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "payment_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("payment_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "payment_status", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("pending_expiry_idx"),
		},
	}
	if _, err := s.reservations.Indexes().CreateMany(ctx, reservationIdx); err != nil {
		return fmt.Errorf("failed to create reservation indexes: %w", err)
	}

	if _, err := s.counters.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "slot", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_session"),
	}); err != nil {
		return fmt.Errorf("failed to create session counter index: %w", err)
	}

	customerIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_email"),
		},
	}
	if _, err := s.customers.Indexes().CreateMany(ctx, customerIdx); err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}
	return nil
}
