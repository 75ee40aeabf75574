package reservationRepo

import (
	"context"
	"errors"
	"fmt"

	"tourbooking/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) withTransaction(ctx context.Context, op string, txnFn func(sc mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sess, err := s.client.StartSession()
	if err != nil {
		return classify(op, fmt.Errorf("could not start mongo session: %w", err))
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
	return classify(op, err)
}

// reserveSeats moves the session counter by delta. A positive delta only
// applies while the counter stays within capacity.
func (s *MongoStore) reserveSeats(sc mongo.SessionContext, key models.SessionKey, delta, requested, capacity int) error {
	keyFilter := bson.M{"date": key.Date, "slot": key.Slot}
	if _, err := s.counters.UpdateOne(sc, keyFilter,
		bson.M{"$setOnInsert": bson.M{"booked": 0}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("init session counter: %w", err)
	}
	if delta == 0 {
		return nil
	}

	filter := bson.M{"date": key.Date, "slot": key.Slot}
	if delta > 0 {
		filter["booked"] = bson.M{"$lte": capacity - delta}
	}
	res, err := s.counters.UpdateOne(sc, filter, bson.M{"$inc": bson.M{"booked": delta}})
	if err != nil {
		return fmt.Errorf("update session counter: %w", err)
	}
	if res.MatchedCount == 0 {
		var counter sessionCounter
		if err := s.counters.FindOne(sc, keyFilter).Decode(&counter); err != nil {
			return fmt.Errorf("read session counter: %w", err)
		}
		// counter.Booked still includes this reservation's seats when it stays put
		return capacityError(key, requested, counter.Booked-(requested-delta), capacity)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, r *models.Reservation, capacity int) error {
	r.Version = 1
	err := s.withTransaction(ctx, "insert reservation", func(sc mongo.SessionContext) error {
		if r.Active() {
			if err := s.reserveSeats(sc, r.Key(), r.Participants, r.Participants, capacity); err != nil {
				return err
			}
		}
		if _, err := s.reservations.InsertOne(sc, r); err != nil {
			return fmt.Errorf("insert reservation failed: %w", err)
		}
		return nil
	})
	if err != nil {
		r.Version = 0
	}
	return err
}

func (s *MongoStore) Update(ctx context.Context, r *models.Reservation, expectedVersion int64, capacity int) error {
	next := r.Clone()
	next.Version = expectedVersion + 1

	err := s.withTransaction(ctx, "update reservation", func(sc mongo.SessionContext) error {
		var current models.Reservation
		if err := s.reservations.FindOne(sc, bson.M{"id": r.ID}).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return reservationNotFound(r.ID)
			}
			return err
		}
		if current.Version != expectedVersion {
			return models.ErrVersionConflict
		}

		switch {
		case current.Active() && next.Active() && current.Key() == next.Key():
			if err := s.reserveSeats(sc, next.Key(), next.Participants-current.Participants, next.Participants, capacity); err != nil {
				return err
			}
		default:
			if current.Active() {
				if err := s.reserveSeats(sc, current.Key(), -current.Participants, current.Participants, capacity); err != nil {
					return err
				}
			}
			if next.Active() {
				if err := s.reserveSeats(sc, next.Key(), next.Participants, next.Participants, capacity); err != nil {
					return err
				}
			}
		}

		res, err := s.reservations.ReplaceOne(sc, bson.M{"id": r.ID, "version": expectedVersion}, next)
		if err != nil {
			return fmt.Errorf("replace reservation failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return models.ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.Version = next.Version
	return nil
}
