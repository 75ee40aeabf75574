package reservationRepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourbooking/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps reservations in MongoDB. Each (date, slot) has a counter
// document holding its active seat total; admissions move that counter with a
// guarded $inc inside the same transaction as the reservation write.
type MongoStore struct {
	client       *mongo.Client
	reservations *mongo.Collection
	customers    *mongo.Collection
	counters     *mongo.Collection
	timeout      time.Duration
}

// NewMongoStore constructs a store on the named database.
func NewMongoStore(client *mongo.Client, dbName string, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:       client,
		reservations: db.Collection("reservations"),
		customers:    db.Collection("customers"),
		counters:     db.Collection("session_counters"),
		timeout:      timeout,
	}
}

type sessionCounter struct {
	Date   string      `bson:"date"`
	Slot   models.Slot `bson:"slot"`
	Booked int         `bson:"booked"`
}

func (s *MongoStore) findOne(ctx context.Context, op, key string, filter bson.M) (*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var r models.Reservation
	if err := s.reservations.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationNotFound(key)
		}
		return nil, classify(op, err)
	}
	return &r, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	return s.findOne(ctx, "get reservation", id, bson.M{"id": id})
}

func (s *MongoStore) GetByReference(ctx context.Context, reference string) (*models.Reservation, error) {
	return s.findOne(ctx, "get reservation by reference", reference, bson.M{"reference": strings.ToUpper(reference)})
}

func (s *MongoStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Reservation, error) {
	if paymentID == "" {
		return nil, reservationNotFound(paymentID)
	}
	return s.findOne(ctx, "get reservation by payment", paymentID, bson.M{"payment_id": paymentID})
}

func (s *MongoStore) BookedBySlot(ctx context.Context, date string) (map[models.Slot]int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "date", Value: date},
			{Key: "status", Value: bson.D{{Key: "$ne", Value: models.StatusCancelled}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$slot"},
			{Key: "booked", Value: bson.D{{Key: "$sum", Value: "$participants"}}},
		}}},
	}
	cursor, err := s.reservations.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classify("aggregate availability", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Slot   models.Slot `bson:"_id"`
		Booked int         `bson:"booked"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, classify("aggregate availability", err)
	}
	out := make(map[models.Slot]int, len(rows))
	for _, row := range rows {
		out[row.Slot] = row.Booked
	}
	return out, nil
}

func (s *MongoStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{
		"status":         models.StatusPending,
		"payment_status": models.PaymentUnpaid,
		"created_at":     bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.reservations.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify("list pending", err)
	}
	defer cursor.Close(ctx)

	var out []*models.Reservation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, classify("list pending", err)
	}
	return out, nil
}

func (s *MongoStore) SaveCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(c.Email))
	set := bson.M{"full_name": c.FullName, "updated_at": c.UpdatedAt}
	if c.Phone != "" {
		set["phone"] = c.Phone
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"id":         c.ID,
			"email":      email,
			"created_at": c.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Customer
	if err := s.customers.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&stored); err != nil {
		return nil, classify("save customer", err)
	}
	return &stored, nil
}

func (s *MongoStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var c models.Customer
	if err := s.customers.FindOne(ctx, bson.M{"id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerNotFound(id)
		}
		return nil, classify("get customer", err)
	}
	return &c, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}
