// Package mongostore keeps sensor readings in a MongoDB collection, the store
// used by the first deployment of the receiver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soil_monitor/internal/models"
	"soil_monitor/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout    = 5 * time.Second
	DefaultDatabase   = "db"
	DefaultCollection = "data_point"
)

// Connect dials uri and pings the primary within timeout.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// ReadingRepository implements repository.ReadingRepo on a collection.
type ReadingRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

var _ repository.ReadingRepo = (*ReadingRepository)(nil)

func NewReadingRepository(coll *mongo.Collection, timeout time.Duration) *ReadingRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ReadingRepository{coll: coll, timeout: timeout}
}

// EnsureIndexes creates the timestamp and device/timestamp indexes.
func (r *ReadingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "devEUI", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create reading indexes: %w", err)
	}
	return nil
}

func (r *ReadingRepository) Save(ctx context.Context, rd models.SensorReading) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}
	rd.Timestamp = rd.Timestamp.UTC()
	if _, err := r.coll.InsertOne(ctx, rd); err != nil {
		return fmt.Errorf("insert reading for %s: %w", rd.DevEUI, err)
	}
	return nil
}

func (r *ReadingRepository) Range(ctx context.Context, from, to time.Time) ([]models.SensorReading, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, rangeFilter(from, to), options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find readings: %w", err)
	}
	out := make([]models.SensorReading, 0, 64)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

func (r *ReadingRepository) DeleteWindow(ctx context.Context, point time.Time, tol time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, windowFilter(point, tol))
	if err != nil {
		return 0, fmt.Errorf("delete readings around %s: %w", point.UTC().Format(time.RFC3339), err)
	}
	return res.DeletedCount, nil
}

func (r *ReadingRepository) Latest(ctx context.Context, devEUI string) (*models.SensorReading, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rd models.SensorReading
	err := r.coll.FindOne(ctx, bson.M{"devEUI": devEUI},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&rd)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest reading of %s: %w", devEUI, err)
	}
	rd.Timestamp = rd.Timestamp.UTC()
	return &rd, nil
}

// rangeFilter matches from <= timestamp <= to; zero bounds are open.
func rangeFilter(from, to time.Time) bson.M {
	ts := bson.M{}
	if !from.IsZero() {
		ts["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		ts["$lte"] = to.UTC()
	}
	if len(ts) == 0 {
		return bson.M{}
	}
	return bson.M{"timestamp": ts}
}

// windowFilter matches point-tol < timestamp < point+tol.
func windowFilter(point time.Time, tol time.Duration) bson.M {
	point = point.UTC()
	return bson.M{"timestamp": bson.M{
		"$gt": point.Add(-tol),
		"$lt": point.Add(tol),
	}}
}
