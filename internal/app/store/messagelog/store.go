// internal/app/store/messagelog/store.go
package messagelog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// Store manages dispatch batch records: append, read newest-first,
// bulk delete. One document per batch, never per recipient.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("message_log")}
}

// Record appends one batch record.
func (s *Store) Record(ctx context.Context, rec models.MessageRecord) (models.MessageRecord, error) {
	rec.ID = primitive.NewObjectID()
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.MessageRecord{}, err
	}
	return rec, nil
}

// ListForUser returns batches sent by one user, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.MessageRecord, error) {
	return s.list(ctx, bson.M{"sent_by": userID}, limit)
}

// ListAll returns all batches, newest first.
func (s *Store) ListAll(ctx context.Context, limit int64) ([]models.MessageRecord, error) {
	return s.list(ctx, bson.M{}, limit)
}

// ClearForUser deletes one user's batch records. Returns the count.
func (s *Store) ClearForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"sent_by": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ClearAll wipes the whole message log. Returns the count.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the read-path indexes. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sent_at", Value: -1}}},
		{Keys: bson.D{{Key: "sent_by", Value: 1}, {Key: "sent_at", Value: -1}}},
	})
	return err
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.MessageRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MessageRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
