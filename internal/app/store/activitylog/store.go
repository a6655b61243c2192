// internal/app/store/activitylog/store.go
package activitylog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// Action names recorded in the activity log. Kept as plain strings in
// the documents so the log survives renames in code.
const (
	ActionLoginSuccess      = "login_success"
	ActionLoginFailed       = "login_failed"
	ActionLogout            = "logout"
	ActionUserCreated       = "user_created"
	ActionUserDeleted       = "user_deleted"
	ActionUserStatusChanged = "user_status_changed"
	ActionContactsUploaded  = "contacts_uploaded"
	ActionContactsDeleted   = "contacts_deleted"
	ActionContactsExported  = "contacts_exported"
	ActionAllocationCreated = "allocation_created"
	ActionAllocationRemoved = "allocation_removed"
	ActionMessagesSent      = "messages_sent"
	ActionLogCleared        = "log_cleared"
)

// Store manages the append-only administrative activity log.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_log")}
}

// Append records one activity entry.
func (s *Store) Append(ctx context.Context, e models.ActivityEntry) error {
	e.ID = primitive.NewObjectID()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// ListForActor returns one actor's entries, newest first.
func (s *Store) ListForActor(ctx context.Context, actorID primitive.ObjectID, limit int64) ([]models.ActivityEntry, error) {
	return s.list(ctx, bson.M{"actor_id": actorID}, limit)
}

// ListAll returns all entries, newest first.
func (s *Store) ListAll(ctx context.Context, limit int64) ([]models.ActivityEntry, error) {
	return s.list(ctx, bson.M{}, limit)
}

// ClearForActor bulk-deletes one actor's entries. Returns the count.
func (s *Store) ClearForActor(ctx context.Context, actorID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"actor_id": actorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ClearAll wipes the activity log. Returns the count.
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
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (s *Store) list(ctx context.Context, filter bson.M, limit int64) ([]models.ActivityEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ActivityEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
