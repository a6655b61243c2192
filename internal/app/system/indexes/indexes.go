// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureContacts(ctx, db); err != nil {
		problems = append(problems, "contacts: "+err.Error())
	}
	if err := ensureAllocations(ctx, db); err != nil {
		problems = append(problems, "allocations: "+err.Error())
	}
	if err := ensureMessageLog(ctx, db); err != nil {
		problems = append(problems, "message_log: "+err.Error())
	}
	if err := ensureActivityLog(ctx, db); err != nil {
		problems = append(problems, "activity_log: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	out := map[string]existingIndex{} // key signature -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, specs []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		return err
	}

	var errs []string
	for _, m := range specs {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g. upgrading to unique): drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				helper := ""
				if coll.Name() == "users" && strings.Contains(desiredSig, "email:1") {
					helper = " (duplicates exist on users.email; example finder: " +
						`db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }]))`
				}
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index%s", coll.Name(), desiredName, helper))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Emails are stored lowercase, so a plain unique index gives
		// case-insensitive uniqueness.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Direct-children listings walk parent_id.
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}},
			Options: options.Index().SetName("idx_users_parent"),
		},
		// Role lookups (EnsureMainAdmin, role-scoped listings).
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_role"),
		},
	})
}

func ensureContacts(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("contacts")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Every read path filters on the folded scope pair.
		{
			Keys: bson.D{
				{Key: "district_ci", Value: 1},
				{Key: "village_ci", Value: 1},
			},
			Options: options.Index().SetName("idx_contacts_scope"),
		},
		// District roll-ups (village listings, counts, exports).
		{
			Keys:    bson.D{{Key: "district_ci", Value: 1}},
			Options: options.Index().SetName("idx_contacts_district"),
		},
	})
}

func ensureAllocations(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("allocations")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One allocation per (user, district, village) scope.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "district_ci", Value: 1},
				{Key: "village_ci", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_user_scope"),
		},
		// Per-user allocation listings, newest first.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_alloc_user_created"),
		},
	})
}

func ensureMessageLog(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("message_log")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Global feed, latest-first.
		{
			Keys:    bson.D{{Key: "sent_at", Value: -1}},
			Options: options.Index().SetName("idx_msglog_sent"),
		},
		// Per-sender feed.
		{
			Keys:    bson.D{{Key: "sent_by", Value: 1}, {Key: "sent_at", Value: -1}},
			Options: options.Index().SetName("idx_msglog_sender_sent"),
		},
	})
}

func ensureActivityLog(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("activity_log")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Global feed, latest-first.
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_ts"),
		},
		// Per-actor feed.
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_actor_ts"),
		},
	})
}
