// internal/domain/models/activityentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityEntry records one administrative action for the activity log.
// Append-only; queried by actor or globally, newest first.
type ActivityEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action     string             `bson:"action" json:"action"`
	ActorID    primitive.ObjectID `bson:"actor_id" json:"actor_id"`
	ActorEmail string             `bson:"actor_email" json:"actor_email"`
	Details    string             `bson:"details,omitempty" json:"details,omitempty"`
	Success    bool               `bson:"success" json:"success"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}
