// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents every account in the outreach hierarchy:
// main_admin, super_admin, admin, and field user.
//
// The hierarchy is an explicit tree: each account except the main admin
// carries a ParentID pointing at the account that created it. Visibility
// and management rights are derived from this tree, never from email
// string matching.
type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName   string              `bson:"full_name" json:"full_name"`
	FullNameCI string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string              `bson:"email" json:"email"`
	Mobile     string              `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Role       string              `bson:"role" json:"role"` // main_admin | super_admin | admin | user
	Status     string              `bson:"status,omitempty" json:"status,omitempty"`
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // nil only for main_admin

	// PasswordHash is a bcrypt hash; never serialized to clients.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
