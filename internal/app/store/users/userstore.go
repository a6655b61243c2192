package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
	"github.com/prabhatdev/gramvani/internal/app/system/status"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "main_admin"|"super_admin"|"admin"|"user"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errParentNeeded   = errors.New("every role except main_admin must have a parent")
	errParentForRoot  = errors.New("main_admin cannot have a parent")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
// The plaintext password is hashed here; callers never store hashes
// themselves. The parent reference is required for every role except
// main_admin, making the hierarchy an explicit validated tree.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Mobile = normalize.Mobile(u.Mobile)
	u.Role = hierarchy.Canonical(u.Role)
	if u.Status == "" {
		u.Status = status.Active
	}

	if !hierarchy.IsValid(u.Role) {
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}
	if u.Role == hierarchy.RoleMainAdmin {
		if u.ParentID != nil {
			return models.User{}, errParentForRoot
		}
	} else if u.ParentID == nil {
		return models.User{}, errParentNeeded
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Store) VerifyPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ListChildren returns the direct children of a user, newest first.
func (s *Store) ListChildren(ctx context.Context, parentID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"parent_id": parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSubtree returns every descendant of rootID (excluding the root
// itself), walking parent references level by level. The hierarchy is at
// most four levels deep, so this is a handful of queries at worst.
func (s *Store) ListSubtree(ctx context.Context, rootID primitive.ObjectID) ([]models.User, error) {
	frontier := []primitive.ObjectID{rootID}
	var out []models.User

	for len(frontier) > 0 {
		cur, err := s.c.Find(ctx, bson.M{"parent_id": bson.M{"$in": frontier}})
		if err != nil {
			return nil, err
		}
		var level []models.User
		if err := cur.All(ctx, &level); err != nil {
			return nil, err
		}
		if len(level) == 0 {
			break
		}
		out = append(out, level...)
		frontier = frontier[:0]
		for _, u := range level {
			frontier = append(frontier, u.ID)
		}
	}
	return out, nil
}

// IsDescendant reports whether userID sits somewhere below ancestorID in
// the tree, walking parent pointers upward from the user.
func (s *Store) IsDescendant(ctx context.Context, ancestorID, userID primitive.ObjectID) (bool, error) {
	cur := userID
	// Hierarchy depth is bounded at 4; the cap guards against cycles from
	// hand-edited data.
	for i := 0; i < 8; i++ {
		var u models.User
		if err := s.c.FindOne(ctx, bson.M{"_id": cur}).Decode(&u); err != nil {
			if err == mongo.ErrNoDocuments {
				return false, nil
			}
			return false, err
		}
		if u.ParentID == nil {
			return false, nil
		}
		if *u.ParentID == ancestorID {
			return true, nil
		}
		cur = *u.ParentID
	}
	return false, nil
}

// UpdateStatus flips a user between active and disabled.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, newStatus string) error {
	if !status.IsValid(newStatus) {
		return errBadStatus
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": newStatus, "updated_at": time.Now()}})
	return err
}

// Delete removes a user by ID. Returns the number deleted (0 or 1).
// Callers are responsible for first checking the user has no children.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// HasChildren reports whether any account references id as its parent.
func (s *Store) HasChildren(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"parent_id": id}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// EnsureMainAdmin creates the main admin account from config if no
// account with that email exists yet. Called once at startup.
func (s *Store) EnsureMainAdmin(ctx context.Context, email, password string) (*models.User, error) {
	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := s.Create(ctx, models.User{
		FullName: "Main Admin",
		Email:    email,
		Role:     hierarchy.RoleMainAdmin,
	}, password)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
