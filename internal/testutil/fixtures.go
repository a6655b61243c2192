package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it repeatedly accumulates parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given role. parentID may be
// nil only for a main_admin.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, parentID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      normalize.Email(email),
		Role:       role,
		Status:     "active",
		ParentID:   parentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateContact inserts one contact into a (district, village) scope.
func (f *Fixtures) CreateContact(ctx context.Context, district, village, name, mobile string) models.Contact {
	f.t.Helper()

	district = normalize.Place(district)
	village = normalize.Place(village)
	c := models.Contact{
		ID:         primitive.NewObjectID(),
		District:   district,
		DistrictCI: text.Fold(district),
		Village:    village,
		VillageCI:  text.Fold(village),
		Name:       name,
		Mobile:     normalize.Mobile(mobile),
		UploadedBy: primitive.NewObjectID(),
		UploadedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("contacts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contact: %v", err)
	}
	return c
}

// CreateAllocation inserts one allocation for a user with a window that
// contains the current time.
func (f *Fixtures) CreateAllocation(ctx context.Context, userID primitive.ObjectID, district, village string) models.Allocation {
	f.t.Helper()

	district = normalize.Place(district)
	village = normalize.Place(village)
	now := time.Now().UTC()
	a := models.Allocation{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		District:    district,
		DistrictCI:  text.Fold(district),
		Village:     village,
		VillageCI:   text.Fold(village),
		StartDate:   now.AddDate(0, 0, -1),
		EndDate:     now.AddDate(0, 1, 0),
		AllocatedBy: primitive.NewObjectID(),
		Status:      "active",
		CreatedAt:   now,
	}

	if _, err := f.db.Collection("allocations").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test allocation: %v", err)
	}
	return a
}
