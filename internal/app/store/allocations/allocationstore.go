package allocationstore

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

	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
	"github.com/prabhatdev/gramvani/internal/app/system/status"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

var (
	// ErrDuplicateAllocation is returned when the (user, district, village)
	// scope already has an allocation. Enforced by a unique index, so the
	// one-allocation-per-scope invariant holds even under concurrent grants.
	ErrDuplicateAllocation = errors.New("this village is already allocated to the user")

	errBadWindow = errors.New("end date must not be before start date")
)

// Summary aggregates a user's allocations.
type Summary struct {
	TotalAllocations int `json:"total_allocations"`
	TotalDistricts   int `json:"total_districts"`
	TotalVillages    int `json:"total_villages"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("allocations")}
}

// Create inserts one allocation record after normalizing scope fields.
// Allocations are never updated in place; window changes are
// delete-and-recreate at the manager level.
func (s *Store) Create(ctx context.Context, a models.Allocation) (models.Allocation, error) {
	a.ID = primitive.NewObjectID()
	a.District = normalize.Place(a.District)
	a.DistrictCI = text.Fold(a.District)
	a.Village = normalize.Place(a.Village)
	a.VillageCI = text.Fold(a.Village)
	a.UserEmail = normalize.Email(a.UserEmail)
	a.AllocatedByEmail = normalize.Email(a.AllocatedByEmail)
	if a.Status == "" {
		a.Status = status.Active
	}
	if a.EndDate.Before(a.StartDate) {
		return models.Allocation{}, errBadWindow
	}
	a.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Allocation{}, ErrDuplicateAllocation
		}
		return models.Allocation{}, err
	}
	return a, nil
}

// GetByID loads one allocation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Allocation, error) {
	var a models.Allocation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForUser returns a grantee's allocations, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Allocation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Allocation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListForUserDistrict returns a grantee's allocations within one
// district, in creation order. The resolver uses this to expand
// "whole district" sends.
func (s *Store) ListForUserDistrict(ctx context.Context, userID primitive.ObjectID, district string) ([]models.Allocation, error) {
	filter := bson.M{
		"user_id":     userID,
		"district_ci": text.Fold(normalize.Place(district)),
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Allocation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete hard-deletes one allocation scoped to the user. The user filter
// keeps one grantee's removal from ever touching another's records.
// Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, userID, allocationID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": allocationID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Summarize computes the allocation totals for one user. Distinct
// villages are counted per (district, village) pair since village names
// repeat across districts.
func (s *Store) Summarize(ctx context.Context, userID primitive.ObjectID) (Summary, error) {
	list, err := s.ListForUser(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	districts := make(map[string]struct{})
	villages := make(map[[2]string]struct{})
	for _, a := range list {
		districts[a.DistrictCI] = struct{}{}
		villages[[2]string{a.DistrictCI, a.VillageCI}] = struct{}{}
	}

	return Summary{
		TotalAllocations: len(list),
		TotalDistricts:   len(districts),
		TotalVillages:    len(villages),
	}, nil
}

// EnsureIndexes creates the unique scope index. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "district_ci", Value: 1},
				{Key: "village_ci", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_user_scope"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	})
	return err
}
