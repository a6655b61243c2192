package contactstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prabhatdev/gramvani/internal/app/system/csvutil"
	"github.com/prabhatdev/gramvani/internal/app/system/normalize"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

// Store manages the uploaded contact records. All contacts live in one
// collection keyed by case-folded (district, village) rather than in
// per-village collections, so scope queries are plain indexed filters.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

// BulkInsert stores pre-scanned CSV rows under the given scope.
// Rows are assumed to have passed csvutil validation; this is a plain
// batch write with shared scope and audit fields.
func (s *Store) BulkInsert(ctx context.Context, district, village string, rows []csvutil.ContactCSVRow, uploadedBy primitive.ObjectID) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	district = normalize.Place(district)
	village = normalize.Place(village)
	now := time.Now()

	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, models.Contact{
			ID:         primitive.NewObjectID(),
			District:   district,
			DistrictCI: text.Fold(district),
			Village:    village,
			VillageCI:  text.Fold(village),
			Name:       row.Name,
			Mobile:     row.Mobile,
			Address:    row.Address,
			Extra:      row.Extra,
			UploadedBy: uploadedBy,
			UploadedAt: now,
		})
	}

	res, err := s.c.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// CountByScope returns the number of contacts in a (district, village) pair.
func (s *Store) CountByScope(ctx context.Context, district, village string) (int64, error) {
	return s.c.CountDocuments(ctx, scopeFilter(district, village))
}

// Districts returns the distinct district names with uploaded contacts.
func (s *Store) Districts(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "district", bson.M{})
}

// Villages returns the distinct village names within a district.
func (s *Store) Villages(ctx context.Context, district string) ([]string, error) {
	return s.distinct(ctx, "village", bson.M{"district_ci": text.Fold(normalize.Place(district))})
}

// ListByScope returns all contacts in a scope; village may be empty for
// the whole district. Used by CSV export.
func (s *Store) ListByScope(ctx context.Context, district, village string) ([]models.Contact, error) {
	filter := bson.M{"district_ci": text.Fold(normalize.Place(district))}
	if village != "" {
		filter["village_ci"] = text.Fold(normalize.Place(village))
	}
	opts := options.Find().SetSort(bson.D{{Key: "village_ci", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MobilesByScope returns just the non-empty mobile numbers in a village,
// in insertion order, using a projection to skip the rest of each doc.
func (s *Store) MobilesByScope(ctx context.Context, district, village string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"mobile": 1})
	cur, err := s.c.Find(ctx, scopeFilter(district, village), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			Mobile string `bson:"mobile"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Mobile != "" {
			out = append(out, doc.Mobile)
		}
	}
	return out, cur.Err()
}

// DeleteByScope removes every contact in a scope; village may be empty
// to wipe the whole district. Returns the number deleted.
func (s *Store) DeleteByScope(ctx context.Context, district, village string) (int64, error) {
	filter := bson.M{"district_ci": text.Fold(normalize.Place(district))}
	if village != "" {
		filter["village_ci"] = text.Fold(normalize.Place(village))
	}
	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	vals, err := s.c.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

func scopeFilter(district, village string) bson.M {
	return bson.M{
		"district_ci": text.Fold(normalize.Place(district)),
		"village_ci":  text.Fold(normalize.Place(village)),
	}
}
