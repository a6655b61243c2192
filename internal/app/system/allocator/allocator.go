// Package allocator implements the allocation manager: granting users
// time-bounded access to village contact data, listing and removing
// grants, and summarizing them.
//
// Granting "all villages in a district" produces one allocation record
// per village that exists at grant time; the set is never re-evaluated.
// Contact counts are snapshots taken here, not live values.
package allocator

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	allocationstore "github.com/prabhatdev/gramvani/internal/app/store/allocations"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

var (
	// ErrNoVillages is returned when a grant names no villages and the
	// district has none to expand.
	ErrNoVillages = errors.New("no villages to allocate")

	// ErrAllFailed is returned when every requested village failed;
	// a grant succeeds only if at least one village was allocated.
	ErrAllFailed = errors.New("no villages could be allocated")
)

// Request describes one grant: a grantee, a district, an explicit
// village list (empty means every village currently in the district),
// and the inclusive access window.
type Request struct {
	GranteeID    primitive.ObjectID
	GranteeEmail string
	District     string
	Villages     []string
	StartDate    time.Time
	EndDate      time.Time
	GrantorID    primitive.ObjectID
	GrantorEmail string
}

// SkippedVillage records one village that could not be allocated.
type SkippedVillage struct {
	Village string `json:"village"`
	Reason  string `json:"reason"`
}

// Result summarizes a grant: how many villages were requested, how many
// allocation records were created, and why the rest were skipped.
type Result struct {
	Requested int              `json:"requested"`
	Allocated int              `json:"allocated"`
	Skipped   []SkippedVillage `json:"skipped,omitempty"`
}

// Manager coordinates the allocation and contact stores.
type Manager struct {
	allocations *allocationstore.Store
	contacts    *contactstore.Store
	log         *zap.Logger
}

func New(allocations *allocationstore.Store, contacts *contactstore.Store, logger *zap.Logger) *Manager {
	return &Manager{allocations: allocations, contacts: contacts, log: logger}
}

// Allocate creates one allocation per requested village.
//
// Partial failure policy: a village that fails (duplicate scope, count
// query error, insert error) is logged and skipped; the grant succeeds
// if at least one village went through. Count snapshotting and record
// insertion are two independent calls per village — the unique scope
// index is what keeps duplicates out, not any cross-call transaction.
func (m *Manager) Allocate(ctx context.Context, req Request) (Result, error) {
	villages := req.Villages
	if len(villages) == 0 {
		var err error
		villages, err = m.contacts.Villages(ctx, req.District)
		if err != nil {
			return Result{}, err
		}
	}
	if len(villages) == 0 {
		return Result{}, ErrNoVillages
	}

	res := Result{Requested: len(villages)}
	for _, village := range villages {
		count, err := m.contacts.CountByScope(ctx, req.District, village)
		if err != nil {
			m.log.Warn("contact count failed; village skipped",
				zap.String("district", req.District),
				zap.String("village", village),
				zap.Error(err))
			res.Skipped = append(res.Skipped, SkippedVillage{Village: village, Reason: err.Error()})
			continue
		}

		_, err = m.allocations.Create(ctx, models.Allocation{
			UserID:           req.GranteeID,
			UserEmail:        req.GranteeEmail,
			District:         req.District,
			Village:          village,
			ContactCount:     count,
			StartDate:        req.StartDate,
			EndDate:          req.EndDate,
			AllocatedBy:      req.GrantorID,
			AllocatedByEmail: req.GrantorEmail,
		})
		if err != nil {
			if !errors.Is(err, allocationstore.ErrDuplicateAllocation) {
				m.log.Warn("allocation insert failed; village skipped",
					zap.String("district", req.District),
					zap.String("village", village),
					zap.Error(err))
			}
			res.Skipped = append(res.Skipped, SkippedVillage{Village: village, Reason: err.Error()})
			continue
		}
		res.Allocated++
	}

	if res.Allocated == 0 {
		return res, ErrAllFailed
	}
	return res, nil
}

// GetByID loads one allocation record.
func (m *Manager) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Allocation, error) {
	return m.allocations.GetByID(ctx, id)
}

// ListForUser returns a grantee's allocations, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Allocation, error) {
	return m.allocations.ListForUser(ctx, userID)
}

// Remove hard-deletes one allocation belonging to the user. The caller
// writes the activity-log entry; there is no other audit trail.
func (m *Manager) Remove(ctx context.Context, userID, allocationID primitive.ObjectID) (bool, error) {
	n, err := m.allocations.Delete(ctx, userID, allocationID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Summarize aggregates a user's allocations. By construction
// Summary.TotalAllocations always equals len(ListForUser(...)).
func (m *Manager) Summarize(ctx context.Context, userID primitive.ObjectID) (allocationstore.Summary, error) {
	return m.allocations.Summarize(ctx, userID)
}
