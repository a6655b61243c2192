package allocations

import (
	"time"

	"github.com/prabhatdev/gramvani/internal/app/system/allocator"
	"github.com/prabhatdev/gramvani/internal/domain/models"
)

type createRequest struct {
	UserID   string   `json:"user_id"`
	District string   `json:"district"`
	Villages []string `json:"villages"`

	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

type skippedView struct {
	Village string `json:"village"`
	Reason  string `json:"reason"`
}

type createResponse struct {
	Requested int           `json:"requested"`
	Allocated int           `json:"allocated"`
	Skipped   []skippedView `json:"skipped,omitempty"`
}

func toCreateResponse(res allocator.Result) createResponse {
	out := createResponse{Requested: res.Requested, Allocated: res.Allocated}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, skippedView{Village: s.Village, Reason: s.Reason})
	}
	return out
}

type allocationView struct {
	ID           string    `json:"id"`
	District     string    `json:"district"`
	Village      string    `json:"village"`
	ContactCount int64     `json:"contact_count"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAllocationView(a models.Allocation, now time.Time) allocationView {
	return allocationView{
		ID:           a.ID.Hex(),
		District:     a.District,
		Village:      a.Village,
		ContactCount: a.ContactCount,
		StartDate:    a.StartDate,
		EndDate:      a.EndDate,
		Active:       a.ActiveOn(now),
		CreatedAt:    a.CreatedAt,
	}
}
