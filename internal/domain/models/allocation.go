// internal/domain/models/allocation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Allocation grants one user send/read access to one village's contacts
// for an inclusive date window.
//
// An allocation is scoped to exactly one (district, village) pair.
// "All villages in a district" is represented as N allocation records
// created at allocation time; the set is not re-evaluated if villages
// are uploaded later. Allocations are never updated in place — changing
// the window means delete and recreate.
//
// ContactCount is a snapshot taken when the allocation is created, not a
// live count.
type Allocation struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	UserEmail  string             `bson:"user_email" json:"user_email"`
	District   string             `bson:"district" json:"district"`
	DistrictCI string             `bson:"district_ci" json:"district_ci"`
	Village    string             `bson:"village" json:"village"`
	VillageCI  string             `bson:"village_ci" json:"village_ci"`

	ContactCount int64     `bson:"contact_count" json:"contact_count"`
	StartDate    time.Time `bson:"start_date" json:"start_date"`
	EndDate      time.Time `bson:"end_date" json:"end_date"`

	AllocatedBy      primitive.ObjectID `bson:"allocated_by" json:"allocated_by"`
	AllocatedByEmail string             `bson:"allocated_by_email" json:"allocated_by_email"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ActiveOn reports whether the allocation's access window contains t.
// The window is inclusive on both ends; EndDate is treated as end-of-day.
func (a Allocation) ActiveOn(t time.Time) bool {
	if t.Before(a.StartDate) {
		return false
	}
	return !t.After(a.EndDate.Add(24*time.Hour - time.Nanosecond))
}
