// Package resolver expands an allocation scope into the concrete list
// of phone numbers at send time.
package resolver

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	allocationstore "github.com/prabhatdev/gramvani/internal/app/store/allocations"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
)

// ErrNothingAllocated is returned for a district-wide resolve when the
// user holds no allocations in that district.
var ErrNothingAllocated = errors.New("no villages allocated to this user in the district")

// Resolver gathers recipient numbers from the contact store, scoped by
// the acting user's allocations.
type Resolver struct {
	allocations *allocationstore.Store
	contacts    *contactstore.Store
}

func New(allocations *allocationstore.Store, contacts *contactstore.Store) *Resolver {
	return &Resolver{allocations: allocations, contacts: contacts}
}

// Resolve returns the mobile numbers for a scope.
//
// With a village: that village's non-empty numbers. Without one: the
// concatenation across every village allocated to userID in the
// district. Either way the final list is deduplicated, preserving
// first-seen order. Numbers are not validated here — the dispatch
// engine applies its own formatting.
//
// Date windows are deliberately not checked here; resolving is a pure
// read and callers decide whether the acting allocation is active.
func (r *Resolver) Resolve(ctx context.Context, userID primitive.ObjectID, district, village string) ([]string, error) {
	var numbers []string

	if village != "" {
		var err error
		numbers, err = r.contacts.MobilesByScope(ctx, district, village)
		if err != nil {
			return nil, err
		}
	} else {
		allocs, err := r.allocations.ListForUserDistrict(ctx, userID, district)
		if err != nil {
			return nil, err
		}
		if len(allocs) == 0 {
			return nil, ErrNothingAllocated
		}
		for _, a := range allocs {
			vs, err := r.contacts.MobilesByScope(ctx, a.District, a.Village)
			if err != nil {
				return nil, err
			}
			numbers = append(numbers, vs...)
		}
	}

	return dedupe(numbers), nil
}

// dedupe removes repeated numbers, keeping first occurrences in order.
func dedupe(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	out := numbers[:0]
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
