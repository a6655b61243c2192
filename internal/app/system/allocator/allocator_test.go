package allocator_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	allocationstore "github.com/prabhatdev/gramvani/internal/app/store/allocations"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	"github.com/prabhatdev/gramvani/internal/app/system/allocator"
	"github.com/prabhatdev/gramvani/internal/testutil"
)

func setupManager(t *testing.T) (*allocator.Manager, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	allocations := allocationstore.New(db)
	contacts := contactstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := allocations.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	return allocator.New(allocations, contacts, zap.NewNop()), testutil.NewFixtures(t, db)
}

func grantWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.AddDate(0, 0, -1), now.AddDate(0, 1, 0)
}

func TestAllocate_ExplicitVillages(t *testing.T) {
	mgr, fixtures := setupManager(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")
	fixtures.CreateContact(ctx, "Pune", "Shirur", "B", "9000000002")
	fixtures.CreateContact(ctx, "Pune", "Baramati", "C", "9000000003")

	grantee := primitive.NewObjectID()
	start, end := grantWindow()
	res, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		Villages:  []string{"Shirur", "Baramati"},
		StartDate: start,
		EndDate:   end,
		GrantorID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if res.Requested != 2 || res.Allocated != 2 || len(res.Skipped) != 0 {
		t.Errorf("result: got %+v", res)
	}

	list, err := mgr.ListForUser(ctx, grantee)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("allocations: got %d, want 2", len(list))
	}
	// Contact counts are snapshotted at grant time.
	counts := map[string]int64{}
	for _, a := range list {
		counts[a.Village] = a.ContactCount
	}
	if counts["Shirur"] != 2 || counts["Baramati"] != 1 {
		t.Errorf("snapshot counts: got %v", counts)
	}
}

func TestAllocate_WholeDistrict(t *testing.T) {
	mgr, fixtures := setupManager(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")
	fixtures.CreateContact(ctx, "Pune", "Baramati", "B", "9000000002")

	grantee := primitive.NewObjectID()
	start, end := grantWindow()
	res, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		StartDate: start,
		EndDate:   end,
		GrantorID: primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if res.Allocated != 2 {
		t.Errorf("district expansion: got %d allocations, want 2", res.Allocated)
	}
}

func TestAllocate_EmptyDistrict(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	start, end := grantWindow()
	_, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: primitive.NewObjectID(),
		District:  "Nowhere",
		StartDate: start,
		EndDate:   end,
	})
	if !errors.Is(err, allocator.ErrNoVillages) {
		t.Fatalf("got %v, want ErrNoVillages", err)
	}
}

func TestAllocate_PartialDuplicates(t *testing.T) {
	mgr, fixtures := setupManager(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")
	fixtures.CreateContact(ctx, "Pune", "Baramati", "B", "9000000002")

	grantee := primitive.NewObjectID()
	start, end := grantWindow()

	first, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		Villages:  []string{"Shirur"},
		StartDate: start,
		EndDate:   end,
	})
	if err != nil || first.Allocated != 1 {
		t.Fatalf("first grant: %+v, %v", first, err)
	}

	// Second grant overlaps one village; the duplicate is skipped but the
	// grant still succeeds for the new village.
	second, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		Villages:  []string{"Shirur", "Baramati"},
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		t.Fatalf("second grant failed: %v", err)
	}
	if second.Allocated != 1 || len(second.Skipped) != 1 {
		t.Errorf("got %+v, want 1 allocated and 1 skipped", second)
	}
	if second.Skipped[0].Village != "Shirur" {
		t.Errorf("skipped village: got %q", second.Skipped[0].Village)
	}

	// Re-granting everything fails outright.
	_, err = mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		Villages:  []string{"Shirur", "Baramati"},
		StartDate: start,
		EndDate:   end,
	})
	if !errors.Is(err, allocator.ErrAllFailed) {
		t.Errorf("got %v, want ErrAllFailed", err)
	}
}

func TestRemoveAndSummarize(t *testing.T) {
	mgr, fixtures := setupManager(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")
	fixtures.CreateContact(ctx, "Pune", "Baramati", "B", "9000000002")

	grantee := primitive.NewObjectID()
	start, end := grantWindow()
	if _, err := mgr.Allocate(ctx, allocator.Request{
		GranteeID: grantee,
		District:  "Pune",
		StartDate: start,
		EndDate:   end,
	}); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	list, err := mgr.ListForUser(ctx, grantee)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}

	sum, err := mgr.Summarize(ctx, grantee)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.TotalAllocations != len(list) {
		t.Errorf("summary/list mismatch: %d vs %d", sum.TotalAllocations, len(list))
	}
	if sum.TotalDistricts != 1 || sum.TotalVillages != 2 {
		t.Errorf("summary: got %+v", sum)
	}

	ok, err := mgr.Remove(ctx, grantee, list[0].ID)
	if err != nil || !ok {
		t.Fatalf("Remove = %v, %v; want true", ok, err)
	}
	// Removing again reports not found.
	ok, err = mgr.Remove(ctx, grantee, list[0].ID)
	if err != nil {
		t.Fatalf("second Remove errored: %v", err)
	}
	if ok {
		t.Error("second Remove should report nothing deleted")
	}

	sum, err = mgr.Summarize(ctx, grantee)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.TotalAllocations != len(list)-1 {
		t.Errorf("summary after removal: got %d", sum.TotalAllocations)
	}
}
