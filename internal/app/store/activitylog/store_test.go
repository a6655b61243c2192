package activitylog_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prabhatdev/gramvani/internal/app/store/activitylog"
	"github.com/prabhatdev/gramvani/internal/domain/models"
	"github.com/prabhatdev/gramvani/internal/testutil"
)

func TestStore_AppendAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activitylog.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	base := time.Now().UTC().Add(-time.Hour)
	entries := []models.ActivityEntry{
		{Action: activitylog.ActionLoginSuccess, ActorID: alice, ActorEmail: "a@example.com", Success: true, Timestamp: base},
		{Action: activitylog.ActionUserCreated, ActorID: alice, ActorEmail: "a@example.com", Details: "created admin x", Success: true, Timestamp: base.Add(time.Minute)},
		{Action: activitylog.ActionLoginFailed, ActorID: bob, ActorEmail: "b@example.com", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	mine, err := store.ListForActor(ctx, alice, 0)
	if err != nil {
		t.Fatalf("ListForActor failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("alice's entries: got %d, want 2", len(mine))
	}
	if mine[0].Action != activitylog.ActionUserCreated {
		t.Errorf("expected newest entry first, got %q", mine[0].Action)
	}

	all, err := store.ListAll(ctx, 0)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all entries: got %d, want 3", len(all))
	}
}

func TestStore_Append_DefaultsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activitylog.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	if err := store.Append(ctx, models.ActivityEntry{
		Action:  activitylog.ActionLogout,
		ActorID: actor,
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.ListForActor(ctx, actor, 1)
	if err != nil {
		t.Fatalf("ListForActor failed: %v", err)
	}
	if len(got) != 1 || got[0].Timestamp.IsZero() {
		t.Error("Timestamp should default to now")
	}
}

func TestStore_Clear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := activitylog.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	for _, actor := range []primitive.ObjectID{alice, alice, bob} {
		if err := store.Append(ctx, models.ActivityEntry{
			Action:  activitylog.ActionLoginSuccess,
			ActorID: actor,
			Success: true,
		}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	n, err := store.ClearForActor(ctx, alice)
	if err != nil {
		t.Fatalf("ClearForActor failed: %v", err)
	}
	if n != 2 {
		t.Errorf("cleared: got %d, want 2", n)
	}

	n, err = store.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearAll: got %d, want 1", n)
	}
}
