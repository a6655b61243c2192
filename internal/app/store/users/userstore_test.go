package userstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/domain/models"
	"github.com/prabhatdev/gramvani/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Main Admin", "root@example.com", hierarchy.RoleMainAdmin, nil)

	created, err := store.Create(ctx, models.User{
		FullName: "  Sunita Deshmukh ",
		Email:    "Sunita@Example.COM",
		Role:     "super_admin",
		ParentID: &root.ID,
	}, "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.FullName != "Sunita Deshmukh" {
		t.Errorf("FullName: got %q", created.FullName)
	}
	if created.Email != "sunita@example.com" {
		t.Errorf("Email: got %q, want normalized", created.Email)
	}
	if created.Status != "active" {
		t.Errorf("Status: got %q, want active default", created.Status)
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cret-pass" {
		t.Error("expected a bcrypt hash, not empty or plaintext")
	}
	if !store.VerifyPassword(&created, "s3cret-pass") {
		t.Error("VerifyPassword should accept the original password")
	}
	if store.VerifyPassword(&created, "wrong") {
		t.Error("VerifyPassword should reject a wrong password")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Main Admin", "root@example.com", hierarchy.RoleMainAdmin, nil)

	// Bad role.
	if _, err := store.Create(ctx, models.User{
		FullName: "X", Email: "x@example.com", Role: "overlord", ParentID: &root.ID,
	}, ""); err == nil {
		t.Error("expected error for invalid role")
	}

	// Missing parent for non-root role.
	if _, err := store.Create(ctx, models.User{
		FullName: "X", Email: "x2@example.com", Role: hierarchy.RoleAdmin,
	}, ""); err == nil {
		t.Error("expected error for missing parent")
	}

	// Parent on a main_admin.
	if _, err := store.Create(ctx, models.User{
		FullName: "X", Email: "x3@example.com", Role: hierarchy.RoleMainAdmin, ParentID: &root.ID,
	}, ""); err == nil {
		t.Error("expected error for main_admin with parent")
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Main Admin", "root@example.com", hierarchy.RoleMainAdmin, nil)

	got, err := store.GetByEmail(ctx, "  ROOT@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.FullName != "Main Admin" {
		t.Errorf("FullName: got %q", got.FullName)
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("missing user: got %v, want ErrNoDocuments", err)
	}
}

func TestStore_ListSubtree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	ad := fixtures.CreateUser(ctx, "Admin", "admin@example.com", hierarchy.RoleAdmin, &sa.ID)
	u := fixtures.CreateUser(ctx, "Field", "field@example.com", hierarchy.RoleUser, &ad.ID)

	// Someone else's branch should not appear.
	other := fixtures.CreateUser(ctx, "Other Super", "other@example.com", hierarchy.RoleSuperAdmin, &root.ID)

	subtree, err := store.ListSubtree(ctx, sa.ID)
	if err != nil {
		t.Fatalf("ListSubtree failed: %v", err)
	}
	if len(subtree) != 2 {
		t.Fatalf("expected 2 descendants of super admin, got %d", len(subtree))
	}
	ids := map[string]bool{}
	for _, x := range subtree {
		ids[x.ID.Hex()] = true
	}
	if !ids[ad.ID.Hex()] || !ids[u.ID.Hex()] {
		t.Error("subtree missing expected descendants")
	}
	if ids[other.ID.Hex()] {
		t.Error("subtree leaked a sibling branch")
	}

	// Descendant checks follow the same edges.
	if ok, err := store.IsDescendant(ctx, sa.ID, u.ID); err != nil || !ok {
		t.Errorf("IsDescendant(super, field) = %v, %v; want true", ok, err)
	}
	if ok, _ := store.IsDescendant(ctx, sa.ID, other.ID); ok {
		t.Error("sibling branch should not be a descendant")
	}
}

func TestStore_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The unique email index is created by the indexes package at
	// startup; replicate it here.
	testutil.EnsureUniqueEmailIndex(t, db)

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	if _, err := store.Create(ctx, models.User{
		FullName: "A", Email: "dup@example.com", Role: hierarchy.RoleSuperAdmin, ParentID: &root.ID,
	}, ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := store.Create(ctx, models.User{
		FullName: "B", Email: "DUP@example.com", Role: hierarchy.RoleSuperAdmin, ParentID: &root.ID,
	}, "")
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_EnsureMainAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.EnsureMainAdmin(ctx, "root@example.com", "bootpass")
	if err != nil {
		t.Fatalf("EnsureMainAdmin failed: %v", err)
	}
	if first.Role != hierarchy.RoleMainAdmin {
		t.Errorf("Role: got %q", first.Role)
	}

	// Second call is a no-op returning the same account.
	second, err := store.EnsureMainAdmin(ctx, "root@example.com", "different")
	if err != nil {
		t.Fatalf("second EnsureMainAdmin failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("EnsureMainAdmin should not create a second account")
	}
}

func TestStore_DeleteAndChildren(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)

	if has, err := store.HasChildren(ctx, root.ID); err != nil || !has {
		t.Errorf("HasChildren(root) = %v, %v; want true", has, err)
	}
	if has, _ := store.HasChildren(ctx, sa.ID); has {
		t.Error("HasChildren(leaf) should be false")
	}

	n, err := store.Delete(ctx, sa.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted count: got %d, want 1", n)
	}
}
