package allocations_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/prabhatdev/gramvani/internal/app/features/allocations"
	allocationstore "github.com/prabhatdev/gramvani/internal/app/store/allocations"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	"github.com/prabhatdev/gramvani/internal/app/system/allocator"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/hierarchy"
	"github.com/prabhatdev/gramvani/internal/domain/models"
	"github.com/prabhatdev/gramvani/internal/testutil"
)

func setupAllocations(t *testing.T) (*allocations.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	allocStore := allocationstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := allocStore.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	mgr := allocator.New(allocStore, contactstore.New(db), zap.NewNop())
	h := allocations.NewHandler(mgr, userstore.New(db), nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func sessionFor(u models.User) *auth.SessionUser {
	return &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
}

func windowJSON() (string, string) {
	now := time.Now().UTC()
	return now.AddDate(0, 0, -1).Format("2006-01-02"), now.AddDate(0, 1, 0).Format("2006-01-02")
}

func TestHandleCreate_GrantToChild(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")
	fixtures.CreateContact(ctx, "Pune", "Baramati", "B", "9000000002")

	start, end := windowJSON()
	body := fmt.Sprintf(`{"user_id":%q,"district":"Pune","start_date":%q,"end_date":%q}`,
		sa.ID.Hex(), start, end)

	req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
	req = auth.WithUser(req, sessionFor(root))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Requested int `json:"requested"`
		Allocated int `json:"allocated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	// Empty villages list expands to the whole district.
	if resp.Requested != 2 || resp.Allocated != 2 {
		t.Errorf("got %+v, want 2/2", resp)
	}
}

func TestHandleCreate_SkipLevelRejected(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	admin := fixtures.CreateUser(ctx, "Admin", "admin@example.com", hierarchy.RoleAdmin, &sa.ID)
	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")

	start, end := windowJSON()
	body := fmt.Sprintf(`{"user_id":%q,"district":"Pune","start_date":%q,"end_date":%q}`,
		admin.ID.Hex(), start, end)

	// Main admin trying to allocate two levels down.
	req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
	req = auth.WithUser(req, sessionFor(root))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestHandleCreate_SiblingChildHidden(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	mine := fixtures.CreateUser(ctx, "Mine", "mine@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	otherChild := fixtures.CreateUser(ctx, "Their Admin", "theirs@example.com", hierarchy.RoleAdmin, &other.ID)
	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")

	start, end := windowJSON()
	body := fmt.Sprintf(`{"user_id":%q,"district":"Pune","start_date":%q,"end_date":%q}`,
		otherChild.ID.Hex(), start, end)

	req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
	req = auth.WithUser(req, sessionFor(mine))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	// Another grantor's child looks like a missing user.
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleCreate_MainAdminSelf(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")

	start, end := windowJSON()
	body := fmt.Sprintf(`{"user_id":%q,"district":"Pune","villages":["Shirur"],"start_date":%q,"end_date":%q}`,
		root.ID.Hex(), start, end)

	req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
	req = auth.WithUser(req, sessionFor(root))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("self-allocation: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_AllDuplicates(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	fixtures.CreateContact(ctx, "Pune", "Shirur", "A", "9000000001")

	start, end := windowJSON()
	body := fmt.Sprintf(`{"user_id":%q,"district":"Pune","villages":["Shirur"],"start_date":%q,"end_date":%q}`,
		sa.ID.Hex(), start, end)

	grant := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/allocations", strings.NewReader(body))
		req = auth.WithUser(req, sessionFor(root))
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		return rec
	}

	if rec := grant(); rec.Code != http.StatusCreated {
		t.Fatalf("first grant: got %d", rec.Code)
	}
	if rec := grant(); rec.Code != http.StatusConflict {
		t.Errorf("repeat grant: got %d, want 409", rec.Code)
	}
}

func TestServeMineAndSummary(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	user := fixtures.CreateUser(ctx, "Field", "field@example.com", hierarchy.RoleUser, &root.ID)
	fixtures.CreateAllocation(ctx, user.ID, "Pune", "Shirur")
	fixtures.CreateAllocation(ctx, user.ID, "Pune", "Baramati")

	req := httptest.NewRequest("GET", "/allocations", nil)
	req = auth.WithUser(req, sessionFor(user))
	rec := httptest.NewRecorder()
	h.ServeMine(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var list []struct {
		Village string `json:"village"`
		Active  bool   `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list: got %d entries", len(list))
	}
	for _, a := range list {
		if !a.Active {
			t.Errorf("fixture window contains now; %q should be active", a.Village)
		}
	}

	req = httptest.NewRequest("GET", "/allocations/summary", nil)
	req = auth.WithUser(req, sessionFor(user))
	rec = httptest.NewRecorder()
	h.ServeSummary(rec, req)

	var sum struct {
		TotalAllocations int `json:"total_allocations"`
		TotalDistricts   int `json:"total_districts"`
		TotalVillages    int `json:"total_villages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("parsing summary: %v", err)
	}
	if sum.TotalAllocations != 2 || sum.TotalDistricts != 1 || sum.TotalVillages != 2 {
		t.Errorf("summary: got %+v", sum)
	}
}

func TestHandleRemove(t *testing.T) {
	h, fixtures := setupAllocations(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	root := fixtures.CreateUser(ctx, "Root", "root@example.com", hierarchy.RoleMainAdmin, nil)
	sa := fixtures.CreateUser(ctx, "Super", "super@example.com", hierarchy.RoleSuperAdmin, &root.ID)
	a := fixtures.CreateAllocation(ctx, sa.ID, "Pune", "Shirur")

	url := "/allocations/user/" + sa.ID.Hex() + "/" + a.ID.Hex()
	req := httptest.NewRequest("DELETE", url, nil)
	req = testutil.WithChiURLParam(req, "id", sa.ID.Hex())
	req = testutil.WithChiURLParam(req, "allocationID", a.ID.Hex())
	req = auth.WithUser(req, sessionFor(root))
	rec := httptest.NewRecorder()
	h.HandleRemove(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Removing again answers 404.
	req = httptest.NewRequest("DELETE", url, nil)
	req = testutil.WithChiURLParam(req, "id", sa.ID.Hex())
	req = testutil.WithChiURLParam(req, "allocationID", a.ID.Hex())
	req = auth.WithUser(req, sessionFor(root))
	rec = httptest.NewRecorder()
	h.HandleRemove(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat remove: got %d, want 404", rec.Code)
	}
}
