package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ledger := services.NewLedgerService(repo, nil, false)
	return NewServer(":0", ledger, 1000)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestActivateIncomeEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/incomes", `{"amount": 3600, "frequency": "monthly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["amount"] != 3600.0 {
		t.Errorf("amount = %v, want 3600", body["amount"])
	}
	if body["isActive"] != true {
		t.Errorf("isActive = %v, want true", body["isActive"])
	}

	// Second activation supersedes the first
	rec = do(t, s, http.MethodPost, "/api/v1/incomes", `{"amount": "4200.50", "frequency": "monthly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/incomes/active", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	active := decodeBody(t, rec)
	if active["amount"] != 4200.5 {
		t.Errorf("active amount = %v, want 4200.5", active["amount"])
	}

	rec = do(t, s, http.MethodGet, "/api/v1/incomes", "")
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d incomes, want 2", len(list))
	}
}

func TestActivateIncomeRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"negative amount", `{"amount": -100, "frequency": "monthly"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"amount": 0, "frequency": "monthly"}`, http.StatusUnprocessableEntity},
		{"bad frequency", `{"amount": 100, "frequency": "yearly"}`, http.StatusUnprocessableEntity},
		{"not json", `not json`, http.StatusBadRequest},
		{"unknown field", `{"amount": 100, "frequency": "monthly", "extra": 1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/incomes", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/budget-categories", `{"name": "Groceries", "percentage": 25}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	if created["color"] != "#3b82f6" {
		t.Errorf("color = %v, want the default", created["color"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/budget-categories", `{"name": "Too much", "percentage": 120}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("percentage over 100: status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/budget-categories/1", `{"percentage": 30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody(t, rec)
	if updated["percentage"] != 30.0 {
		t.Errorf("percentage = %v, want 30", updated["percentage"])
	}
	if updated["name"] != "Groceries" {
		t.Errorf("name = %v, patch should not clear it", updated["name"])
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/budget-categories/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = do(t, s, http.MethodDelete, "/api/v1/budget-categories/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestGoalAndContributionEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/savings-goals", `{"name": "New car", "targetAmount": 50000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/api/v1/savings-goals/1/contributions", `{"amount": 49000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribution status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/savings-goals/1", "")
	goal := decodeBody(t, rec)
	if goal["isCompleted"] != false {
		t.Errorf("isCompleted = %v before reaching target", goal["isCompleted"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/savings-goals/1/contributions", `{"amount": 1500, "note": "bonus"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribution status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/savings-goals/1", "")
	goal = decodeBody(t, rec)
	if goal["isCompleted"] != true {
		t.Errorf("isCompleted = %v, want true after crossing the target", goal["isCompleted"])
	}
	if goal["currentAmount"] != 50500.0 {
		t.Errorf("currentAmount = %v, want 50500 (uncapped)", goal["currentAmount"])
	}
	contributions, ok := goal["contributions"].([]any)
	if !ok || len(contributions) != 2 {
		t.Errorf("contributions = %v, want 2 entries", goal["contributions"])
	}

	// Contributions on a missing goal 404
	rec = do(t, s, http.MethodPost, "/api/v1/savings-goals/99/contributions", `{"amount": 10}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing goal status = %d, want 404", rec.Code)
	}
	// Zero contribution rejected
	rec = do(t, s, http.MethodPost, "/api/v1/savings-goals/1/contributions", `{"amount": 0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero contribution status = %d, want 422", rec.Code)
	}
}

func TestPatchNullClearsDates(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/savings-goals",
		`{"name": "Trip", "targetAmount": 1000, "targetDate": "2027-03-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if goal := decodeBody(t, rec); goal["targetDate"] == nil {
		t.Fatalf("targetDate missing from created goal")
	}

	// Omitting the field leaves the date untouched.
	rec = do(t, s, http.MethodPut, "/api/v1/savings-goals/1", `{"name": "Long trip"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if goal := decodeBody(t, rec); goal["targetDate"] == nil {
		t.Errorf("targetDate cleared by a patch that omitted it")
	}

	// An explicit null clears it.
	rec = do(t, s, http.MethodPut, "/api/v1/savings-goals/1", `{"targetDate": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if goal := decodeBody(t, rec); goal["targetDate"] != nil {
		t.Errorf("targetDate = %v, want cleared", goal["targetDate"])
	}

	rec = do(t, s, http.MethodPost, "/api/v1/debts",
		`{"name": "Loan", "principalAmount": 500, "repaymentAmount": 50, "repaymentFrequency": "monthly", "dueDate": "2027-06-01T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPut, "/api/v1/debts/1", `{"dueDate": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear due date status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if debt := decodeBody(t, rec); debt["dueDate"] != nil {
		t.Errorf("dueDate = %v, want cleared", debt["dueDate"])
	}
}

func TestDebtAndRepaymentEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/debts",
		`{"name": "Loan", "principalAmount": 7000, "repaymentAmount": 500, "repaymentFrequency": "monthly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d, body = %s", rec.Code, rec.Body.String())
	}
	debt := decodeBody(t, rec)
	if debt["currentBalance"] != 7000.0 {
		t.Errorf("currentBalance = %v, want the principal", debt["currentBalance"])
	}

	// Over-payment clamps to zero and marks the debt paid
	rec = do(t, s, http.MethodPost, "/api/v1/debts/1/repayments", `{"amount": 7500}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("repayment status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/debts/1", "")
	debt = decodeBody(t, rec)
	if debt["currentBalance"] != 0.0 {
		t.Errorf("currentBalance = %v, want 0", debt["currentBalance"])
	}
	if debt["isPaid"] != true {
		t.Errorf("isPaid = %v, want true", debt["isPaid"])
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/debts/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/debts/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted debt status = %d, want 404", rec.Code)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/api/v1/incomes", `{"amount": 3600, "frequency": "monthly"}`); rec.Code != http.StatusCreated {
		t.Fatalf("income status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/budget-categories", `{"name": "Groceries", "percentage": 25}`); rec.Code != http.StatusCreated {
		t.Fatalf("category status = %d", rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body = %s", rec.Code, rec.Body.String())
	}
	dash := decodeBody(t, rec)
	if dash["dailyIncome"] != 120.0 {
		t.Errorf("dailyIncome = %v, want 120", dash["dailyIncome"])
	}
	cats, ok := dash["categories"].([]any)
	if !ok || len(cats) != 1 {
		t.Fatalf("categories = %v, want one entry", dash["categories"])
	}
	alloc := cats[0].(map[string]any)
	if alloc["amount"] != 30.0 {
		t.Errorf("allocation = %v, want 30", alloc["amount"])
	}
}

func TestEmptyListsSerializeAsArrays(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/incomes", "/api/v1/budget-categories", "/api/v1/savings-goals", "/api/v1/debts"} {
		rec := do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
			continue
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("%s body = %q, want []", path, got)
		}
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	s := NewServer(":0", services.NewLedgerService(repo, nil, false), 2)

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/v1/budget-categories", `{"name": "A", "percentage": 1}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := do(t, s, http.MethodPost, "/api/v1/budget-categories", `{"name": "A", "percentage": 1}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}

	// Reads are never rate limited
	rec = do(t, s, http.MethodGet, "/api/v1/budget-categories", "")
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rec.Code)
	}
}

func TestPathIDRejectsGarbage(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/savings-goals/abc", "/api/v1/savings-goals/0", "/api/v1/savings-goals/-1"} {
		rec := do(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, rec.Code)
		}
	}
}
