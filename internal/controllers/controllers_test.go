package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"mkopo_loans/internal/middleware"
	"mkopo_loans/internal/models"
	"mkopo_loans/internal/routes"
	"mkopo_loans/internal/stores"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// setupTest binds fresh in-memory stores and builds the full router so
// the auth middleware is exercised exactly as in production.
func setupTest(t *testing.T) (*gin.Engine, *stores.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mem := stores.NewMemoryStore()
	stores.Init(mem, mem, mem, mem)
	return routes.SetupRouter(), mem
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func seedUser(t *testing.T, mem *stores.MemoryStore, email, role string) (models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := mem.Create(models.User{Name: "Test User", Email: email, Password: string(hash), Role: role})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := middleware.GenerateToken(user.ID, user.Role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, token
}

func TestSignupAndLogin(t *testing.T) {
	r, _ := setupTest(t)

	w := doJSON(t, r, http.MethodPost, "/auth/signup", "", gin.H{
		"name": "Amina W.", "email": "amina@example.com", "password": "hunter22", "phone": "+254700000001",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	payload := decode(t, w)
	if payload["token"] == "" || payload["token"] == nil {
		t.Error("signup: expected a token")
	}
	if payload["next"] != "/kyc" {
		t.Errorf("signup: expected next=/kyc, got %v", payload["next"])
	}

	// Duplicate email is refused.
	w = doJSON(t, r, http.MethodPost, "/auth/signup", "", gin.H{
		"name": "Imposter", "email": "amina@example.com", "password": "hunter22",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", w.Code)
	}

	// Signup seeds a sparse profile so KYC can merge into it.
	profile, err := stores.Profiles.Get(1)
	if err != nil || profile == nil {
		t.Fatalf("expected seeded profile, got (%v, %v)", profile, err)
	}
	if profile.FullName != "Amina W." {
		t.Errorf("expected seeded full name, got %q", profile.FullName)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "amina@example.com", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "amina@example.com", "password": "hunter22"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if payload = decode(t, w); payload["next"] != "/dashboard" {
		t.Errorf("borrower login should land on /dashboard, got %v", payload["next"])
	}
}

func TestAdminLoginLandsOnConsole(t *testing.T) {
	r, mem := setupTest(t)
	seedUser(t, mem, "officer@example.com", "admin")

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{"email": "officer@example.com", "password": "hunter22"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}
	if payload := decode(t, w); payload["next"] != "/admin/loans" {
		t.Errorf("admin login should land on /admin/loans, got %v", payload["next"])
	}
}

// An unauthenticated visit to a protected route never reaches the
// handler: 401 and nothing else.
func TestProtectedRoutesRequireAuth(t *testing.T) {
	r, _ := setupTest(t)

	for _, path := range []string{"/loans", "/profile"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, w.Code)
		}
	}
}

func TestAdminGateRejectsBorrowers(t *testing.T) {
	r, mem := setupTest(t)
	_, token := seedUser(t, mem, "borrower@example.com", "user")

	w := doJSON(t, r, http.MethodGet, "/admin/loans", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for borrower on admin route, got %d", w.Code)
	}
}

func TestEstimateSharesAmortizationMath(t *testing.T) {
	r, mem := setupTest(t)
	_, token := seedUser(t, mem, "borrower@example.com", "user")

	w := doJSON(t, r, http.MethodPost, "/loans/estimate", token, gin.H{"amount": 10000, "duration_months": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("estimate: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	payload := decode(t, w)
	if payload["monthly_payment"] != float64(3417) {
		t.Errorf("expected monthly 3417 at the default rate, got %v", payload["monthly_payment"])
	}
	if payload["total_repayment"] != float64(10251) {
		t.Errorf("expected total 10251, got %v", payload["total_repayment"])
	}

	w = doJSON(t, r, http.MethodPost, "/loans/estimate", token, gin.H{"amount": 10000})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("estimate without duration: expected 400, got %d", w.Code)
	}
}

func TestApplicationWizardFlow(t *testing.T) {
	r, mem := setupTest(t)
	user, token := seedUser(t, mem, "borrower@example.com", "user")

	// Profile already holds both documents, so the wizard runs 4 steps.
	_, err := mem.Update(user.ID, stores.ProfileUpdate{
		FullName:         strPtr("Amina W."),
		Phone:            strPtr("+254700000001"),
		Address:          strPtr("Tom Mboya St, Nairobi"),
		EmploymentStatus: strPtr("self_employed"),
		MonthlyIncome:    floatPtr(42000),
		NextOfKinName:    strPtr("Grace A."),
		NextOfKinPhone:   strPtr("+254700000002"),
		IDDocumentURL:    strPtr("https://cdn.example.com/id.png"),
		SelfieURL:        strPtr("https://cdn.example.com/selfie.png"),
	})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/loans/application", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	app := decode(t, w)["application"].(map[string]any)
	if app["step_count"] != float64(4) {
		t.Errorf("expected 4 steps with documents on file, got %v", app["step_count"])
	}
	if app["step"] != "loan_details" {
		t.Errorf("expected to start at loan_details, got %v", app["step"])
	}

	// Advancing with empty loan details is gated and does not move.
	w = doJSON(t, r, http.MethodPost, "/loans/application/next", token, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("gated advance: expected 422, got %d", w.Code)
	}
	missing := decode(t, w)["missing"].([]any)
	if len(missing) != 3 {
		t.Errorf("expected amount, purpose, duration_months missing, got %v", missing)
	}

	w = doJSON(t, r, http.MethodPut, "/loans/application", token, gin.H{
		"amount": 10000, "purpose": "stock for kiosk", "duration_months": 3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}

	// Walk forward: employment and contact are pre-filled from the
	// profile, and Documents is skipped.
	for _, want := range []string{"employment", "contact_and_kin", "summary"} {
		w = doJSON(t, r, http.MethodPost, "/loans/application/next", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("advance to %s: expected 200, got %d (%s)", want, w.Code, w.Body.String())
		}
		app = decode(t, w)["application"].(map[string]any)
		if app["step"] != want {
			t.Fatalf("expected step %s, got %v", want, app["step"])
		}
	}

	// Backward from Summary lands on ContactAndKin, not Documents.
	w = doJSON(t, r, http.MethodPost, "/loans/application/back", token, nil)
	app = decode(t, w)["application"].(map[string]any)
	if app["step"] != "contact_and_kin" {
		t.Fatalf("expected contact_and_kin going back from summary, got %v", app["step"])
	}
	doJSON(t, r, http.MethodPost, "/loans/application/next", token, nil)

	w = doJSON(t, r, http.MethodPost, "/loans/application/submit", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	payload := decode(t, w)
	if payload["next"] != "/dashboard" {
		t.Errorf("submit should land on /dashboard, got %v", payload["next"])
	}
	loan := payload["loan"].(map[string]any)
	if loan["status"] != models.LoanStatusPending {
		t.Errorf("expected pending loan, got %v", loan["status"])
	}
	if loan["monthly_payment"] != float64(3417) {
		t.Errorf("expected monthly payment 3417, got %v", loan["monthly_payment"])
	}
	if loan["monthly_income"] != float64(42000) {
		t.Errorf("expected income fallback from profile, got %v", loan["monthly_income"])
	}
	if loan["id_document_url"] != "https://cdn.example.com/id.png" {
		t.Errorf("expected document fallback from profile, got %v", loan["id_document_url"])
	}

	// The session is gone and the loan shows on the dashboard.
	w = doJSON(t, r, http.MethodGet, "/loans/application", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after submit, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/loans", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard list: expected 200, got %d", w.Code)
	}
	data := decode(t, w)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 loan on the dashboard, got %d", len(data))
	}
}

func TestProfileMergeAndGeotag(t *testing.T) {
	r, mem := setupTest(t)
	user, token := seedUser(t, mem, "borrower@example.com", "user")
	mem.Update(user.ID, stores.ProfileUpdate{FullName: strPtr("Amina W.")})

	w := doJSON(t, r, http.MethodPut, "/profile", token, gin.H{
		"county":             "Nairobi",
		"monthly_income":     42000,
		"residence_location": `{"type":"Point","coordinates":[36.8219,-1.2921]}`,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	profile := decode(t, w)["profile"].(map[string]any)
	if profile["full_name"] != "Amina W." {
		t.Errorf("merge dropped full_name: %v", profile["full_name"])
	}
	if profile["county"] != "Nairobi" || profile["monthly_income"] != float64(42000) {
		t.Errorf("merge missed new fields: %v", profile)
	}
	geotag, _ := profile["residence_location"].(string)
	if geotag == "" {
		t.Fatal("expected residence_location to round-trip as GeoJSON")
	}
	var point struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(geotag), &point); err != nil || point.Type != "Point" {
		t.Fatalf("expected a GeoJSON point, got %q (err %v)", geotag, err)
	}

	w = doJSON(t, r, http.MethodPut, "/profile", token, gin.H{
		"residence_location": `{"type":"Point","coordinates":`,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed GeoJSON: expected 400, got %d", w.Code)
	}
}

func TestAdminApproveGeneratesSchedule(t *testing.T) {
	r, mem := setupTest(t)
	borrower, borrowerToken := seedUser(t, mem, "borrower@example.com", "user")
	_, adminToken := seedUser(t, mem, "officer@example.com", "admin")

	loan, err := mem.CreateLoan(models.Loan{
		UserID: borrower.ID, Amount: 10000, DurationMonths: 3, InterestRate: 15,
		MonthlyPayment: 3417, TotalRepayment: 10251, Purpose: "school fees",
	})
	if err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/loans/%d/approve", loan.ID), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	approved := decode(t, w)["loan"].(map[string]any)
	if approved["status"] != models.LoanStatusApproved {
		t.Errorf("expected approved, got %v", approved["status"])
	}
	if approved["approved_at"] == nil {
		t.Error("expected approved_at to be stamped")
	}

	// The installment schedule was generated, one row per month.
	payments, err := mem.ListByLoan(loan.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(payments))
	}
	var sum float64
	for _, p := range payments {
		if p.Status != models.PaymentStatusPending {
			t.Errorf("expected pending installment, got %s", p.Status)
		}
		sum += p.Amount
	}
	if sum != 10251 {
		t.Errorf("schedule should sum to the total repayment, got %v", sum)
	}

	// A decided loan cannot be decided again.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/loans/%d/approve", loan.ID), adminToken, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second approve: expected 409, got %d", w.Code)
	}

	// The borrower sees the approved loan and its schedule.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/loans/%d/payments", loan.ID), borrowerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("borrower schedule: expected 200, got %d", w.Code)
	}
	payload := decode(t, w)
	if got := payload["loan"].(map[string]any)["status"]; got != models.LoanStatusApproved {
		t.Errorf("borrower should see approved status, got %v", got)
	}
	if got := len(payload["payments"].([]any)); got != 3 {
		t.Errorf("borrower should see 3 installments, got %d", got)
	}
}

func TestAdminRejectRequiresReason(t *testing.T) {
	r, mem := setupTest(t)
	borrower, _ := seedUser(t, mem, "borrower@example.com", "user")
	_, adminToken := seedUser(t, mem, "officer@example.com", "admin")

	loan, _ := mem.CreateLoan(models.Loan{UserID: borrower.ID, Amount: 5000, DurationMonths: 2, InterestRate: 15})

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/loans/%d/reject", loan.ID), adminToken, gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reject without reason: expected 400, got %d", w.Code)
	}
	still, _ := mem.GetLoan(loan.ID)
	if still.Status != models.LoanStatusPending {
		t.Fatalf("refused rejection changed status to %s", still.Status)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/loans/%d/reject", loan.ID), adminToken,
		gin.H{"reason": "income not verifiable"})
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	rejected := decode(t, w)["loan"].(map[string]any)
	if rejected["status"] != models.LoanStatusRejected {
		t.Errorf("expected rejected, got %v", rejected["status"])
	}
	if rejected["rejected_reason"] != "income not verifiable" {
		t.Errorf("expected the reason verbatim, got %v", rejected["rejected_reason"])
	}
	if rejected["rejected_at"] == nil {
		t.Error("expected rejected_at to be stamped")
	}
}

func TestAdminListSearchAndFilter(t *testing.T) {
	r, mem := setupTest(t)
	alice, _ := seedUser(t, mem, "alice@example.com", "user")
	bob, _ := seedUser(t, mem, "bob@example.com", "user")
	_, adminToken := seedUser(t, mem, "officer@example.com", "admin")

	first, _ := mem.CreateLoan(models.Loan{UserID: alice.ID, Amount: 1000, DurationMonths: 1, InterestRate: 15})
	mem.CreateLoan(models.Loan{UserID: bob.ID, Amount: 2000, DurationMonths: 2, InterestRate: 15})
	mem.UpdateStatus(first.ID, stores.StatusUpdate{Status: models.LoanStatusApproved})

	w := doJSON(t, r, http.MethodGet, "/admin/loans", adminToken, nil)
	if got := len(decode(t, w)["data"].([]any)); got != 2 {
		t.Fatalf("expected 2 loans, got %d", got)
	}

	w = doJSON(t, r, http.MethodGet, "/admin/loans?status=pending", adminToken, nil)
	data := decode(t, w)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 pending loan, got %d", len(data))
	}
	if uid := data[0].(map[string]any)["user_id"]; uid != float64(bob.ID) {
		t.Errorf("expected bob's pending loan, got user %v", uid)
	}

	// Substring search on the loan reference, case-insensitively.
	ref := first.Reference
	w = doJSON(t, r, http.MethodGet, "/admin/loans?q="+ref[:8], adminToken, nil)
	data = decode(t, w)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected reference search to match 1 loan, got %d", len(data))
	}
	if got := data[0].(map[string]any)["reference"]; got != ref {
		t.Errorf("expected loan %s, got %v", ref, got)
	}
}
