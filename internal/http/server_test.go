package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"porsi/internal/auth"
	"porsi/internal/services"
	"porsi/internal/storage"
)

const (
	testAccessCode = "WARUNG-01"
	testPIN        = "123456"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hash, err := auth.HashPIN(testPIN)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}

	// nil AMQP client: publishing is best effort and skipped in tests.
	entries := services.NewEntryService(repo, nil)
	verifier := auth.NewVerifier(testAccessCode, hash)
	sessions := auth.NewSessionManager(strings.Repeat("s", 32), time.Hour)

	srv := NewServer(":0", repo, entries, verifier, sessions)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv
}

func postForm(srv *Server, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func get(srv *Server, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

// login performs the full login POST and returns the session cookies.
func login(t *testing.T, srv *Server) []*http.Cookie {
	t.Helper()
	rr := postForm(srv, "/login", url.Values{
		"access_code": {testAccessCode},
		"pin":         {testPIN},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("login set no cookies")
	}
	return cookies
}

func saveContract(t *testing.T, srv *Server, cookies []*http.Cookie) {
	t.Helper()
	rr := postForm(srv, "/contract", url.Values{
		"name":                    {"Katering Pabrik"},
		"start_date":              {"2025-03-01"},
		"duration_days":           {"90"},
		"price_per_portion":       {"15000"},
		"target_portions_per_day": {"100"},
		"target_margin":           {"20"},
	}, cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("save contract status = %d, want 303, body: %s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(srv, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		code string
		pin  string
	}{
		{"wrong access code", "SALAH", testPIN},
		{"wrong pin", testAccessCode, "000000"},
		{"both wrong", "SALAH", "000000"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postForm(srv, "/login", url.Values{
				"access_code": {tc.code},
				"pin":         {tc.pin},
			}, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "Access Code atau PIN salah.") {
				t.Fatalf("body missing generic failure message: %s", rr.Body.String())
			}
		})
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)

	var found bool
	for _, c := range cookies {
		if c.Name == "porsi_session" && c.Value != "" {
			found = true
			if !c.HttpOnly {
				t.Errorf("session cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Fatalf("no porsi_session cookie in %v", cookies)
	}
}

func TestPagesRequireSession(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/history", "/profit", "/cashflow", "/cash", "/contract"} {
		rr := get(srv, path, nil)
		if rr.Code != http.StatusSeeOther {
			t.Errorf("%s status = %d, want 303", path, rr.Code)
			continue
		}
		if loc := rr.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s redirected to %q, want /login", path, loc)
		}
	}
}

func TestDashboardRedirectsWithoutContract(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)

	rr := get(srv, "/", cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/contract" {
		t.Fatalf("redirected to %q, want /contract", loc)
	}
}

func TestContractSaveAndDashboard(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)
	saveContract(t, srv, cookies)

	rr := get(srv, "/", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Katering Pabrik") {
		t.Fatalf("dashboard missing contract name")
	}
}

func TestContractFormValidation(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)

	rr := postForm(srv, "/contract", url.Values{
		"name":                    {""},
		"start_date":              {"2025-03-01"},
		"duration_days":           {"90"},
		"price_per_portion":       {"15000"},
		"target_portions_per_day": {"100"},
		"target_margin":           {"20"},
	}, cookies)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Nama kontrak wajib diisi") {
		t.Fatalf("body missing field error: %s", rr.Body.String())
	}
}

func TestEntryCreateFlow(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)
	saveContract(t, srv, cookies)

	entryForm := url.Values{
		"date":         {"2025-03-02"},
		"portions":     {"95"},
		"raw_material": {"500000"},
		"labor":        {"200000"},
		"operational":  {"100000"},
		"payment_type": {"CASH"},
		"paid_amount":  {""},
		"notes":        {"hari kedua"},
	}

	rr := postForm(srv, "/entries/new", entryForm, cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, want 303, body: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/history" {
		t.Fatalf("redirected to %q, want /history", loc)
	}

	// Same date again is rejected.
	rr = postForm(srv, "/entries/new", entryForm, cookies)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate status = %d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Sudah ada catatan untuk tanggal ini.") {
		t.Fatalf("body missing duplicate message: %s", rr.Body.String())
	}

	rr = get(srv, "/history", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "02 Mar 2025") {
		t.Fatalf("history missing created entry")
	}
}

func TestEntryFormValidation(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)
	saveContract(t, srv, cookies)

	rr := postForm(srv, "/entries/new", url.Values{
		"date":         {"not-a-date"},
		"portions":     {"abc"},
		"raw_material": {"500000"},
		"payment_type": {"CASH"},
	}, cookies)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Tanggal tidak valid") || !strings.Contains(body, "Jumlah porsi tidak valid") {
		t.Fatalf("body missing field errors: %s", body)
	}
}

func TestCashTransactionFlow(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)
	saveContract(t, srv, cookies)

	rr := postForm(srv, "/cash/new", url.Values{
		"date":   {"2025-03-05"},
		"flow":   {"OUT"},
		"amount": {"250000"},
		"notes":  {"beli gas"},
	}, cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, want 303, body: %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/cash" {
		t.Fatalf("redirected to %q, want /cash", loc)
	}

	rr = get(srv, "/cash", cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("ledger status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "beli gas") {
		t.Fatalf("ledger missing transaction notes")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newTestServer(t)
	cookies := login(t, srv)

	rr := get(srv, "/logout", cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want 303", rr.Code)
	}

	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "porsi_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout did not clear the session cookie")
	}
}
