package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"punchclock/internal/app/server"
	"punchclock/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:         dbURL,
		JWTSecret:           "test-secret",
		FrontendDir:         "frontend/dist",
		Environment:         "test",
		MigrationsDir:       "../../../../migrations",
		AllowSelfSignup:     true,
		SeedManagerName:     "Seed Manager",
		SeedManagerEmail:    "manager@test.local",
		SeedManagerPassword: "ChangeMe123!",
		EmailFrom:           "no-reply@test.local",
		RunMigrations:       true,
		RunSeed:             true,
		MaxBodyBytes:        1048576,
		RateLimitPerMinute:  1000,
		LateAfter:           "09:15",
		HalfDayBelowHours:   4,
		TrendWindowDays:     7,
	}
}

func TestAttendanceJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	email := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	resp := postJSON(t, client, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"name":       "Journey Tester",
		"email":      email,
		"password":   "Password123!",
		"department": "Engineering",
	})
	var registered map[string]any
	if err := json.Unmarshal(resp.Data, &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	token, _ := registered["token"].(string)
	if token == "" {
		t.Fatal("expected token from register")
	}

	checkIn := postJSON(t, client, ts.URL+"/api/v1/attendance/check-in", token, nil)
	var rec map[string]any
	if err := json.Unmarshal(checkIn.Data, &rec); err != nil {
		t.Fatalf("failed to decode check-in response: %v", err)
	}
	if rec["checkInTime"] == nil {
		t.Fatal("expected checkInTime to be set")
	}

	postJSONStatus(t, client, ts.URL+"/api/v1/attendance/check-in", token, nil, http.StatusConflict)

	checkOut := postJSON(t, client, ts.URL+"/api/v1/attendance/check-out", token, nil)
	if err := json.Unmarshal(checkOut.Data, &rec); err != nil {
		t.Fatalf("failed to decode check-out response: %v", err)
	}
	if rec["checkOutTime"] == nil {
		t.Fatal("expected checkOutTime to be set")
	}
	if _, ok := rec["totalHours"].(float64); !ok {
		t.Fatalf("expected numeric totalHours, got %v", rec["totalHours"])
	}

	postJSONStatus(t, client, ts.URL+"/api/v1/attendance/check-out", token, nil, http.StatusConflict)

	history := getJSON(t, client, ts.URL+"/api/v1/attendance/history", token)
	var records []map[string]any
	if err := json.Unmarshal(history.Data, &records); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}

	summary := getJSON(t, client, ts.URL+"/api/v1/attendance/summary", token)
	var summaryPayload map[string]any
	if err := json.Unmarshal(summary.Data, &summaryPayload); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summaryPayload["summary"] == nil {
		t.Fatal("expected summary payload")
	}
}

func TestManagerEndpointsAndExport(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	managerToken := login(t, client, ts.URL, cfg.SeedManagerEmail, cfg.SeedManagerPassword)

	email := fmt.Sprintf("worker-%d@example.com", time.Now().UnixNano())
	resp := postJSON(t, client, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"name":       "Export Worker",
		"email":      email,
		"password":   "Password123!",
		"department": "Support",
	})
	var registered map[string]any
	if err := json.Unmarshal(resp.Data, &registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	workerToken, _ := registered["token"].(string)
	postJSON(t, client, ts.URL+"/api/v1/attendance/check-in", workerToken, nil)

	// employee tokens cannot reach manager routes
	getJSONStatus(t, client, ts.URL+"/api/v1/attendance/today", workerToken, http.StatusForbidden)

	today := getJSON(t, client, ts.URL+"/api/v1/attendance/today", managerToken)
	var todayRecords []map[string]any
	if err := json.Unmarshal(today.Data, &todayRecords); err != nil {
		t.Fatalf("failed to decode today records: %v", err)
	}
	if len(todayRecords) == 0 {
		t.Fatal("expected at least one record for today")
	}

	trend := getJSON(t, client, ts.URL+"/api/v1/attendance/weekly-trend", managerToken)
	var points []map[string]any
	if err := json.Unmarshal(trend.Data, &points); err != nil {
		t.Fatalf("failed to decode trend: %v", err)
	}

	getJSONStatus(t, client, ts.URL+"/api/v1/attendance/records/00000000-0000-0000-0000-000000000000", managerToken, http.StatusNotFound)

	start := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	end := time.Now().Format("2006-01-02")
	exportURL := ts.URL + "/api/v1/reports/export?startDate=" + start + "&endDate=" + end + "&employeeId=all&format=csv"
	req, err := http.NewRequest(http.MethodGet, exportURL, nil)
	if err != nil {
		t.Fatalf("failed to create export request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+managerToken)
	exportResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer exportResp.Body.Close()
	if exportResp.StatusCode != http.StatusOK {
		t.Fatalf("expected export 200, got %d", exportResp.StatusCode)
	}
	if got := exportResp.Header.Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	body, err := io.ReadAll(exportResp.Body)
	if err != nil {
		t.Fatalf("failed to read export body: %v", err)
	}
	if !strings.HasPrefix(string(body), "name,email,employeeId,department,date,checkInTime,checkOutTime,status,totalHours") {
		t.Fatalf("unexpected csv header: %q", strings.SplitN(string(body), "\n", 2)[0])
	}

	// inverted range is rejected before any rows are built
	badURL := ts.URL + "/api/v1/reports/export?startDate=" + end + "&endDate=" + start + "&format=csv"
	getJSONStatus(t, client, badURL, managerToken, http.StatusBadRequest)
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
}
