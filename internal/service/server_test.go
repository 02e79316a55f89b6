package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/radar/internal/audit"
	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
	"github.com/fentz26/radar/internal/store"
)

func TestHealthEndpoint_OK(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()

	// Create a test request
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	// Call the handler
	s.handleHealth(w, req)

	// Check response
	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.DB != "ok" {
		t.Errorf("Expected DB status 'ok', got '%s'", health.DB)
	}
	if health.Version == "" {
		t.Error("Expected version to be set")
	}
	if health.Time == "" {
		t.Error("Expected time to be set")
	}
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint_DBError(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	logger, _ := test.NewNullLogger()
	service := NewService(st, audit.NewRecorder(st, logger), Options{Log: logger})
	server := NewServer(service, st, nil, "127.0.0.1:0")

	// Close the store to simulate DB error
	st.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if health.OK {
		t.Error("Expected health.OK to be false when DB is down")
	}
	if health.DB == "ok" {
		t.Error("Expected DB status to indicate error")
	}
}

func TestItemsAPI(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()
	h := s.Handler()

	var keys, charger models.Item
	resp := do(t, h, http.MethodPost, "/items", ItemInput{Name: "Car Keys", Category: "keys", RFID: "A"}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	decode(t, resp, &keys)

	resp = do(t, h, http.MethodPost, "/items", ItemInput{Name: "Charger", Category: "electronics", IsEssential: true}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	decode(t, resp, &charger)

	resp = do(t, h, http.MethodPost, "/items", ItemInput{Name: "Spare", RFID: "A"}, "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = do(t, h, http.MethodPost, "/items", ItemInput{}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var result query.Result
	resp = do(t, h, http.MethodGet, "/items?essential=true", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &result)
	assert.Equal(t, 1, result.TotalMatched)
	assert.Equal(t, charger.ID, result.Items[0].ID)

	resp = do(t, h, http.MethodGet, "/items?sort=bogus", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPut, "/items/"+keys.ID, map[string]any{"location": "hook"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var updated models.Item
	decode(t, resp, &updated)
	assert.Equal(t, "hook", updated.Location)
	assert.Equal(t, "Car Keys", updated.Name)

	var cats []string
	resp = do(t, h, http.MethodGet, "/categories", nil, "")
	decode(t, resp, &cats)
	assert.Equal(t, []string{"electronics", "keys"}, cats)

	resp = do(t, h, http.MethodDelete, "/items/"+keys.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = do(t, h, http.MethodGet, "/items/"+keys.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOrderAndScanAPI(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()
	h := s.Handler()

	var a, b models.Item
	decode(t, do(t, h, http.MethodPost, "/items", ItemInput{Name: "Alpha", RFID: "TA"}, ""), &a)
	decode(t, do(t, h, http.MethodPost, "/items", ItemInput{Name: "Bravo", RFID: "TB"}, ""), &b)

	var order orderResponse
	resp := do(t, h, http.MethodPost, "/order/move", moveRequest{ID: b.ID, Index: 0}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &order)
	assert.Equal(t, []string{b.ID, a.ID}, order.Order)

	var snap Snapshot
	decode(t, do(t, h, http.MethodGet, "/snapshot", nil, ""), &snap)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, order.Order, snap.Order)

	var scan store.ScanResult
	resp = do(t, h, http.MethodPost, "/scan", scanRequest{Tags: []string{"TA", "ZZ"}, Location: "bag"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &scan)
	if diff := cmp.Diff(store.ScanResult{Detected: []string{"TA"}, Unknown: []string{"ZZ"}}, scan); diff != "" {
		t.Errorf("scan result mismatch (-want +got):\n%s", diff)
	}

	var item models.Item
	resp = do(t, h, http.MethodPost, "/rfid/TB", tagRequest{Location: "desk"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &item)
	assert.Equal(t, models.ItemStatusDetected, item.Status)

	var reset resetResponse
	decode(t, do(t, h, http.MethodPost, "/scan/reset", nil, ""), &reset)
	assert.Equal(t, 2, reset.Reset)

	var stats models.Stats
	decode(t, do(t, h, http.MethodGet, "/stats", nil, ""), &stats)
	assert.Equal(t, 2, stats.Missing)

	resp = do(t, h, http.MethodDelete, "/order", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	decode(t, do(t, h, http.MethodGet, "/order", nil, ""), &order)
	assert.Empty(t, order.Order)
}

func TestScanAPI_RequiresTags(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()
	h := s.Handler()

	resp := do(t, h, http.MethodPost, "/items", ItemInput{Name: "Keys", RFID: "TA", Status: models.ItemStatusDetected}, "")
	require.Equal(t, http.StatusCreated, resp.Code)

	for _, body := range []any{map[string]any{}, scanRequest{Tags: []string{}}, scanRequest{Tags: []string{" "}}} {
		resp = do(t, h, http.MethodPost, "/scan", body, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	}

	var result query.Result
	decode(t, do(t, h, http.MethodGet, "/items", nil, ""), &result)
	require.Len(t, result.Items, 1)
	assert.Equal(t, models.ItemStatusDetected, result.Items[0].Status)
}

func TestPresetsAndRemindersAPI(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()
	h := s.Handler()

	resp := do(t, h, http.MethodGet, "/presets/school", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = do(t, h, http.MethodGet, "/presets/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var created []models.Item
	resp = do(t, h, http.MethodPost, "/presets/beach/apply", applyPresetRequest{Names: []string{"Sunscreen"}}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	decode(t, resp, &created)
	assert.Len(t, created, 1)

	resp = do(t, h, http.MethodPost, "/filters", saveFilterRequest{Name: "Beach Gear", Filter: models.FilterSpec{SearchText: "sun"}}, "")
	assert.Equal(t, http.StatusCreated, resp.Code)
	var filters []models.FilterPreset
	decode(t, do(t, h, http.MethodGet, "/filters", nil, ""), &filters)
	assert.Len(t, filters, 3)
	resp = do(t, h, http.MethodDelete, "/filters/beach-gear", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	var rem models.Reminder
	resp = do(t, h, http.MethodPost, "/reminders", ReminderInput{Title: "Pack bag", Frequency: models.FrequencyDaily}, "")
	require.Equal(t, http.StatusCreated, resp.Code)
	decode(t, resp, &rem)

	resp = do(t, h, http.MethodPost, "/reminders", ReminderInput{Title: "Bad", Frequency: "yearly"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPut, "/reminders/"+rem.ID, map[string]any{"is_active": false}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &rem)
	assert.False(t, rem.IsActive)

	resp = do(t, h, http.MethodDelete, "/reminders/"+rem.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAuth(t *testing.T) {
	auth := NewAuthenticator("test-secret", time.Hour)
	s, cleanup := newTestServer(t, auth)
	defer cleanup()
	h := s.Handler()

	resp := do(t, h, http.MethodGet, "/items", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = do(t, h, http.MethodGet, "/items", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	alice, err := auth.Issue("alice")
	require.NoError(t, err)
	bob, err := auth.Issue("bob")
	require.NoError(t, err)

	resp = do(t, h, http.MethodPost, "/items", ItemInput{Name: "Alice's Keys"}, alice)
	require.Equal(t, http.StatusCreated, resp.Code)

	var result query.Result
	decode(t, do(t, h, http.MethodGet, "/items", nil, bob), &result)
	assert.Equal(t, 0, result.TotalMatched)
	decode(t, do(t, h, http.MethodGet, "/items", nil, alice), &result)
	assert.Equal(t, 1, result.TotalMatched)

	other := NewAuthenticator("other-secret", time.Hour)
	forged, err := other.Issue("alice")
	require.NoError(t, err)
	resp = do(t, h, http.MethodGet, "/items", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Health stays open.
	resp = do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, cleanup := newTestServer(t, nil)
	defer cleanup()
	h := s.Handler()

	do(t, h, http.MethodGet, "/items/abc", nil, "")
	resp := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `radar_http_requests_total{code="404",method="GET",route="/items/{id}"} 1`)
}

func TestMetrics_UnknownPathsShareLabel(t *testing.T) {
	s, cleanup := newTestServer(t, NewAuthenticator("test-secret", time.Hour))
	defer cleanup()
	h := s.Handler()

	for i := range 5 {
		resp := do(t, h, http.MethodGet, fmt.Sprintf("/junk%d", i), nil, "")
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	resp := do(t, h, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "junk")
	assert.Contains(t, string(body), `radar_http_requests_total{code="401",method="GET",route="other"} 5`)
}

func TestParseQuery(t *testing.T) {
	v, _ := url.ParseQuery("q=key&category=a,b&category=c&status=missing&essential=1&from=2025-01-01&sort=lastSeen&dir=desc&page=2&page_size=0&manual=false")
	req, err := ParseQuery(v, 20)
	require.NoError(t, err)

	want := QueryRequest{
		Filter: models.FilterSpec{
			SearchText:    "key",
			Categories:    []string{"a", "b", "c"},
			Statuses:      []models.ItemStatus{models.ItemStatusMissing},
			EssentialOnly: true,
			DateFrom:      "2025-01-01",
		},
		Sort: models.SortSpec{Key: models.SortByLastSeen, Direction: models.SortDesc},
		Page: query.Page{Number: 2, Size: 0},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("ParseQuery mismatch (-want +got):\n%s", diff)
	}

	req, err = ParseQuery(url.Values{}, 20)
	require.NoError(t, err)
	assert.True(t, req.Manual)
	assert.Equal(t, query.Page{Number: 1, Size: 20}, req.Page)
	assert.Equal(t, models.SortByName, req.Sort.Key)

	for _, bad := range []string{"status=lost", "essential=maybe", "page=x", "dir=up"} {
		v, _ := url.ParseQuery(bad)
		_, err := ParseQuery(v, 20)
		assert.ErrorIs(t, err, ErrInvalidQuery, bad)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/":                    "other",
		"/items":               "/items",
		"/items/123":           "/items/{id}",
		"/presets/beach/apply": "/presets/{id}/apply",
		"/order/move":          "/order/move",
		"/order/move/x":        "other",
		"/scan/reset":          "/scan/reset",
		"/junk1":               "other",
		"/items/1/junk":        "other",
		"/a/b/c/d":             "other",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), w.Body.String())
}

func newTestServer(t *testing.T, auth *Authenticator) (*Server, func()) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	logger, _ := test.NewNullLogger()
	service := NewService(st, audit.NewRecorder(st, logger), Options{Log: logger})
	server := NewServer(service, st, auth, "127.0.0.1:0")

	cleanup := func() {
		st.Close()
	}

	return server, cleanup
}
