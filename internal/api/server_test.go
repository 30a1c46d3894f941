package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"babytrack/internal/analysis"
	"babytrack/internal/database"
	"babytrack/internal/generator"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// HTTP client keep-alive goroutines persist across tests
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type stubAnalyzer struct {
	result *analysis.Result
	err    error
	got    analysis.Request
}

func (a *stubAnalyzer) Analyze(_ context.Context, req analysis.Request) (*analysis.Result, error) {
	a.got = req
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

// testClock is a fixed evening timestamp so day windows are non-empty.
var testClock = time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)

func newTestServer(t *testing.T, analyzer Analyzer) (*httptest.Server, *store.Store) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	st := store.New(db, log.NewNop())
	if analyzer == nil {
		analyzer = &stubAnalyzer{result: &analysis.Result{Text: "ok", Mode: analysis.ModeReport}}
	}

	srv, err := NewServer(ServerConfig{
		Logger:   log.NewNop(),
		Store:    st,
		DB:       db,
		Analyzer: analyzer,
		Now:      func() time.Time { return testClock },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading response: %v", err)
	}
	return resp, out.Bytes()
}

func createTestBaby(t *testing.T, ts *httptest.Server) store.Baby {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/babies", map[string]any{
		"name":               "Louise",
		"birth_date":         "2026-02-16",
		"birth_weight_grams": 3200,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating baby: status %d: %s", resp.StatusCode, body)
	}
	var baby store.Baby
	if err := json.Unmarshal(body, &baby); err != nil {
		t.Fatalf("decoding baby: %v", err)
	}
	return baby
}

func TestHealthAndReadiness(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/ready", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status %d: %s", resp.StatusCode, body)
	}
}

func TestBabyEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	baby := createTestBaby(t, ts)

	resp, body := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/babies/%d", ts.URL, baby.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get baby: status %d: %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/v1/babies/%d", ts.URL, baby.ID),
		map[string]any{"name": "Romane"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update baby: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/babies/%d", ts.URL, baby.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete baby: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/babies/%d", ts.URL, baby.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted baby should 404, got %d", resp.StatusCode)
	}
}

func TestBabyValidation(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing name", map[string]any{"birth_date": "2026-02-16", "birth_weight_grams": 3200}, http.StatusUnprocessableEntity},
		{"bad birth date", map[string]any{"name": "X", "birth_date": "16/02/2026", "birth_weight_grams": 3200}, http.StatusUnprocessableEntity},
		{"zero weight", map[string]any{"name": "X", "birth_date": "2026-02-16"}, http.StatusUnprocessableEntity},
		{"unknown field", map[string]any{"name": "X", "birth_date": "2026-02-16", "birth_weight_grams": 1, "extra": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/babies", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestFeedingEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	baby := createTestBaby(t, ts)
	base := fmt.Sprintf("%s/api/v1/babies/%d/feedings", ts.URL, baby.ID)

	resp, body := doJSON(t, http.MethodPost, base, map[string]any{
		"fed_at":       "2026-02-23T08:00:00Z",
		"quantity_ml":  70,
		"feeding_type": "bottle",
		"notes":        "hungry this morning",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add feeding: status %d: %s", resp.StatusCode, body)
	}
	var feeding store.Feeding
	if err := json.Unmarshal(body, &feeding); err != nil {
		t.Fatalf("decoding feeding: %v", err)
	}

	resp, _ = doJSON(t, http.MethodPost, base, map[string]any{
		"fed_at":       "2026-02-23T08:00:00Z",
		"quantity_ml":  70,
		"feeding_type": "formula",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid feeding type: status %d, want 422", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, base+"?date=2026-02-23", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list by day: status %d", resp.StatusCode)
	}
	var feedings []store.Feeding
	if err := json.Unmarshal(body, &feedings); err != nil {
		t.Fatalf("decoding feedings: %v", err)
	}
	if len(feedings) != 1 || feedings[0].Notes != "hungry this morning" {
		t.Fatalf("feedings = %+v", feedings)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/feedings/%d", ts.URL, feeding.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete feeding: status %d", resp.StatusCode)
	}
}

func TestAnalysisEndpointSavesReport(t *testing.T) {
	score := 0.9
	stub := &stubAnalyzer{result: &analysis.Result{
		Text:      "### Positives\nGood pace.",
		Sources:   []store.Source{{Source: "who_feeding.md", Score: &score}},
		Mode:      analysis.ModeReport,
		IsPartial: true,
	}}
	ts, st := newTestServer(t, stub)
	baby := createTestBaby(t, ts)

	doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/babies/%d/feedings", ts.URL, baby.ID), map[string]any{
		"fed_at": "2026-02-23T08:00:00Z", "quantity_ml": 70, "feeding_type": "bottle",
	})

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/babies/%d/analysis", ts.URL, baby.ID), map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analysis: status %d: %s", resp.StatusCode, body)
	}

	var res analyzeResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.Mode != "report" || !res.IsPartial || res.ReportID == 0 {
		t.Fatalf("response = %+v", res)
	}
	if res.WindowLabel != "day of 02/23/2026" {
		t.Errorf("window label = %q", res.WindowLabel)
	}
	if len(res.Sources) != 1 || res.Sources[0].Source != "who_feeding.md" {
		t.Errorf("sources = %+v", res.Sources)
	}

	// The default day window runs from midnight to the test clock.
	if !stub.got.Window.Start.Equal(time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)) || !stub.got.Window.End.Equal(testClock) {
		t.Errorf("window = %+v", stub.got.Window)
	}
	if len(stub.got.Events.Feedings) != 1 {
		t.Errorf("analyzer received %d feedings, want 1", len(stub.got.Events.Feedings))
	}

	report, err := st.GetReport(context.Background(), res.ReportID)
	if err != nil {
		t.Fatalf("saved report: %v", err)
	}
	if report.Analysis != "### Positives\nGood pace." || !report.IsPartial {
		t.Errorf("report = %+v", report)
	}
}

func TestAnalysisEndpointConversationalNotSaved(t *testing.T) {
	stub := &stubAnalyzer{result: &analysis.Result{
		Text: "She is eating enough.",
		Mode: analysis.ModeConversational,
	}}
	ts, st := newTestServer(t, stub)
	baby := createTestBaby(t, ts)

	resp, body := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/babies/%d/analysis", ts.URL, baby.ID),
		map[string]any{"question": "is she eating enough?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analysis: status %d: %s", resp.StatusCode, body)
	}
	var res analyzeResponse
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if res.ReportID != 0 {
		t.Errorf("conversational answer must not be saved as a report")
	}
	if stub.got.Question != "is she eating enough?" {
		t.Errorf("question = %q", stub.got.Question)
	}

	reports, err := st.ListReports(context.Background(), baby.ID, 10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no persisted reports, got %d", len(reports))
	}
}

func TestAnalysisEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no data", fmt.Errorf("wrap: %w", analysis.ErrNoData), http.StatusUnprocessableEntity},
		{"invalid window", fmt.Errorf("wrap: %w", analysis.ErrInvalidWindow), http.StatusUnprocessableEntity},
		{"quota exhausted", fmt.Errorf("wrap: %w", generator.ErrQuotaExhausted), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, &stubAnalyzer{err: tt.err})
			baby := createTestBaby(t, ts)

			resp, body := doJSON(t, http.MethodPost,
				fmt.Sprintf("%s/api/v1/babies/%d/analysis", ts.URL, baby.ID), map[string]any{})
			if resp.StatusCode != tt.want {
				t.Errorf("status %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestAnalysisEndpointUnknownBaby(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/babies/999/analysis", map[string]any{})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown baby: status %d, want 404", resp.StatusCode)
	}
}

func TestIndexRebuildWithoutBuilder(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/index/rebuild", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("rebuild without builder: status %d, want 503", resp.StatusCode)
	}
}

func TestConversationEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	baby := createTestBaby(t, ts)
	base := fmt.Sprintf("%s/api/v1/babies/%d/conversations", ts.URL, baby.ID)

	resp, body := doJSON(t, http.MethodPost, base, map[string]any{
		"title": "feeding questions",
		"messages": []map[string]string{
			{"role": "user", "content": "Is she eating enough?"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create conversation: status %d: %s", resp.StatusCode, body)
	}
	var conv store.Conversation
	if err := json.Unmarshal(body, &conv); err != nil {
		t.Fatalf("decoding conversation: %v", err)
	}

	resp, body = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list conversations: status %d", resp.StatusCode)
	}
	var summaries []store.ConversationSummary
	if err := json.Unmarshal(body, &summaries); err != nil {
		t.Fatalf("decoding summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %+v", summaries)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/conversations/%d", ts.URL, conv.ID), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete conversation: status %d", resp.StatusCode)
	}
}

func TestRateLimiting(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	srv, err := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Store:     store.New(db, log.NewNop()),
		Analyzer:  &stubAnalyzer{result: &analysis.Result{Text: "ok", Mode: analysis.ModeReport}},
		RateBurst: 3,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	limited := false
	for i := 0; i < 10; i++ {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/v1/babies", nil)
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst of 10 requests against burst limit 3 was never rate limited")
	}
}
