package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/logvault-io/logvault/internal/config"
	"github.com/logvault-io/logvault/internal/model"
	"github.com/logvault-io/logvault/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:         "0",
			ReadTimeout:  5,
			WriteTimeout: 5,
			IdleTimeout:  5,
		},
		Storage: config.StorageConfig{
			Driver:         "memory",
			Table:          "LogTable",
			ReadLimit:      100,
			RetryAttempts:  3,
			RetryBackoffMS: 1,
		},
	}
}

func newTestServer(t *testing.T, store storage.Store) *httptest.Server {
	t.Helper()
	srv := New(testConfig(), store, zerolog.Nop())
	ts := httptest.NewServer(srv.Echo)
	t.Cleanup(ts.Close)
	return ts
}

type ingestResponse struct {
	Data   model.Entry `json:"data"`
	Status int         `json:"status"`
}

type recentResponse struct {
	Data struct {
		Count   int           `json:"count"`
		Logs    []model.Entry `json:"logs"`
		Skipped int           `json:"skipped"`
	} `json:"data"`
	Status int `json:"status"`
}

func postLog(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/logs", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func getRecent(t *testing.T, ts *httptest.Server) recentResponse {
	t.Helper()
	resp, err := http.Get(ts.URL + "/logs/recent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recent: expected 200, got %d", resp.StatusCode)
	}
	var out recentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	return out
}

func TestIngestThenRead(t *testing.T) {
	ts := newTestServer(t, storage.NewMemory())

	resp := postLog(t, ts, `{"severity":"info","message":"Hello world"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.ID == "" {
		t.Error("expected a generated id")
	}
	if created.Data.DateTime == "" {
		t.Error("expected a generated dateTime")
	}

	recent := getRecent(t, ts)
	if recent.Data.Count != 1 {
		t.Fatalf("expected count 1, got %d", recent.Data.Count)
	}
	got := recent.Data.Logs[0]
	if got != created.Data {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, created.Data)
	}
}

func TestIngestEmptyBodyRejectedAndNotPersisted(t *testing.T) {
	ts := newTestServer(t, storage.NewMemory())

	resp := postLog(t, ts, `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw, _ := json.Marshal(body)
	if !bytes.Contains(raw, []byte("severity")) {
		t.Errorf("error body does not name the failing field: %s", raw)
	}

	recent := getRecent(t, ts)
	if recent.Data.Count != 0 {
		t.Errorf("expected nothing persisted, got count %d", recent.Data.Count)
	}
}

func TestIngestMalformedJSONRejected(t *testing.T) {
	ts := newTestServer(t, storage.NewMemory())

	resp := postLog(t, ts, `{"severity":`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRecentReturnsReverseAppendOrder(t *testing.T) {
	ts := newTestServer(t, storage.NewMemory())

	for i, sev := range []string{"info", "warning", "error"} {
		body := fmt.Sprintf(`{"severity":%q,"message":"m","dateTime":"2024-02-17T10:30:0%d.000000Z"}`, sev, i)
		resp := postLog(t, ts, body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("append %s: expected 201, got %d", sev, resp.StatusCode)
		}
	}

	recent := getRecent(t, ts)
	if recent.Data.Count != 3 {
		t.Fatalf("expected 3 entries, got %d", recent.Data.Count)
	}
	want := []model.Severity{model.SeverityError, model.SeverityWarning, model.SeverityInfo}
	for i, entry := range recent.Data.Logs {
		if entry.Severity != want[i] {
			t.Errorf("position %d: got %q, want %q", i, entry.Severity, want[i])
		}
	}
}

func TestRecentReportsSkippedRecords(t *testing.T) {
	mem := storage.NewMemory()
	ts := newTestServer(t, mem)

	resp := postLog(t, ts, `{"severity":"info","message":"intact"}`)
	resp.Body.Close()
	err := mem.Put(context.Background(), storage.Record{
		storage.AttrID:       "broken",
		storage.AttrDateTime: "2024-02-17T10:31:00.000000Z",
		storage.AttrSeverity: "info",
		storage.AttrStream:   storage.DefaultStream,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	recent := getRecent(t, ts)
	if recent.Data.Count != 1 || recent.Data.Skipped != 1 {
		t.Errorf("expected count 1 skipped 1, got count %d skipped %d",
			recent.Data.Count, recent.Data.Skipped)
	}
}

type downStore struct{ *storage.Memory }

func (downStore) Put(context.Context, storage.Record) error {
	return &storage.StorageError{Op: "put", Cause: storage.CauseMalformedItem, Err: errors.New("table missing")}
}

func (downStore) QueryStream(context.Context, string, int32) ([]storage.Record, error) {
	return nil, &storage.StorageError{Op: "query", Cause: storage.CauseUnavailable, Err: errors.New("down")}
}

func TestStorageFailuresMapToServerErrors(t *testing.T) {
	ts := newTestServer(t, downStore{Memory: storage.NewMemory()})

	resp := postLog(t, ts, `{"severity":"info","message":"m"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("ingest: expected 500, got %d", resp.StatusCode)
	}

	getResp, err := http.Get(ts.URL + "/logs/recent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("recent: expected 503, got %d", getResp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, storage.NewMemory())
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
