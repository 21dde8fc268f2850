package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysh454/phishlens/internal/app"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/server"
	"github.com/raysh454/phishlens/internal/testutil"
)

const phishyURL = "http://secure-login.paypal.com.verify123.xyz/account/update?id=1&session=abc&token=xyz"

func newTestServer(t *testing.T, tweak ...func(*app.Config)) (*server.Server, *testutil.DummyLogger) {
	t.Helper()

	logger := &testutil.DummyLogger{}
	appCfg := app.DefaultConfig()
	appCfg.Detector.Latency = 0
	for _, fn := range tweak {
		fn(appCfg)
	}

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		AppConfig:  appCfg,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, logger
}

func withHistory(t *testing.T) func(*app.Config) {
	dir := t.TempDir()
	return func(c *app.Config) {
		c.History.Enabled = true
		c.History.Path = filepath.Join(dir, "history.db")
	}
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

type resultBody struct {
	IsPhishing bool    `json:"isPhishing"`
	Confidence float64 `json:"confidence"`
	Algorithm  string  `json:"algorithm"`
	Features   struct {
		DomainLength int  `json:"domainLength"`
		HasHTTPS     bool `json:"hasHttps"`
	} `json:"features"`
	Vector []float64 `json:"vector"`
}

// ─── CORS & logging ────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/algorithms", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "OPTIONS", "/detect", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestServer_LogsRequests(t *testing.T) {
	t.Parallel()
	s, logger := newTestServer(t)

	doJSON(t, s, "GET", "/healthz", "")
	if !logger.Logged("http_request") {
		t.Error("expected http_request log entry")
	}
}

func TestServer_RejectsOversizedBody(t *testing.T) {
	t.Parallel()
	s, logger := newTestServer(t)

	body := `{"url":"https://example.com/` + strings.Repeat("a", 2<<20) + `"}`
	rec := doJSON(t, s, "POST", "/detect", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !logger.Logged("body too large") {
		t.Error("expected oversized body to be logged")
	}
}

func TestServer_TruncatesLoggedBody(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	appCfg := app.DefaultConfig()
	appCfg.Detector.Latency = 0
	s, err := server.NewServer(server.Config{
		AppConfig: appCfg,
		Logger:    logging.NewLogger(&logs, "test", "info"),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	long := "https://example.com/" + strings.Repeat("p", 8<<10)
	rec := doJSON(t, s, "POST", "/detect", `{"url":"`+long+`","algorithm":"knn"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry struct {
			Msg    string         `json:"msg"`
			Fields map[string]any `json:"fields"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Msg != "http_request" {
			continue
		}
		found = true
		if entry.Fields["body_truncated"] != true {
			t.Errorf("expected body_truncated, got fields %v", entry.Fields)
		}
		if body, _ := entry.Fields["body"].(string); len(body) != 2048 {
			t.Errorf("logged body length = %d, want 2048", len(body))
		}
	}
	if !found {
		t.Fatal("no http_request log line")
	}
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}
}

// ─── Algorithms ────────────────────────────────────────────────────────

func TestServer_ListAlgorithms(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/algorithms", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var infos []map[string]any
	decodeJSON(t, rec, &infos)
	if len(infos) != 6 {
		t.Fatalf("expected 6 algorithms, got %d", len(infos))
	}
	if infos[0]["name"] != "knn" {
		t.Errorf("expected knn first, got %v", infos[0]["name"])
	}
}

func TestServer_GetAlgorithm(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/algorithms/random-forest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info struct {
		DisplayName string `json:"displayName"`
		Default     bool   `json:"default"`
		Metrics     struct {
			Accuracy int `json:"accuracy"`
		} `json:"metrics"`
	}
	decodeJSON(t, rec, &info)
	if info.DisplayName != "Random Forest" || !info.Default || info.Metrics.Accuracy != 96 {
		t.Errorf("unexpected info %+v", info)
	}

	for _, name := range []string{"KNN", "nope"} {
		if rec := doJSON(t, s, "GET", "/algorithms/"+name, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET /algorithms/%s: expected 404, got %d", name, rec.Code)
		}
	}
}

// ─── Detect ────────────────────────────────────────────────────────────

func TestServer_Detect(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/detect", `{"url":"`+phishyURL+`","algorithm":"decision-tree"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res resultBody
	decodeJSON(t, rec, &res)
	if !res.IsPhishing || res.Confidence != 0.85 {
		t.Errorf("unexpected verdict %+v", res)
	}
	if res.Features.DomainLength != 37 || res.Features.HasHTTPS {
		t.Errorf("unexpected features %+v", res.Features)
	}
	if len(res.Vector) != 10 {
		t.Errorf("expected 10-element vector, got %d", len(res.Vector))
	}
}

func TestServer_Detect_DefaultsToRandomForest(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/detect", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res resultBody
	decodeJSON(t, rec, &res)
	if res.Algorithm != "random-forest" {
		t.Errorf("unexpected algorithm %+v", res)
	}
}

func TestServer_Detect_UnknownAlgorithmFallsBack(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/detect", `{"url":"https://example.com","algorithm":"quantum"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res resultBody
	decodeJSON(t, rec, &res)
	if res.Algorithm != "random-forest" {
		t.Errorf("unknown algorithm should resolve to random-forest, got %+v", res)
	}

	rf := doJSON(t, s, "POST", "/detect", `{"url":"https://example.com","algorithm":"random-forest"}`)
	if rec.Body.String() != rf.Body.String() {
		t.Errorf("fallback body %s differs from random-forest body %s", rec.Body.String(), rf.Body.String())
	}
}

func TestServer_Detect_InvalidJSON(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	if rec := doJSON(t, s, "POST", "/detect", `{invalid}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Detect_InvalidURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	for _, body := range []string{`{"url":"not a url"}`, `{"url":""}`, `{}`} {
		rec := doJSON(t, s, "POST", "/detect", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%s: expected 422, got %d", body, rec.Code)
			continue
		}
		var e map[string]string
		decodeJSON(t, rec, &e)
		if !strings.Contains(e["error"], "invalid url") {
			t.Errorf("%s: unexpected error body %v", body, e)
		}
	}
}

func TestServer_Detect_ClientCanceled(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, func(c *app.Config) { c.Detector.Latency = time.Hour })

	req := httptest.NewRequest("POST", "/detect", strings.NewReader(`{"url":"https://example.com"}`))
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusRequestTimeout {
		t.Errorf("expected 408, got %d", rec.Code)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func waitForJob(t *testing.T, s http.Handler, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, s, "GET", "/jobs/"+id, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET /jobs/%s: %d", id, rec.Code)
		}
		var job map[string]any
		decodeJSON(t, rec, &job)
		switch job["status"] {
		case "done", "failed", "canceled":
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestServer_DetectJob_Lifecycle(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "POST", "/jobs/detect", `{"url":"`+phishyURL+`","algorithm":"knn"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var job map[string]any
	decodeJSON(t, rec, &job)
	id, _ := job["id"].(string)
	if id == "" {
		t.Fatal("expected job id")
	}

	final := waitForJob(t, s, id)
	if final["status"] != "done" {
		t.Fatalf("expected done, got %v", final)
	}
	result, _ := final["result"].(map[string]any)
	if result["isPhishing"] != true {
		t.Errorf("expected phishing verdict, got %v", result)
	}

	rec = doJSON(t, s, "GET", "/jobs", "")
	var jobs []map[string]any
	decodeJSON(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Errorf("expected 1 job, got %d", len(jobs))
	}
}

func TestServer_DetectJob_Cancel(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, func(c *app.Config) { c.Detector.Latency = time.Hour })

	rec := doJSON(t, s, "POST", "/jobs/detect", `{"url":"https://example.com"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var job map[string]any
	decodeJSON(t, rec, &job)
	id := job["id"].(string)

	if rec := doJSON(t, s, "DELETE", "/jobs/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if final := waitForJob(t, s, id); final["status"] != "canceled" {
		t.Errorf("expected canceled, got %v", final["status"])
	}
}

func TestServer_DetectJob_InvalidURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	if rec := doJSON(t, s, "POST", "/jobs/detect", `{"url":"example.com"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "POST", "/jobs/detect", `nope`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Jobs_UnknownID(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	if rec := doJSON(t, s, "GET", "/jobs/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/jobs/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE: expected 404, got %d", rec.Code)
	}
}

// ─── WebSocket ─────────────────────────────────────────────────────────

func TestServer_DetectWS_StreamsEvents(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	q := url.Values{"url": {phishyURL}, "algorithm": {"random-forest"}}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/detect?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var job app.Job
	if err := conn.ReadJSON(&job); err != nil {
		t.Fatalf("read job: %v", err)
	}
	if job.ID == "" || job.URL != phishyURL {
		t.Fatalf("unexpected job %+v", job)
	}

	var last app.JobEvent
	for {
		var ev app.JobEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		last = ev
	}
	if last.Type != app.JobEventResult || last.Status != app.JobDone || last.Result == nil {
		t.Fatalf("unexpected final event %+v", last)
	}
	if !last.Result.IsPhishing || last.Result.Confidence != 0.5625 {
		t.Errorf("unexpected result %+v", last.Result)
	}
}

func TestServer_DetectWS_InvalidURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/detect?url=nope"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var body map[string]string
	if err := conn.ReadJSON(&body); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(body["error"], "invalid url") {
		t.Errorf("unexpected message %v", body)
	}
}

// ─── History ───────────────────────────────────────────────────────────

func TestServer_Detections_Disabled(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	for _, path := range []string{"/detections", "/detections/abc"} {
		rec := doJSON(t, s, "GET", path, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
		var e map[string]string
		decodeJSON(t, rec, &e)
		if e["error"] != "history disabled" {
			t.Errorf("%s: unexpected error %v", path, e)
		}
	}
}

func TestServer_Detections_RecordedAndListed(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, withHistory(t))

	for _, u := range []string{"https://a.example.com", "https://b.example.com"} {
		if rec := doJSON(t, s, "POST", "/detect", `{"url":"`+u+`","algorithm":"sgd"}`); rec.Code != http.StatusOK {
			t.Fatalf("detect %s: %d", u, rec.Code)
		}
	}

	rec := doJSON(t, s, "GET", "/detections?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var recs []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	decodeJSON(t, rec, &recs)
	if len(recs) != 1 || recs[0].URL != "https://b.example.com" {
		t.Fatalf("unexpected records %+v", recs)
	}

	if rec := doJSON(t, s, "GET", "/detections/"+recs[0].ID, ""); rec.Code != http.StatusOK {
		t.Errorf("GET record: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "GET", "/detections/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET missing record: expected 404, got %d", rec.Code)
	}
}

// ─── Swagger ───────────────────────────────────────────────────────────

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := doJSON(t, s, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := rec.Body.String()
	if !strings.Contains(doc, "PhishLens API") {
		t.Errorf("doc.json missing title: %.200s", doc)
	}
	for _, want := range []string{`"/ws/detect"`, `"app.JobEvent"`, `"random-forest"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("doc.json missing %s", want)
		}
	}
}
