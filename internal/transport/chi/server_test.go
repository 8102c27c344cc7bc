package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vetsearch/internal/usecase/health"
)

// --- Mocks ---

type mockSearcher struct {
	lastQuery   *query.Query
	lastBackend backend.Backend
	calls       int
	docs        []result.Document
	failed      map[backend.Backend]error
	allErr      error
	tokens      int
}

func (m *mockSearcher) Execute(ctx context.Context, q *query.Query, b backend.Backend) (result.ResultSet, error) {
	m.calls++
	m.lastQuery, m.lastBackend = q, b
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	if err, ok := m.failed[b]; ok {
		rs := result.Failure(b, err)
		return rs, fmt.Errorf("%s backend: %w", b, rs.Err)
	}
	return result.Success(b, m.docs), nil
}

func (m *mockSearcher) ExecuteAll(_ context.Context, q *query.Query) (*result.Outcome, error) {
	m.calls++
	m.lastQuery = q
	out := &result.Outcome{Query: *q, Results: map[backend.Backend]result.ResultSet{}}
	for _, b := range backend.All() {
		if err, ok := m.failed[b]; ok {
			out.Results[b] = result.Failure(b, err)
			continue
		}
		out.Results[b] = result.Success(b, m.docs)
	}
	return out, m.allErr
}

type mockHistory struct {
	recs      []dom.Record
	lastLimit int
	err       error
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]dom.Record, error) {
	m.lastLimit = limit
	return m.recs, m.err
}

func (m *mockHistory) Get(_ context.Context, id string) (dom.Record, error) {
	for _, r := range m.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return dom.Record{}, fmt.Errorf("get history: %w", domain.ErrRecordNotFound)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestServer(s *mockSearcher, h HistoryReader) http.Handler {
	health := &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"lexical_store": healthuc.CheckOK}}}
	return NewServer(Config{DefaultTopK: 10, MaxTopK: 100}, s, h, health, zap.NewNop()).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

func sampleDocs() []result.Document {
	return []result.Document{
		result.NewDocument("doc-1", 4.2, "Canine dental anatomy", result.Metadata{CourseID: "VET200", Strand: "dentistry"}),
	}
}

// --- Tests ---

func TestRoot(t *testing.T) {
	rr := do(t, newTestServer(&mockSearcher{}, nil), "GET", "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decode(t, rr)["message"] != WelcomeMessage {
		t.Error("unexpected welcome message")
	}
}

func TestSearchMethod_Success(t *testing.T) {
	s := &mockSearcher{docs: sampleDocs(), tokens: 7}
	rr := do(t, newTestServer(s, nil), "POST", "/search/dense",
		`{"query":"teeth","filters":{"strand":"dentistry"},"top_k":3}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if s.lastBackend != backend.DenseVector {
		t.Errorf("expected dense backend, got %s", s.lastBackend)
	}
	if s.lastQuery.TopK() != 3 || s.lastQuery.Text() != "teeth" {
		t.Errorf("unexpected query passed: %q top_k=%d", s.lastQuery.Text(), s.lastQuery.TopK())
	}
	if rr.Header().Get("X-Embedding-Tokens") != "7" {
		t.Errorf("expected X-Embedding-Tokens 7, got %q", rr.Header().Get("X-Embedding-Tokens"))
	}

	body := decode(t, rr)
	md := body["metadata"].(map[string]any)
	if md["search_method"] != "Dense BGE-M3" || md["top_k"] != float64(3) {
		t.Errorf("unexpected metadata: %v", md)
	}
	results := body["results"].([]any)
	if len(results) != 1 || results[0].(map[string]any)["id"] != "doc-1" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestSearchMethod_DefaultTopK(t *testing.T) {
	s := &mockSearcher{}
	rr := do(t, newTestServer(s, nil), "POST", "/search/bm25", `{"query":"x"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if s.lastQuery.TopK() != 10 {
		t.Errorf("expected default top_k 10, got %d", s.lastQuery.TopK())
	}
	if rr.Header().Get("X-Embedding-Tokens") != "" {
		t.Error("no embedding header expected when nothing was embedded")
	}
}

func TestSearchMethod_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"unknown method", "/search/hybrid", `{"query":"x"}`, CodeUnknownMethod},
		{"bad json", "/search/bm25", `{"query":`, CodeValidationFailed},
		{"empty body", "/search/bm25", ``, CodeValidationFailed},
		{"empty query", "/search/bm25", `{"query":"   "}`, CodeValidationFailed},
		{"top_k zero", "/search/unicoil", `{"query":"x","top_k":0}`, CodeValidationFailed},
		{"top_k too large", "/search/dense", `{"query":"x","top_k":101}`, CodeValidationFailed},
		{"unknown filter field", "/search/multivector", `{"query":"x","filters":{"species":"cat"}}`, CodeInvalidFilterField},
		{"non-string filter", "/search/bm25", `{"query":"x","filters":{"course_id":5}}`, CodeValidationFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockSearcher{}
			rr := do(t, newTestServer(s, nil), "POST", tc.path, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			body := decode(t, rr)
			if body["code"] != tc.code {
				t.Errorf("expected code %q, got %v", tc.code, body["code"])
			}
			if body["detail"] == "" {
				t.Error("expected detail")
			}
			if s.calls != 0 {
				t.Error("invalid requests must be rejected before dispatch")
			}
		})
	}
}

func TestSearchMethod_BackendFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unavailable", errors.New("dial tcp 10.0.0.5:6379: connection refused"), CodeBackendUnavailable},
		{"timeout", context.DeadlineExceeded, CodeBackendTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &mockSearcher{failed: map[backend.Backend]error{backend.Lexical: tc.err}}
			rr := do(t, newTestServer(s, nil), "POST", "/search/bm25", `{"query":"x"}`)
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rr.Code)
			}
			body := decode(t, rr)
			if body["code"] != tc.code {
				t.Errorf("expected code %q, got %v", tc.code, body["code"])
			}
			if strings.Contains(body["detail"].(string), "10.0.0.5") {
				t.Error("internal details leaked to client")
			}
		})
	}
}

func TestSearchAll_Partial(t *testing.T) {
	s := &mockSearcher{
		docs:   sampleDocs(),
		failed: map[backend.Backend]error{backend.SparseImpact: errors.New("down")},
	}
	rr := do(t, newTestServer(s, nil), "POST", "/search/all", `{"query":"teeth","filters":{"course_id":"VET200"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	body := decode(t, rr)
	for _, k := range []string{"bm25_results", "dense_results", "multi_vector_results"} {
		if len(body[k].([]any)) != 1 {
			t.Errorf("expected 1 hit in %s", k)
		}
	}
	if len(body["unicoil_results"].([]any)) != 0 {
		t.Error("failed backend must be an empty list")
	}
	errs := body["errors"].(map[string]any)
	if errs["unicoil"] != "backend_unavailable" {
		t.Errorf("expected unicoil error entry, got %v", errs)
	}
	md := body["metadata"].(map[string]any)
	if md["filters"].(map[string]any)["course_id"] != "VET200" {
		t.Errorf("expected filters echo, got %v", md)
	}
}

func TestSearchAll_AllFailed(t *testing.T) {
	s := &mockSearcher{allErr: fmt.Errorf("%w: 4 of 4 backends failed", domain.ErrAllBackendsFailed)}
	rr := do(t, newTestServer(s, nil), "POST", "/search/all", `{"query":"x"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if decode(t, rr)["code"] != CodeAllBackendsFailed {
		t.Error("expected all_backends_failed code")
	}
}

func TestHistory_Disabled(t *testing.T) {
	h := newTestServer(&mockSearcher{}, nil)
	for _, path := range []string{"/search/history", "/search/history/abc"} {
		rr := do(t, h, "GET", path, "")
		if rr.Code != http.StatusNotImplemented {
			t.Errorf("%s: expected 501, got %d", path, rr.Code)
		}
	}
}

func TestHistory_List(t *testing.T) {
	hist := &mockHistory{recs: []dom.Record{{
		ID:        "0190d7a0-0000-7000-8000-000000000001",
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Query:     "q",
		TopK:      10,
		Results:   map[string][]dom.Hit{"lexical": {{ID: "a", Score: 1}}},
	}}}
	h := newTestServer(&mockSearcher{}, hist)

	rr := do(t, h, "GET", "/search/history?limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if hist.lastLimit != 5 {
		t.Errorf("expected limit 5, got %d", hist.lastLimit)
	}
	recs := decode(t, rr)["records"].([]any)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}

	rr = do(t, h, "GET", "/search/history", "")
	if rr.Code != http.StatusOK || hist.lastLimit != 20 {
		t.Errorf("expected default limit 20, got %d (status %d)", hist.lastLimit, rr.Code)
	}

	rr = do(t, h, "GET", "/search/history?limit=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestHistory_Get(t *testing.T) {
	id := "0190d7a0-0000-7000-8000-000000000001"
	hist := &mockHistory{recs: []dom.Record{{ID: id, Query: "q"}}}
	h := newTestServer(&mockSearcher{}, hist)

	rr := do(t, h, "GET", "/search/history/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decode(t, rr)["id"] != id {
		t.Error("unexpected record id")
	}

	rr = do(t, h, "GET", "/search/history/0190d7a0-0000-7000-8000-00000000ffff", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	health := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"vector_store": healthuc.CheckError, "embedding": healthuc.CheckOK},
	}}
	h := NewServer(Config{}, &mockSearcher{}, nil, health, nil).Router()

	rr := do(t, h, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	body := decode(t, rr)
	if body["status"] != "degraded" {
		t.Errorf("expected degraded, got %v", body["status"])
	}
	if body["checks"].(map[string]any)["vector_store"] != "error" {
		t.Errorf("unexpected checks: %v", body["checks"])
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := do(t, newTestServer(&mockSearcher{}, nil), "GET", "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if decode(t, rr)["code"] != CodeNotFound {
		t.Error("expected not_found code")
	}
}

func TestRequestIDHeader(t *testing.T) {
	rr := do(t, newTestServer(&mockSearcher{}, nil), "GET", "/", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
