package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockInspector struct {
	indexes map[string]bool
	err     error
}

func (m *mockInspector) IndexExists(_ context.Context, name string) (bool, error) {
	return m.indexes[name], m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New().
		Register("lexical_store", Ping(&mockPinger{})).
		Register("embedding", Embedding(&mockEmbeddingChecker{}))
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["lexical_store"] != CheckOK {
		t.Errorf("expected lexical_store %q, got %q", CheckOK, r.Checks["lexical_store"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New().
		Register("vector_store", Ping(&mockPinger{err: errors.New("conn refused")})).
		Register("embedding", Embedding(&mockEmbeddingChecker{}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["vector_store"] != CheckError {
		t.Errorf("expected vector_store %q, got %q", CheckError, r.Checks["vector_store"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_AllFailing(t *testing.T) {
	svc := New().
		Register("lexical_store", Ping(&mockPinger{err: errors.New("down")})).
		Register("embedding", Embedding(&mockEmbeddingChecker{err: errors.New("timeout")}))
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_Index(t *testing.T) {
	insp := &mockInspector{indexes: map[string]bool{"idx:bm25": true}}
	svc := New().
		Register("index:bm25", Index(insp, "idx:bm25")).
		Register("index:dense", Index(insp, "idx:dense"))
	r := svc.Check(context.Background())

	if r.Checks["index:bm25"] != CheckOK {
		t.Errorf("expected present index ok, got %q", r.Checks["index:bm25"])
	}
	if r.Checks["index:dense"] != CheckError {
		t.Errorf("expected missing index error, got %q", r.Checks["index:dense"])
	}
	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
}

func TestCheck_IndexInspectorError(t *testing.T) {
	insp := &mockInspector{err: errors.New("io")}
	r := New().Register("index:bm25", Index(insp, "idx:bm25")).Check(context.Background())
	if r.Checks["index:bm25"] != CheckError {
		t.Errorf("expected error, got %q", r.Checks["index:bm25"])
	}
}

func TestCheck_NoChecks(t *testing.T) {
	r := New().Check(context.Background())
	if r.Status != Healthy {
		t.Errorf("expected %q with no checks, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected empty checks, got %v", r.Checks)
	}
}

func TestRegister_IgnoresNil(t *testing.T) {
	svc := New().Register("nothing", nil).Register("embedding", Embedding(&mockEmbeddingChecker{}))
	names := svc.Names()
	if len(names) != 1 || names[0] != "embedding" {
		t.Errorf("expected [embedding], got %v", names)
	}
}

func TestCheck_RespectsTimeout(t *testing.T) {
	svc := New().Register("slow", CheckerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	svc.timeout = 10 * time.Millisecond

	r := svc.Check(context.Background())
	if r.Checks["slow"] != CheckError {
		t.Errorf("expected slow check to fail on timeout, got %q", r.Checks["slow"])
	}
}
