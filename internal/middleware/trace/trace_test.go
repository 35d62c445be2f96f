package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	if !strings.HasPrefix(a, "req_") {
		t.Errorf("request ID %q missing req_ prefix", a)
	}
	if a == b {
		t.Error("request IDs should be unique")
	}
}

func TestMiddlewarePropagatesRequestID(t *testing.T) {
	m := NewMiddleware(nil)

	var seen string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/abc", nil))

	if seen == "" {
		t.Error("handler did not see a request ID")
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("GetRequestID on bare context = %q, want empty", id)
	}
}
