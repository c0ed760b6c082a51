package period

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/session"
)

func newTestServer(t *testing.T, store Store) (http.Handler, string) {
	t.Helper()
	ts := session.NewTokenService("test-secret", time.Hour)
	token, err := ts.Issue(session.Identity{ID: 1, Username: "freja"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	h := NewHandler(NewService(store), zap.NewNop().Sugar())

	mux := http.NewServeMux()
	authed := func(fn http.HandlerFunc) http.Handler { return session.Middleware(ts, fn) }
	mux.Handle("POST /api/period/new-cycle", authed(h.NewCycle))
	mux.Handle("POST /api/period/mood", authed(h.RecordMood))
	mux.Handle("POST /api/period/symptom", authed(h.RecordSymptom))
	mux.Handle("GET /api/period/current", authed(h.Current))
	mux.Handle("GET /api/period/typical", authed(h.Typical))
	mux.Handle("PUT /api/period/typical", authed(h.UpsertTypical))
	return mux, token
}

func do(t *testing.T, handler http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPeriodEndpoints(t *testing.T) {
	handler, token := newTestServer(t, newFakeStore())

	// unauthenticated
	if rec := do(t, handler, "", http.MethodGet, "/api/period/current", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// no open cycle yet
	if rec := do(t, handler, token, http.MethodGet, "/api/period/current", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	rec := do(t, handler, token, http.MethodPost, "/api/period/mood", `{"mood":"happy"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// bad from date
	rec = do(t, handler, token, http.MethodPost, "/api/period/new-cycle", `{"from":"yesterday"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// open a cycle, then record entries against it
	rec = do(t, handler, token, http.MethodPost, "/api/period/new-cycle", `{"from":"2024-01-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, token, http.MethodPost, "/api/period/mood", `{"mood":"happy","dateTime":"2024-01-02T10:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, token, http.MethodPost, "/api/period/mood", `{"mood":"bored"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec = do(t, handler, token, http.MethodPost, "/api/period/symptom", `{"symptom":"cramps","flowType":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, token, http.MethodPost, "/api/period/symptom", `{"symptom":"cramps","flowType":7}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = do(t, handler, token, http.MethodGet, "/api/period/current", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"mood":"happy"`) || !strings.Contains(body, `"symptom":"cramps"`) {
		t.Fatalf("unexpected body: %s", body)
	}

	// typical is created lazily; missing until first upsert or close
	if rec := do(t, handler, token, http.MethodGet, "/api/period/typical", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	rec = do(t, handler, token, http.MethodPut, "/api/period/typical", `{"cycleLength":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, handler, token, http.MethodGet, "/api/period/typical", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cycleLength":30`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}
