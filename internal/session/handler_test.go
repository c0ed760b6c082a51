package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeCreds struct{}

func (fakeCreds) VerifyCredentials(_ context.Context, username, password string) (*Identity, error) {
	if username == "freja" && password == "hunter2" {
		return &Identity{ID: 7, Username: "freja"}, nil
	}
	return nil, ErrUnauthorized
}

func TestLogin(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	h := NewHandler(ts, fakeCreds{}, zap.NewNop().Sugar())

	testCases := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"wrong password", `{"username":"freja","password":"wrong-pw"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"nobody","password":"hunter2"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"freja"}`, http.StatusBadRequest},
		{"password too short", `{"username":"freja","password":"abc"}`, http.StatusBadRequest},
		{"not json", `username=freja`, http.StatusBadRequest},
		{"success", `{"username":"freja","password":"hunter2"}`, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/session/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)
			if rec.Code != tc.expectedStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.expectedStatus)
			}
		})
	}
}

func TestLoginTokenAuthenticatesSubsequentCalls(t *testing.T) {
	ts := NewTokenService("test-secret", time.Hour)
	h := NewHandler(ts, fakeCreds{}, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/api/session/login",
		strings.NewReader(`{"username":"freja","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", rec.Code)
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}

	protected := Middleware(ts, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id.ID != 7 || id.Username != "freja" {
			t.Fatalf("identity = %+v, want id 7 freja", id)
		}
	}))
	req = httptest.NewRequest(http.MethodGet, "/api/period/current", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("protected status = %d, want 200", rec.Code)
	}
}
