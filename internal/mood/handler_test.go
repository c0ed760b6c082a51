package mood

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/period"
)

func TestOptions(t *testing.T) {
	h := NewHandler(nil, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodGet, "/api/mood/list", nil)
	rec := httptest.NewRecorder()
	h.Options(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["moods"]) != len(period.MoodOptions) {
		t.Fatalf("moods = %v, want %v", resp["moods"], period.MoodOptions)
	}
}
