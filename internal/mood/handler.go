package mood

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/period"
	"github.com/prdly/service-api-go/internal/session"
)

// Handler exposes the user-level mood endpoints. Mood entries live on the
// open cycle, so recording goes through the period service.
type Handler struct {
	periods  *period.Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(periods *period.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{periods: periods, logger: logger, validate: validator.New()}
}

// Options lists the accepted mood values. Unauthenticated by design: the
// client shows the options on the login-free landing screen.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"moods": period.MoodOptions})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	moods, err := h.periods.MoodsForUser(r.Context(), id.ID)
	if err != nil {
		h.logger.Warnw("list moods failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list moods failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"moods": moods})
}

type AddMoodRequest struct {
	Mood string `json:"mood" validate:"required"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := session.IdentityFromContext(r.Context())
	if _, err := h.periods.RecordMood(r.Context(), id.ID, req.Mood, time.Now(), nil); err != nil {
		switch {
		case errors.Is(err, period.ErrInvalidMood):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid mood option"})
		case errors.Is(err, period.ErrNoOpenCycle):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no active period cycle"})
		default:
			h.logger.Warnw("add mood failed", "err", err, "user", id.ID)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "add mood failed"})
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
