package period

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/session"
)

// Handler exposes HTTP endpoints for cycle tracking.
type Handler struct {
	svc      *Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

// parseDate accepts RFC3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type NewCycleRequest struct {
	From string `json:"from" validate:"required"`
}

func (h *Handler) NewCycle(w http.ResponseWriter, r *http.Request) {
	var req NewCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	from, err := parseDate(req.From)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from date"})
		return
	}
	id := session.IdentityFromContext(r.Context())
	cycle, err := h.svc.StartCycle(r.Context(), id.ID, from)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "cycle already open"})
			return
		}
		h.logger.Warnw("start cycle failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "start cycle failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, cycle)
}

type RecordMoodRequest struct {
	Mood     string `json:"mood" validate:"required"`
	DateTime string `json:"dateTime"`
	CycleID  *int64 `json:"cycleId"`
}

func (h *Handler) RecordMood(w http.ResponseWriter, r *http.Request) {
	var req RecordMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	at := time.Now()
	if req.DateTime != "" {
		var err error
		if at, err = parseDate(req.DateTime); err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dateTime"})
			return
		}
	}
	id := session.IdentityFromContext(r.Context())
	m, err := h.svc.RecordMood(r.Context(), id.ID, req.Mood, at, req.CycleID)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "record mood")
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

type RecordSymptomRequest struct {
	Symptom  string `json:"symptom" validate:"required"`
	FlowType int    `json:"flowType" validate:"min=0,max=3"`
	DateTime string `json:"dateTime"`
}

func (h *Handler) RecordSymptom(w http.ResponseWriter, r *http.Request) {
	var req RecordSymptomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	at := time.Now()
	if req.DateTime != "" {
		var err error
		if at, err = parseDate(req.DateTime); err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dateTime"})
			return
		}
	}
	id := session.IdentityFromContext(r.Context())
	sym, err := h.svc.RecordSymptom(r.Context(), id.ID, req.Symptom, req.FlowType, at)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "record symptom")
		return
	}
	h.writeJSON(w, http.StatusOK, sym)
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	detail, err := h.svc.Current(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, ErrNoOpenCycle) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active period cycle"})
			return
		}
		h.logger.Warnw("get current cycle failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get current cycle failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || n < 1 {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid count"})
		return
	}
	id := session.IdentityFromContext(r.Context())
	details, err := h.svc.Previous(r.Context(), id.ID, n)
	if err != nil {
		h.logger.Warnw("get previous cycles failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get previous cycles failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, details)
}

func (h *Handler) Typical(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	typ, err := h.svc.Typical(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.logger.Warnw("get typical cycle failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get typical cycle failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, typ)
}

type UpsertTypicalRequest struct {
	CycleLength       *int    `json:"cycleLength" validate:"omitempty,min=1"`
	Regularity        *bool   `json:"regularity"`
	MostCommonSymptom *string `json:"mostCommonSymptom"`
}

func (h *Handler) UpsertTypical(w http.ResponseWriter, r *http.Request) {
	var req UpsertTypicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := session.IdentityFromContext(r.Context())
	typ, err := h.svc.UpsertTypical(r.Context(), id.ID, req.CycleLength, req.Regularity, req.MostCommonSymptom)
	if err != nil {
		h.logger.Warnw("upsert typical cycle failed", "err", err, "user", id.ID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upsert typical cycle failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, typ)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, userID int64, op string) {
	switch {
	case errors.Is(err, ErrNoOpenCycle):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no active period cycle"})
	case errors.Is(err, ErrInvalidMood):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid mood option"})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		h.logger.Warnw(op+" failed", "err", err, "user", userID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": op + " failed"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
