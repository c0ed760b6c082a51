package friends

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/session"
)

// Handler exposes HTTP endpoints for friendship edges.
type Handler struct {
	svc      *Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

type AddFriendRequest struct {
	FriendName string `json:"friendName" validate:"required"`
}

func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := session.IdentityFromContext(r.Context())
	f, err := h.svc.AddFriend(r.Context(), id.ID, req.FriendName)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "add friend")
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	names, err := h.svc.ListFriends(r.Context(), id, nil)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "list friends")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"friends": names})
}

// ListFor serves the admin view of another user's friend list.
func (h *Handler) ListFor(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	id := session.IdentityFromContext(r.Context())
	names, err := h.svc.ListFriends(r.Context(), id, &target)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "list friends")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"friends": names})
}

func (h *Handler) AddBeast(w http.ResponseWriter, r *http.Request) {
	var req AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := session.IdentityFromContext(r.Context())
	b, err := h.svc.AddBeast(r.Context(), id.ID, req.FriendName)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "add beast")
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) Beast(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	name, err := h.svc.Beast(r.Context(), id.ID)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "get beast")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"beast": name})
}

func (h *Handler) BeastStats(w http.ResponseWriter, r *http.Request) {
	id := session.IdentityFromContext(r.Context())
	stats, err := h.svc.BeastStats(r.Context(), id.ID)
	if err != nil {
		h.writeServiceError(w, err, id.ID, "get beast stats")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"beast": stats})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, userID int64, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "target not found"})
	case errors.Is(err, ErrConflict):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": "edge already exists"})
	case errors.Is(err, ErrSelf):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot befriend yourself"})
	case errors.Is(err, session.ErrForbidden):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
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
