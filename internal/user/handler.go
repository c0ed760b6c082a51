package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/session"
)

// Handler exposes HTTP endpoints for account operations.
type Handler struct {
	svc      *Service
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger, validate: validator.New()}
}

// RegisterRequest request body for the signup endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
	IsAdmin  bool   `json:"isAdmin"`
}

// RegisterResponse response body containing the new user id.
type RegisterResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	actor := session.IdentityFromContext(r.Context())
	id, err := h.svc.Register(r.Context(), req.Username, req.Password, req.IsAdmin, actor)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrForbidden):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
		case errors.Is(err, ErrConflict):
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
		default:
			h.logger.Warnw("register failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "register failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, RegisterResponse{ID: id})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Warnw("list users failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Warnw("delete user failed", "err", err, "id", id)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
