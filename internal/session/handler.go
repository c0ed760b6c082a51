package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CredentialVerifier checks a username/password pair against the credential
// store. Implemented by the user service.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*Identity, error)
}

// Handler exposes the login endpoint.
type Handler struct {
	tokens   *TokenService
	creds    CredentialVerifier
	logger   *zap.SugaredLogger
	validate *validator.Validate
}

func NewHandler(tokens *TokenService, creds CredentialVerifier, logger *zap.SugaredLogger) *Handler {
	return &Handler{tokens: tokens, creds: creds, logger: logger, validate: validator.New()}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := h.creds.VerifyCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication failed"})
			return
		}
		h.logger.Warnw("login failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	token, err := h.tokens.Issue(*id)
	if err != nil {
		h.logger.Errorw("token issue failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
