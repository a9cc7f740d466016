package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"workshop/internal/api"
)

type Handlers struct {
	Auth *Service
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationFailed, "email and password are required")
		return
	}

	token, p, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var ue *api.UpstreamError
		switch {
		case errors.As(err, &ue):
			api.WriteError(w, http.StatusServiceUnavailable, api.CodeUpstreamUnavailable, "identity store unavailable")
		case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserInactive):
			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "invalid credentials")
		default:
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		}
		return
	}

	api.WriteData(w, http.StatusOK, "Login successful.", map[string]any{
		"token": token,
		"user":  p,
	})
}

func (h Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	token := ""
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		token = strings.TrimSpace(authz[7:])
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, api.CodeUpstreamUnavailable, "identity store unavailable")
		return
	}
	api.WriteData(w, http.StatusOK, "Logged out.", nil)
}

func (h Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := api.PrincipalFromContext(r.Context())
	if p == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "missing principal")
		return
	}
	api.WriteData(w, http.StatusOK, "", map[string]any{"user": p})
}
