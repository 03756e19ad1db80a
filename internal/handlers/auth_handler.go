package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/denial-knowledge/csrbot/internal/httputil"
	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/metrics"
	"github.com/denial-knowledge/csrbot/internal/models"
	"github.com/denial-knowledge/csrbot/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *logging.Logger
}

func NewAuthHandler(auth *service.AuthService, log *logging.Logger) *AuthHandler {
	if log == nil {
		log = logging.Default()
	}
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
		httputil.WriteJSON(w, http.StatusBadRequest, &models.RegisterResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	h.log.InfoContext(r.Context(), "registration attempt",
		logging.Username(req.Username), logging.IP(clientIP(r)))

	resp := h.auth.Register(r.Context(), &req)
	if !resp.Success {
		metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
		httputil.WriteJSON(w, http.StatusBadRequest, resp)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		httputil.WriteJSON(w, http.StatusBadRequest, &models.LoginResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	h.log.InfoContext(r.Context(), "login attempt",
		logging.Username(req.Username), logging.IP(clientIP(r)))

	if !h.auth.VerifyCredentials(r.Context(), req.Username, req.Password) {
		msg := h.auth.LoginErrorMessage(r.Context(), req.Username, req.Password)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		httputil.WriteJSON(w, http.StatusUnauthorized, &models.LoginResponse{
			Success: false,
			Message: msg,
		})
		return
	}

	token, err := h.auth.IssueToken(req.Username)
	if err != nil {
		h.log.ErrorContext(r.Context(), "token issuance failed",
			logging.Username(req.Username), logging.Error(err))
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		httputil.WriteJSON(w, http.StatusInternalServerError, &models.LoginResponse{
			Success: false,
			Message: "Login failed: " + err.Error(),
		})
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	httputil.WriteJSON(w, http.StatusOK, &models.LoginResponse{
		Token:    token,
		Username: req.Username,
		Message:  "Login successful",
		Success:  true,
	})
}

func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")

	if !h.auth.IsValid(r.Context(), token) {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		httputil.WriteJSON(w, http.StatusUnauthorized, &models.LoginResponse{
			Success: false,
			Message: "Invalid or expired token",
		})
		return
	}

	username, _ := h.auth.SubjectOf(token)
	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	httputil.WriteJSON(w, http.StatusOK, &models.LoginResponse{
		Username: username,
		Message:  "Token is valid",
		Success:  true,
	})
}

// CurrentUser returns the claimed identity of a valid token.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")

	username, ok := h.auth.SubjectOf(token)
	if !ok || !h.auth.IsValid(r.Context(), token) {
		httputil.WriteJSON(w, http.StatusUnauthorized, &models.LoginResponse{
			Success: false,
			Message: "Invalid or expired token",
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.LoginResponse{
		Username: username,
		Message:  "User retrieved successfully",
		Success:  true,
	})
}

// Logout revokes the presented token server-side and always reports success;
// the client discards its copy regardless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")

	username, _ := h.auth.SubjectOf(token)
	h.auth.Revoke(r.Context(), token)
	metrics.RevocationsTotal.Inc()

	h.log.InfoContext(r.Context(), "user logged out", logging.Username(username))
	httputil.WriteJSON(w, http.StatusOK, &models.LoginResponse{
		Username: username,
		Message:  "Logout successful",
		Success:  true,
	})
}

func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// userFromRequest resolves the Authorization header to an active user, doing
// the full validity check (signature, expiry, blacklist, active flag).
func userFromRequest(ctx context.Context, auth *service.AuthService, r *http.Request) (*models.User, bool) {
	token := r.Header.Get("Authorization")
	if !auth.IsValid(ctx, token) {
		return nil, false
	}
	username, ok := auth.SubjectOf(token)
	if !ok {
		return nil, false
	}
	return auth.UserByUsername(ctx, username)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
