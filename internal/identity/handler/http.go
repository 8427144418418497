// Package handler exposes the auth use cases over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"login-backend/internal/identity/service"
	"login-backend/internal/platform/reqctx"
	sessionsvc "login-backend/internal/session/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register mounts the auth routes on the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", h.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", h.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout-all", h.handleLogoutAll).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/sessions", h.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/sessions/{id}", h.handleRevokeSession).Methods(http.MethodDelete)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type sessionResponse struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"deviceName"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	u, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"username": u.Username,
		"email":    u.Email,
		"role":     string(u.Role),
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Username, req.Password, reqctx.ClientIP(r.Context()), r.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// The raw header token is passed through so even a token that fails
	// verification ends up blacklisted.
	accessToken := bearerToken(r)
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}
	h.svc.Logout(r.Context(), accessToken, req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, sessionsvc.ErrTokenNotFound):
			writeError(w, http.StatusUnauthorized, "Refresh token not found")
		case errors.Is(err, sessionsvc.ErrTokenRevoked):
			writeError(w, http.StatusUnauthorized, "Refresh token has been revoked")
		case errors.Is(err, sessionsvc.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "Refresh token expired")
		default:
			writeInternalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

func (h *AuthHandler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	username := reqctx.Username(r.Context())
	if username == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	count, err := h.svc.LogoutAll(r.Context(), username)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "All sessions revoked",
		"revokedSessions": count,
	})
}

func (h *AuthHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	username := reqctx.Username(r.Context())
	if username == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	sessions, err := h.svc.ListSessions(r.Context(), username)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:         s.ID,
			DeviceName: s.DeviceName,
			IPAddress:  s.IPAddress,
			CreatedAt:  s.CreatedAt,
			ExpiresAt:  s.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	username := reqctx.Username(r.Context())
	if username == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.svc.RevokeSession(r.Context(), username, id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session revoked"})
}

func toAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Username:     res.Username,
		Role:         res.Role,
		ExpiresIn:    res.ExpiresIn,
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
}
