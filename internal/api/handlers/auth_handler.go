package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/auth-api/internal/auth"
	"github.com/isdelr/auth-api/internal/config"
	"github.com/isdelr/auth-api/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	service services.UserServiceProvider
	issuer  *auth.Issuer
	cfg     *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, issuer *auth.Issuer, cfg *config.Config) *AuthHandler {
	return &AuthHandler{service: service, issuer: issuer, cfg: cfg}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserData is the user projection returned to clients. It never carries
// the password hash.
type UserData struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// AuthResponse is the success shape shared by register and login.
type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	Data    UserData `json:"data"`
}

// ErrorResponse is the error shape for all failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors become a generic 500; internal detail stays in the log.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// setTokenCookie attaches the session cookie to the response. The cookie
// is HTTP-only and marked Secure in production.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.cfg.JWTCookieExpireDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// Register handles new user registration and issues a session token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setTokenCookie(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Token:   token,
		Data:    UserData{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// Login handles user authentication and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Token:   token,
		Data:    UserData{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// MeResponse is the success shape for the authenticated user lookup.
type MeResponse struct {
	Success bool     `json:"success"`
	Data    UserData `json:"data"`
}

// Me retrieves the currently authenticated user from the token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(auth.UserClaimsKey).(*jwt.RegisteredClaims)
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	user, err := h.service.GetUserByID(claims.Subject)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.Subject).Msg("User from token not found")
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		Success: true,
		Data:    UserData{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}
