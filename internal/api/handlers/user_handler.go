package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/jobboard-be/internal/metrics"
	"github.com/isdelr/jobboard-be/internal/services"
)

// UserHandler handles registration and login.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// CredentialsPayload is the body of both login and register requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	switch {
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, services.ErrDuplicateUsername):
		log.Info().Str("username", payload.Username).Msg("Registration with taken username")
		writeError(w, http.StatusConflict, "Username already exists")
		return
	case err != nil:
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{UserID: user.ID, Username: user.Username})
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		metrics.ObserveLogin("failure")
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		writeError(w, http.StatusUnauthorized, "Username or password incorrect")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("username", payload.Username).Msg("Login error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.ObserveLogin("success")
	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token})
}
