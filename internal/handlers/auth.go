package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
	"github.com/ram-app/ram-api/internal/session"
)

type AuthHandler struct {
	userRepository repository.UserRepository
	sessions       *session.Store
	logger         zerolog.Logger
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(userRepository repository.UserRepository, sessions *session.Store, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepository,
		sessions:       sessions,
		logger:         logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		http.Error(w, "email, password and name are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	// The role hint only selects between tutor and provider; admin is
	// assigned out of band.
	role := models.ParseRole(req.Role)

	user, err := h.userRepository.CreateUser(r.Context(), req.Email, req.Password, req.Name, role)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create user")
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := h.sessions.Start(w, user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start session")
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userRepository.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	token, err := h.sessions.Start(w, user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to start session")
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's profile from a fresh read, so role or profile
// changes show up before the token rolls over.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.userRepository.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name  string `json:"name"`
		City  string `json:"city"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	user, err := h.userRepository.UpdateProfile(r.Context(), userID, req.Name, req.City, req.Phone)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to update profile")
		http.Error(w, "failed to update profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
