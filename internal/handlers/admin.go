package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
)

// AdminHandler covers account moderation: role changes and deactivation.
// Routes using it sit behind the admin role middleware.
type AdminHandler struct {
	userRepository repository.UserRepository
	logger         zerolog.Logger
}

func NewAdminHandler(userRepository repository.UserRepository, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		userRepository: userRepository,
		logger:         logger,
	}
}

// UpdateUserRole changes a user's persisted role. Sessions issued before
// the change keep working, but role-gated routes re-check storage, so the
// change takes effect immediately.
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	role := models.UserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !models.IsValidRole(role) {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.userRepository.UpdateUserRole(r.Context(), userID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to update role")
		http.Error(w, "failed to update role", http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("user_id", userID).Str("role", string(role)).Msg("user role updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.userRepository.DeactivateUser(r.Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to deactivate user")
		http.Error(w, "failed to deactivate user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
