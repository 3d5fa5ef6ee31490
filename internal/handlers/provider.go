package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
)

type ProviderHandler struct {
	providerRepository repository.ProviderRepository
	guard              *authz.Guard
	logger             zerolog.Logger
}

type providerRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	City        string `json:"city"`
	Description string `json:"description"`
}

func NewProviderHandler(providerRepository repository.ProviderRepository, guard *authz.Guard, logger zerolog.Logger) *ProviderHandler {
	return &ProviderHandler{
		providerRepository: providerRepository,
		guard:              guard,
		logger:             logger,
	}
}

// ListProviders is public; the directory is the city-facing part of the
// platform.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	category := r.URL.Query().Get("category")

	providers, err := h.providerRepository.ListActiveProviders(r.Context(), city, category)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list providers")
		http.Error(w, "failed to list providers", http.StatusInternalServerError)
		return
	}
	if providers == nil {
		providers = []models.Provider{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(providers)
}

func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}

	provider, err := h.providerRepository.GetProviderByID(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load provider", http.StatusInternalServerError)
		return
	}
	if !provider.IsActive {
		http.Error(w, "provider not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(provider)
}

// GetMyProvider returns the caller's own directory entry, active or not.
func (h *ProviderHandler) GetMyProvider(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	provider, err := h.providerRepository.GetProviderByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "no directory entry", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load provider entry")
		http.Error(w, "failed to load provider entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(provider)
}

func (h *ProviderHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	sess, err := h.guard.RequireRole(r, models.RoleProvider)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	req, ok := decodeProviderRequest(w, r)
	if !ok {
		return
	}

	provider, err := h.providerRepository.CreateProvider(r.Context(), models.Provider{
		UserID:      sess.UserID,
		Name:        req.Name,
		Category:    req.Category,
		City:        req.City,
		Description: req.Description,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			http.Error(w, "you already have a directory entry", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create provider entry")
		http.Error(w, "failed to create provider entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(provider)
}

func (h *ProviderHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}

	sess, err := h.guard.RequireRole(r, models.RoleProvider)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	existing, err := h.providerRepository.GetProviderByID(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load provider", http.StatusInternalServerError)
		return
	}
	if existing.UserID != sess.UserID {
		http.Error(w, "insufficient permissions", http.StatusForbidden)
		return
	}

	req, ok := decodeProviderRequest(w, r)
	if !ok {
		return
	}

	provider, err := h.providerRepository.UpdateProvider(r.Context(), models.Provider{
		ID:          providerID,
		Name:        req.Name,
		Category:    req.Category,
		City:        req.City,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("provider_id", providerID).Msg("failed to update provider")
		http.Error(w, "failed to update provider", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(provider)
}

// DeactivateProvider is an admin moderation action.
func (h *ProviderHandler) DeactivateProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}

	if err := h.providerRepository.SetProviderActive(r.Context(), providerID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("provider_id", providerID).Msg("failed to deactivate provider")
		http.Error(w, "failed to deactivate provider", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeProviderRequest(w http.ResponseWriter, r *http.Request) (providerRequest, bool) {
	var req providerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return providerRequest{}, false
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.Category == "" || req.City == "" {
		http.Error(w, "name, category and city are required", http.StatusBadRequest)
		return providerRequest{}, false
	}
	return req, true
}
