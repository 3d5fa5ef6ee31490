package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/ownership"
)

// FamilyHandler exposes the co-ownership flows: listing a pet's owners,
// minting invite codes, joining a family and removing owners.
type FamilyHandler struct {
	service *ownership.Service
	guard   *authz.Guard
	logger  zerolog.Logger
}

func NewFamilyHandler(service *ownership.Service, guard *authz.Guard, logger zerolog.Logger) *FamilyHandler {
	return &FamilyHandler{
		service: service,
		guard:   guard,
		logger:  logger,
	}
}

// ListOwners needs only authentication; every logged-in user may see who
// manages a pet.
func (h *FamilyHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}

	owners, err := h.service.ListOwners(r.Context(), petID)
	if err != nil {
		if errors.Is(err, ownership.ErrPetNotFound) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to list owners")
		http.Error(w, "failed to list owners", http.StatusInternalServerError)
		return
	}
	if owners == nil {
		owners = []models.Owner{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(owners)
}

func (h *FamilyHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}

	sess, err := h.guard.RequireOwnership(r, petID)
	if err != nil {
		writeGuardError(w, err)
		return
	}

	invite, err := h.service.CreateInvite(r.Context(), petID, sess.UserID)
	if err != nil {
		if errors.Is(err, ownership.ErrPetNotFound) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to create invite")
		http.Error(w, "failed to create invite", http.StatusInternalServerError)
		return
	}

	response := struct {
		Code      string `json:"code"`
		ExpiresAt string `json:"expires_at"`
	}{
		Code:      invite.Code,
		ExpiresAt: invite.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// ListInvites shows the pet's still-redeemable codes. Owner-only: the
// codes themselves grant ownership.
func (h *FamilyHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}

	if _, err := h.guard.RequireOwnership(r, petID); err != nil {
		writeGuardError(w, err)
		return
	}

	invites, err := h.service.ListInvites(r.Context(), petID)
	if err != nil {
		if errors.Is(err, ownership.ErrPetNotFound) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to list invites")
		http.Error(w, "failed to list invites", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invites)
}

func (h *FamilyHandler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	invite, err := h.service.RedeemInvite(r.Context(), req.Code, userID)
	if err != nil {
		switch {
		case errors.Is(err, ownership.ErrInviteNotFound):
			http.Error(w, "invite code is invalid or has expired", http.StatusNotFound)
		case errors.Is(err, ownership.ErrAlreadyOwner):
			http.Error(w, "you already own this pet", http.StatusConflict)
		default:
			h.logger.Error().Err(err).Msg("failed to redeem invite")
			http.Error(w, "failed to redeem invite", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"pet_id": invite.PetID,
		"role":   "owner",
	})
}

func (h *FamilyHandler) RemoveOwner(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}
	targetUserID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	// Symmetric trust: any current owner may remove any other owner.
	if _, err := h.guard.RequireOwnership(r, petID); err != nil {
		writeGuardError(w, err)
		return
	}

	if err := h.service.RemoveOwner(r.Context(), petID, targetUserID); err != nil {
		switch {
		case errors.Is(err, ownership.ErrNotOwner):
			http.Error(w, "user is not an owner of this pet", http.StatusNotFound)
		case errors.Is(err, ownership.ErrLastOwner):
			http.Error(w, "a pet must keep at least one owner", http.StatusConflict)
		default:
			h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to remove owner")
			http.Error(w, "failed to remove owner", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
