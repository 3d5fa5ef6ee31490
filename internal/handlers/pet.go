package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
)

type PetHandler struct {
	petRepository repository.PetRepository
	guard         *authz.Guard
	logger        zerolog.Logger
}

type petRequest struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	BirthDate string `json:"birth_date"`
	Microchip string `json:"microchip"`
}

func NewPetHandler(petRepository repository.PetRepository, guard *authz.Guard, logger zerolog.Logger) *PetHandler {
	return &PetHandler{
		petRepository: petRepository,
		guard:         guard,
		logger:        logger,
	}
}

func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	req, birthDate, ok := decodePetRequest(w, r)
	if !ok {
		return
	}

	pet, err := h.petRepository.CreatePet(r.Context(), models.Pet{
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		BirthDate: birthDate,
		Microchip: req.Microchip,
		CreatedBy: userID,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			http.Error(w, "microchip already registered", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create pet")
		http.Error(w, "failed to create pet", http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("pet_id", pet.ID).Str("created_by", userID).Msg("pet registered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}

	pet, err := h.petRepository.GetPetByID(r.Context(), petID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load pet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) ListMyPets(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	pets, err := h.petRepository.ListPetsByOwner(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list pets")
		http.Error(w, "failed to list pets", http.StatusInternalServerError)
		return
	}
	if pets == nil {
		pets = []models.Pet{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pets)
}

func (h *PetHandler) UpdatePet(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}
	if _, err := h.guard.RequireOwnership(r, petID); err != nil {
		writeGuardError(w, err)
		return
	}

	req, birthDate, ok := decodePetRequest(w, r)
	if !ok {
		return
	}

	pet, err := h.petRepository.UpdatePet(r.Context(), models.Pet{
		ID:        petID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		BirthDate: birthDate,
		Microchip: req.Microchip,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to update pet")
		http.Error(w, "failed to update pet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pet)
}

func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	petID, ok := pathID(w, r, "petID")
	if !ok {
		return
	}
	if _, err := h.guard.RequireOwnership(r, petID); err != nil {
		writeGuardError(w, err)
		return
	}

	if err := h.petRepository.DeletePet(r.Context(), petID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("pet_id", petID).Msg("failed to delete pet")
		http.Error(w, "failed to delete pet", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodePetRequest(w http.ResponseWriter, r *http.Request) (petRequest, *time.Time, bool) {
	var req petRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return petRequest{}, nil, false
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Species = strings.TrimSpace(req.Species)
	if req.Name == "" || req.Species == "" {
		http.Error(w, "name and species are required", http.StatusBadRequest)
		return petRequest{}, nil, false
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return petRequest{}, nil, false
		}
		if parsed.After(time.Now()) {
			http.Error(w, "birth_date cannot be in the future", http.StatusBadRequest)
			return petRequest{}, nil, false
		}
		birthDate = &parsed
	}

	return req, birthDate, true
}
