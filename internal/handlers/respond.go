package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ram-app/ram-api/internal/authz"
)

// pathID extracts a UUID path variable. Rejecting malformed IDs here keeps
// them from reaching the database as cast errors.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := mux.Vars(r)[name]
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "invalid identifier", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// writeGuardError maps access guard failures to their HTTP statuses.
// Anything else from the guard is a storage failure.
func writeGuardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthorized):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, authz.ErrForbidden):
		http.Error(w, "insufficient permissions", http.StatusForbidden)
	default:
		http.Error(w, "authorization check failed", http.StatusInternalServerError)
	}
}
