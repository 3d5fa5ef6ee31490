package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/notification"
)

type NotificationHandler struct {
	notifications notification.Service
	logger        zerolog.Logger
}

func NewNotificationHandler(notifications notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	notifications, err := h.notifications.ListRecent(r.Context(), userID, intQuery(r, "limit", 25))
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list notifications")
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	notificationID, ok := pathID(w, r, "notificationID")
	if !ok {
		return
	}

	notif, err := h.notifications.MarkRead(r.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to mark notification read")
		http.Error(w, "failed to mark notification read", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notif)
}
