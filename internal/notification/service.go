package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
)

// Event is a notification to deliver to one user.
type Event struct {
	UserID  string
	Event   models.NotificationEvent
	Title   string
	Message string
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyOwnerJoined(ctx context.Context, recipientID, petName, joinerName string)
	NotifyOwnerRemoved(ctx context.Context, recipientID, petName string)
	NotifyInviteCreated(ctx context.Context, recipientID, petName string)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error)
}

type service struct {
	repo   repository.NotificationRepository
	logger zerolog.Logger
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.UserID == "" {
		return models.Notification{}, fmt.Errorf("recipient is required")
	}
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	title := strings.TrimSpace(evt.Title)
	if title == "" {
		title = string(evt.Event)
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		UserID:  evt.UserID,
		Event:   evt.Event,
		Title:   title,
		Message: strings.TrimSpace(evt.Message),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("failed to persist notification")
		return models.Notification{}, err
	}
	return notif, nil
}

// The ownership helpers below log and swallow delivery failures: a missed
// notification must never fail the operation that triggered it.

func (s *service) NotifyOwnerJoined(ctx context.Context, recipientID, petName, joinerName string) {
	_, err := s.Publish(ctx, Event{
		UserID:  recipientID,
		Event:   models.NotificationEventOwnerJoined,
		Title:   fmt.Sprintf("New owner for %s", petName),
		Message: fmt.Sprintf("%s joined %s's family from an invite code.", joinerName, petName),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipientID).Msg("owner joined notification dropped")
	}
}

func (s *service) NotifyOwnerRemoved(ctx context.Context, recipientID, petName string) {
	_, err := s.Publish(ctx, Event{
		UserID:  recipientID,
		Event:   models.NotificationEventOwnerRemoved,
		Title:   fmt.Sprintf("Removed from %s's family", petName),
		Message: fmt.Sprintf("You no longer manage %s.", petName),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipientID).Msg("owner removed notification dropped")
	}
}

func (s *service) NotifyInviteCreated(ctx context.Context, recipientID, petName string) {
	_, err := s.Publish(ctx, Event{
		UserID:  recipientID,
		Event:   models.NotificationEventInviteCreated,
		Title:   fmt.Sprintf("Invite code issued for %s", petName),
		Message: fmt.Sprintf("A co-ownership invite for %s is active for the next 24 hours.", petName),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipientID).Msg("invite created notification dropped")
	}
}

func (s *service) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, userID, notificationID)
}
