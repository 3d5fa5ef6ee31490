// Package ownership implements multi-user pet ownership: listing owners,
// minting and redeeming invite codes, and removing owners without ever
// leaving a pet ownerless.
package ownership

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/notification"
	"github.com/ram-app/ram-api/internal/repository"
)

var (
	ErrPetNotFound    = errors.New("pet not found")
	ErrInviteNotFound = errors.New("invite not found or expired")
	ErrAlreadyOwner   = errors.New("user is already an owner of this pet")
	ErrNotOwner       = errors.New("user is not an owner of this pet")
	// ErrLastOwner protects the one hard invariant of this package: a pet
	// may never lose its final owner.
	ErrLastOwner = errors.New("cannot remove the last owner of a pet")
)

// InviteTTL bounds how long a code can be redeemed.
const InviteTTL = 24 * time.Hour

const codeCreateAttempts = 5

// Service coordinates the pet_owners and invites relations. Callers are
// expected to have passed the access guard already; the service enforces
// only the relational invariants.
type Service struct {
	pets          repository.PetRepository
	owners        repository.OwnerRepository
	invites       repository.InviteRepository
	notifications notification.Service
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(
	pets repository.PetRepository,
	owners repository.OwnerRepository,
	invites repository.InviteRepository,
	notifications notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		pets:          pets,
		owners:        owners,
		invites:       invites,
		notifications: notifications,
		logger:        logger.With().Str("component", "ownership_service").Logger(),
		now:           time.Now,
	}
}

// ListOwners returns every owner of the pet joined with profile fields,
// oldest first.
func (s *Service) ListOwners(ctx context.Context, petID string) ([]models.Owner, error) {
	if _, err := s.pets.GetPetByID(ctx, petID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return s.owners.ListOwners(ctx, petID)
}

// CreateInvite mints a fresh 24-hour code for the pet. Every call creates
// a new row; earlier codes stay valid until they expire. A code collision
// is retried with a new code instead of silently pointing two codes at
// different pets.
func (s *Service) CreateInvite(ctx context.Context, petID, createdBy string) (models.Invite, error) {
	pet, err := s.pets.GetPetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invite{}, ErrPetNotFound
		}
		return models.Invite{}, err
	}

	var invite models.Invite
	for attempt := 0; ; attempt++ {
		code, err := newInviteCode()
		if err != nil {
			return models.Invite{}, errors.Wrap(err, "generate invite code")
		}

		invite, err = s.invites.CreateInvite(ctx, models.Invite{
			PetID:     petID,
			Code:      code,
			CreatedBy: createdBy,
			ExpiresAt: s.now().Add(InviteTTL),
		})
		if err == nil {
			break
		}
		if repository.IsUniqueViolation(err) && attempt < codeCreateAttempts-1 {
			continue
		}
		return models.Invite{}, err
	}

	s.notifyCoOwners(ctx, petID, createdBy, func(recipient models.Owner) {
		s.notifications.NotifyInviteCreated(ctx, recipient.UserID, pet.Name)
	})

	s.logger.Info().
		Str("pet_id", petID).
		Str("created_by", createdBy).
		Time("expires_at", invite.ExpiresAt).
		Msg("invite code created")
	return invite, nil
}

// ListInvites returns the pet's codes that are still redeemable, newest
// first. Expired rows are filtered out even if the purge has not run yet.
func (s *Service) ListInvites(ctx context.Context, petID string) ([]models.Invite, error) {
	if _, err := s.pets.GetPetByID(ctx, petID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}

	invites, err := s.invites.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]models.Invite, 0, len(invites))
	for _, invite := range invites {
		if !invite.IsExpired(now) {
			active = append(active, invite)
		}
	}
	return active, nil
}

// RedeemInvite grants ownership to the caller for the pet behind the code.
// Codes are case-insensitive and stay redeemable by other users until they
// expire.
func (s *Service) RedeemInvite(ctx context.Context, code, userID string) (models.Invite, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return models.Invite{}, ErrInviteNotFound
	}

	invite, err := s.invites.GetActiveByCode(ctx, normalized, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Invite{}, ErrInviteNotFound
		}
		return models.Invite{}, err
	}

	isOwner, err := s.owners.IsOwner(ctx, invite.PetID, userID)
	if err != nil {
		return models.Invite{}, err
	}
	if isOwner {
		return models.Invite{}, ErrAlreadyOwner
	}

	if err := s.owners.AddOwner(ctx, invite.PetID, userID); err != nil {
		// A concurrent redeem of the same user lost the race to the
		// unique constraint; report it the same way.
		if repository.IsUniqueViolation(err) {
			return models.Invite{}, ErrAlreadyOwner
		}
		return models.Invite{}, err
	}

	if pet, err := s.pets.GetPetByID(ctx, invite.PetID); err == nil {
		joinerName := userID
		owners, err := s.owners.ListOwners(ctx, invite.PetID)
		if err == nil {
			for _, owner := range owners {
				if owner.UserID == userID {
					joinerName = owner.Name
					break
				}
			}
		}
		s.notifyCoOwners(ctx, invite.PetID, userID, func(recipient models.Owner) {
			s.notifications.NotifyOwnerJoined(ctx, recipient.UserID, pet.Name, joinerName)
		})
	}

	s.logger.Info().
		Str("pet_id", invite.PetID).
		Str("user_id", userID).
		Msg("invite redeemed")
	return invite, nil
}

// RemoveOwner deletes the target's owner row. Any owner may remove any
// other owner, including ones who joined earlier; the only refusal is
// removing the sole remaining owner.
func (s *Service) RemoveOwner(ctx context.Context, petID, targetUserID string) error {
	isOwner, err := s.owners.IsOwner(ctx, petID, targetUserID)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrNotOwner
	}

	removed, err := s.owners.RemoveOwner(ctx, petID, targetUserID)
	if err != nil {
		return err
	}
	if !removed {
		// The conditional delete refused: the target was the last owner
		// (possibly only since a concurrent removal).
		return ErrLastOwner
	}

	if pet, err := s.pets.GetPetByID(ctx, petID); err == nil {
		s.notifications.NotifyOwnerRemoved(ctx, targetUserID, pet.Name)
	}

	s.logger.Info().
		Str("pet_id", petID).
		Str("user_id", targetUserID).
		Msg("owner removed")
	return nil
}

// PurgeExpired deletes inert invite rows so stale codes do not pile up.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.invites.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "purge expired invites")
	}
	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Msg("expired invites purged")
	}
	return purged, nil
}

func (s *Service) notifyCoOwners(ctx context.Context, petID, exceptUserID string, notify func(models.Owner)) {
	owners, err := s.owners.ListOwners(ctx, petID)
	if err != nil {
		s.logger.Warn().Err(err).Str("pet_id", petID).Msg("could not list owners for notification")
		return
	}
	for _, owner := range owners {
		if owner.UserID == exceptUserID {
			continue
		}
		notify(owner)
	}
}
