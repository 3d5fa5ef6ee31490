package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ram-app/ram-api/internal/models"
)

type InviteRepository interface {
	// CreateInvite persists a new code; codes are unique, and a collision
	// surfaces as a unique violation for the caller to retry.
	CreateInvite(ctx context.Context, invite models.Invite) (models.Invite, error)
	// GetActiveByCode resolves a code that is strictly unexpired at the
	// given instant. An invite whose expiry equals now is already inert.
	GetActiveByCode(ctx context.Context, code string, now time.Time) (models.Invite, error)
	ListByPet(ctx context.Context, petID string) ([]models.Invite, error)
	// DeleteExpired purges inert rows; redeemed-but-unexpired codes stay.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type inviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) InviteRepository {
	return &inviteRepository{db: db}
}

const inviteColumns = `id, pet_id, code, created_by, expires_at, created_at`

func (r *inviteRepository) CreateInvite(ctx context.Context, invite models.Invite) (models.Invite, error) {
	const query = `
		INSERT INTO invites (pet_id, code, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, invite.PetID, invite.Code, invite.CreatedBy, invite.ExpiresAt).
		Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		return models.Invite{}, err
	}
	return invite, nil
}

func (r *inviteRepository) GetActiveByCode(ctx context.Context, code string, now time.Time) (models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE code = $1 AND expires_at > $2`

	var invite models.Invite
	err := r.db.QueryRowContext(ctx, query, code, now).Scan(
		&invite.ID,
		&invite.PetID,
		&invite.Code,
		&invite.CreatedBy,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		return models.Invite{}, err
	}
	return invite, nil
}

func (r *inviteRepository) ListByPet(ctx context.Context, petID string) ([]models.Invite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE pet_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		var invite models.Invite
		if err := rows.Scan(&invite.ID, &invite.PetID, &invite.Code, &invite.CreatedBy, &invite.ExpiresAt, &invite.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
