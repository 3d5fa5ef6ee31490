package repository

import (
	"context"
	"database/sql"

	"github.com/ram-app/ram-api/internal/models"
)

type OwnerRepository interface {
	ListOwners(ctx context.Context, petID string) ([]models.Owner, error)
	IsOwner(ctx context.Context, petID, userID string) (bool, error)
	// AddOwner inserts an owner row; a duplicate (pet, user) pair fails
	// with a unique violation rather than producing two rows.
	AddOwner(ctx context.Context, petID, userID string) error
	// RemoveOwner deletes the row only while another owner remains; the
	// last-owner check and the delete run as a single statement so two
	// concurrent removals cannot leave the pet ownerless.
	RemoveOwner(ctx context.Context, petID, userID string) (bool, error)
}

type ownerRepository struct {
	db *sql.DB
}

func NewOwnerRepository(db *sql.DB) OwnerRepository {
	return &ownerRepository{db: db}
}

func (o *ownerRepository) ListOwners(ctx context.Context, petID string) ([]models.Owner, error) {
	// Oldest owner first, so the original registrant leads the list.
	const query = `
		SELECT po.pet_id, po.user_id, po.role, u.name, u.email, po.created_at
		FROM pet_owners po
		JOIN users u ON u.id = po.user_id
		WHERE po.pet_id = $1
		ORDER BY po.created_at ASC`

	rows, err := o.db.QueryContext(ctx, query, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []models.Owner
	for rows.Next() {
		var owner models.Owner
		if err := rows.Scan(&owner.PetID, &owner.UserID, &owner.Role, &owner.Name, &owner.Email, &owner.JoinedAt); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (o *ownerRepository) IsOwner(ctx context.Context, petID, userID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM pet_owners WHERE pet_id = $1 AND user_id = $2
		)`

	var exists bool
	if err := o.db.QueryRowContext(ctx, query, petID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (o *ownerRepository) AddOwner(ctx context.Context, petID, userID string) error {
	const query = `
		INSERT INTO pet_owners (pet_id, user_id, role)
		VALUES ($1, $2, 'owner')`
	_, err := o.db.ExecContext(ctx, query, petID, userID)
	return err
}

func (o *ownerRepository) RemoveOwner(ctx context.Context, petID, userID string) (bool, error) {
	const query = `
		DELETE FROM pet_owners
		WHERE pet_id = $1 AND user_id = $2
		  AND (SELECT COUNT(*) FROM pet_owners WHERE pet_id = $1) > 1`

	result, err := o.db.ExecContext(ctx, query, petID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
