package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ram-app/ram-api/internal/models"
)

type PetRepository interface {
	// CreatePet inserts the pet and its creator's owner row in one
	// transaction, so a pet is never observable without an owner.
	CreatePet(ctx context.Context, pet models.Pet) (models.Pet, error)
	GetPetByID(ctx context.Context, petID string) (models.Pet, error)
	ListPetsByOwner(ctx context.Context, userID string) ([]models.Pet, error)
	UpdatePet(ctx context.Context, pet models.Pet) (models.Pet, error)
	DeletePet(ctx context.Context, petID string) error
}

type petRepository struct {
	db *sql.DB
}

func NewPetRepository(db *sql.DB) PetRepository {
	return &petRepository{db: db}
}

const petColumns = `id, name, species, breed, birth_date, microchip, created_by, created_at, updated_at`

func (p *petRepository) CreatePet(ctx context.Context, pet models.Pet) (models.Pet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Pet{}, err
	}
	defer tx.Rollback()

	const insertPet = `
		INSERT INTO pets (name, species, breed, birth_date, microchip, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertPet,
		strings.TrimSpace(pet.Name),
		strings.ToLower(strings.TrimSpace(pet.Species)),
		strings.TrimSpace(pet.Breed),
		nullTime(pet.BirthDate),
		nullString(pet.Microchip),
		pet.CreatedBy,
	).Scan(&pet.ID, &pet.CreatedAt, &pet.UpdatedAt)
	if err != nil {
		return models.Pet{}, err
	}

	const insertOwner = `
		INSERT INTO pet_owners (pet_id, user_id, role)
		VALUES ($1, $2, 'owner')`
	if _, err := tx.ExecContext(ctx, insertOwner, pet.ID, pet.CreatedBy); err != nil {
		return models.Pet{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Pet{}, err
	}
	return pet, nil
}

func (p *petRepository) GetPetByID(ctx context.Context, petID string) (models.Pet, error) {
	const query = `
		SELECT ` + petColumns + `
		FROM pets
		WHERE id = $1`
	return scanPet(p.db.QueryRowContext(ctx, query, petID))
}

func (p *petRepository) ListPetsByOwner(ctx context.Context, userID string) ([]models.Pet, error) {
	const query = `
		SELECT p.id, p.name, p.species, p.breed, p.birth_date, p.microchip, p.created_by, p.created_at, p.updated_at
		FROM pets p
		JOIN pet_owners po ON po.pet_id = p.id
		WHERE po.user_id = $1
		ORDER BY p.created_at DESC`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pets []models.Pet
	for rows.Next() {
		var pet models.Pet
		var breed, microchip sql.NullString
		var birthDate sql.NullTime
		if err := rows.Scan(&pet.ID, &pet.Name, &pet.Species, &breed, &birthDate, &microchip, &pet.CreatedBy, &pet.CreatedAt, &pet.UpdatedAt); err != nil {
			return nil, err
		}
		pet.Breed = breed.String
		pet.Microchip = microchip.String
		if birthDate.Valid {
			t := birthDate.Time
			pet.BirthDate = &t
		}
		pets = append(pets, pet)
	}
	return pets, rows.Err()
}

func (p *petRepository) UpdatePet(ctx context.Context, pet models.Pet) (models.Pet, error) {
	const query = `
		UPDATE pets
		SET name = $2, species = $3, breed = $4, birth_date = $5, microchip = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + petColumns
	return scanPet(p.db.QueryRowContext(ctx, query,
		pet.ID,
		strings.TrimSpace(pet.Name),
		strings.ToLower(strings.TrimSpace(pet.Species)),
		strings.TrimSpace(pet.Breed),
		nullTime(pet.BirthDate),
		nullString(pet.Microchip),
	))
}

func (p *petRepository) DeletePet(ctx context.Context, petID string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, petID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanPet(row *sql.Row) (models.Pet, error) {
	var pet models.Pet
	var breed, microchip sql.NullString
	var birthDate sql.NullTime
	err := row.Scan(&pet.ID, &pet.Name, &pet.Species, &breed, &birthDate, &microchip, &pet.CreatedBy, &pet.CreatedAt, &pet.UpdatedAt)
	if err != nil {
		return models.Pet{}, err
	}
	pet.Breed = breed.String
	pet.Microchip = microchip.String
	if birthDate.Valid {
		t := birthDate.Time
		pet.BirthDate = &t
	}
	return pet, nil
}

func nullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.TrimSpace(s)
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
