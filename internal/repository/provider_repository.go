package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ram-app/ram-api/internal/models"
)

type ProviderRepository interface {
	CreateProvider(ctx context.Context, provider models.Provider) (models.Provider, error)
	GetProviderByID(ctx context.Context, providerID string) (models.Provider, error)
	GetProviderByUser(ctx context.Context, userID string) (models.Provider, error)
	ListActiveProviders(ctx context.Context, city, category string) ([]models.Provider, error)
	UpdateProvider(ctx context.Context, provider models.Provider) (models.Provider, error)
	SetProviderActive(ctx context.Context, providerID string, active bool) error
}

type providerRepository struct {
	db *sql.DB
}

func NewProviderRepository(db *sql.DB) ProviderRepository {
	return &providerRepository{db: db}
}

const providerColumns = `id, user_id, name, category, city, description, is_active, created_at, updated_at`

func (r *providerRepository) CreateProvider(ctx context.Context, provider models.Provider) (models.Provider, error) {
	const query = `
		INSERT INTO providers (user_id, name, category, city, description, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		provider.UserID,
		strings.TrimSpace(provider.Name),
		strings.ToLower(strings.TrimSpace(provider.Category)),
		strings.TrimSpace(provider.City),
		strings.TrimSpace(provider.Description),
	).Scan(&provider.ID, &provider.IsActive, &provider.CreatedAt, &provider.UpdatedAt)
	if err != nil {
		return models.Provider{}, err
	}
	return provider, nil
}

func (r *providerRepository) GetProviderByID(ctx context.Context, providerID string) (models.Provider, error) {
	const query = `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE id = $1`
	return scanProvider(r.db.QueryRowContext(ctx, query, providerID))
}

func (r *providerRepository) GetProviderByUser(ctx context.Context, userID string) (models.Provider, error) {
	const query = `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE user_id = $1`
	return scanProvider(r.db.QueryRowContext(ctx, query, userID))
}

func (r *providerRepository) ListActiveProviders(ctx context.Context, city, category string) ([]models.Provider, error) {
	const query = `
		SELECT ` + providerColumns + `
		FROM providers
		WHERE is_active
		  AND ($1 = '' OR city ILIKE $1)
		  AND ($2 = '' OR category = $2)
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(city), strings.ToLower(strings.TrimSpace(category)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		var provider models.Provider
		var description sql.NullString
		if err := rows.Scan(&provider.ID, &provider.UserID, &provider.Name, &provider.Category, &provider.City, &description, &provider.IsActive, &provider.CreatedAt, &provider.UpdatedAt); err != nil {
			return nil, err
		}
		provider.Description = description.String
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

func (r *providerRepository) UpdateProvider(ctx context.Context, provider models.Provider) (models.Provider, error) {
	const query = `
		UPDATE providers
		SET name = $2, category = $3, city = $4, description = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + providerColumns
	return scanProvider(r.db.QueryRowContext(ctx, query,
		provider.ID,
		strings.TrimSpace(provider.Name),
		strings.ToLower(strings.TrimSpace(provider.Category)),
		strings.TrimSpace(provider.City),
		strings.TrimSpace(provider.Description),
	))
}

func (r *providerRepository) SetProviderActive(ctx context.Context, providerID string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE providers SET is_active = $2, updated_at = now() WHERE id = $1`,
		providerID, active)
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

func scanProvider(row *sql.Row) (models.Provider, error) {
	var provider models.Provider
	var description sql.NullString
	err := row.Scan(&provider.ID, &provider.UserID, &provider.Name, &provider.Category, &provider.City, &description, &provider.IsActive, &provider.CreatedAt, &provider.UpdatedAt)
	if err != nil {
		return models.Provider{}, err
	}
	provider.Description = description.String
	return provider, nil
}
