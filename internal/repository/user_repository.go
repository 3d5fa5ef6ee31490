package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/ram-app/ram-api/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserRepository interface {
	CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, name, city, phone string) (models.User, error)
	UpdateUserRole(ctx context.Context, userID string, role models.UserRole) (models.User, error)
	DeactivateUser(ctx context.Context, userID string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, city, phone, is_active, created_at, updated_at`

func (u *userRepository) CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (models.User, error) {
	if !models.IsValidRole(role) {
		return models.User{}, errors.New("invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}

	const query = `
		INSERT INTO users (email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err = u.db.QueryRowContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.Role, user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`
	return scanUser(u.db.QueryRowContext(ctx, query, userID))
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`
	return scanUser(u.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (u *userRepository) UpdateProfile(ctx context.Context, userID, name, city, phone string) (models.User, error) {
	const query = `
		UPDATE users
		SET name = $2, city = $3, phone = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return scanUser(u.db.QueryRowContext(ctx, query, userID, strings.TrimSpace(name), strings.TrimSpace(city), strings.TrimSpace(phone)))
}

func (u *userRepository) UpdateUserRole(ctx context.Context, userID string, role models.UserRole) (models.User, error) {
	if !models.IsValidRole(role) {
		return models.User{}, errors.New("invalid role")
	}

	const query = `
		UPDATE users
		SET role = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return scanUser(u.db.QueryRowContext(ctx, query, userID, role))
}

func (u *userRepository) DeactivateUser(ctx context.Context, userID string) error {
	const query = `
		UPDATE users
		SET is_active = FALSE, deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := u.db.ExecContext(ctx, query, userID)
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

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var city, phone sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&city,
		&phone,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.City = city.String
	user.Phone = phone.String
	return user, nil
}
