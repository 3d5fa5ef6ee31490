package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ram-app/ram-api/internal/models"
)

type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (models.Post, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error)
	UpdatePost(ctx context.Context, post models.Post) (models.Post, error)
	DeletePost(ctx context.Context, postID string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, author_id, title, slug, body, published_at, created_at, updated_at`

func (r *postRepository) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	const query = `
		INSERT INTO posts (author_id, title, slug, body, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		post.AuthorID,
		strings.TrimSpace(post.Title),
		strings.ToLower(strings.TrimSpace(post.Slug)),
		post.Body,
		post.PublishedAt,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) GetPostBySlug(ctx context.Context, slug string) (models.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE slug = $1`
	return scanPost(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(slug))))
}

func (r *postRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Post, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE published_at IS NOT NULL AND published_at <= now()
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var publishedAt sql.NullTime
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Slug, &post.Body, &publishedAt, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			post.PublishedAt = &t
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) UpdatePost(ctx context.Context, post models.Post) (models.Post, error) {
	const query = `
		UPDATE posts
		SET title = $2, body = $3, published_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + postColumns
	return scanPost(r.db.QueryRowContext(ctx, query, post.ID, strings.TrimSpace(post.Title), post.Body, post.PublishedAt))
}

func (r *postRepository) DeletePost(ctx context.Context, postID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
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

func scanPost(row *sql.Row) (models.Post, error) {
	var post models.Post
	var publishedAt sql.NullTime
	err := row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Slug, &post.Body, &publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return models.Post{}, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	return post, nil
}
