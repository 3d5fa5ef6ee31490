package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ram-app/ram-api/internal/authz"
	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/repository"
)

type PostHandler struct {
	postRepository repository.PostRepository
	logger         zerolog.Logger
}

type postRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Publish bool   `json:"publish"`
}

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

func NewPostHandler(postRepository repository.PostRepository, logger zerolog.Logger) *PostHandler {
	return &PostHandler{
		postRepository: postRepository,
		logger:         logger,
	}
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	offset := intQuery(r, "offset", 0)

	posts, err := h.postRepository.ListPublished(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list posts")
		http.Error(w, "failed to list posts", http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	post, err := h.postRepository.GetPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load post", http.StatusInternalServerError)
		return
	}
	// Drafts are invisible to the public surface.
	if !post.IsPublished() {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	authorID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Body) == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}

	var publishedAt *time.Time
	if req.Publish {
		now := time.Now()
		publishedAt = &now
	}

	post, err := h.postRepository.CreatePost(r.Context(), models.Post{
		AuthorID:    authorID,
		Title:       req.Title,
		Slug:        slugify(req.Title),
		Body:        req.Body,
		PublishedAt: publishedAt,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			http.Error(w, "a post with this title already exists", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create post")
		http.Error(w, "failed to create post", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(post)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Body) == "" {
		http.Error(w, "title and body are required", http.StatusBadRequest)
		return
	}

	var publishedAt *time.Time
	if req.Publish {
		now := time.Now()
		publishedAt = &now
	}

	post, err := h.postRepository.UpdatePost(r.Context(), models.Post{
		ID:          postID,
		Title:       req.Title,
		Body:        req.Body,
		PublishedAt: publishedAt,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("post_id", postID).Msg("failed to update post")
		http.Error(w, "failed to update post", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}

	if err := h.postRepository.DeletePost(r.Context(), postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("post_id", postID).Msg("failed to delete post")
		http.Error(w, "failed to delete post", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func slugify(title string) string {
	slug := slugSanitizer.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	var value int
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return fallback
		}
		value = value*10 + int(ch-'0')
	}
	return value
}
