package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// PostHandler implements the short-post endpoints.
type PostHandler struct {
	Posts PostStore
}

type postRequest struct {
	Body string `json:"body"`
}

// Create handles POST /api/v1/posts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		respondError(ctx, w, apperr.Validationf("post body is required"))
		return
	}

	post := models.Post{
		ID:        uuid.NewString(),
		AuthorID:  middleware.ActorID(ctx),
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Posts.Create(ctx, post); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, post)
}

// ListByChannel handles GET /api/v1/channels/{channelId}/posts.
func (h PostHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	posts, err := h.Posts.ListByAuthor(ctx, chi.URLParam(r, "channelId"), limit, (page-1)*limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"posts": posts})
}

// Delete handles DELETE /api/v1/posts/{postId}; only the author may delete.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	postID := chi.URLParam(r, "postId")

	post, err := h.Posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFoundf("post not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if post.AuthorID != middleware.ActorID(ctx) {
		respondError(ctx, w, apperr.Authorizationf("not the post author"))
		return
	}

	if err := h.Posts.Delete(ctx, postID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
