package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/middleware"
)

// CommentHandler implements the comment-thread endpoints.
type CommentHandler struct {
	Comments CommentService
}

type commentRequest struct {
	Body string `json:"body"`
}

// List handles GET /api/v1/videos/{videoId}/comments with page/limit query
// parameters.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit <= 0 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}

	comments, err := h.Comments.ListForVideo(ctx, chi.URLParam(r, "videoId"), middleware.ActorID(ctx), limit, (page-1)*limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": comments})
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Add(ctx, middleware.ActorID(ctx), chi.URLParam(r, "videoId"), req.Body)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

// Reply handles POST /api/v1/comments/{commentId}/replies.
func (h CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Reply(ctx, middleware.ActorID(ctx), chi.URLParam(r, "commentId"), req.Body)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

// Update handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.Update(ctx, middleware.ActorID(ctx), chi.URLParam(r, "commentId"), req.Body)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, comment)
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Comments.Delete(ctx, middleware.ActorID(ctx), chi.URLParam(r, "commentId")); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
