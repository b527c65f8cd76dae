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
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler implements the video publishing and viewing endpoints.
type VideoHandler struct {
	Videos     VideoStore
	Media      MediaStore
	Engagement EngagementService
}

// Publish handles POST /api/v1/videos. The request is multipart: the video
// file is required, the thumbnail optional; both pass through the media store.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Validationf("expected multipart form"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, apperr.Validationf("title is required"))
		return
	}

	videoPath, videoCleanup, hasVideo, err := saveUpload(r, "videoFile")
	if err != nil {
		logging.FromContext(ctx).Error("buffer video upload", "error", err)
		respondError(ctx, w, err)
		return
	}
	defer videoCleanup()
	if !hasVideo {
		respondError(ctx, w, apperr.Validationf("video file is required"))
		return
	}

	thumbPath, thumbCleanup, hasThumb, err := saveUpload(r, "thumbnail")
	if err != nil {
		logging.FromContext(ctx).Error("buffer thumbnail upload", "error", err)
		respondError(ctx, w, err)
		return
	}
	defer thumbCleanup()

	asset, err := h.Media.Upload(ctx, videoPath)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var thumbnailURL string
	if hasThumb {
		thumb, err := h.Media.Upload(ctx, thumbPath)
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		thumbnailURL = thumb.URL
	}

	video := models.Video{
		ID:              uuid.NewString(),
		OwnerID:         middleware.ActorID(ctx),
		Title:           title,
		Description:     strings.TrimSpace(r.FormValue("description")),
		VideoURL:        asset.URL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: asset.DurationSeconds,
		Published:       true,
		CreatedAt:       time.Now().UTC(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

// Get handles GET /api/v1/videos/{videoId}, returning the video enriched
// with its live like count and the viewer's like flag.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFoundf("video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logging.FromContext(ctx).Warn("increment video views", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}

	view := models.VideoView{Video: video}
	if view.LikeCount, err = h.Engagement.LikeCount(ctx, models.TargetVideo, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}
	if viewerID := middleware.ActorID(ctx); viewerID != "" {
		if view.IsLiked, err = h.Engagement.IsLiked(ctx, viewerID, models.TargetVideo, videoID); err != nil {
			respondError(ctx, w, err)
			return
		}
	}

	respondJSON(ctx, w, http.StatusOK, view)
}

// ListByChannel handles GET /api/v1/channels/{channelId}/videos.
func (h VideoHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}

	videos, err := h.Videos.ListByOwner(ctx, chi.URLParam(r, "channelId"), limit, (page-1)*limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

// Delete handles DELETE /api/v1/videos/{videoId}; only the owner may delete.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, "videoId")

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFoundf("video not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if video.OwnerID != middleware.ActorID(ctx) {
		respondError(ctx, w, apperr.Authorizationf("not the video owner"))
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}
