package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// EngagementHandler implements the like, subscription, and derived-count
// endpoints.
type EngagementHandler struct {
	Engagement EngagementService
}

// ToggleVideoLike handles POST /api/v1/videos/{videoId}/like.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.TargetVideo, chi.URLParam(r, "videoId"))
}

// ToggleCommentLike handles POST /api/v1/comments/{commentId}/like.
func (h EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.TargetComment, chi.URLParam(r, "commentId"))
}

// TogglePostLike handles POST /api/v1/posts/{postId}/like.
func (h EngagementHandler) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.TargetPost, chi.URLParam(r, "postId"))
}

func (h EngagementHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.TargetKind, targetID string) {
	ctx := r.Context()

	result, err := h.Engagement.ToggleReaction(ctx, middleware.ActorID(ctx), kind, targetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// ToggleSubscription handles POST /api/v1/channels/{channelId}/subscribe.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Engagement.ToggleSubscription(ctx, middleware.ActorID(ctx), chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// LikedItems handles GET /api/v1/likes/{kind} for the authenticated actor.
// The kind segment is plural: videos, comments, or posts.
func (h EngagementHandler) LikedItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := likedKind(chi.URLParam(r, "kind"))
	if !ok {
		respondError(ctx, w, apperr.NotFoundf("unknown liked kind %q", chi.URLParam(r, "kind")))
		return
	}

	liked, err := h.Engagement.ListLiked(ctx, middleware.ActorID(ctx), kind)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, liked)
}

func likedKind(segment string) (models.TargetKind, bool) {
	switch segment {
	case "videos":
		return models.TargetVideo, true
	case "comments":
		return models.TargetComment, true
	case "posts":
		return models.TargetPost, true
	}
	return "", false
}

// ChannelProfile handles GET /api/v1/channels/{username}. Anonymous viewers
// get isSubscribed=false.
func (h EngagementHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Engagement.ChannelProfile(ctx, chi.URLParam(r, "username"), middleware.ActorID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// Subscribers handles GET /api/v1/channels/{channelId}/subscribers.
func (h EngagementHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscribers, err := h.Engagement.ListSubscribers(ctx, chi.URLParam(r, "channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribers": subscribers})
}

// SubscribedChannels handles GET /api/v1/subscriptions for the actor.
func (h EngagementHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Engagement.ListSubscribedChannels(ctx, middleware.ActorID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"channels": channels})
}

// DashboardStats handles GET /api/v1/dashboard/stats for the actor's channel.
func (h EngagementHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.Engagement.ChannelStats(ctx, middleware.ActorID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}
