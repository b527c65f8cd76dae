package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/models"
)

// SessionManager owns the authentication-token state machine.
type SessionManager interface {
	Register(ctx context.Context, params auth.RegisterParams) (models.PublicAccount, models.TokenPair, error)
	Login(ctx context.Context, params auth.LoginParams) (models.PublicAccount, models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	VerifyAccess(accessToken string) (string, error)
	CurrentUser(ctx context.Context, accountID string) (models.PublicAccount, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, accountID string, params auth.UpdateProfileParams) (models.PublicAccount, error)
}

// EngagementService owns reaction and subscription toggles and the derived
// counts and flags computed from them.
type EngagementService interface {
	ToggleReaction(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (engagement.ToggleResult, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (engagement.ToggleResult, error)
	LikeCount(ctx context.Context, kind models.TargetKind, targetID string) (int64, error)
	IsLiked(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error)
	ListLiked(ctx context.Context, actorID string, kind models.TargetKind) (models.LikedItems, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicAccount, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicAccount, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// CommentService owns the comment thread surface.
type CommentService interface {
	Add(ctx context.Context, actorID, videoID, body string) (models.Comment, error)
	Reply(ctx context.Context, actorID, parentID, body string) (models.Comment, error)
	Update(ctx context.Context, actorID, commentID, body string) (models.Comment, error)
	Delete(ctx context.Context, actorID, commentID string) error
	ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentView, error)
}

// VideoStore captures persistence for the video CRUD surface.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// PostStore captures persistence for the post CRUD surface.
type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	FindByID(ctx context.Context, id string) (models.Post, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]models.Post, error)
	Delete(ctx context.Context, id string) error
}

// MediaStore uploads a local file and returns its durable location.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (models.MediaAsset, error)
}
