package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/comments"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires repositories, services, and handlers together.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	accountRepo := repositories.NewPostgresAccountRepository(pool)
	videoRepo := repositories.NewPostgresVideoRepository(pool)
	postRepo := repositories.NewPostgresPostRepository(pool)
	commentRepo := repositories.NewPostgresCommentRepository(pool)
	reactionRepo := repositories.NewPostgresReactionRepository(pool)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(pool)

	media, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("initialise media store: %w", err)
	}

	tokens := auth.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	sessions := auth.NewManager(accountRepo, media, tokens)

	engagementSvc := engagement.NewService(
		reactionRepo,
		subscriptionRepo,
		accountRepo,
		map[models.TargetKind]engagement.TargetChecker{
			models.TargetVideo:   videoRepo,
			models.TargetComment: commentRepo,
			models.TargetPost:    postRepo,
		},
		videoRepo,
	)

	commentSvc := comments.NewService(commentRepo, videoRepo)

	limiter := middleware.NewIPRateLimiter(
		cfg.LoginRatePerMinute,
		time.Minute,
		cfg.LoginRateBurst,
		10*time.Minute,
	)

	return handlers.Dependencies{
		Sessions:          sessions,
		Engagement:        engagementSvc,
		Comments:          commentSvc,
		Videos:            videoRepo,
		Posts:             postRepo,
		Media:             media,
		CredentialLimiter: limiter,
	}, nil
}
