// Package engagement owns the toggle semantics over reaction and subscription
// edges and the read-time aggregation that derives counts and viewer flags
// from them. Counts are never stored; they are computed from live edges on
// every read, which removes counter drift as a failure mode.
package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ReactionStore persists reaction edges. Create must fail with
// repositories.ErrConflict on a duplicate triple; Delete must report rather
// than fail when no edge existed. Those two properties are the only atomicity
// the toggle relies on.
type ReactionStore interface {
	Create(ctx context.Context, reaction models.Reaction) error
	Delete(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error)
	Exists(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error)
	CountForTarget(ctx context.Context, kind models.TargetKind, targetID string) (int64, error)
	CountOnChannelVideos(ctx context.Context, channelID string) (int64, error)
	ListLikedVideos(ctx context.Context, actorID string) ([]models.LikedVideo, error)
	ListLikedComments(ctx context.Context, actorID string) ([]models.LikedComment, error)
	ListLikedPosts(ctx context.Context, actorID string) ([]models.LikedPost, error)
}

// SubscriptionStore persists subscription edges with the same contract.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) (bool, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicAccount, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicAccount, error)
}

// TargetChecker answers whether a reaction target exists.
type TargetChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AccountDirectory resolves channels for subscription and profile reads.
type AccountDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
}

// VideoStats aggregates a channel's video numbers for the dashboard.
type VideoStats interface {
	StatsForOwner(ctx context.Context, ownerID string) (videos, views int64, err error)
}

// ToggleResult reports the state an edge settled in after a toggle.
type ToggleResult struct {
	Active bool `json:"active"`
}

// Service implements the engagement relation store over injected persistence.
// It holds no state of its own; every operation re-reads what it needs and
// leans on the store's unique indexes for correctness under races.
type Service struct {
	reactions ReactionStore
	subs      SubscriptionStore
	accounts  AccountDirectory
	targets   map[models.TargetKind]TargetChecker
	videoAgg  VideoStats
	now       func() time.Time
}

// NewService constructs the engagement service. The targets map must provide
// a checker for every valid TargetKind.
func NewService(
	reactions ReactionStore,
	subs SubscriptionStore,
	accounts AccountDirectory,
	targets map[models.TargetKind]TargetChecker,
	videoAgg VideoStats,
) *Service {
	if reactions == nil || subs == nil || accounts == nil {
		panic("engagement: stores must not be nil")
	}
	return &Service{
		reactions: reactions,
		subs:      subs,
		accounts:  accounts,
		targets:   targets,
		videoAgg:  videoAgg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ToggleReaction creates the actor's reaction edge on the target if absent,
// or removes it if present, and reports the resulting state. Two concurrent
// toggles on the same (actor, target) settle deterministically: the insert is
// guarded by the unique index and the delete treats a missing edge as a no-op,
// so the edge is never duplicated and never "deleted twice".
func (s *Service) ToggleReaction(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (ToggleResult, error) {
	if !kind.Valid() {
		return ToggleResult{}, apperr.NotFoundf("unknown target kind %q", kind)
	}
	if err := s.checkTarget(ctx, kind, targetID); err != nil {
		return ToggleResult{}, err
	}

	exists, err := s.reactions.Exists(ctx, actorID, kind, targetID)
	if err != nil {
		return ToggleResult{}, err
	}

	if exists {
		// A concurrent toggle may have removed the edge already; the
		// caller still observes a clean "now inactive".
		if _, err := s.reactions.Delete(ctx, actorID, kind, targetID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Active: false}, nil
	}

	reaction := models.Reaction{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		TargetKind: kind,
		TargetID:   targetID,
		CreatedAt:  s.now(),
	}
	if err := s.reactions.Create(ctx, reaction); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Lost the insert race: the edge exists, which is the
			// state this call was driving toward.
			return ToggleResult{Active: true}, nil
		}
		return ToggleResult{}, err
	}

	return ToggleResult{Active: true}, nil
}

// ToggleSubscription follows the same toggle contract over the subscription
// edge, with self-subscription rejected up front.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (ToggleResult, error) {
	if subscriberID == channelID {
		return ToggleResult{}, apperr.Validationf("cannot subscribe to self")
	}

	known, err := s.accounts.Exists(ctx, channelID)
	if err != nil {
		return ToggleResult{}, err
	}
	if !known {
		return ToggleResult{}, apperr.NotFoundf("channel not found")
	}

	exists, err := s.subs.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return ToggleResult{}, err
	}

	if exists {
		if _, err := s.subs.Delete(ctx, subscriberID, channelID); err != nil {
			return ToggleResult{}, err
		}
		return ToggleResult{Active: false}, nil
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    s.now(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return ToggleResult{Active: true}, nil
		case errors.Is(err, repositories.ErrNotFound):
			return ToggleResult{}, apperr.NotFoundf("channel not found")
		}
		return ToggleResult{}, err
	}

	return ToggleResult{Active: true}, nil
}

// LikeCount counts live reaction edges on a target.
func (s *Service) LikeCount(ctx context.Context, kind models.TargetKind, targetID string) (int64, error) {
	if !kind.Valid() {
		return 0, apperr.NotFoundf("unknown target kind %q", kind)
	}
	return s.reactions.CountForTarget(ctx, kind, targetID)
}

// IsLiked reports whether the actor currently has a reaction edge on the target.
func (s *Service) IsLiked(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error) {
	if !kind.Valid() {
		return false, apperr.NotFoundf("unknown target kind %q", kind)
	}
	return s.reactions.Exists(ctx, actorID, kind, targetID)
}

// ListLiked returns the actor's liked items of the given kind, newest
// reaction first. Every entry carries the live like count and IsLiked true.
func (s *Service) ListLiked(ctx context.Context, actorID string, kind models.TargetKind) (models.LikedItems, error) {
	items := models.LikedItems{Kind: kind}
	var err error
	switch kind {
	case models.TargetVideo:
		items.Videos, err = s.reactions.ListLikedVideos(ctx, actorID)
	case models.TargetComment:
		items.Comments, err = s.reactions.ListLikedComments(ctx, actorID)
	case models.TargetPost:
		items.Posts, err = s.reactions.ListLikedPosts(ctx, actorID)
	default:
		return models.LikedItems{}, apperr.NotFoundf("unknown target kind %q", kind)
	}
	if err != nil {
		return models.LikedItems{}, err
	}
	return items, nil
}

// ListSubscribers returns the accounts subscribed to the channel.
func (s *Service) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicAccount, error) {
	known, err := s.accounts.Exists(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperr.NotFoundf("channel not found")
	}
	return s.subs.ListSubscribers(ctx, channelID)
}

// ListSubscribedChannels returns the channels the subscriber follows.
func (s *Service) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicAccount, error) {
	return s.subs.ListSubscribedChannels(ctx, subscriberID)
}

// ChannelProfile resolves a channel by username and derives its subscriber
// count, subscribed-to count, and whether the viewer is subscribed. Pass an
// empty viewerID for anonymous reads.
func (s *Service) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, apperr.NotFoundf("channel not found")
		}
		return models.ChannelProfile{}, err
	}

	subscribers, err := s.subs.CountForChannel(ctx, account.ID)
	if err != nil {
		return models.ChannelProfile{}, err
	}
	subscribedTo, err := s.subs.CountForSubscriber(ctx, account.ID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	var isSubscribed bool
	if viewerID != "" {
		isSubscribed, err = s.subs.Exists(ctx, viewerID, account.ID)
		if err != nil {
			return models.ChannelProfile{}, err
		}
	}

	return models.ChannelProfile{
		PublicAccount:     account.Public(),
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// ChannelStats derives the channel's dashboard numbers from live rows.
func (s *Service) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	if s.videoAgg == nil {
		return models.ChannelStats{}, errors.New("engagement: video aggregation unavailable")
	}

	videos, views, err := s.videoAgg.StatsForOwner(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}
	subscribers, err := s.subs.CountForChannel(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}
	likes, err := s.reactions.CountOnChannelVideos(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	return models.ChannelStats{
		TotalVideos:      videos,
		TotalViews:       views,
		TotalSubscribers: subscribers,
		TotalLikes:       likes,
	}, nil
}

func (s *Service) checkTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	checker, ok := s.targets[kind]
	if !ok {
		return apperr.NotFoundf("unknown target kind %q", kind)
	}
	known, err := checker.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !known {
		return apperr.NotFoundf("%s not found", kind)
	}
	return nil
}
