// Package comments implements the ownership-checked comment thread over a
// video, with single-level reply nesting.
package comments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentView, error)
}

// VideoChecker answers whether a video exists.
type VideoChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

const maxBodyLength = 2000

// Service implements comment CRUD. Mutations require the actor to be the
// comment's author.
type Service struct {
	store  CommentStore
	videos VideoChecker
	now    func() time.Time
}

// NewService constructs the comment service.
func NewService(store CommentStore, videos VideoChecker) *Service {
	if store == nil || videos == nil {
		panic("comments: store and video checker must not be nil")
	}
	return &Service{
		store:  store,
		videos: videos,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Add creates a top-level comment on a video.
func (s *Service) Add(ctx context.Context, actorID, videoID, body string) (models.Comment, error) {
	body, err := s.validBody(body)
	if err != nil {
		return models.Comment{}, err
	}

	known, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return models.Comment{}, err
	}
	if !known {
		return models.Comment{}, apperr.NotFoundf("video not found")
	}

	now := s.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("video not found")
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// Reply creates a reply under a top-level comment. Replying to a reply is
// rejected outright; threads never nest deeper than one level.
func (s *Service) Reply(ctx context.Context, actorID, parentID, body string) (models.Comment, error) {
	body, err := s.validBody(body)
	if err != nil {
		return models.Comment{}, err
	}

	parent, err := s.store.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("comment not found")
		}
		return models.Comment{}, err
	}
	if parent.ParentID != nil {
		return models.Comment{}, apperr.Validationf("cannot reply to a reply")
	}

	now := s.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   parent.VideoID,
		AuthorID:  actorID,
		ParentID:  &parent.ID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("comment not found")
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// Update replaces a comment's body. Only the author may update.
func (s *Service) Update(ctx context.Context, actorID, commentID, body string) (models.Comment, error) {
	body, err := s.validBody(body)
	if err != nil {
		return models.Comment{}, err
	}

	comment, err := s.owned(ctx, actorID, commentID)
	if err != nil {
		return models.Comment{}, err
	}

	comment.Body = body
	comment.UpdatedAt = s.now()
	if err := s.store.UpdateBody(ctx, comment.ID, comment.Body, comment.UpdatedAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("comment not found")
		}
		return models.Comment{}, err
	}
	return comment, nil
}

// Delete removes a comment. Only the author may delete.
func (s *Service) Delete(ctx context.Context, actorID, commentID string) error {
	if _, err := s.owned(ctx, actorID, commentID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFoundf("comment not found")
		}
		return err
	}
	return nil
}

// ListForVideo returns the video's comments, newest first, enriched with
// author summaries and the viewer's like state.
func (s *Service) ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentView, error) {
	known, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperr.NotFoundf("video not found")
	}

	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListForVideo(ctx, videoID, viewerID, limit, offset)
}

func (s *Service) owned(ctx context.Context, actorID, commentID string) (models.Comment, error) {
	comment, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFoundf("comment not found")
		}
		return models.Comment{}, err
	}
	if comment.AuthorID != actorID {
		return models.Comment{}, apperr.Authorizationf("not the comment author")
	}
	return comment, nil
}

func (s *Service) validBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperr.Validationf("comment body is required")
	}
	if len(body) > maxBodyLength {
		return "", apperr.Validationf("comment body exceeds %d characters", maxBodyLength)
	}
	return body, nil
}
