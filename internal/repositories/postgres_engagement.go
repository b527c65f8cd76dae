package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresReactionRepository provides PostgreSQL-backed persistence for
// reaction edges. The unique index on (actor_id, target_kind, target_id) is
// the atomicity unit toggles rely on; no application lock spans read and write.
type PostgresReactionRepository struct {
	pool db.Pool
}

// NewPostgresReactionRepository constructs a reaction repository backed by PostgreSQL.
func NewPostgresReactionRepository(pool db.Pool) *PostgresReactionRepository {
	return &PostgresReactionRepository{pool: pool}
}

// Create inserts a reaction edge. A duplicate (actor, kind, target) triple
// reports ErrConflict.
func (r *PostgresReactionRepository) Create(ctx context.Context, reaction models.Reaction) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO reactions (id, actor_id, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, reaction.ID, reaction.ActorID, string(reaction.TargetKind), reaction.TargetID, reaction.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert reaction: %w", err)
	}

	return nil
}

// Delete removes the actor's reaction edge on a target and reports whether a
// row was actually deleted. Deleting a missing edge is not an error.
func (r *PostgresReactionRepository) Delete(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM reactions WHERE actor_id = $1 AND target_kind = $2 AND target_id = $3
    `, actorID, string(kind), targetID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Exists reports whether the actor currently has a reaction edge on the target.
func (r *PostgresReactionRepository) Exists(ctx context.Context, actorID string, kind models.TargetKind, targetID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM reactions WHERE actor_id = $1 AND target_kind = $2 AND target_id = $3)
    `, actorID, string(kind), targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check reaction exists: %w", err)
	}
	return exists, nil
}

// CountForTarget counts live reaction edges on a target. Counting rows is the
// source of truth; no counter column exists to drift.
func (r *PostgresReactionRepository) CountForTarget(ctx context.Context, kind models.TargetKind, targetID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM reactions WHERE target_kind = $1 AND target_id = $2
    `, string(kind), targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reactions: %w", err)
	}
	return count, nil
}

// CountOnChannelVideos counts reactions across every video owned by the channel.
func (r *PostgresReactionRepository) CountOnChannelVideos(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM reactions re
        JOIN videos v ON v.id = re.target_id
        WHERE re.target_kind = 'video' AND v.owner_id = $1
    `, channelID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count channel video reactions: %w", err)
	}
	return count, nil
}

// ListLikedVideos returns the videos the actor reacted to, newest edge first,
// each carrying the live like count. IsLiked is true by construction.
func (r *PostgresReactionRepository) ListLikedVideos(ctx context.Context, actorID string) ([]models.LikedVideo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.published, v.created_at,
               re.created_at AS liked_at,
               (SELECT COUNT(*) FROM reactions rc WHERE rc.target_kind = 'video' AND rc.target_id = v.id) AS like_count
        FROM reactions re
        JOIN videos v ON v.id = re.target_id
        WHERE re.actor_id = $1 AND re.target_kind = 'video'
        ORDER BY re.created_at DESC
    `, actorID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedVideo
	for rows.Next() {
		var item models.LikedVideo
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.VideoURL,
			&item.ThumbnailURL, &item.DurationSeconds, &item.Views, &item.Published,
			&item.CreatedAt, &item.LikedAt, &item.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		item.IsLiked = true
		liked = append(liked, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return liked, nil
}

// ListLikedComments returns the comments the actor reacted to, newest edge
// first, each joined with its author summary and the live like count.
func (r *PostgresReactionRepository) ListLikedComments(ctx context.Context, actorID string) ([]models.LikedComment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.author_id, c.parent_id, c.body, c.created_at, c.updated_at,
               a.id, a.username, a.avatar_url,
               re.created_at AS liked_at,
               (SELECT COUNT(*) FROM reactions rc WHERE rc.target_kind = 'comment' AND rc.target_id = c.id) AS like_count
        FROM reactions re
        JOIN comments c ON c.id = re.target_id
        JOIN accounts a ON a.id = c.author_id
        WHERE re.actor_id = $1 AND re.target_kind = 'comment'
        ORDER BY re.created_at DESC
    `, actorID)
	if err != nil {
		return nil, fmt.Errorf("query liked comments: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedComment
	for rows.Next() {
		var (
			item   models.LikedComment
			parent sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.VideoID, &item.AuthorID, &parent, &item.Body, &item.CreatedAt, &item.UpdatedAt,
			&item.Author.ID, &item.Author.Username, &item.Author.AvatarURL,
			&item.LikedAt, &item.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan liked comment: %w", err)
		}
		if parent.Valid {
			p := parent.String
			item.ParentID = &p
		}
		item.IsLiked = true
		liked = append(liked, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked comments: %w", err)
	}

	return liked, nil
}

// ListLikedPosts returns the posts the actor reacted to, newest edge first,
// each carrying the live like count.
func (r *PostgresReactionRepository) ListLikedPosts(ctx context.Context, actorID string) ([]models.LikedPost, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.author_id, p.body, p.created_at,
               re.created_at AS liked_at,
               (SELECT COUNT(*) FROM reactions rc WHERE rc.target_kind = 'post' AND rc.target_id = p.id) AS like_count
        FROM reactions re
        JOIN posts p ON p.id = re.target_id
        WHERE re.actor_id = $1 AND re.target_kind = 'post'
        ORDER BY re.created_at DESC
    `, actorID)
	if err != nil {
		return nil, fmt.Errorf("query liked posts: %w", err)
	}
	defer rows.Close()

	var liked []models.LikedPost
	for rows.Next() {
		var item models.LikedPost
		if err := rows.Scan(
			&item.ID, &item.AuthorID, &item.Body, &item.CreatedAt,
			&item.LikedAt, &item.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan liked post: %w", err)
		}
		item.IsLiked = true
		liked = append(liked, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked posts: %w", err)
	}

	return liked, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscription edges with the same unique-index toggle contract as reactions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create inserts a subscription edge. A duplicate (subscriber, channel) pair
// reports ErrConflict; a missing channel reports ErrNotFound via the FK.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes a subscription edge and reports whether a row was deleted.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Exists reports whether the subscriber currently follows the channel.
func (r *PostgresSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)
    `, subscriberID, channelID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check subscription exists: %w", err)
	}
	return exists, nil
}

// CountForChannel counts the channel's live subscriber edges.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountForSubscriber counts how many channels the subscriber follows.
func (r *PostgresSubscriptionRepository) CountForSubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query, arg string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, query, arg).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return count, nil
}

// ListSubscribers returns the accounts subscribed to the channel, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicAccount, error) {
	return r.listAccounts(ctx, `
        SELECT a.id, a.username, a.email, a.full_name, a.avatar_url, a.cover_url, a.created_at
        FROM subscriptions s
        JOIN accounts a ON a.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels the subscriber follows, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.PublicAccount, error) {
	return r.listAccounts(ctx, `
        SELECT a.id, a.username, a.email, a.full_name, a.avatar_url, a.cover_url, a.created_at
        FROM subscriptions s
        JOIN accounts a ON a.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listAccounts(ctx context.Context, query, arg string) ([]models.PublicAccount, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query subscription accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.PublicAccount
	for rows.Next() {
		var account models.PublicAccount
		if err := rows.Scan(
			&account.ID, &account.Username, &account.Email, &account.FullName,
			&account.AvatarURL, &account.CoverURL, &account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription accounts: %w", err)
	}

	return accounts, nil
}
