package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for
// comments and their single-level reply threads.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment or reply.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var parent sql.NullString
	if comment.ParentID != nil {
		parent = sql.NullString{Valid: true, String: *comment.ParentID}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, author_id, parent_id, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, comment.ID, comment.VideoID, comment.AuthorID, parent, comment.Body, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// FindByID fetches a comment by id.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, video_id, author_id, parent_id, body, created_at, updated_at
        FROM comments
        WHERE id = $1
    `, id)

	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// Exists reports whether a comment with the given id exists.
func (r *PostgresCommentRepository) Exists(ctx context.Context, id string) (bool, error) {
	return existsQuery(ctx, r.pool, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, id)
}

// UpdateBody replaces a comment's body.
func (r *PostgresCommentRepository) UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE comments SET body = $2, updated_at = $3 WHERE id = $1
    `, id, body, updatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment, its replies, and the reaction edges on all of
// them in one transaction. Replies cascade through the parent FK; reactions
// have no FK to lean on.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete comment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        DELETE FROM reactions
        WHERE target_kind = 'comment' AND target_id IN (
            SELECT id FROM comments WHERE id = $1 OR parent_id = $1
        )
    `, id); err != nil {
		return fmt.Errorf("delete comment reactions: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// ListForVideo returns the video's comments newest first, each joined with its
// author summary, the live like count, and whether the viewer liked it. Pass
// an empty viewerID for anonymous reads.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID, viewerID string, limit, offset int) ([]models.CommentView, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.author_id, c.parent_id, c.body, c.created_at, c.updated_at,
               a.id, a.username, a.avatar_url,
               (SELECT COUNT(*) FROM reactions re WHERE re.target_kind = 'comment' AND re.target_id = c.id) AS like_count,
               EXISTS (
                   SELECT 1 FROM reactions re
                   WHERE re.target_kind = 'comment' AND re.target_id = c.id AND re.actor_id = $2
               ) AS is_liked
        FROM comments c
        JOIN accounts a ON a.id = c.author_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        LIMIT $3 OFFSET $4
    `, videoID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query video comments: %w", err)
	}
	defer rows.Close()

	var views []models.CommentView
	for rows.Next() {
		var (
			view   models.CommentView
			parent sql.NullString
		)
		if err := rows.Scan(
			&view.ID, &view.VideoID, &view.AuthorID, &parent, &view.Body, &view.CreatedAt, &view.UpdatedAt,
			&view.Author.ID, &view.Author.Username, &view.Author.AvatarURL,
			&view.LikeCount, &view.IsLiked,
		); err != nil {
			return nil, fmt.Errorf("scan video comment: %w", err)
		}
		if parent.Valid {
			p := parent.String
			view.ParentID = &p
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video comments: %w", err)
	}

	return views, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		comment models.Comment
		parent  sql.NullString
	)
	if err := row.Scan(
		&comment.ID, &comment.VideoID, &comment.AuthorID, &parent,
		&comment.Body, &comment.CreatedAt, &comment.UpdatedAt,
	); err != nil {
		return models.Comment{}, err
	}
	if parent.Valid {
		p := parent.String
		comment.ParentID = &p
	}
	return comment, nil
}
