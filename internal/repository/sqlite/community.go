package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/model"
)

// =========================================================================
// POSTS
// =========================================================================

// CreatePost assigns the id and inserts the post. A zero CreatedAt is set
// to now; a client-supplied one is kept so an optimistic post and its stored
// copy carry the same timestamp.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.ID = xid.New().String()
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.CreatedAt
	post.Deleted = false
	post.DeletedAt = nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		post.ID,
		post.AuthorID,
		post.Text,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

const postColumns = `id, user_id, content, created_at, updated_at, deleted, deleted_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var (
		p         model.Post
		deletedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.AuthorID, &p.Text, &p.CreatedAt, &p.UpdatedAt, &p.Deleted, &deletedAt)
	p.DeletedAt = timePtr(deletedAt)
	return p, err
}

// GetPostByID returns the post even if it is tombstoned.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return &p, nil
}

// ListPosts returns every post, tombstones included, newest first.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// UpdatePostText edits a live post. Tombstoned posts are reported as not
// found.
func (db *DB) UpdatePostText(ctx context.Context, id, text string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET content = ?, updated_at = ? WHERE id = ? AND deleted = 0`,
		text, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", id, err)
	}
	return requireRow(result, "post", id)
}

// SoftDeletePost flags the post. Deleting an already deleted post is a no-op
// that keeps the first deleted_at.
func (db *DB) SoftDeletePost(ctx context.Context, id string) error {
	return db.softDelete(ctx, "posts", "post", id)
}

// =========================================================================
// COMMENTS
// =========================================================================

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	now := time.Now().UTC()
	comment.ID = xid.New().String()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	comment.Deleted = false
	comment.DeletedAt = nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, user_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}
	return nil
}

// ListComments returns every comment, tombstones included, oldest first.
func (db *DB) ListComments(ctx context.Context) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, user_id, content, created_at, updated_at, deleted, deleted_at
		 FROM comments ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var (
			c         model.Comment
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text,
			&c.CreatedAt, &c.UpdatedAt, &c.Deleted, &deletedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		c.DeletedAt = timePtr(deletedAt)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

func (db *DB) SoftDeleteComment(ctx context.Context, id string) error {
	return db.softDelete(ctx, "comments", "comment", id)
}

// softDelete sets deleted=1 on one row of table. The row is never removed.
func (db *DB) softDelete(ctx context.Context, table, resource, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE `+table+` SET deleted = 1, deleted_at = COALESCE(deleted_at, ?) WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", resource, id, err)
	}
	return requireRow(result, resource, id)
}

// =========================================================================
// LIKES
// =========================================================================

func (db *DB) CreateLike(ctx context.Context, like *model.Like) error {
	like.ID = xid.New().String()
	like.CreatedAt = time.Now().UTC()
	like.UpdatedAt = nil

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO likes (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		like.ID,
		like.PostID,
		like.UserID,
		like.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("like", like.PostID+"/"+like.UserID)
		}
		return fmt.Errorf("sqlite: creating like: %w", err)
	}
	return nil
}

func (db *DB) ListLikes(ctx context.Context) ([]model.Like, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, user_id, created_at, updated_at FROM likes ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes: %w", err)
	}
	defer rows.Close()

	likes := make([]model.Like, 0)
	for rows.Next() {
		var (
			l         model.Like
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		l.UpdatedAt = timePtr(updatedAt)
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return likes, nil
}

// DeleteLike removes the (postID, userID) like. Likes are not soft-deleted.
func (db *DB) DeleteLike(ctx context.Context, postID, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting like on %s: %w", postID, err)
	}
	return requireRow(result, "like", postID+"/"+userID)
}

// requireRow turns "no row affected" into apperror.ErrNotFound.
func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
