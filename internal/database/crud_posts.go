// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

// postSelect is the shared projection for post reads. Counts are computed
// with correlated subqueries; liked_by_viewer takes the viewer id as the
// first bind parameter.
const postSelect = `SELECT
	p.id, p.author_id, u.display_name, p.text, p.image_url, p.created_at,
	(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
	EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = ?) AS liked_by_viewer
	FROM posts p JOIN users u ON u.id = p.author_id`

// CreatePost inserts a new post and fills in id and created_at.
func (db *DB) CreatePost(ctx context.Context, post *models.Post) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "posts", start, err) }()

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, text, image_url, created_at) VALUES (?, ?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Text, post.ImageURL, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetPost fetches one post with counts. viewerID drives liked_by_viewer;
// pass 0 for unauthenticated reads.
func (db *DB) GetPost(ctx context.Context, id uuid.UUID, viewerID int64) (p *models.Post, err error) {
	start := time.Now()
	defer func() { db.track("select", "posts", start, err) }()

	p = &models.Post{}
	err = db.conn.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, viewerID, id).Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Text, &p.ImageURL, &p.CreatedAt,
		&p.LikeCount, &p.CommentCount, &p.LikedByViewer,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	return p, nil
}

// ListPosts returns the feed, newest first.
func (db *DB) ListPosts(ctx context.Context, viewerID int64, limit, offset int) (posts []models.Post, err error) {
	start := time.Now()
	defer func() { db.track("select", "posts", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		postSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts = []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Text, &p.ImageURL, &p.CreatedAt,
			&p.LikeCount, &p.CommentCount, &p.LikedByViewer); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpdatePostText replaces the text of a post.
func (db *DB) UpdatePostText(ctx context.Context, id uuid.UUID, text string) (err error) {
	start := time.Now()
	defer func() { db.track("update", "posts", start, err) }()

	res, err := db.conn.ExecContext(ctx, `UPDATE posts SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireRow(res)
}

// DeletePost removes a post and its likes and comments.
func (db *DB) DeletePost(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { db.track("delete", "posts", start, err) }()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete post likes: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}
	return nil
}

// ToggleLike flips the like state of (postID, userID) and reports the new
// state: true when the post is now liked by the user.
func (db *DB) ToggleLike(ctx context.Context, postID uuid.UUID, userID int64) (liked bool, err error) {
	start := time.Now()
	defer func() { db.track("update", "post_likes", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		postID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	return true, nil
}

// AddComment inserts a comment and fills in id and created_at.
func (db *DB) AddComment(ctx context.Context, comment *models.Comment) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "comments", start, err) }()

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns a post's comments, oldest first.
func (db *DB) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) (comments []models.Comment, err error) {
	start := time.Now()
	defer func() { db.track("select", "comments", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.author_id, u.display_name, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.created_at ASC, c.id ASC LIMIT ? OFFSET ?`,
		postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comments = []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes one comment.
func (db *DB) DeleteComment(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { db.track("delete", "comments", start, err) }()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireRow(res)
}

// GetComment fetches one comment.
func (db *DB) GetComment(ctx context.Context, id uuid.UUID) (c *models.Comment, err error) {
	start := time.Now()
	defer func() { db.track("select", "comments", start, err) }()

	c = &models.Comment{}
	err = db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.post_id, c.author_id, u.display_name, c.text, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id WHERE c.id = ?`, id).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}
	return c, nil
}
