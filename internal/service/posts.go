// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

// PostStore is the persistence surface the post service needs. *database.DB
// satisfies it.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID, viewerID int64) (*models.Post, error)
	ListPosts(ctx context.Context, viewerID int64, limit, offset int) ([]models.Post, error)
	UpdatePostText(ctx context.Context, id uuid.UUID, text string) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, postID uuid.UUID, userID int64) (bool, error)
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.Comment, error)
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// PostService implements the posts module: feed CRUD, likes and comments,
// fanning notifications out on the events gateway.
type PostService struct {
	store    PostStore
	notifier Notifier
	feed     FeedPublisher
}

// NewPostService wires a post service.
func NewPostService(store PostStore, notifier Notifier, feed FeedPublisher) *PostService {
	return &PostService{store: store, notifier: notifier, feed: feed}
}

// Create persists a new post and records the activity. The stored post is
// re-read so the response carries the denormalized author name and counts.
func (s *PostService) Create(ctx context.Context, authorID int64, text string, imageURL *string) (*models.Post, error) {
	post := &models.Post{
		AuthorID: authorID,
		Text:     text,
		ImageURL: imageURL,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	stored, err := s.store.GetPost(ctx, post.ID, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created post: %w", err)
	}
	publishActivity(s.feed, authorID, "created", "post", post.ID.String())
	return stored, nil
}

// Get fetches one post as seen by viewerID.
func (s *PostService) Get(ctx context.Context, id uuid.UUID, viewerID int64) (*models.Post, error) {
	return s.store.GetPost(ctx, id, viewerID)
}

// List returns the feed, newest first, as seen by viewerID.
func (s *PostService) List(ctx context.Context, viewerID int64, limit, offset int) ([]models.Post, error) {
	return s.store.ListPosts(ctx, viewerID, limit, offset)
}

// Update replaces a post's text. Only the author or an admin may update.
func (s *PostService) Update(ctx context.Context, actorID int64, actorRole string, id uuid.UUID, text string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !canModerate(actorID, actorRole, post.AuthorID) {
		return nil, ErrForbidden
	}
	if err := s.store.UpdatePostText(ctx, id, text); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	publishActivity(s.feed, actorID, "updated", "post", id.String())
	return s.store.GetPost(ctx, id, actorID)
}

// Delete removes a post and everything hanging off it. Only the author or
// an admin may delete.
func (s *PostService) Delete(ctx context.Context, actorID int64, actorRole string, id uuid.UUID) error {
	post, err := s.store.GetPost(ctx, id, actorID)
	if err != nil {
		return err
	}
	if !canModerate(actorID, actorRole, post.AuthorID) {
		return ErrForbidden
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	publishActivity(s.feed, actorID, "deleted", "post", id.String())
	return nil
}

// ToggleLike flips the actor's like on a post and returns the refreshed
// post. A new like on someone else's post notifies the author; unlikes and
// self-likes notify nobody.
func (s *PostService) ToggleLike(ctx context.Context, actorID int64, id uuid.UUID) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	liked, err := s.store.ToggleLike(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	if liked && post.AuthorID != actorID {
		liker, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to load liking user: %w", err)
		}
		s.notifier.NotifyUser(post.AuthorID, models.PostLikedPayload{
			PostID:    id,
			LikedBy:   liker.Public(),
			Timestamp: time.Now().UTC(),
		})
	}
	if liked {
		publishActivity(s.feed, actorID, "liked", "post", id.String())
	}
	return s.store.GetPost(ctx, id, actorID)
}

// AddComment attaches a comment to a post. Comments on someone else's post
// notify the author; self-comments notify nobody.
func (s *PostService) AddComment(ctx context.Context, actorID int64, postID uuid.UUID, text string) (*models.Comment, error) {
	post, err := s.store.GetPost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: actorID,
		Text:     text,
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	stored, err := s.store.GetComment(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created comment: %w", err)
	}

	if post.AuthorID != actorID {
		s.notifier.NotifyUser(post.AuthorID, models.CommentAddedPayload{
			PostID:  postID,
			Comment: stored,
		})
	}
	publishActivity(s.feed, actorID, "commented", "post", postID.String())
	return stored, nil
}

// ListComments returns a post's comments, oldest first.
func (s *PostService) ListComments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.Comment, error) {
	if _, err := s.store.GetPost(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, postID, limit, offset)
}

// DeleteComment removes a comment. The comment author, the post author and
// admins may delete.
func (s *PostService) DeleteComment(ctx context.Context, actorID int64, actorRole string, id uuid.UUID) error {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !canModerate(actorID, actorRole, comment.AuthorID) {
		post, err := s.store.GetPost(ctx, comment.PostID, actorID)
		if err != nil {
			return err
		}
		if !canModerate(actorID, actorRole, post.AuthorID) {
			return ErrForbidden
		}
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
