// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

// ErrEmptyMessage is returned when a send request carries neither text nor
// an image.
var ErrEmptyMessage = errors.New("message needs text or an image")

// ChatStore is the persistence surface the chat service needs.
// *database.DB satisfies it.
type ChatStore interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID int64) ([]models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID uuid.UUID, userID int64) (bool, error)
	AddMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.ChatMessage, error)
	MarkSeen(ctx context.Context, conversationID uuid.UUID, userID int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ChatService implements the chat module. Message notifications go out on
// the chat gateway to every participant except the sender.
type ChatService struct {
	store    ChatStore
	notifier Notifier
	feed     FeedPublisher
}

// NewChatService wires a chat service.
func NewChatService(store ChatStore, notifier Notifier, feed FeedPublisher) *ChatService {
	return &ChatService{store: store, notifier: notifier, feed: feed}
}

// CreateConversation starts a conversation. The creator is always a
// participant; duplicate ids in the list are collapsed. Direct
// conversations must have exactly two participants.
func (s *ChatService) CreateConversation(ctx context.Context, creatorID int64, name *string, direct bool, participantIDs []int64) (*models.Conversation, error) {
	ids := append([]int64{creatorID}, participantIDs...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	if direct && len(ids) != 2 {
		return nil, fmt.Errorf("direct conversation needs exactly two participants, got %d", len(ids))
	}
	for _, id := range ids {
		if _, err := s.store.GetUserByID(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to resolve participant %d: %w", id, err)
		}
	}

	conv := &models.Conversation{
		Name:           name,
		Direct:         direct,
		ParticipantIDs: ids,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	publishActivity(s.feed, creatorID, "created", "conversation", conv.ID.String())
	return conv, nil
}

// ListConversations returns the actor's conversations.
func (s *ChatService) ListConversations(ctx context.Context, actorID int64) ([]models.Conversation, error) {
	return s.store.ListConversationsForUser(ctx, actorID)
}

// GetConversation fetches one conversation. Non-participants get
// ErrForbidden.
func (s *ChatService) GetConversation(ctx context.Context, actorID int64, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(conv.ParticipantIDs, actorID) {
		return nil, ErrForbidden
	}
	return conv, nil
}

// SendMessage persists a message and pushes it to the other participants.
// tempID is echoed back in both the response and the notification so the
// sender's client can reconcile its optimistic entry.
func (s *ChatService) SendMessage(ctx context.Context, senderID int64, conversationID uuid.UUID, text string, imageURL *string, tempID string) (*models.ChatMessage, error) {
	if text == "" && imageURL == nil {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(conv.ParticipantIDs, senderID) {
		return nil, ErrForbidden
	}

	msg := &models.ChatMessage{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		ImageURL:       imageURL,
		TempID:         tempID,
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	recipients := make([]int64, 0, len(conv.ParticipantIDs)-1)
	for _, id := range conv.ParticipantIDs {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	s.notifier.NotifyUsers(recipients, models.NewMessagePayload{
		ID:             msg.ID,
		Text:           msg.Text,
		ImageURL:       msg.ImageURL,
		CreatedAt:      msg.CreatedAt,
		SenderID:       msg.SenderID,
		ConversationID: msg.ConversationID,
		TempID:         msg.TempID,
		SeenBy:         msg.SeenBy,
	})
	publishActivity(s.feed, senderID, "messaged", "conversation", conversationID.String())
	return msg, nil
}

// ListMessages returns a conversation's messages, oldest first.
// Non-participants get ErrForbidden.
func (s *ChatService) ListMessages(ctx context.Context, actorID int64, conversationID uuid.UUID, limit, offset int) ([]models.ChatMessage, error) {
	ok, err := s.store.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.store.ListMessages(ctx, conversationID, limit, offset)
}

// MarkSeen marks every message in the conversation not sent by the actor as
// seen by them.
func (s *ChatService) MarkSeen(ctx context.Context, actorID int64, conversationID uuid.UUID) error {
	ok, err := s.store.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return s.store.MarkSeen(ctx, conversationID, actorID)
}
