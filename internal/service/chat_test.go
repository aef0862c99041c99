// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/models"
)

type chatFixture struct {
	svc      *ChatService
	db       *database.DB
	notifier *fakeNotifier
	alice    *models.User
	bob      *models.User
	carol    *models.User
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := newTestStore(t)
	notifier := &fakeNotifier{}
	return &chatFixture{
		svc:      NewChatService(db, notifier, &fakeFeed{}),
		db:       db,
		notifier: notifier,
		alice:    createTestUser(t, db, "alice"),
		bob:      createTestUser(t, db, "bob"),
		carol:    createTestUser(t, db, "carol"),
	}
}

func TestCreateDirectConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if !conv.Direct || len(conv.ParticipantIDs) != 2 {
		t.Errorf("unexpected conversation: %+v", conv)
	}

	// Direct conversations must have exactly two participants.
	if _, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID, f.carol.ID}); err == nil {
		t.Error("expected error for three-way direct conversation")
	}
	// The creator is deduplicated from the participant list.
	dup, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.alice.ID, f.bob.ID})
	if err != nil {
		t.Fatalf("CreateConversation with duplicate creator failed: %v", err)
	}
	if len(dup.ParticipantIDs) != 2 {
		t.Errorf("expected deduplicated participants, got %v", dup.ParticipantIDs)
	}
}

func TestCreateConversationUnknownParticipant(t *testing.T) {
	f := newChatFixture(t)
	if _, err := f.svc.CreateConversation(context.Background(), f.alice.ID, nil, false, []int64{99999}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown participant, got %v", err)
	}
}

func TestSendMessageNotifiesOtherParticipants(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	name := "go-nuts"
	conv, err := f.svc.CreateConversation(ctx, f.alice.ID, &name, false, []int64{f.bob.ID, f.carol.ID})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	msg, err := f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "hello all", nil, "tmp-1")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg.TempID != "tmp-1" {
		t.Errorf("expected temp id echoed, got %q", msg.TempID)
	}
	if msg.SeenBy == nil || len(msg.SeenBy) != 0 {
		t.Errorf("expected empty seen set, got %v", msg.SeenBy)
	}

	calls := f.notifier.recorded()
	if len(calls) != 1 || calls[0].method != "users" {
		t.Fatalf("expected one notifyUsers call, got %+v", calls)
	}
	if slices.Contains(calls[0].userIDs, f.alice.ID) {
		t.Error("sender must not be notified of their own message")
	}
	for _, id := range []int64{f.bob.ID, f.carol.ID} {
		if !slices.Contains(calls[0].userIDs, id) {
			t.Errorf("participant %d missing from recipients %v", id, calls[0].userIDs)
		}
	}
	payload, ok := calls[0].payload.(models.NewMessagePayload)
	if !ok {
		t.Fatalf("expected NewMessagePayload, got %T", calls[0].payload)
	}
	if payload.ID != msg.ID || payload.ConversationID != conv.ID || payload.TempID != "tmp-1" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestSendMessageRejectsEmptyAndOutsiders(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	if _, err := f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "", nil, ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, f.carol.ID, conv.ID, "let me in", nil, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for outsider, got %v", err)
	}

	// Image-only messages are allowed.
	img := "https://cdn.example.com/pic.png"
	if _, err := f.svc.SendMessage(ctx, f.bob.ID, conv.ID, "", &img, ""); err != nil {
		t.Errorf("image-only message failed: %v", err)
	}
}

func TestMarkSeenExcludesOwnMessages(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	sent, err := f.svc.SendMessage(ctx, f.alice.ID, conv.ID, "seen me", nil, "")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if err := f.svc.MarkSeen(ctx, f.bob.ID, conv.ID); err != nil {
		t.Fatalf("MarkSeen failed: %v", err)
	}

	msgs, err := f.svc.ListMessages(ctx, f.bob.ID, conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != sent.ID {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if !slices.Contains(msgs[0].SeenBy, f.bob.ID) {
		t.Errorf("expected bob in seen set, got %v", msgs[0].SeenBy)
	}
	if slices.Contains(msgs[0].SeenBy, f.alice.ID) {
		t.Errorf("sender must not appear in their own message's seen set: %v", msgs[0].SeenBy)
	}
}

func TestListMessagesForbiddenForOutsider(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	conv, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if _, err := f.svc.ListMessages(ctx, f.carol.ID, conv.ID, 10, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.MarkSeen(ctx, f.carol.ID, conv.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for outsider MarkSeen, got %v", err)
	}
	if _, err := f.svc.GetConversation(ctx, f.carol.ID, conv.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for outsider GetConversation, got %v", err)
	}
}

func TestListConversations(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateConversation(ctx, f.alice.ID, nil, true, []int64{f.bob.ID}); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	name := "group"
	if _, err := f.svc.CreateConversation(ctx, f.alice.ID, &name, false, []int64{f.bob.ID, f.carol.ID}); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	mine, err := f.svc.ListConversations(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 conversations for alice, got %d", len(mine))
	}
	carols, err := f.svc.ListConversations(ctx, f.carol.ID)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(carols) != 1 {
		t.Errorf("expected 1 conversation for carol, got %d", len(carols))
	}
}
