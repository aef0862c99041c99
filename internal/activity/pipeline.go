// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package activity implements the in-process activity feed pipeline.
// Domain services publish entries onto a Watermill gochannel topic; a
// supervised subscriber drains the topic and persists entries to the feed
// table. Publishing is decoupled from the request path so a slow insert
// never delays an API response.
package activity

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/metrics"
	"github.com/gatherhub/gatherhub/internal/models"
)

// TopicFeed is the pipeline topic for feed entries.
const TopicFeed = "activity.feed"

// Store persists activity entries. *database.DB satisfies it.
type Store interface {
	InsertActivity(ctx context.Context, entry *models.ActivityEntry) error
}

// Publisher is the producing side of the pipeline, as seen by the domain
// services.
type Publisher interface {
	Publish(entry *models.ActivityEntry) error
}

// Pipeline owns the gochannel transport and the persisting subscriber.
type Pipeline struct {
	pubsub  *gochannel.GoChannel
	store   Store
	workers int
}

// NewPipeline creates the pipeline with a buffered in-process transport.
func NewPipeline(cfg *config.ActivityConfig, store Store) *Pipeline {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: int64(cfg.BufferSize),
		},
		newWatermillLogger(),
	)
	return &Pipeline{
		pubsub:  pubsub,
		store:   store,
		workers: cfg.PersistWorker,
	}
}

// Publish enqueues one entry for persistence.
func (p *Pipeline) Publish(entry *models.ActivityEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal activity entry: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubsub.Publish(TopicFeed, msg); err != nil {
		return fmt.Errorf("failed to publish activity entry: %w", err)
	}
	metrics.RecordActivityPublished()
	return nil
}

// Serve implements suture.Service: it subscribes to the feed topic and
// persists entries until ctx is canceled. Persistence failures are counted
// and logged but never stop the pipeline; inserts are idempotent by entry
// id, so a future redelivery cannot duplicate a row.
func (p *Pipeline) Serve(ctx context.Context) error {
	msgs, err := p.pubsub.Subscribe(ctx, TopicFeed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicFeed, err)
	}

	done := make(chan struct{})
	for i := 0; i < p.workers; i++ {
		go p.persistLoop(ctx, msgs, done)
	}

	<-ctx.Done()
	for i := 0; i < p.workers; i++ {
		<-done
	}
	return ctx.Err()
}

func (p *Pipeline) String() string {
	return "activity-pipeline"
}

func (p *Pipeline) persistLoop(ctx context.Context, msgs <-chan *message.Message, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	for msg := range msgs {
		var entry models.ActivityEntry
		if err := json.Unmarshal(msg.Payload, &entry); err != nil {
			logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed activity entry")
			msg.Ack()
			continue
		}

		if err := p.store.InsertActivity(ctx, &entry); err != nil {
			metrics.RecordActivityPersistFailure()
			logging.Error().Err(err).Str("entry_id", entry.ID.String()).Msg("failed to persist activity entry")
		}
		msg.Ack()
	}
}

// Close shuts down the transport. Pending messages are dropped.
func (p *Pipeline) Close() error {
	return p.pubsub.Close()
}

// watermillLogger adapts Watermill's logging interface onto zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]interface{}(l.fields.Add(fields))).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}
