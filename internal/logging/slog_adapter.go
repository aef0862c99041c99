// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns an *slog.Logger that forwards records to the global
// zerolog logger. Used for libraries that only speak slog, such as the
// supervisor's sutureslog hook.
func NewSlogLogger() *slog.Logger {
	return slog.New(&slogBridge{})
}

// slogBridge adapts slog records onto zerolog events. Group names are
// flattened into dotted key prefixes.
type slogBridge struct {
	attrs  []slog.Attr
	prefix string
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return Logger().GetLevel() <= bridgeLevel(level)
}

func (b *slogBridge) Handle(_ context.Context, record slog.Record) error {
	// WithLevel has a pointer receiver; the Logger() result must land in an
	// addressable variable first.
	logger := Logger()
	event := logger.WithLevel(bridgeLevel(record.Level))
	// Stored attrs were qualified when added; only record attrs take the
	// current group prefix.
	for _, attr := range b.attrs {
		event = b.appendAttr(event, attr, "")
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = b.appendAttr(event, attr, b.prefix)
		return true
	})
	event.Msg(record.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append([]slog.Attr{}, b.attrs...)
	for _, attr := range attrs {
		merged = append(merged, slog.Attr{Key: b.prefix + attr.Key, Value: attr.Value})
	}
	return &slogBridge{attrs: merged, prefix: b.prefix}
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	return &slogBridge{attrs: b.attrs, prefix: b.prefix + name + "."}
}

func (b *slogBridge) appendAttr(event *zerolog.Event, attr slog.Attr, prefix string) *zerolog.Event {
	key := prefix + attr.Key
	v := attr.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return event.Str(key, v.String())
	case slog.KindInt64:
		return event.Int64(key, v.Int64())
	case slog.KindUint64:
		return event.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, v.Float64())
	case slog.KindBool:
		return event.Bool(key, v.Bool())
	case slog.KindDuration:
		return event.Dur(key, v.Duration())
	case slog.KindTime:
		return event.Time(key, v.Time())
	case slog.KindGroup:
		groupPrefix := key
		if !strings.HasSuffix(groupPrefix, ".") {
			groupPrefix += "."
		}
		for _, member := range v.Group() {
			event = b.appendAttr(event, member, groupPrefix)
		}
		return event
	default:
		return event.Interface(key, v.Any())
	}
}

// bridgeLevel maps slog levels onto the closest zerolog level. Levels below
// debug collapse to trace, above warn to error.
func bridgeLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
