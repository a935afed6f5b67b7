package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
)

// Broadcaster receives each feed entry as it is pushed, for live
// delivery to connected dashboard clients.
type Broadcaster interface {
	Broadcast(entry Entry)
}

// EntryRecorder receives each processed entry for metrics export.
type EntryRecorder interface {
	RecordEntry(topic, identityType string, resolved bool)
}

// entryMessage is the structured shape of a bus payload. Unknown
// fields are ignored; a payload that fails to parse at all is treated
// as a bare subject string.
type entryMessage struct {
	Subject   string `json:"subject"`
	Topic     string `json:"topic"`
	Timestamp string `json:"timestamp"`
}

// Pipeline processes raw entry events: parse, resolve, audit, feed.
//
// Consume is invoked serially by a single listener goroutine, so
// messages are processed in delivery order. The bus is at-least-once:
// duplicate deliveries legitimately produce duplicate room_entry
// events, and no deduplication is attempted here.
type Pipeline struct {
	resolver *identity.Resolver
	log      *audit.Log
	feed     *Feed
	logger   *logging.Logger

	// Optional sinks; nil when the corresponding surface is disabled.
	broadcaster Broadcaster
	recorder    EntryRecorder
}

// PipelineConfig carries the pipeline's collaborators.
type PipelineConfig struct {
	Resolver    *identity.Resolver
	Audit       *audit.Log
	Feed        *Feed
	Logger      *logging.Logger
	Broadcaster Broadcaster
	Recorder    EntryRecorder
}

// NewPipeline creates a notification ingestion pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		resolver:    cfg.Resolver,
		log:         cfg.Audit,
		feed:        cfg.Feed,
		logger:      cfg.Logger.With("component", "ingestion"),
		broadcaster: cfg.Broadcaster,
		recorder:    cfg.Recorder,
	}
}

// Consume processes one raw bus message. Failures are recorded as
// diagnostics and never propagate: a bad message must not take down
// the listener, and the next message is unaffected.
func (p *Pipeline) Consume(ctx context.Context, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic processing entry event, message skipped",
				"topic", topic, "panic", fmt.Sprint(r))
		}
	}()

	if err := p.process(ctx, topic, payload); err != nil {
		p.logger.Error("processing entry event failed, message skipped",
			"topic", topic, "error", err)
	}
}

func (p *Pipeline) process(ctx context.Context, topic string, payload []byte) error {
	msg := parsePayload(payload)
	if msg.Topic == "" {
		msg.Topic = topic
	}
	ts := parseTimestamp(msg.Timestamp)

	res, err := p.resolver.Resolve(ctx, msg.Subject)
	if err != nil {
		return fmt.Errorf("resolving subject %q: %w", msg.Subject, err)
	}

	name := res.DisplayName()
	if _, err := p.log.Append(ctx, &audit.Event{
		Action:       audit.ActionRoomEntry,
		Subject:      name,
		IdentityType: res.TypeLabel(),
		Details:      map[string]any{"raw_subject": msg.Subject, "topic": msg.Topic},
	}); err != nil {
		return fmt.Errorf("appending room_entry event: %w", err)
	}

	entry := p.feed.Push(Entry{
		Subject:   name,
		UID:       msg.Subject,
		Topic:     msg.Topic,
		Timestamp: ts,
		Message:   "Entry detected: " + name,
	})

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(entry)
	}
	if p.recorder != nil {
		p.recorder.RecordEntry(msg.Topic, res.TypeLabel(), res.Resolved())
	}

	p.logger.Debug("entry event processed",
		"subject", name, "identity_type", res.TypeLabel(), "topic", msg.Topic)
	return nil
}

// parsePayload decodes a structured payload, falling back to treating
// the raw bytes as the subject. A message is never dropped for being
// non-structured.
func parsePayload(payload []byte) entryMessage {
	var msg entryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return entryMessage{Subject: string(payload)}
	}
	if msg.Subject == "" {
		msg.Subject = "Unknown"
	}
	return msg
}

// parseTimestamp decodes the payload timestamp, stamping receipt time
// when absent or malformed.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
