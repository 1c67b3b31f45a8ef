// Package events fans committed domain changes out to NATS subjects so that
// dashboards and chat clients can react without polling the store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"constructcore/pkg/domain"
)

// Subject layout. Change events go out per entity type; chat messages get a
// dedicated per-project subject for direct subscription.
const (
	changeSubjectPrefix = "constructcore.changes."
	chatSubjectPrefix   = "constructcore.chat."
	chatSubjectGeneral  = chatSubjectPrefix + "general"
)

// ChangeSubject returns the subject change events for an entity type go to.
func ChangeSubject(entity domain.EntityType) string {
	return changeSubjectPrefix + string(entity)
}

// ChatSubject returns the subject chat messages for a project go to. Messages
// without a project go to the shared general subject.
func ChatSubject(projectID *string) string {
	if projectID == nil || *projectID == "" {
		return chatSubjectGeneral
	}
	return chatSubjectPrefix + *projectID
}

// ChangeEvent is the wire envelope for one committed change.
type ChangeEvent struct {
	Entity     domain.EntityType `json:"entity"`
	Action     domain.Action     `json:"action"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Logger is the subset of structured logging the publisher needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher publishes committed changes to NATS. A nil connection disables
// publishing entirely so callers never need to branch on configuration.
type Publisher struct {
	conn   *nats.Conn
	logger Logger
	nowFn  func() time.Time
}

// PublisherOption customises publisher construction.
type PublisherOption func(*Publisher)

// WithLogger sets the logger used for publish failures.
func WithLogger(logger Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher wraps an existing NATS connection. conn may be nil.
func NewPublisher(conn *nats.Conn, opts ...PublisherOption) *Publisher {
	p := &Publisher{conn: conn, logger: noopLogger{}, nowFn: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials a NATS server and returns a publisher over the connection.
// An empty URL yields a disabled publisher rather than an error.
func Connect(url string, opts ...PublisherOption) (*Publisher, error) {
	if url == "" {
		return NewPublisher(nil, opts...), nil
	}
	conn, err := nats.Connect(url, nats.Name("constructcore"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewPublisher(conn, opts...), nil
}

// Enabled reports whether the publisher has a live connection.
func (p *Publisher) Enabled() bool { return p.conn != nil }

// Close drains the underlying connection if one exists.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// PublishChanges emits one event per committed change. Publish failures are
// logged and skipped; a commit already happened and must not be rolled back
// over a notification problem.
func (p *Publisher) PublishChanges(ctx context.Context, changes []domain.Change) {
	if p.conn == nil {
		return
	}
	now := p.nowFn()
	for _, change := range changes {
		event := ChangeEvent{Entity: change.Entity, Action: change.Action, OccurredAt: now}
		if change.After != nil {
			payload, err := json.Marshal(change.After)
			if err != nil {
				p.logger.Warn("encode change event", "entity", string(change.Entity), "error", err)
				continue
			}
			event.Payload = payload
		}
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.Warn("encode change event", "entity", string(change.Entity), "error", err)
			continue
		}
		if err := p.conn.Publish(ChangeSubject(change.Entity), data); err != nil {
			p.logger.Warn("publish change event", "entity", string(change.Entity), "error", err)
		}
		if change.Entity == domain.EntityChatMessage && change.Action == domain.ActionCreate {
			p.publishChat(change.After)
		}
	}
}

func (p *Publisher) publishChat(after any) {
	msg, ok := after.(domain.ChatMessage)
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("encode chat message", "error", err)
		return
	}
	if err := p.conn.Publish(ChatSubject(msg.ProjectID), data); err != nil {
		p.logger.Warn("publish chat message", "error", err)
	}
}
