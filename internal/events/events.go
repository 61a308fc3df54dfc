// Package events publishes application change notifications to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jobtrail/internal/models"
)

// Type names an event kind. It is also the trailing subject tokens.
type Type string

const (
	ApplicationCreated Type = "application.created"
	ApplicationUpdated Type = "application.updated"
	SyncCompleted      Type = "sync.completed"
)

// Event is the JSON payload published for a change.
//
// ID doubles as the JetStream deduplication key, so replays of the same change collapse.
type Event struct {
	ID          string              `json:"id"`
	Type        Type                `json:"type"`
	UserID      string              `json:"user_id"`
	OccurredAt  time.Time           `json:"occurred_at"`
	Application *models.Application `json:"application,omitempty"`
	Stats       *models.RunStats    `json:"stats,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// NewApplicationEvent builds a created or updated event for a stored record.
func NewApplicationEvent(t Type, a *models.Application) Event {
	return Event{
		ID:          fmt.Sprintf("%s|%s|%d", t, a.ID, a.UpdatedAt.UnixNano()),
		Type:        t,
		UserID:      a.UserID,
		OccurredAt:  a.UpdatedAt,
		Application: a,
	}
}

// NewSyncCompletedEvent builds the event for a finished run and its audit row.
func NewSyncCompletedEvent(l *models.SyncLog) Event {
	stats := l.Stats
	return Event{
		ID:         fmt.Sprintf("%s|%s", SyncCompleted, l.ID),
		Type:       SyncCompleted,
		UserID:     l.UserID,
		OccurredAt: l.CreatedAt,
		Stats:      &stats,
	}
}

// Subject returns "<prefix>.user.<owner>.<type>".
func Subject(prefix string, e Event) string {
	return fmt.Sprintf("%s.user.%s.%s", prefix, token(e.UserID), e.Type)
}

// Payload encodes e as JSON.
func Payload(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return b, nil
}

// token makes s safe as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() {}
