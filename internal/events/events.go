// Package events fans group activity out to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/groupsplit/internal/models"
)

// Publisher delivers activity events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, activity *models.Activity) error
	Close() error
}

// Message is the wire form of an activity event.
type Message struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"group_id"`
	UserID    string         `json:"user_id,omitempty"`
	Type      string         `json:"type"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewMessage converts an activity into its wire form.
func NewMessage(a *models.Activity) *Message {
	return &Message{
		ID:        a.ID,
		GroupID:   a.GroupID,
		UserID:    a.UserID,
		Type:      string(a.Type),
		Details:   a.Details,
		CreatedAt: time.Unix(a.CreatedAt, 0).UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message produced by ToJSON.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RoutingKey is the topic routing key for an activity type.
func RoutingKey(t models.ActivityType) string {
	return "activity." + string(t)
}

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, a *models.Activity) error {
	slog.InfoContext(ctx, "Activity",
		"group_id", a.GroupID,
		"type", a.Type,
		"user_id", a.UserID,
		"activity_id", a.ID,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []*Message
}

func (r *Recorder) Publish(_ context.Context, a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, NewMessage(a))
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.messages))
	for i, m := range r.messages {
		types[i] = m.Type
	}
	return types
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, len(r.messages))
	copy(out, r.messages)
	return out
}
