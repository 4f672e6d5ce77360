package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sifan077/bookmarks/internal/app/model"
)

const (
	ActionUpsert = "upsert"
	ActionRemove = "remove"
)

// Indexer receives bookmark changes destined for the search index.
type Indexer interface {
	Upsert(ctx context.Context, b *model.Bookmark) error
	Remove(ctx context.Context, bookmarkID uint) error
}

// Event is the JetStream message body. Document is empty for removals.
type Event struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	BookmarkID uint      `json:"bookmark_id"`
	Document   *Document `json:"document,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes index events to NATS JetStream under <prefix>.upsert and <prefix>.remove.
type Publisher struct {
	js     nats.JetStreamContext
	prefix string
}

// NewPublisher creates a JetStream-backed Indexer.
func NewPublisher(js nats.JetStreamContext, subjectPrefix string) *Publisher {
	return &Publisher{js: js, prefix: subjectPrefix}
}

func (p *Publisher) Upsert(ctx context.Context, b *model.Bookmark) error {
	doc, err := BuildDocument(b)
	if err != nil {
		return err
	}
	return p.publish(ctx, Event{
		Action:     ActionUpsert,
		BookmarkID: b.ID,
		Document:   &doc,
	})
}

func (p *Publisher) Remove(ctx context.Context, bookmarkID uint) error {
	return p.publish(ctx, Event{
		Action:     ActionRemove,
		BookmarkID: bookmarkID,
	})
}

// Subject returns the subject events for action are published on.
func (p *Publisher) Subject(action string) string {
	return p.prefix + "." + action
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	event.EventID = uuid.New().String()
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := p.js.Publish(p.Subject(event.Action), data,
		nats.MsgId(event.EventID),
		nats.Context(ctx),
	); err != nil {
		return fmt.Errorf("publish %s for bookmark %d: %w", event.Action, event.BookmarkID, err)
	}
	return nil
}

// Nop discards every event; it stands in when NATS is disabled.
type Nop struct{}

func (Nop) Upsert(context.Context, *model.Bookmark) error { return nil }
func (Nop) Remove(context.Context, uint) error             { return nil }
