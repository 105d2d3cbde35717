// Package realtime fans table change events out to subscribers.
//
// Delivery is at-least-once and coalescing: a slow subscriber may miss
// intermediate events, so consumers treat every event as "re-fetch this table".
package realtime

import (
	"context"
	"log/slog"
	"time"
)

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"

	subscriberBuffer = 32
)

type Event struct {
	Table  string    `json:"table"`
	Action string    `json:"action"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Broker interface {
	Publisher
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
	Close() error
}

// Notify publishes a change and logs instead of failing; nil publishers are ignored.
func Notify(ctx context.Context, pub Publisher, table, action, id string) {
	if pub == nil {
		return
	}
	event := Event{Table: table, Action: action, ID: id, At: time.Now().UTC()}
	if err := pub.Publish(ctx, event); err != nil {
		slog.Warn("realtime publish failed", "table", table, "action", action, "err", err)
	}
}
