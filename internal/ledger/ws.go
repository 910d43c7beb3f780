package ledger

import "context"

// EventsFilter selects which event kinds a subscription receives.
// Empty Kinds means all kinds.
type EventsFilter struct {
	Kinds []string
}

// EventNotification is a single event pushed over the stream. Payload
// holds the raw event body; Kind selects how to decode it.
type EventNotification struct {
	Kind     string
	Sequence uint64
	Payload  []byte
}

// WSClient defines the streaming interface over the gateway's
// WebSocket endpoint. Used by the watcher to trigger refreshes; the
// stream is a hint only, truth still comes from point reads.
type WSClient interface {
	// SubscribeEvents subscribes to auction events matching the filter.
	// The returned channel is closed when the client is closed.
	SubscribeEvents(ctx context.Context, filter EventsFilter) (<-chan EventNotification, error)

	// Close closes the connection and all subscription channels.
	Close() error
}
