package pipeline

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventSnapshotUpdated EventType = "snapshot_updated"
	EventTokensAdded     EventType = "tokens_added"
	EventTokenRemoved    EventType = "token_removed"
	EventRefreshFailed   EventType = "refresh_failed"
)

// Event represents a pipeline state change.
type Event struct {
	Type  EventType
	Mints []string
	Err   error
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
