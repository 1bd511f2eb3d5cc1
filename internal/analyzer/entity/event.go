package entity

// EventKind names a dataset lifecycle event.
type EventKind string

const (
	EventUploaded EventKind = "UPLOADED"
	EventDeleted  EventKind = "DELETED"
)

// DatasetEvent is published on the dataset event bus.
type DatasetEvent struct {
	EventID   int64
	DatasetID string
	Kind      EventKind
}
