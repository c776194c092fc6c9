package types

import "time"

// EventKind labels one entry in the in-memory audit log.
type EventKind string

const (
	EventArrival      EventKind = "arrival"
	EventRemoval      EventKind = "removal"
	EventCaptureStart EventKind = "capture_start"
	EventCaptureDone  EventKind = "capture_done"
	EventCodeStart    EventKind = "code_start"
	EventCodeDone     EventKind = "code_done"
)

// Event is a single audit record. CardID is zero for events that are not
// tied to a specific tag (action start/finish).
type Event struct {
	Kind       EventKind
	CardID     CardID
	Authorized bool
	Detail     string // filename, error text, etc.
	At         time.Time
}
