package registration

import (
	"context"
	"errors"
	"time"

	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/page"
)

var (
	ErrEventArchived     = errors.New("event is archived")
	ErrEventFull         = errors.New("event is full")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	// ErrContention means the storage aborted the transaction under
	// concurrent load. Nothing was written.
	ErrContention = errors.New("registration contention, try again")
)

type Registration struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	EventID   int64     `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Listed is a registration joined with the event and user it links.
type Listed struct {
	Registration
	EventTitle   string       `json:"event_title"`
	EventStartAt time.Time    `json:"event_start_at"`
	EventStatus  event.Status `json:"event_status"`
	CategoryName string       `json:"category_name"`
	UserName     string       `json:"user_name"`
	UserEmail    string       `json:"user_email"`
}

// Repository implementations must run Register and Unregister atomically per
// event: the status, capacity and uniqueness checks and the write happen under
// one lock on the event. Unknown events return event.ErrEventNotFound.
type Repository interface {
	Register(ctx context.Context, userID, eventID int64) (*Registration, error)
	Unregister(ctx context.Context, userID, eventID int64) error
	ListByUser(ctx context.Context, userID int64) ([]Listed, error)
	List(ctx context.Context, req page.Request) ([]Listed, int, error)
}

type Kind string

const (
	KindRegistered   Kind = "registered"
	KindUnregistered Kind = "unregistered"
)

// Activity is published after a successful register or unregister.
type Activity struct {
	Kind    Kind
	EventID int64
	UserID  int64
	At      time.Time
}
