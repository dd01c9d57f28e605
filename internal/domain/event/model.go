package event

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"eventplanner/internal/domain/page"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusArchived:
		return st, true
	default:
		return "", false
	}
}

// Price is an amount in cents. It marshals as a decimal number with two
// places.
type Price int64

func PriceFromFloat(f float64) Price {
	return Price(math.Round(f * 100))
}

func (p Price) String() string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid price %s", b)
	}
	*p = PriceFromFloat(f)
	return nil
}

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Place       string    `json:"place"`
	Capacity    int       `json:"capacity"`
	Price       Price     `json:"price"`
	IsFree      bool      `json:"is_free"`
	ImagePath   *string   `json:"image_path,omitempty"`
	CategoryID  int64     `json:"category_id"`
	CreatedBy   int64     `json:"created_by"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) Archived() bool {
	return e.Status == StatusArchived
}

// Availability is derived from the live registration count; nothing caches it.
type Availability struct {
	Capacity   int
	Registered int
}

func (a Availability) AvailablePlaces() int {
	return a.Capacity - a.Registered
}

func (a Availability) IsFull() bool {
	return a.AvailablePlaces() <= 0
}

// Listed is an event as shown in listings.
type Listed struct {
	Event
	CategoryName    string `json:"category_name"`
	RegisteredCount int    `json:"registered_count"`
	AvailablePlaces int    `json:"available_places"`
	IsFull          bool   `json:"is_full"`
}

func (l *Listed) Availability() Availability {
	return Availability{Capacity: l.Capacity, Registered: l.RegisteredCount}
}

func (l *Listed) fillAvailability() {
	a := l.Availability()
	l.AvailablePlaces = a.AvailablePlaces()
	l.IsFull = a.IsFull()
}

// Detail is the single-event view.
type Detail struct {
	Listed
	CreatorName  string `json:"creator_name"`
	IsRegistered bool   `json:"is_registered"`
}

// Query is what repositories filter on. Nil pointers mean "no filter".
type Query struct {
	Search      string
	CategoryID  *int64
	Weekday     *time.Weekday
	Status      *Status
	NewestFirst bool
	Page        page.Request
}

type Repository interface {
	Create(ctx context.Context, e *Event) error
	// GetByID returns ErrEventNotFound for unknown ids.
	GetByID(ctx context.Context, id int64) (*Detail, error)
	List(ctx context.Context, q Query) ([]Listed, int, error)
	Update(ctx context.Context, e *Event) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	SetImage(ctx context.Context, id int64, path *string) error
	// Delete removes the event row; its registrations go with it.
	Delete(ctx context.Context, id int64) error
	IsRegistered(ctx context.Context, eventID, userID int64) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
}
