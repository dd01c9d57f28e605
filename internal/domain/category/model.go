package category

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrNameTaken        = errors.New("category name already taken")
	ErrHasDependents    = errors.New("category still has events")
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	EventsCount int       `json:"events_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Input struct {
	Name string `json:"name" validate:"required,max=255"`
}

type Repository interface {
	// List returns every category ordered by name with its event count.
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	// NameTaken compares case-insensitively and ignores the category exceptID.
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	// Create and Update return ErrNameTaken when the unique index rejects the name.
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	// Delete returns ErrHasDependents, changing nothing, while any event
	// references the category.
	Delete(ctx context.Context, id int64) error
}
