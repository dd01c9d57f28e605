package user

import (
	"context"
	"errors"
	"time"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/page"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrSelfDeletion       = errors.New("you cannot delete your own account")
	ErrHasEvents          = errors.New("user has created events")
)

type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Phone        *string       `json:"phone,omitempty"`
	AvatarPath   *string       `json:"avatar_path,omitempty"`
	Roles        []access.Role `json:"roles"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Principal is what the user acts as once authenticated.
func (u *User) Principal() access.Principal {
	return access.Principal{UserID: u.ID, Roles: u.Roles}
}

// RoleNames is Roles as plain strings, the form carried in tokens.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = string(r)
	}
	return names
}

type Repository interface {
	// Create and Update return ErrEmailTaken when the unique index rejects the email.
	Create(ctx context.Context, u *User) error
	// GetByEmail and GetByID return ErrUserNotFound for unknown users.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	// List orders by name.
	List(ctx context.Context, req page.Request) ([]User, int, error)
	// Update saves the profile and roles, and the password hash too when
	// passwordHash is not empty, in a single statement.
	Update(ctx context.Context, u *User, passwordHash string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetAvatar(ctx context.Context, id int64, path *string) error
	// Delete removes the user and their registrations. It returns
	// ErrHasEvents, changing nothing, when the user created events.
	Delete(ctx context.Context, id int64) error
}
