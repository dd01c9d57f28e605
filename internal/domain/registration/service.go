package registration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/metrics"
	"eventplanner/internal/retry"
)

const (
	contentionAttempts = 4
	contentionDelay    = 25 * time.Millisecond
)

type Service struct {
	repo     Repository
	activity chan<- Activity
	logger   *slog.Logger
}

// NewService wires the registration rules. activity may be nil; sends on it
// never block.
func NewService(repo Repository, activity chan<- Activity, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		activity: activity,
		logger:   logger.With("component", "registrations"),
	}
}

func (s *Service) Register(ctx context.Context, p access.Principal, eventID int64) (*Registration, error) {
	if err := access.Authorize(p, access.Register); err != nil {
		return nil, err
	}

	var reg *Registration
	err := retry.DoWithRetryIf(ctx, contentionAttempts, contentionDelay, isContention, func() error {
		var err error
		reg, err = s.repo.Register(ctx, p.UserID, eventID)
		return err
	})
	metrics.IncRegistration("register", outcome(err))
	if err != nil {
		if isContention(err) {
			s.logger.Warn("registration gave up under contention", "event_id", eventID, "user_id", p.UserID)
		}
		return nil, err
	}

	s.publish(KindRegistered, eventID, p.UserID)
	return reg, nil
}

func (s *Service) Unregister(ctx context.Context, p access.Principal, eventID int64) error {
	if err := access.Authorize(p, access.Register); err != nil {
		return err
	}

	err := retry.DoWithRetryIf(ctx, contentionAttempts, contentionDelay, isContention, func() error {
		return s.repo.Unregister(ctx, p.UserID, eventID)
	})
	metrics.IncRegistration("unregister", outcome(err))
	if err != nil {
		return err
	}

	s.publish(KindUnregistered, eventID, p.UserID)
	return nil
}

// ListMine returns the principal's registrations, newest first.
func (s *Service) ListMine(ctx context.Context, p access.Principal) ([]Listed, error) {
	if err := access.Authorize(p, access.Register); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Listed{}
	}
	return items, nil
}

func (s *Service) ListAll(ctx context.Context, p access.Principal, pageNumber int) (page.Page[Listed], error) {
	if err := access.Authorize(p, access.ViewRegistrations); err != nil {
		return page.Page[Listed]{}, err
	}
	req := page.New(pageNumber, page.AdminSize)
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return page.Page[Listed]{}, err
	}
	return page.Of(items, req, total), nil
}

func (s *Service) publish(kind Kind, eventID, userID int64) {
	if s.activity == nil {
		return
	}
	select {
	case s.activity <- Activity{Kind: kind, EventID: eventID, UserID: userID, At: time.Now()}:
	default:
		s.logger.Warn("activity channel full, dropping event", "kind", kind, "event_id", eventID)
	}
}

func isContention(err error) bool {
	return errors.Is(err, ErrContention)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEventFull):
		return "full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrEventArchived):
		return "archived"
	case errors.Is(err, event.ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrContention):
		return "contention"
	default:
		return "error"
	}
}
