package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/platform/apperr"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotArchived   = errors.New("only archived events can be purged")
)

// ImageStore keeps event images. Paths are relative and servable.
type ImageStore interface {
	SaveImage(ctx context.Context, dir string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

const imageDir = "events"

// Filter is the listing input as received from the caller.
type Filter struct {
	Search     string
	CategoryID int64
	Weekday    string
	Status     string
	Page       int
}

type Service struct {
	repo   Repository
	images ImageStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, images ImageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		images: images,
		logger: logger.With("component", "events"),
		now:    time.Now,
	}
}

// ListPublic lists active events soonest first, 12 per page.
func (s *Service) ListPublic(ctx context.Context, f Filter) (page.Page[Listed], error) {
	active := StatusActive
	q := Query{
		Search: strings.TrimSpace(f.Search),
		Status: &active,
		Page:   page.New(f.Page, page.PublicSize),
	}
	if f.CategoryID > 0 {
		id := f.CategoryID
		q.CategoryID = &id
	}
	if f.Weekday != "" {
		d, ok := ParseWeekday(f.Weekday)
		if !ok {
			return page.Page[Listed]{}, apperr.FieldErrors{"weekday": "must be a day of the week"}
		}
		q.Weekday = &d
	}
	return s.list(ctx, q)
}

// ListAdmin lists events of every status newest first, 20 per page.
func (s *Service) ListAdmin(ctx context.Context, p access.Principal, f Filter) (page.Page[Listed], error) {
	if err := access.Authorize(p, access.ViewAdminEvents); err != nil {
		return page.Page[Listed]{}, err
	}
	q := Query{
		Search:      strings.TrimSpace(f.Search),
		NewestFirst: true,
		Page:        page.New(f.Page, page.AdminSize),
	}
	if f.Status != "" {
		st, ok := ParseStatus(f.Status)
		if !ok {
			return page.Page[Listed]{}, apperr.FieldErrors{"status": "must be one of: active, archived"}
		}
		q.Status = &st
	}
	return s.list(ctx, q)
}

func (s *Service) list(ctx context.Context, q Query) (page.Page[Listed], error) {
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return page.Page[Listed]{}, err
	}
	for i := range items {
		items[i].fillAvailability()
	}
	return page.Of(items, q.Page, total), nil
}

// Get returns a single event. Archived events are reported as missing to
// anyone who may not see them, so their existence does not leak.
func (s *Service) Get(ctx context.Context, p access.Principal, id int64) (*Detail, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Archived() && !p.Allows(access.ViewArchivedEvents) {
		return nil, ErrEventNotFound
	}
	if p.Authenticated() {
		if d.IsRegistered, err = s.repo.IsRegistered(ctx, id, p.UserID); err != nil {
			return nil, err
		}
	}
	d.fillAvailability()
	return d, nil
}

func (s *Service) Create(ctx context.Context, p access.Principal, in Input) (*Event, error) {
	if err := access.Authorize(p, access.EditEvents); err != nil {
		return nil, err
	}
	n, err := s.check(ctx, in, true)
	if err != nil {
		return nil, err
	}

	e := &Event{
		CreatedBy: p.UserID,
		Status:    StatusActive,
	}
	n.apply(e)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update rewrites the editable fields. The status is not editable here; an
// archived event stays archived.
func (s *Service) Update(ctx context.Context, p access.Principal, id int64, in Input) (*Event, error) {
	if err := access.Authorize(p, access.EditEvents); err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.check(ctx, in, false)
	if err != nil {
		return nil, err
	}

	e := d.Event
	n.apply(&e)
	if err := s.repo.Update(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Archive is the soft delete: only the status changes.
func (s *Service) Archive(ctx context.Context, p access.Principal, id int64) error {
	if err := access.Authorize(p, access.ArchiveEvents); err != nil {
		return err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.Archived() {
		return nil
	}
	return s.repo.UpdateStatus(ctx, id, StatusArchived)
}

// Purge physically removes an archived event together with its registrations
// and image.
func (s *Service) Purge(ctx context.Context, p access.Principal, id int64) error {
	if err := access.Authorize(p, access.PurgeEvents); err != nil {
		return err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.Archived() {
		return ErrNotArchived
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if d.ImagePath != nil {
		s.discardImage(ctx, *d.ImagePath)
	}
	return nil
}

// ReplaceImage stores a new image and retires the previous one.
func (s *Service) ReplaceImage(ctx context.Context, p access.Principal, id int64, r io.Reader) (*Event, error) {
	if err := access.Authorize(p, access.EditEvents); err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.images.SaveImage(ctx, imageDir, r)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetImage(ctx, id, &path); err != nil {
		s.discardImage(ctx, path)
		return nil, err
	}
	if d.ImagePath != nil {
		s.discardImage(ctx, *d.ImagePath)
	}

	e := d.Event
	e.ImagePath = &path
	return &e, nil
}

func (s *Service) check(ctx context.Context, in Input, creating bool) (normalized, error) {
	n, fields := in.normalize(s.now(), creating)
	if _, bad := fields["category_id"]; !bad && in.CategoryID > 0 {
		ok, err := s.repo.CategoryExists(ctx, in.CategoryID)
		if err != nil {
			return n, err
		}
		if !ok {
			fields.Add("category_id", "does not exist")
		}
	}
	return n, fields.Err()
}

func (s *Service) discardImage(ctx context.Context, path string) {
	if err := s.images.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to delete event image", "path", path, "error", err)
	}
}

func (n normalized) apply(e *Event) {
	e.Title = n.title
	e.Description = n.description
	e.StartAt = n.startAt
	e.EndAt = n.endAt
	e.Place = n.place
	e.Capacity = n.capacity
	e.Price = n.price
	e.IsFree = n.isFree
	e.CategoryID = n.categoryID
}
