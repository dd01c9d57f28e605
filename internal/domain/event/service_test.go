package event

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/platform/apperr"
)

type memoryEventRepo struct {
	mu         sync.Mutex
	events     map[int64]*Event
	categories map[int64]string
	registered map[int64]map[int64]bool
	nextID     int64
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{
		events:     make(map[int64]*Event),
		categories: map[int64]string{1: "Tech", 2: "Sport"},
		registered: make(map[int64]map[int64]bool),
		nextID:     1,
	}
}

func (r *memoryEventRepo) Create(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID
	r.nextID++
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	copyEvent := *e
	r.events[e.ID] = &copyEvent
	return nil
}

func (r *memoryEventRepo) GetByID(ctx context.Context, id int64) (*Detail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &Detail{Listed: r.listed(e), CreatorName: "Admin"}, nil
}

func (r *memoryEventRepo) listed(e *Event) Listed {
	return Listed{
		Event:           *e,
		CategoryName:    r.categories[e.CategoryID],
		RegisteredCount: len(r.registered[e.ID]),
	}
}

func (r *memoryEventRepo) List(ctx context.Context, q Query) ([]Listed, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []Listed
	for _, e := range r.events {
		if q.Status != nil && e.Status != *q.Status {
			continue
		}
		if q.CategoryID != nil && e.CategoryID != *q.CategoryID {
			continue
		}
		if q.Weekday != nil && e.StartAt.Weekday() != *q.Weekday {
			continue
		}
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			if !strings.Contains(strings.ToLower(e.Title), needle) &&
				!strings.Contains(strings.ToLower(e.Description), needle) {
				continue
			}
		}
		all = append(all, r.listed(e))
	}
	sort.Slice(all, func(i, j int) bool {
		if q.NewestFirst {
			return all[i].StartAt.After(all[j].StartAt)
		}
		return all[i].StartAt.Before(all[j].StartAt)
	})
	total := len(all)
	start := q.Page.Offset()
	if start > total {
		start = total
	}
	end := start + q.Page.Limit()
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *memoryEventRepo) Update(ctx context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; !ok {
		return ErrEventNotFound
	}
	copyEvent := *e
	copyEvent.UpdatedAt = time.Now()
	r.events[e.ID] = &copyEvent
	return nil
}

func (r *memoryEventRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.Status = status
	return nil
}

func (r *memoryEventRepo) SetImage(ctx context.Context, id int64, path *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.ImagePath = path
	return nil
}

func (r *memoryEventRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	delete(r.registered, id)
	return nil
}

func (r *memoryEventRepo) IsRegistered(ctx context.Context, eventID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered[eventID][userID], nil
}

func (r *memoryEventRepo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.categories[id]
	return ok, nil
}

func (r *memoryEventRepo) register(eventID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registered[eventID] == nil {
		r.registered[eventID] = make(map[int64]bool)
	}
	r.registered[eventID][userID] = true
}

type memoryImages struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (m *memoryImages) SaveImage(ctx context.Context, dir string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	p := dir + "/img" + string(rune('a'+len(m.saved))) + ".png"
	m.saved = append(m.saved, p)
	return p, nil
}

func (m *memoryImages) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	return nil
}

var (
	admin   = access.NewPrincipal(1, []string{"admin"})
	manager = access.NewPrincipal(2, []string{"manager"})
	visitor = access.NewPrincipal(3, []string{"user"})
)

func newTestService() (*Service, *memoryEventRepo, *memoryImages) {
	repo := newMemoryEventRepo()
	images := &memoryImages{}
	svc := NewService(repo, images, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, images
}

func ptr[T any](v T) *T { return &v }

func validInput() Input {
	return Input{
		Title:       "Go Meetup",
		Description: "Talks about <b>Go</b>",
		StartAt:     ptr(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)), // Monday
		EndAt:       ptr(time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC)),
		Place:       "Town Hall",
		CategoryID:  1,
		Capacity:    2,
	}
}

func fieldErrors(t *testing.T, err error) apperr.FieldErrors {
	t.Helper()
	var fields apperr.FieldErrors
	require.True(t, errors.As(err, &fields), "expected field errors, got %v", err)
	return fields
}

func TestCreateRequiresEditRights(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, access.Anonymous, validInput())
	assert.ErrorIs(t, err, access.ErrUnauthenticated)
	_, err = svc.Create(ctx, manager, validInput())
	assert.ErrorIs(t, err, access.ErrForbidden)
	_, err = svc.Create(ctx, visitor, validInput())
	assert.ErrorIs(t, err, access.ErrForbidden)

	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, admin.UserID, e.CreatedBy)
	assert.True(t, e.IsFree, "omitted is_free with no price means free")
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.Title = ""
	in.Capacity = 0
	in.CategoryID = 99
	in.StartAt = ptr(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	in.EndAt = ptr(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Create(ctx, admin, in)
	fields := fieldErrors(t, err)
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "must be at least 1", fields["capacity"])
	assert.Equal(t, "does not exist", fields["category_id"])
	assert.Equal(t, "must be in the future", fields["start_at"])
	assert.Equal(t, "must be after the start date", fields["end_at"])
}

func TestPricingRule(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	paidNoPrice := validInput()
	paidNoPrice.IsFree = ptr(false)
	_, err := svc.Create(ctx, admin, paidNoPrice)
	assert.Equal(t, "is required for paid events", fieldErrors(t, err)["price"])

	paidZero := validInput()
	paidZero.IsFree = ptr(false)
	paidZero.Price = ptr(0.0)
	_, err = svc.Create(ctx, admin, paidZero)
	assert.Contains(t, fieldErrors(t, err)["price"], "greater than 0")

	freeWithPrice := validInput()
	freeWithPrice.IsFree = ptr(true)
	freeWithPrice.Price = ptr(15.0)
	e, err := svc.Create(ctx, admin, freeWithPrice)
	require.NoError(t, err)
	assert.True(t, e.IsFree)
	assert.Equal(t, Price(0), e.Price)

	derivedPaid := validInput()
	derivedPaid.Price = ptr(12.5)
	e, err = svc.Create(ctx, admin, derivedPaid)
	require.NoError(t, err)
	assert.False(t, e.IsFree)
	assert.Equal(t, Price(1250), e.Price)
	assert.Equal(t, "12.50", e.Price.String())

	// the update path applies the same rule
	paidZero.IsFree = ptr(false)
	_, err = svc.Update(ctx, admin, e.ID, paidZero)
	assert.Contains(t, fieldErrors(t, err)["price"], "greater than 0")

	tooExpensive := validInput()
	tooExpensive.Price = ptr(1e9)
	_, err = svc.Create(ctx, admin, tooExpensive)
	assert.Equal(t, "must be less than or equal to 99999999.99", fieldErrors(t, err)["price"])
	_, err = svc.Update(ctx, admin, e.ID, tooExpensive)
	assert.Equal(t, "must be less than or equal to 99999999.99", fieldErrors(t, err)["price"])
}

func TestUpdateAllowsPastStartButKeepsOrdering(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	in := validInput()
	in.StartAt = ptr(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	in.EndAt = ptr(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	in.Title = "Renamed"
	updated, err := svc.Update(ctx, admin, e.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	in.EndAt = in.StartAt
	_, err = svc.Update(ctx, admin, e.ID, in)
	assert.Equal(t, "must be after the start date", fieldErrors(t, err)["end_at"])

	_, err = svc.Update(ctx, admin, 404, validInput())
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestArchiveHidesEventFromPublic(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	repo.register(e.ID, visitor.UserID)

	before, err := svc.Get(ctx, admin, e.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Archive(ctx, manager, e.ID), access.ErrForbidden)
	require.NoError(t, svc.Archive(ctx, admin, e.ID))
	require.NoError(t, svc.Archive(ctx, admin, e.ID), "archiving twice is a no-op")

	_, err = svc.Get(ctx, access.Anonymous, e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.Get(ctx, visitor, e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.Get(ctx, manager, e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)

	after, err := svc.Get(ctx, admin, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, after.Status)
	after.Status = before.Status
	assert.Equal(t, before.Event, after.Event, "only the status may change")
	assert.Equal(t, 1, after.RegisteredCount)

	public, err := svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, public.Items)

	adminList, err := svc.ListAdmin(ctx, admin, Filter{})
	require.NoError(t, err)
	assert.Len(t, adminList.Items, 1)
}

func TestGetComputesAvailability(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	d, err := svc.Get(ctx, visitor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, d.AvailablePlaces)
	assert.False(t, d.IsFull)
	assert.False(t, d.IsRegistered)

	repo.register(e.ID, visitor.UserID)
	repo.register(e.ID, 77)

	d, err = svc.Get(ctx, visitor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d.AvailablePlaces)
	assert.True(t, d.IsFull)
	assert.True(t, d.IsRegistered)
}

func TestListPublicFilters(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	monday := validInput()
	_, err := svc.Create(ctx, admin, monday)
	require.NoError(t, err)

	friday := validInput()
	friday.Title = "Football Match"
	friday.Description = "Cup final"
	friday.CategoryID = 2
	friday.StartAt = ptr(time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC))
	friday.EndAt = ptr(time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC))
	_, err = svc.Create(ctx, admin, friday)
	require.NoError(t, err)

	res, err := svc.ListPublic(ctx, Filter{Search: "go"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Go Meetup", res.Items[0].Title)

	res, err = svc.ListPublic(ctx, Filter{Search: "CUP"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1, "search matches the description too")

	res, err = svc.ListPublic(ctx, Filter{CategoryID: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Sport", res.Items[0].CategoryName)

	res, err = svc.ListPublic(ctx, Filter{Weekday: "FRIDAY"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Football Match", res.Items[0].Title)

	res, err = svc.ListPublic(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Go Meetup", res.Items[0].Title, "public listing is soonest first")
	assert.Equal(t, 12, res.PerPage)

	_, err = svc.ListPublic(ctx, Filter{Weekday: "someday"})
	assert.Contains(t, fieldErrors(t, err), "weekday")
}

func TestListAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.ListAdmin(ctx, visitor, Filter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	first, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	later := validInput()
	later.StartAt = ptr(time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC))
	later.EndAt = ptr(time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC))
	second, err := svc.Create(ctx, admin, later)
	require.NoError(t, err)
	require.NoError(t, svc.Archive(ctx, admin, first.ID))

	res, err := svc.ListAdmin(ctx, manager, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, second.ID, res.Items[0].ID, "admin listing is newest first")
	assert.Equal(t, 20, res.PerPage)

	res, err = svc.ListAdmin(ctx, manager, Filter{Status: "archived"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)

	_, err = svc.ListAdmin(ctx, manager, Filter{Status: "deleted"})
	assert.Contains(t, fieldErrors(t, err), "status")
}

func TestReplaceImageRetiresPrevious(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)

	first, err := svc.ReplaceImage(ctx, admin, e.ID, strings.NewReader("one"))
	require.NoError(t, err)
	second, err := svc.ReplaceImage(ctx, admin, e.ID, strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, *first.ImagePath, *second.ImagePath)
	assert.Equal(t, []string{*first.ImagePath}, images.deleted)
}

func TestPurgeOnlyArchived(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, admin, validInput())
	require.NoError(t, err)
	_, err = svc.ReplaceImage(ctx, admin, e.ID, strings.NewReader("img"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Purge(ctx, admin, e.ID), ErrNotArchived)
	require.NoError(t, svc.Archive(ctx, admin, e.ID))
	assert.ErrorIs(t, svc.Purge(ctx, manager, e.ID), access.ErrForbidden)
	require.NoError(t, svc.Purge(ctx, admin, e.ID))

	_, err = svc.Get(ctx, admin, e.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Len(t, images.deleted, 1)
}

func TestPriceJSON(t *testing.T) {
	var p Price
	require.NoError(t, p.UnmarshalJSON([]byte("19.99")))
	assert.Equal(t, Price(1999), p)
	b, err := p.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "19.99", string(b))
}
