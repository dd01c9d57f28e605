package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/category"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/domain/registration"
	"eventplanner/internal/domain/user"
	"eventplanner/internal/platform/database"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("eventplanner"),
		tcpostgres.WithUsername("eventplanner"),
		tcpostgres.WithPassword("eventplanner"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, MigrateUp(dsn))

	db, err := database.NewPostgres(ctx, dsn, 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	users      *UserRepo
	categories *CategoryRepo
	events     *EventRepo
	regs       *RegistrationRepo
	admin      *user.User
	category   *category.Category
}

func newFixture(t *testing.T) *fixture {
	db := setupDB(t)
	ctx := context.Background()
	f := &fixture{
		users:      NewUserRepo(db),
		categories: NewCategoryRepo(db),
		events:     NewEventRepo(db),
		regs:       NewRegistrationRepo(db),
	}
	f.admin = f.createUser(t, "admin@example.com", access.RoleAdmin)
	f.category = &category.Category{Name: "Tech"}
	require.NoError(t, f.categories.Create(ctx, f.category))
	return f
}

func (f *fixture) createUser(t *testing.T, email string, role access.Role) *user.User {
	t.Helper()
	u := &user.User{Name: email, Email: email, PasswordHash: "x", Roles: []access.Role{role}}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) createEvent(t *testing.T, capacity int) *event.Event {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	e := &event.Event{
		Title:       "Go Meetup",
		Description: "Talks",
		StartAt:     start,
		EndAt:       start.Add(2 * time.Hour),
		Place:       "Hall",
		Capacity:    capacity,
		Price:       1999,
		CategoryID:  f.category.ID,
		CreatedBy:   f.admin.ID,
		Status:      event.StatusActive,
	}
	require.NoError(t, f.events.Create(context.Background(), e))
	return e
}

func TestRegistrationRowLockNeverOvershoots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const (
		capacity = 3
		attempts = 12
	)
	e := f.createEvent(t, capacity)

	for i := 0; i < capacity-1; i++ {
		u := f.createUser(t, fmt.Sprintf("early%d@example.com", i), access.RoleUser)
		_, err := f.regs.Register(ctx, u.ID, e.ID)
		require.NoError(t, err)
	}

	late := make([]*user.User, attempts)
	for i := range late {
		late[i] = f.createUser(t, fmt.Sprintf("late%d@example.com", i), access.RoleUser)
	}

	svc := registration.NewService(f.regs, nil, nil)
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		full      atomic.Int32
		start     = make(chan struct{})
	)
	for _, u := range late {
		wg.Add(1)
		go func(p access.Principal) {
			defer wg.Done()
			<-start
			_, err := svc.Register(ctx, p, e.ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, registration.ErrEventFull):
				full.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.Principal())
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(attempts-1), full.Load())

	d, err := f.events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, d.RegisteredCount)
}

func TestRegistrationRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, 2)
	u := f.createUser(t, "user@example.com", access.RoleUser)

	_, err := f.regs.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)
	_, err = f.regs.Register(ctx, u.ID, e.ID)
	assert.ErrorIs(t, err, registration.ErrAlreadyRegistered)

	_, err = f.regs.Register(ctx, u.ID, 999999)
	assert.ErrorIs(t, err, event.ErrEventNotFound)

	gone := f.createUser(t, "gone@example.com", access.RoleUser)
	require.NoError(t, f.users.Delete(ctx, gone.ID))
	_, err = f.regs.Register(ctx, gone.ID, e.ID)
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	mine, err := f.regs.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go Meetup", mine[0].EventTitle)
	assert.Equal(t, "Tech", mine[0].CategoryName)

	require.NoError(t, f.events.UpdateStatus(ctx, e.ID, event.StatusArchived))
	assert.ErrorIs(t, f.regs.Unregister(ctx, u.ID, e.ID), registration.ErrEventArchived)

	all, total, err := f.regs.List(ctx, page.New(1, page.AdminSize))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, all, 1)
}

func TestEventListingAndPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, 5)

	d, err := f.events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Price(1999), d.Price)
	assert.Equal(t, "Tech", d.CategoryName)
	assert.Equal(t, f.admin.Name, d.CreatorName)

	active := event.StatusActive
	weekday := e.StartAt.Weekday()
	items, total, err := f.events.List(ctx, event.Query{
		Search:  "meet",
		Status:  &active,
		Weekday: &weekday,
		Page:    page.New(1, page.PublicSize),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	_, total, err = f.events.List(ctx, event.Query{Search: "100%", Page: page.New(1, page.PublicSize)})
	require.NoError(t, err)
	assert.Zero(t, total, "wildcards in search are literal")
}

func TestCategoryDeleteBlockedByEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.createEvent(t, 5)

	assert.ErrorIs(t, f.categories.Delete(ctx, f.category.ID), category.ErrHasDependents)
	assert.ErrorIs(t, f.users.Delete(ctx, f.admin.ID), user.ErrHasEvents)

	require.NoError(t, f.events.Delete(ctx, e.ID))
	require.NoError(t, f.categories.Delete(ctx, f.category.ID))

	dup := &category.Category{Name: "tech"}
	require.NoError(t, f.categories.Create(ctx, dup))
	assert.ErrorIs(t, f.categories.Create(ctx, &category.Category{Name: "TECH"}), category.ErrNameTaken)
}

func TestUserUpdateWritesPasswordWithProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "member@example.com", access.RoleUser)

	u.Name = "Member"
	require.NoError(t, f.users.Update(ctx, u, ""))
	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Member", got.Name)
	assert.Equal(t, "x", got.PasswordHash, "empty hash keeps the stored one")

	u.Roles = []access.Role{access.RoleManager}
	require.NoError(t, f.users.Update(ctx, u, "new-hash"))
	got, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, []access.Role{access.RoleManager}, got.Roles)

	u.Email = f.admin.Email
	assert.ErrorIs(t, f.users.Update(ctx, u, "other-hash"), user.ErrEmailTaken)
	got, err = f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}
