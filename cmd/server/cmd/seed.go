package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"eventplanner/internal/config"
	"eventplanner/internal/domain/access"
	"eventplanner/internal/domain/category"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/page"
	"eventplanner/internal/domain/user"
	"eventplanner/internal/platform/database"
	"eventplanner/internal/repository/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo accounts, categories and events",
	Long: `Create one account per role, the default categories and a few sample events.
Existing rows with the same email, name or title are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := database.NewPostgres(ctx, cfg.DB_DSN, 2)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		s := seeder{
			users:      postgres.NewUserRepo(db),
			categories: postgres.NewCategoryRepo(db),
			events:     postgres.NewEventRepo(db),
		}
		if err := s.run(ctx); err != nil {
			return err
		}
		logger.Info("database seeded")
		for _, a := range demoAccounts {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s / %s\n", a.role, a.email, a.password)
		}
		return nil
	},
}

type demoAccount struct {
	name, email, password string
	role                  access.Role
}

var demoAccounts = []demoAccount{
	{"Admin", "admin@eventplanner.com", "admin123", access.RoleAdmin},
	{"Manager", "manager@eventplanner.com", "manager123", access.RoleManager},
	{"John Doe", "user@eventplanner.com", "user1234", access.RoleUser},
}

var demoCategories = []string{"Technology", "Business", "Arts & Culture", "Sports", "Education"}

type demoEvent struct {
	title, description, place string
	startIn, length           time.Duration
	price                     float64
	category                  int
	capacity                  int
}

const day = 24 * time.Hour

var demoEvents = []demoEvent{
	{"Tech Conference", "Industry leaders and startups on two days of talks.", "Convention Center, Downtown", 30 * day, 2 * day, 299.99, 0, 500},
	{"Free Coding Workshop", "A hands-on introduction to web development for beginners.", "Community Center", 15 * day, 4 * time.Hour, 0, 0, 50},
	{"Business Networking Event", "Meet local entrepreneurs over drinks and appetizers.", "Grand Hotel Ballroom", 20 * day, 3 * time.Hour, 49.99, 1, 200},
	{"Art Gallery Opening", "Contemporary artists from around the region. Free admission.", "Modern Art Museum", 10 * day, 35 * day, 0, 2, 300},
	{"Marathon Run", "Annual city marathon with several race categories.", "City Park", 60 * day, 6 * time.Hour, 75, 3, 1000},
}

type seeder struct {
	users      user.Repository
	categories category.Repository
	events     event.Repository
}

func (s seeder) run(ctx context.Context) error {
	var admin *user.User
	for _, a := range demoAccounts {
		u, err := s.account(ctx, a)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", a.email, err)
		}
		if a.role == access.RoleAdmin {
			admin = u
		}
	}

	categoryIDs := make([]int64, len(demoCategories))
	for i, name := range demoCategories {
		id, err := s.category(ctx, name)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		categoryIDs[i] = id
	}

	now := time.Now().UTC().Truncate(time.Hour)
	for _, d := range demoEvents {
		existing, _, err := s.events.List(ctx, event.Query{Search: d.title, Page: page.New(1, 1)})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		price := event.PriceFromFloat(d.price)
		e := &event.Event{
			Title:       d.title,
			Description: d.description,
			StartAt:     now.Add(d.startIn),
			EndAt:       now.Add(d.startIn + d.length),
			Place:       d.place,
			Capacity:    d.capacity,
			Price:       price,
			IsFree:      price == 0,
			CategoryID:  categoryIDs[d.category],
			CreatedBy:   admin.ID,
			Status:      event.StatusActive,
		}
		if err := s.events.Create(ctx, e); err != nil {
			return fmt.Errorf("seed event %s: %w", d.title, err)
		}
	}
	return nil
}

func (s seeder) account(ctx context.Context, a demoAccount) (*user.User, error) {
	u, err := s.users.GetByEmail(ctx, a.email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u = &user.User{
		Name:         a.name,
		Email:        a.email,
		PasswordHash: string(hash),
		Roles:        []access.Role{a.role},
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s seeder) category(ctx context.Context, name string) (int64, error) {
	all, err := s.categories.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range all {
		if c.Name == name {
			return c.ID, nil
		}
	}
	c := &category.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return 0, err
	}
	return c.ID, nil
}
