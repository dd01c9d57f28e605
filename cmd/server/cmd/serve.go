package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eventplanner/internal/config"
	"eventplanner/internal/domain/category"
	"eventplanner/internal/domain/event"
	"eventplanner/internal/domain/registration"
	"eventplanner/internal/domain/user"
	api "eventplanner/internal/http"
	"eventplanner/internal/metrics"
	"eventplanner/internal/platform/database"
	jwtpkg "eventplanner/internal/platform/jwt"
	"eventplanner/internal/platform/storage"
	"eventplanner/internal/repository/postgres"
	"eventplanner/internal/worker"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and the registration activity worker.

Configuration comes from the environment (and a .env file when present).
Pending migrations are applied first unless AUTO_MIGRATE=false.
SIGINT or SIGTERM drains in-flight requests and stops the worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "listen port (default: APP_PORT or 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	api.SetLogger(logger)
	metrics.Register()
	logger.Info("starting event planner", "version", Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.DB_DSN, cfg.DBMaxOpenConns)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := postgres.MigrateUp(cfg.DB_DSN); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	blobs, err := storage.NewLocal(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	activity := make(chan registration.Activity, 100)
	activityWorker := worker.NewActivityWorker(activity, logger)

	router := api.NewRouter(api.Deps{
		Users:              user.NewService(postgres.NewUserRepo(db), blobs, user.WithLogger(logger)),
		Events:             event.NewService(postgres.NewEventRepo(db), blobs, logger),
		Categories:         category.NewService(postgres.NewCategoryRepo(db)),
		Registrations:      registration.NewService(postgres.NewRegistrationRepo(db), activity, logger),
		JWT:                jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
		DB:                 db,
		Uploads:            blobs.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RegisterPerMinute:  cfg.RegisterPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		activityWorker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
