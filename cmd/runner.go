package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/veqro/cueup/internal/auth"
	"github.com/veqro/cueup/internal/repositories"
	"github.com/veqro/cueup/internal/server"
	"github.com/veqro/cueup/internal/services"
	"github.com/veqro/cueup/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, migrateCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file named by the --config flag.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	configPath := cmd.String("config")

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}

	return config, nil
}

// openDatabase opens and configures the sqlite database from the config.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	return db, nil
}

// Serve assembles every component and runs the HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	spotify, err := services.NewSpotifyService(map[string]string{
		"client_id":     config.Credentials.Spotify.ClientID,
		"client_secret": config.Credentials.Spotify.ClientSecret,
		"redirect_uri":  config.Credentials.Spotify.RedirectURI,
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify service: %w", err)
	}

	sessionTTL := time.Duration(config.Security.SessionTTLHours) * time.Hour
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}

	ratePerSec := config.Security.RateLimitPerSec
	rateBurst := config.Security.RateLimitBurst
	if ratePerSec <= 0 {
		ratePerSec = 20
	}
	if rateBurst <= 0 {
		rateBurst = 40
	}

	cipher := auth.NewTokenCipher(config.Security.TokenPassphrase)
	cache := auth.NewTokenCache()
	states := auth.NewStateStore()
	sessions := auth.NewSessionStore(sessionTTL)
	broker := auth.NewBroker(cipher, cache, spotify, r.logger)

	serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache.StartSweeping(serveCtx, time.Minute)
	sessions.StartSweeping(serveCtx, 10*time.Minute)

	handlers := server.NewHandlers(server.HandlerOpts{
		Logger:   r.logger,
		Config:   config,
		Users:    repositories.NewUserRepository(db),
		Events:   repositories.NewEventRepository(db),
		Wishes:   repositories.NewWishRepository(db),
		Spotify:  spotify,
		Broker:   broker,
		Cipher:   cipher,
		Cache:    cache,
		Sessions: sessions,
		States:   states,
	})

	router := server.NewBasicRouter()
	router.Use(
		server.Recover(r.logger),
		server.RequestLogger(r.logger),
		server.CORS(config.CORS.AllowedOrigins),
		server.RateLimit(ratePerSec, rateBurst),
		server.ResolveSession(sessions),
	)
	handlers.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-serveCtx.Done():
	}

	r.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupConfig writes a fresh config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	outputPath := cmd.String("output")

	if err := shared.CreateConfigFile(outputPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", outputPath)
	fmt.Fprintf(r.output, "Edit %s and fill in your Spotify credentials before running serve.\n", outputPath)
	return nil
}

// SetupAdminPassword prints the bcrypt hash for an admin password.
//
// The hash goes into security.admin_password_hash in the config file.
func (r *Runner) SetupAdminPassword(ctx context.Context, cmd *cli.Command) error {
	password := cmd.StringArg("password")
	if password == "" {
		return fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Fprintf(r.output, "%s\n", hash)
	return nil
}

// MigrateUp applies all pending migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("migrations applied")
	return nil
}

// MigrateRollback rolls back the most recent migration.
func (r *Runner) MigrateRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	r.logger.Info("migration rolled back")
	return nil
}
