package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/docs"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/config"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/converter"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/database"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/deploy"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/handlers"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/middleware"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/services"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/supabase"
)

const shutdownTimeout = 15 * time.Second

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "oracle-migrate",
		Short:        "Sybase to Oracle migration API",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
	return rootCmd
}

// setup loads configuration and builds the logger every command needs.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:         cfg.Database.Driver,
		URL:            cfg.Database.URL,
		MaxConnections: cfg.Database.MaxConnections,
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return database.RunMigrations(databaseConfig(cfg), logger)
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			mg, err := database.NewMigrator(databaseConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer mg.Close()
			return mg.Down(steps)
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, !skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	dbCfg := databaseConfig(cfg)
	if migrate {
		if err := database.RunMigrations(dbCfg, logger); err != nil {
			return err
		}
	}

	db, err := database.Open(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	conv, err := converter.New(cfg.Converter, logger)
	if err != nil {
		return err
	}

	opts := services.Options{ConversionTimeout: cfg.Converter.Timeout}

	target, err := deploy.Open(ctx, cfg.Deploy, logger)
	if err != nil {
		return err
	}
	if target != nil {
		defer target.Close()
		opts.Deployer = target
	} else {
		logger.Info("No deployment target configured; deploy requests will be rejected")
	}

	if cfg.Supabase.Enabled() {
		client, err := supabase.NewClient(cfg.Supabase)
		if err != nil {
			return fmt.Errorf("failed to initialize Supabase client: %w", err)
		}
		opts.Events = supabase.NewEventPublisher(client, logger)
		opts.Archiver = supabase.NewStorageClient(cfg.Supabase.URL, cfg.Supabase.PublishableKey, cfg.Supabase.StorageBucket)
	} else {
		logger.Info("Supabase URL or key not set; lifecycle events and export archiving are disabled")
	}

	controller := services.NewController(db, conv, logger, opts)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// Swagger documentation
	setSwaggerHost(cfg.BaseURL)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.Supabase.JWTSecret))
	handlers.RegisterRoutes(api, controller, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("converter", conv.Name()),
			zap.String("database", dbCfg.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// setSwaggerHost points the served API document at the public base URL.
func setSwaggerHost(baseURL string) {
	if baseURL == "" {
		return
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}
