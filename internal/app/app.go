package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/mtm-tools/mtm-server/internal/codegen"
	"github.com/mtm-tools/mtm-server/internal/config"
	"github.com/mtm-tools/mtm-server/internal/repository/companies"
	"github.com/mtm-tools/mtm-server/internal/repository/links"
	"github.com/mtm-tools/mtm-server/internal/repository/mails"
	"github.com/mtm-tools/mtm-server/internal/repository/users"
	"github.com/mtm-tools/mtm-server/internal/resolver"
	"github.com/mtm-tools/mtm-server/internal/server"
	"github.com/mtm-tools/mtm-server/internal/session"
	"github.com/mtm-tools/mtm-server/migrations"
)

// App holds the application dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DBPool *pgxpool.Pool
	Redis  *redis.Client
	Server *server.Server
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application", "env", cfg.App.Environment)

	if err := runMigrations(ctx, cfg, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbPool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("redis connection established", "addr", cfg.Redis.Addr)

	// Setup application dependencies
	sessionManager := session.NewManager(session.ManagerConfig{
		Store:      session.NewRedisStore(redisClient),
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.App.Production(),
	})

	generator := codegen.New(cfg.Codegen.Salt, cfg.Codegen.DefaultLength)

	usersRepo := users.NewPostgresRepository(dbPool)
	linksRepo := links.NewPostgresRepository(dbPool)
	companiesRepo := companies.NewPostgresRepository(dbPool)
	mailsRepo := mails.NewPostgresRepository(dbPool)

	gate := resolver.NewSessions(sessionManager.Store(), usersRepo)

	query := server.NewQueryHandler(server.QueryHandlerConfig{
		Users:     resolver.NewUserResolver(gate, usersRepo, logger),
		Links:     resolver.NewLinkResolver(gate, linksRepo, logger),
		Companies: resolver.NewCompanyResolver(gate, companiesRepo, generator, logger),
		Mails:     resolver.NewMailResolver(gate, mailsRepo, generator, logger),
		Sessions:  sessionManager,
		Logger:    logger,
	})

	srv := server.New(cfg, logger, query, sessionManager)

	logger.Info("application initialized", "port", cfg.Server.Port)

	return &App{
		Config: cfg,
		Logger: logger,
		DBPool: dbPool,
		Redis:  redisClient,
		Server: srv,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting", "port", a.Config.Server.Port)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis client", "error", err)
		} else {
			a.Logger.Info("redis connection closed")
		}
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// runMigrations applies the embedded goose migrations through a short-lived
// database/sql connection; the pool is opened afterwards.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
