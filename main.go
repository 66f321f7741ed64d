package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aivsai/internal/config"
	"aivsai/internal/handlers"
	"aivsai/internal/middleware"
	"aivsai/internal/repositories"
	"aivsai/internal/services"
	"aivsai/pkg/cohere"
	"aivsai/pkg/rabbitmq"
)

// App is the wired service.
type App struct {
	Fiber    *fiber.App
	Accounts *services.AccountService
	Auth     *services.AuthService
	MQ       *rabbitmq.Client // nil when RABBITMQ_URL is empty

	closers []func() error
}

// Close releases the account store and the broker connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// openUserRepository opens the account store selected by the config.
func openUserRepository(cfg config.Config) (repositories.UserRepository, func() error, error) {
	if cfg.StorageDriver == config.DriverJSON {
		repo, err := repositories.NewFileUserRepository(cfg.StorageTarget)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	}

	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = cfg.StorageTarget
		}
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	repo := repositories.NewGORMUserRepository(db)
	if err := repo.Migrate(); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return repo, sqlDB.Close, nil
}

// NewApp wires repositories, services and handlers into a Fiber app.
func NewApp(cfg config.Config) (*App, error) {
	a := &App{}

	userRepo, closeRepo, err := openUserRepository(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)

	// A nil *rabbitmq.Client must not end up inside the interface.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.MQ = mqClient
		a.closers = append(a.closers, mqClient.Close)
		events = mqClient
	}

	a.Auth = services.NewAuthService(userRepo, cfg.JWTSecret)
	a.Accounts = services.NewAccountService(userRepo, events)
	chatService := services.NewChatService(cohere.NewClient(cohere.Config{
		APIKey:  cfg.CohereAPIKey,
		URL:     cfg.CohereURL,
		Model:   cfg.CohereModel,
		Timeout: cfg.ChatTimeout,
	}))

	store := session.New(session.Config{
		Expiration:     cfg.SessionExpiration,
		KeyLookup:      "cookie:arena_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})
	gateway := services.NewSessionGateway(store, a.Auth)
	requireSession := middleware.SessionRequired(gateway)

	app := fiber.New(fiber.Config{
		AppName:      "aivsai",
		UnescapePath: true,
		Immutable:    true,
	})
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
			"storage": cfg.StorageDriver,
			"events":  a.MQ != nil,
		})
	})

	handlers.NewAuthHandler(a.Accounts, gateway).RegisterRoutes(app, requireSession)
	handlers.NewChampionHandler(a.Accounts).RegisterRoutes(app, requireSession)
	handlers.NewChatHandler(chatService).RegisterRoutes(app, requireSession)

	a.Fiber = app
	return a, nil
}

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.CohereAPIKey == "" {
		log.Println("Warning: COHERE_API_KEY is not set, chat requests will fail")
	}

	a, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if a.MQ != nil {
		if err := a.MQ.ConsumeEvents(rabbitmq.LogEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	log.Printf("Starting server on port %s (storage: %s)", cfg.AppPort, cfg.StorageDriver)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := a.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if err := a.Close(); err != nil {
		log.Printf("Error closing resources: %v", err)
	}
	log.Println("Server gracefully stopped")
}
