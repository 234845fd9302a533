package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biosecret/go-tasks/auth"
	"github.com/biosecret/go-tasks/config"
	"github.com/biosecret/go-tasks/database"
	"github.com/biosecret/go-tasks/events"
	"github.com/biosecret/go-tasks/handlers"
	"github.com/biosecret/go-tasks/logging"
	"github.com/biosecret/go-tasks/middleware"
	"github.com/biosecret/go-tasks/repository"
	"github.com/biosecret/go-tasks/router"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	DB          *database.DB
	Tokens      *auth.TokenManager
	Events      events.Publisher
	Log         logrus.FieldLogger
	CORSOrigins string
	Clock       repository.Clock
}

// NewApp builds the Fiber application with middlewares and routes.
func NewApp(d Deps) *fiber.App {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.CORSOrigins == "" {
		d.CORSOrigins = "*"
	}

	h := &handlers.Handler{
		Tasks:    repository.NewTaskRepository(d.DB, d.Clock),
		Subtasks: repository.NewSubtaskRepository(d.DB, d.Clock),
		Users:    repository.NewUserRepository(d.DB, d.Clock),
		Tokens:   d.Tokens,
		Events:   d.Events,
		DB:       d.DB,
		Log:      d.Log,
	}

	app := fiber.New(fiber.Config{
		AppName:      "tasks-api",
		ErrorHandler: handlers.ErrorHandler(d.Log),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: d.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.Log))

	router.SetupRoutes(app, h, d.Tokens)
	config.AddSwaggerRoutes(app)

	return app
}

// OpenDatabase connects and migrates the configured store.
func OpenDatabase(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}
	log.WithField("dialect", db.Dialect.Name()).Info("connected to database")

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("tables created or already exist")
	return db, nil
}

// SetupAndRunApp starts the API and blocks until SIGINT/SIGTERM.
func SetupAndRunApp(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	db, err := OpenDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
		}
		log.Info("database connection closed")
	}()

	var publisher events.Publisher = events.Nop{}
	if cfg.MQTTURL != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTTURL, cfg.MQTTTopic, log)
		if err != nil {
			return err
		}
		publisher = mqttPublisher
		log.WithField("topic", cfg.MQTTTopic).Info("publishing task events over MQTT")
	}
	defer publisher.Close()

	app := NewApp(Deps{
		DB:          db,
		Tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Events:      publisher,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// Migrate creates the schema and exits.
func Migrate(cfg *config.Config) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	db, err := OpenDatabase(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	return db.Close()
}
