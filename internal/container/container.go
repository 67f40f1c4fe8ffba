package container

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventhub-app/server/internal/config"
	"github.com/eventhub-app/server/internal/email"
	"github.com/eventhub-app/server/internal/models"
	"github.com/eventhub-app/server/internal/realtime"
	"github.com/eventhub-app/server/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	Cfg           *config.Config
	MongoDBClient *mongo.Client
	UserService   *services.UserService
	EventService  *services.EventService
	Hub           *realtime.Hub
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	mongoDBClient *mongo.Client,
	hub *realtime.Hub,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)
	mailer := email.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, logger)

	userService := services.NewUserService(repo, mailer, cfg.JWTSecret, cfg.JWTExpires, cfg.ClientBaseURL)
	eventService := services.NewEventService(repo, hub)

	return &Container{
		Logger:        logger,
		Cfg:           cfg,
		MongoDBClient: mongoDBClient,
		UserService:   userService,
		EventService:  eventService,
		Hub:           hub,
	}
}
