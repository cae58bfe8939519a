package cli

import (
	"context"

	"github.com/vytor/studyhall/internal/config"
	"github.com/vytor/studyhall/internal/db"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/repository/sqlite"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/srs"
)

// App holds the opened database and the services built on it for one
// command invocation.
type App struct {
	Config        config.Config
	DB            *db.DB
	Users         services.UserService
	Decks         services.DeckService
	Imports       services.ImportService
	Reviews       services.ReviewService
	Sessions      services.SessionService
	Notifications services.NotificationService
	Messages      services.MessageService
	Progress      repository.ProgressRepository
}

// NewApp opens the database at cfg.DBPath and wires repositories into services.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	userRepo := sqlite.NewUserRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	cardRepo := sqlite.NewFlashcardRepository(database.DB)
	progressRepo := sqlite.NewProgressRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	notificationRepo := sqlite.NewNotificationRepository(database.DB)
	messageRepo := sqlite.NewMessageRepository(database.DB)

	scheduler := srs.NewScheduler(srs.WithMaxInterval(cfg.MaxIntervalDays))
	notifications := services.NewNotificationService(notificationRepo, cfg.ReminderCooldown)

	return &App{
		Config:        cfg,
		DB:            database,
		Users:         services.NewUserService(userRepo),
		Decks:         services.NewDeckService(deckRepo, cardRepo, sessionRepo),
		Imports:       services.NewImportService(deckRepo, cardRepo),
		Reviews:       services.NewReviewService(progressRepo, cardRepo, deckRepo, scheduler),
		Sessions:      services.NewSessionService(sessionRepo, userRepo, notifications),
		Notifications: notifications,
		Messages:      services.NewMessageService(messageRepo, sessionRepo, notifications),
		Progress:      progressRepo,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
