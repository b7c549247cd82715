package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatherly/community-service/internal/api"
	"github.com/gatherly/community-service/internal/core/domain"
	"github.com/gatherly/community-service/internal/core/ports"
	"github.com/gatherly/community-service/internal/core/service"
	"github.com/gatherly/community-service/internal/infrastructure/bus"
	"github.com/gatherly/community-service/internal/infrastructure/config"
	mongodb "github.com/gatherly/community-service/internal/infrastructure/db/mongo"
	redisdb "github.com/gatherly/community-service/internal/infrastructure/db/redis"
	"github.com/gatherly/community-service/pkg/logger"
)

// defaultInterests seeds the interest catalogue on a fresh database. Seeding
// is an upsert, so restarts never duplicate entries.
var defaultInterests = []domain.Interest{
	{ID: "sports", Name: "Sports", Category: "outdoors"},
	{ID: "hiking", Name: "Hiking", Category: "outdoors"},
	{ID: "board-games", Name: "Board Games", Category: "indoors"},
	{ID: "music", Name: "Music", Category: "culture"},
	{ID: "food", Name: "Food & Drink", Category: "culture"},
	{ID: "tech", Name: "Technology", Category: "learning"},
	{ID: "languages", Name: "Languages", Category: "learning"},
}

// @title           Community Events Service API
// @version         1.0
// @description     Event directory, membership and report moderation API.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "community-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	eventRepo := mongodb.NewEventRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	reportRepo := mongodb.NewReportRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	interestRepo := mongodb.NewInterestRepository(db)

	if err := eventRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("event indexes failed")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes failed")
	}
	if err := reportRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("report indexes failed")
	}
	if err := interestRepo.Seed(ctx, defaultInterests); err != nil {
		log.Fatal().Err(err).Msg("interest seed failed")
	}

	bootstrapAdmin(ctx, userRepo, cfg.AdminEmail, log)

	// --- Notification bus ---
	dispatcher := bus.NewDispatcher(cfg.BusWorkers, log)
	subscribeNotificationLog(dispatcher, log)
	dispatcher.Start(ctx)

	// --- Services ---
	authz := service.NewAuthzService(userRepo, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, 24*time.Hour)
	directory := service.NewDirectoryService(eventRepo, userRepo, interestRepo, auditRepo, authz, dispatcher, log)
	membership := service.NewMembershipService(eventRepo, dispatcher, log)
	guard := redisdb.NewResolutionGuard(rdb)
	moderation := service.NewModerationService(reportRepo, eventRepo, auditRepo, authz, guard, dispatcher, log)

	e := api.NewRouter(api.RouterDeps{
		JWTSecret:  cfg.JWTSecret,
		Directory:  directory,
		Membership: membership,
		Moderation: moderation,
		Auth:       authService,
		Authz:      authz,
		Audit:      auditRepo,
		DB:         db,
		Redis:      rdb,
		Logger:     log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// bootstrapAdmin promotes the configured email to admin so a fresh deployment
// has at least one account able to manage roles.
func bootstrapAdmin(ctx context.Context, users ports.UserRepository, email string, log zerolog.Logger) {
	if email == "" {
		return
	}

	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("admin bootstrap: user not found yet")
		return
	}
	if user.Role == domain.RoleAdmin {
		return
	}

	user.Role = domain.RoleAdmin
	user.UpdatedAt = time.Now().UTC()
	if err := users.Update(ctx, user); err != nil {
		log.Error().Err(err).Str("email", email).Msg("admin bootstrap: promotion failed")
		return
	}
	log.Info().Str("email", email).Msg("admin bootstrap: user promoted")
}

// subscribeNotificationLog attaches a structured-log consumer to every topic.
// Push delivery to external channels hangs off the same subscriptions.
func subscribeNotificationLog(d *bus.Dispatcher, log zerolog.Logger) {
	topics := []ports.NotificationTopic{
		ports.TopicReportFiled,
		ports.TopicReportResolved,
		ports.TopicEventBlocked,
		ports.TopicMemberJoined,
		ports.TopicMemberLeft,
	}
	for _, topic := range topics {
		d.Subscribe(topic, func(_ context.Context, n ports.Notification) {
			log.Info().
				Str("topic", string(n.Topic)).
				Str("event_id", n.EventID).
				Str("user_id", n.UserID).
				Msg("notification")
		})
	}
}
