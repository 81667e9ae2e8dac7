package main

import (
	"github.com/ecopanier/backend/internal/config"
	"github.com/ecopanier/backend/internal/handlers"
	"github.com/ecopanier/backend/internal/models"
	"github.com/ecopanier/backend/internal/services"
	"github.com/ecopanier/backend/internal/utils"
	"github.com/ecopanier/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	settingsCache      *services.SettingsCache
	taskQueue          services.TaskQueue
	worker             *services.Worker
	scheduler          *services.Scheduler
	quotaService       *services.ReservationQuotaService
	authHandler        *handlers.AuthHandler
	settingsHandler    *handlers.SettingsHandler
	pricingHandler     *handlers.PricingHandler
	reservationHandler *handlers.ReservationHandler
	systemLogHandler   *handlers.SystemLogHandler
	healthHandler      *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Initialize system logger
	services.InitSystemLogger(db)

	// Settings: seed defaults, then prime the process-wide cache
	settingsService := services.NewSettingsService(db)
	if err := settingsService.SeedDefaults(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default settings")
	}

	settingsCache := services.NewSettingsCache(settingsService)
	if err := settingsCache.Refresh(); err != nil {
		logger.Warn().Err(err).Msg("Settings load failed, running on defaults")
	}

	// Reservation quotas and maintenance scheduler
	counter := services.NewReservationCounter()
	quotaService := services.NewReservationQuotaService(db, counter, settingsCache)

	systemLogService := services.NewSystemLogService(db)
	scheduler := services.NewScheduler(counter, systemLogService)
	scheduler.Start()

	// Notification pipeline: settings changes go through the task queue to
	// the email service
	emailService := services.NewEmailService(cfg.SMTP, settingsCache)
	notifier := services.NewSettingsNotifier(emailService)

	taskQueue := services.NewTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notifier.ProcessSettingsChangedTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notifier.ProcessSettingsChangedTask)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start async worker, settings notifications will not be delivered")
				worker = nil
			}
		}
	}

	// Create default admin user
	authHandler := handlers.NewAuthHandler(db, cfg, settingsCache)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		settingsCache:      settingsCache,
		taskQueue:          taskQueue,
		worker:             worker,
		scheduler:          scheduler,
		quotaService:       quotaService,
		authHandler:        authHandler,
		settingsHandler:    handlers.NewSettingsHandler(db, settingsCache, taskQueue),
		pricingHandler:     handlers.NewPricingHandler(settingsCache),
		reservationHandler: handlers.NewReservationHandler(quotaService),
		systemLogHandler:   handlers.NewSystemLogHandler(db),
		healthHandler:      handlers.NewHealthHandler(settingsCache, taskQueue),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("Scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
