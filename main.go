package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinic-server/internal/config"
	"clinic-server/internal/models"
	"clinic-server/internal/notify"
	"clinic-server/internal/queue"
	"clinic-server/internal/realtime"
	"clinic-server/internal/routes"
	"clinic-server/internal/scheduling"
	"clinic-server/internal/storage"
	"clinic-server/internal/sweep"
)

func main() {
	// Load environment variables; a missing .env is fine in production.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Stores
	appointments := storage.NewAppointments(db)
	queueEntries := storage.NewQueues(db)
	schedules := storage.NewSchedules(db)
	notifications := storage.NewNotifications(db)

	// Services
	hub := realtime.NewHub(logger)
	notifier := notify.NewService(notifications, hub, logger)
	queueEngine := queue.NewEngine(queueEntries, appointments, hub, notifier, logger, cfg.ConsultMinutes)
	schedulingService := scheduling.NewService(appointments, queueEngine, hub, notifier, logger, cfg.MissedGraceMinutes)
	calendar := scheduling.NewCalendar(schedules)
	slots := scheduling.NewSlotCalculator(calendar, appointments, cfg.SlotMinutes, cfg.MinAdvanceHours)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{
		DB:            db,
		Cfg:           cfg,
		Scheduling:    schedulingService,
		Slots:         slots,
		Calendar:      calendar,
		Queue:         queueEngine,
		Notifications: notifier,
		Hub:           hub,
	})

	// Background missed-visit sweep
	if cfg.SweepEnabled {
		runner := sweep.NewRunner(schedulingService, logger,
			time.Duration(cfg.SweepIntervalMin)*time.Minute)
		go runner.Start(context.Background())
	}

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server starting", "port", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
