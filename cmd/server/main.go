// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/adosevents/notify-backend/internal/config"
	"github.com/adosevents/notify-backend/internal/controller"
	"github.com/adosevents/notify-backend/internal/db"
	"github.com/adosevents/notify-backend/internal/discord"
	"github.com/adosevents/notify-backend/internal/logger"
	"github.com/adosevents/notify-backend/internal/queue"
	"github.com/adosevents/notify-backend/internal/repository"
	"github.com/adosevents/notify-backend/internal/scheduler"
	"github.com/adosevents/notify-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	appLog := logger.New(cfg)
	appLog.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	conn, err := db.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer conn.Close()
	appLog.Info("Database connection established")

	eventRepo := &repository.EventRepository{DB: conn}
	attendanceRepo := &repository.AttendanceRepository{DB: conn}

	discordClient := discord.NewAPIClient(cfg.DiscordBotToken, cfg.DiscordAPIBaseURL, appLog)
	if cfg.DiscordBotToken == "" {
		appLog.Warn("DISCORD_BOT_TOKEN not set; dispatch will skip all Discord calls")
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := queue.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			appLog.Fatalf("FATAL: Could not connect to AMQP broker: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		appLog.Info("AMQP outcome publisher connected")
	}

	dispatchService := &service.DispatchService{
		EventRepo:      eventRepo,
		AttendanceRepo: attendanceRepo,
		Discord:        discordClient,
		Publisher:      publisher,
		Log:            appLog,
		SendDelay:      cfg.SendDelay,
	}

	notificationController := &controller.NotificationController{
		DispatchService: dispatchService,
		Log:             appLog,
	}

	if cfg.SchedulerEnabled() {
		reminderScheduler := scheduler.New(dispatchService, appLog, cfg.ReminderCronSpec, cfg.ReminderEventSlug)
		if err := reminderScheduler.Start(); err != nil {
			appLog.Fatalf("FATAL: Could not start reminder scheduler: %v", err)
		}
		defer reminderScheduler.Stop()
	}

	r := chi.NewRouter()
	r.Get("/healthz", notificationController.Healthz)
	r.Post("/notifications/{kind}", notificationController.SendNotification)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		appLog.Infof("Server running on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalf("FATAL: Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down...")
	if err := srv.Close(); err != nil {
		appLog.Errorf("Error closing server: %v", err)
	}
}
