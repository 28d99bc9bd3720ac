package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/database"
	"github.com/segyhp/amortization-engine/internal/logger"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/scheduler"
	"github.com/segyhp/amortization-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New(config.LoggingConfig{}).WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New(cfg.Logging)
	log.Info("starting schedule scheduler")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// The jobs only read, the schedule cache is not needed
	scheduleService := service.NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewPaymentRepository(db),
		nil,
		cfg,
		log,
	)

	c := scheduler.New(cfg.GetSchedulerLocation())
	jobs := scheduler.NewJobs(scheduleService, log, cfg.Scheduler.ReminderWindowDays)
	if err := jobs.Register(c, cfg.Scheduler); err != nil {
		log.WithError(err).Fatal("failed to schedule jobs")
	}

	c.Start()
	log.WithFields(logrus.Fields{
		"overdue_cron":  cfg.Scheduler.OverdueCron,
		"reminder_cron": cfg.Scheduler.ReminderCron,
		"timezone":      cfg.Scheduler.Timezone,
	}).Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}
