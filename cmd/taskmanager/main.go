package main

import (
	"context"
	"errors"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/sirupsen/logrus"

	"task-manager/internal/api"
	"task-manager/internal/config"
	"task-manager/internal/logger"
	"task-manager/internal/notify"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

func main() {
	log := logger.New("task-manager", os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	log = logger.New("task-manager", cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("db handle")
	}

	taskRepo := repository.NewTaskRepository(db)
	taskSvc := service.NewTaskService(taskRepo)
	digestSvc := service.NewDigestService(taskSvc)

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("notifier")
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	sendDigest := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		text, err := digestSvc.Summary(jobCtx, time.Now())
		if err != nil {
			log.WithError(err).Error("build digest")
			return
		}
		if err := notifier.Notify(jobCtx, text); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("send digest")
		}
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, sendDigest); err != nil {
			log.WithError(err).Fatal("schedule daily digest")
		}
	}
	if cfg.DigestInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.DigestInterval, sendDigest); err != nil {
			log.WithError(err).Fatal("schedule digest interval")
		}
	}
	if scheduler.Jobs() > 0 {
		scheduler.Start()
		log.WithField("jobs", scheduler.Jobs()).Info("digest scheduler started")
	}

	server := api.New(taskSvc, log, api.Options{
		AllowedOrigins: cfg.CORSOrigins,
		Development:    cfg.Development(),
	})
	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("http server")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("task manager started")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// Requests and jobs drain before the store closes.
			"app": func(ctx context.Context) error {
				httpErr := server.Shutdown(ctx)
				scheduler.Stop()
				return errors.Join(httpErr, sqlDB.Close())
			},
		},
	)

	exitCode := <-wait
	log.WithField("exit_code", exitCode).Info("shutdown complete")
	os.Exit(exitCode)
}

func newNotifier(cfg config.Config, log *logrus.Logger) (notify.Notifier, error) {
	if !cfg.TelegramEnabled() {
		log.Info("telegram not configured, digests go to the log")
		return notify.NewLog(log), nil
	}
	return notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
}
