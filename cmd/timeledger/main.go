package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"time-ledger/internal/bot"
	"time-ledger/internal/config"
	"time-ledger/internal/repository"
	"time-ledger/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	categorySvc := service.NewCategoryService(categoryRepo)
	activitySvc := service.NewActivityService(activityRepo, categorySvc)
	insightSvc := service.NewInsightService(activitySvc, categorySvc)
	summarySvc := service.NewSummaryService(activitySvc, categorySvc)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, categorySvc, activitySvc, insightSvc, summarySvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule reports: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Time ledger bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
