package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillm/dashboard-bot/internal/config"
	"github.com/kirillm/dashboard-bot/internal/dispatcher"
	"github.com/kirillm/dashboard-bot/internal/journal"
	"github.com/kirillm/dashboard-bot/internal/poller"
	"github.com/kirillm/dashboard-bot/internal/service"
	"github.com/kirillm/dashboard-bot/internal/state"
	"github.com/kirillm/dashboard-bot/internal/storage"
	"github.com/kirillm/dashboard-bot/internal/telegram"
	"github.com/kirillm/dashboard-bot/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("🚀 Запуск Trading Dashboard")

	client := service.NewClient(cfg.Service.BaseURL, cfg.Service.RequestTimeout)
	store := state.NewStore()

	scheduler := poller.NewScheduler(store, logger, cfg.Service.RequestsPerSecond, cfg.Service.RequestTimeout)
	poller.RegisterDomains(scheduler, client, cfg.Service, cfg.Polling)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Журнал необязателен: без него дашборд работает в полном объёме
	var recorder dispatcher.ActionRecorder
	var history telegram.HistoryReader
	if cfg.Journal.Enabled {
		db, err := storage.NewPostgresStorage(
			cfg.Database.Host, cfg.Database.Port,
			cfg.Database.User, cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode,
			cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		j := journal.New(store, db, logger)
		recorder = j
		history = db
		go j.Run(ctx)
	}

	dsp := dispatcher.New(client, store, scheduler, recorder, logger)

	bot, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger, store, dsp, history)
	if err != nil {
		log.Fatalf("Failed to create telegram bot: %v", err)
	}

	scheduler.Start(ctx)
	go bot.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("🛑 Получен сигнал остановки, завершение работы...")
	bot.Stop()
	scheduler.Stop()
	cancel()
	logger.Info("Завершено")
}
