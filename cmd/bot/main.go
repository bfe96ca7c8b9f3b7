package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	"abitbot/core/config"
	"abitbot/core/database"
	"abitbot/core/logger"
	"abitbot/core/redisconn"
	"abitbot/internal/advisor"
	"abitbot/internal/bot"
	"abitbot/internal/catalog"
	"abitbot/internal/fsm"
	"abitbot/internal/scraper"
	"abitbot/internal/session"
	"abitbot/internal/specifics"
	"log/slog"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}

	redisClient, err := redisconn.Connect(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	programs := catalog.NewRepository(db)
	notes := specifics.NewRepository(db)
	sessions := session.NewRedisStore(redisClient)
	adv := advisor.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Scraper.Enabled {
		s := scraper.New(programs, scraper.NewRepository(db), nil, cfg.Scraper.Schedule)
		if err := s.Start(ctx); err != nil {
			return err
		}
		defer s.Stop()
	}

	logger.App.Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = bot.Run(ctx, bot.Options{
		Config: cfg,
		NewEngine: func(b *tele.Bot) bot.Engine {
			return fsm.NewEngine(sessions, programs, notes, adv, bot.NewMessenger(b))
		},
	})

	logger.App.Info("shutting down...", slog.String("event", "shutdown"))
	return err
}
