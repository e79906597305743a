package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weatherwave/internal/api/http"
	"github.com/i474232898/weatherwave/internal/config"
	"github.com/i474232898/weatherwave/internal/logger"
	"github.com/i474232898/weatherwave/internal/render"
	"github.com/i474232898/weatherwave/internal/scheduler"
	"github.com/i474232898/weatherwave/internal/session"
	"github.com/i474232898/weatherwave/internal/telegram"
	"github.com/i474232898/weatherwave/internal/weather"
	"github.com/i474232898/weatherwave/internal/weather/providers"
)

func main() {
	query := flag.String("q", "", "look up a single location, print its card and exit")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := providers.NewWeatherAPIClient(httpClient, cfg.WeatherBaseURL)

	newController := func() *weather.Controller {
		return weather.NewController(client, cfg.WeatherAPIKey, zl)
	}

	if *query != "" {
		code := runOnce(newController, *query)
		zl.Sync()
		os.Exit(code)
	}

	// HTTP clients and Telegram chats never share sessions.
	sessions := session.NewRegistry(newController, cfg.SessionMaxIdle, cfg.SessionMax, zl)
	defer sessions.Close()
	chats := session.NewRegistry(newController, cfg.SessionMaxIdle, cfg.SessionMax, zl)
	defer chats.Close()

	// Scheduler that periodically evicts idle sessions.
	sched := scheduler.New(cfg.SessionSweepInterval, zl, sessions, chats)
	if err := sched.Start(); err != nil {
		zl.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramBotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			zl.Fatal("failed to connect telegram bot", zap.Error(err))
		}
		bot := telegram.NewBot(api, chats, zl)
		go func() {
			if err := bot.Start(ctx); err != nil {
				zl.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weatherwave",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weatherwave",
			"sessions": sessions.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, sessions, newController)

	go func() {
		zl.Info("http server listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Closing sessions ends open event streams so shutdown does not wait on them.
	sessions.Close()
	chats.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during shutdown", zap.Error(err))
	}
}

// runOnce resolves a single query and prints what a front end would show.
func runOnce(newController session.Factory, location string) int {
	ctrl := newController()
	defer ctrl.Close()

	states, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()
	ctrl.SubmitQuery(location)

	state, err := weather.Await(context.Background(), states)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	text, err := render.Text(state)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if s, ok := state.(weather.Success); ok {
		text += "\n" + s.Result.IconURL()
	}
	fmt.Println(text)

	if _, ok := state.(weather.Error); ok {
		return 1
	}
	return 0
}
