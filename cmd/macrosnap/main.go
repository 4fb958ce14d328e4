package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/macrosnap/macrosnap/internal/api"
	"github.com/macrosnap/macrosnap/internal/config"
	"github.com/macrosnap/macrosnap/internal/db"
	"github.com/macrosnap/macrosnap/internal/imagestore"
	"github.com/macrosnap/macrosnap/internal/nutrition"
	"github.com/macrosnap/macrosnap/internal/services"
	"github.com/macrosnap/macrosnap/internal/vision"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config init failed: %v", err)
	}

	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	repos := db.NewRepositories(database)

	images, err := imagestore.New(cfg.ImageDir)
	if err != nil {
		log.Fatalf("image store init failed: %v", err)
	}

	visionClient := vision.NewClient(cfg.VisionAPIKey, cfg.VisionModel, cfg.VisionWait, slogger)

	store := services.NewMealStore(repos.Meals)
	mealService := services.NewMealService(visionClient, nutrition.Parser{}, images, store, slogger)
	session, err := services.NewMealSession(mealService, store, nil)
	if err != nil {
		log.Fatalf("session init failed: %v", err)
	}
	defer session.Close()

	authService := services.NewAuthService(repos.Users)
	handler := api.NewHandler(authService, session, store, cfg.SecretKey, cfg.CookieSecure)

	app := fiber.New(fiber.Config{
		AppName:               "MacroSnap",
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	handler.RegisterRoutes(app)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("MacroSnap listening on http://0.0.0.0:%s (db: %s, images: %s)", cfg.Port, cfg.DBPath, cfg.ImageDir)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
