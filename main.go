package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rtchat/server/internal/chat"
	"rtchat/server/internal/config"
	"rtchat/server/internal/database"
	"rtchat/server/internal/handlers"
	"rtchat/server/internal/logging"
	"rtchat/server/internal/media"
	"rtchat/server/internal/metrics"
	"rtchat/server/internal/routes"
	"rtchat/server/internal/store"
	"rtchat/server/internal/utils"
	ws "rtchat/server/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found")
	}

	configPath := flag.String("config", "", "Path to YAML/JSON config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // best-effort flush

	utils.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected")

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	st := store.NewPostgres(pool)
	hub := ws.NewHub(logger, m)
	svc := chat.NewService(st, media.NewFileStore(cfg.UploadDir), hub, logger)
	router := ws.NewRouter(svc, logger, m)
	if err := router.Validate(); err != nil {
		logger.Fatal("router validation", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName: "rtchat API v1.0",
	})
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, routes.Deps{
		Auth:      &handlers.AuthHandler{Store: st, Log: logger},
		WS:        &handlers.WebSocketHandler{Hub: hub, Router: router, Log: logger},
		UploadDir: cfg.UploadDir,
	})

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			logger.Info("metrics listener started", zap.String("address", cfg.MetricsAddress))
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", cfg.ListenAddress))
		errCh <- app.Listen(cfg.ListenAddress)
	}()

	select {
	case err := <-errCh:
		logger.Fatal("server exited", zap.Error(err))
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
}
