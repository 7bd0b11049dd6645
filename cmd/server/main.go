package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ntokareva/groupbuy-backend/internal/config"
	"github.com/ntokareva/groupbuy-backend/internal/db"
	"github.com/ntokareva/groupbuy-backend/internal/goroutine"
	httpHandlers "github.com/ntokareva/groupbuy-backend/internal/http/handlers"
	httpRouter "github.com/ntokareva/groupbuy-backend/internal/http/router"
	"github.com/ntokareva/groupbuy-backend/internal/logger"
	"github.com/ntokareva/groupbuy-backend/internal/push"
	"github.com/ntokareva/groupbuy-backend/internal/repository"
	"github.com/ntokareva/groupbuy-backend/internal/service"
	"github.com/ntokareva/groupbuy-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	cartRepo := repository.NewCartRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	pushRepo := repository.NewPushRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Push-провайдер подключается только при заданном PUSH_API_URL.
	var pushSender push.Sender
	if cfg.PushAPIURL != "" {
		pushSender = push.NewHTTPSender(cfg.PushAPIURL, cfg.PushAPIKey)
	}

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo, pushRepo, hub, pushSender)
	earningsService := service.NewEarningsService(orderRepo, userRepo)
	progressService := service.NewProgressService(cartRepo, orderRepo, notificationService, earningsService)
	cartService := service.NewCartService(cartRepo, orderRepo, notificationService)
	sweeperService := service.NewSweeperService(cartRepo, cfg.SweepInterval)

	goroutine.SafeGoWithContext(ctx, sweeperService.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	cartHandler := httpHandlers.NewCartHandler(cartService)
	progressHandler := httpHandlers.NewProgressHandler(progressService, earningsService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	pushHandler := httpHandlers.NewPushHandler(pushRepo)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, cartHandler, progressHandler, notificationHandler, pushHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
