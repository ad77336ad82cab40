package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shenikar/feuerwehr_melder/internal/activation"
	"github.com/shenikar/feuerwehr_melder/internal/broadcast"
	"github.com/shenikar/feuerwehr_melder/internal/config"
	"github.com/shenikar/feuerwehr_melder/internal/events"
	"github.com/shenikar/feuerwehr_melder/internal/geocoding"
	v1 "github.com/shenikar/feuerwehr_melder/internal/handler/http/v1"
	"github.com/shenikar/feuerwehr_melder/internal/repository"
	"github.com/shenikar/feuerwehr_melder/internal/service"
	"github.com/shenikar/feuerwehr_melder/pkg/logger"
	"github.com/shenikar/feuerwehr_melder/pkg/postgres"
	redisclient "github.com/shenikar/feuerwehr_melder/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/feuerwehr_melder/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Feuerwehr Melder API
// @version 1.0
// @description Incident and vehicle management with live dashboard broadcasting.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

// newEventSink выбирает, куда диспетчер отдает сообщения.
// В режиме redis сообщения идут через канал pub/sub, и каждый экземпляр пересылает их своему hub.
func newEventSink(ctx context.Context, cfg *config.Config, hub *broadcast.Hub, log *logrus.Logger) (events.Sink, func(), error) {
	if cfg.EventsBackend != config.EventsBackendRedis {
		return hub, func() {}, nil
	}

	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Successfully connected to Redis")

	relay := events.NewRedisRelay(redisClient, cfg.EventsChannel, hub, log)
	if err := relay.Start(ctx); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("could not subscribe to %s: %w", cfg.EventsChannel, err)
	}
	return events.NewRedisSink(redisClient, cfg.EventsChannel, log), func() { redisClient.Close() }, nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Рассылка событий
	hub := broadcast.NewHub(log)
	sink, closeSink, err := newEventSink(ctx, cfg, hub, log)
	if err != nil {
		log.Fatalf("Failed to initialize event backend: %v", err)
	}
	defer closeSink()

	dispatcher := events.NewDispatcher(sink, cfg.EventQueueSize, log)
	dispatcher.Start(ctx)

	geocoder := geocoding.NewNominatimClient(cfg, log)

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool)
	vehicleRepo := repository.NewVehicleRepository(dbpool)
	optionsRepo := repository.NewOptionsRepository(dbpool)

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, geocoder, dispatcher, log)
	vehicleService := service.NewVehicleService(vehicleRepo, dispatcher, log)
	optionsService := service.NewOptionsService(optionsRepo, log)

	// Воркер активации запланированных инцидентов
	worker := activation.NewWorker(incidentRepo, incidentService, dispatcher, log, cfg)
	worker.Start(ctx)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, vehicleService, optionsService, dispatcher, hub, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterWebSocketRoute(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Останавливаем воркеры до закрытия соединений
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
