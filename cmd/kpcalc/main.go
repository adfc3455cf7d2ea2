package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kpcalc/internal/config"
	"kpcalc/internal/notify"
	"kpcalc/internal/server"
	"kpcalc/internal/storage"
	"kpcalc/pkg/cbr"
	"kpcalc/pkg/logger"
	"kpcalc/pkg/redis"
)

// ENTRY POINT

func main() {
	// Инициализация логгера
	zapLogger, err := logger.New()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	// Обработка сигналов завершения
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// Инициализация Redis клиента
	redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
	defer redisClient.Close()

	// Инициализация PostgreSQL хранилища
	store, err := storage.New(ctx, storage.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init PostgreSQL storage", zap.Error(err))
	}
	defer store.Close()

	// Миграции схемы
	if err := storage.RunMigrations(ctx, store.DB(), zapLogger); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Клиент дневных курсов ЦБ
	cbrClient := cbr.NewClient(cfg.CBRBaseURL, zapLogger)

	// Телеграм-уведомления менеджерам
	notifier, err := notify.New(cfg.TelegramToken, cfg.AdminChatIDs, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init notifier", zap.Error(err))
	}

	// HTTP сервер
	handlers := server.NewHandlers(store, cbrClient, notifier, zapLogger)
	srv := server.New(cfg.HTTPAddr, cfg.HTTPRequestTimeout, handlers, zapLogger)

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}

	zapLogger.Info("Server shutdown gracefully")
}
