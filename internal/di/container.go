package di

import (
	"context"
	"fmt"

	"github.com/GoArmGo/StudentRegistry/internal/adapter/storage/minio"
	"github.com/GoArmGo/StudentRegistry/internal/app"
	"github.com/GoArmGo/StudentRegistry/internal/auth"
	"github.com/GoArmGo/StudentRegistry/internal/config"
	"github.com/GoArmGo/StudentRegistry/internal/core/ports"
	"github.com/GoArmGo/StudentRegistry/internal/database/client"
	"github.com/GoArmGo/StudentRegistry/internal/database/postgres"
	"github.com/GoArmGo/StudentRegistry/internal/database/storage"
	"github.com/GoArmGo/StudentRegistry/internal/logger"
	"github.com/GoArmGo/StudentRegistry/internal/qrcode"
	"github.com/GoArmGo/StudentRegistry/internal/rabbitmq"
	"github.com/GoArmGo/StudentRegistry/internal/regnum"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// При ошибке уже открытые ресурсы закрываются.
func BuildApp(ctx context.Context) (_ *app.App, err error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var cleanup []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanup) - 1; i >= 0; i-- {
			_ = cleanup[i]()
		}
	}()

	// 2. Миграции
	if err = postgres.ApplyMigrations(cfg.MigrationsPath, cfg.DatabaseURL, slogger); err != nil {
		return nil, err
	}

	// 3. Подключения к PostgreSQL: sqlx для healthz, GORM для данных
	healthClient, err := client.NewClient(cfg.DatabaseURL, slogger)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, healthClient.Close)

	gormClient, err := postgres.NewClient(cfg.DatabaseURL, cfg.DBLogLevel, slogger)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, gormClient.Close)

	// 4. Хранилище пользователей
	userStorage := storage.NewUserStorage(gormClient.DB, slogger)

	// 5. Очередь задач QR-кодов (необязательна)
	var (
		rabbitClient *rabbitmq.Client
		publisher    ports.QRCodeJobPublisher
		consumer     ports.QRCodeJobConsumer
	)
	if cfg.RabbitMQEnabled() {
		rabbitClient, err = rabbitmq.NewClient(cfg.RabbitMQ.RabbitMQURL, cfg.RabbitMQ.RabbitMQQueueName, slogger)
		if err != nil {
			return nil, err
		}
		cleanup = append(cleanup, rabbitClient.Close)
		publisher = rabbitClient
		consumer = rabbitClient
	} else {
		slogger.Info("RABBITMQ_URL is not set, qr code retries are disabled")
	}

	// 6. Архив QR-кодов в MinIO (необязателен)
	var files ports.FileStorage
	if cfg.MinioEnabled() {
		minioClient, minioErr := minio.NewMinioClient(ctx, cfg, slogger)
		if minioErr != nil {
			err = fmt.Errorf("init minio: %w", minioErr)
			return nil, err
		}
		files = minioClient
	} else {
		slogger.Info("MINIO_ENDPOINT is not set, qr code archive is disabled")
	}

	// 7. Криптография, номера и QR
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	regnums := regnum.NewGenerator()
	encoder := qrcode.NewEncoder(slogger)

	// 8. Бизнес-логика
	lifecycle := usecase.NewLifecycle(userStorage, hasher, regnums, encoder, publisher, files, slogger)
	authUseCase := usecase.NewAuthUseCase(userStorage, lifecycle, hasher, tokens, slogger)
	adminUseCase := usecase.NewAdminUseCase(userStorage, lifecycle, slogger)

	// 9. Сборка итогового приложения
	application := app.NewApp(app.Deps{
		Config:    cfg,
		Logger:    slogger,
		Auth:      authUseCase,
		Admin:     adminUseCase,
		Lifecycle: lifecycle,
		Health:    healthClient,
		Consumer:  consumer,
	})
	application.OnShutdown("postgres health pool", healthClient.Close)
	application.OnShutdown("postgres gorm pool", gormClient.Close)
	if rabbitClient != nil {
		application.OnShutdown("rabbitmq", rabbitClient.Close)
	}

	slogger.Info("all dependencies initialized")
	return application, nil
}
