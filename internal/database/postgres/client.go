package postgres

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NowFunc задаёт время для created_at/updated_at: UTC с точностью до микросекунд,
// как хранит PostgreSQL. Иначе снимок в QR-коде расходился бы с перечитанной записью.
func NowFunc() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Client владеет пулом GORM и закрывает его при завершении.
type Client struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// NewClient открывает подключение GORM к PostgreSQL.
func NewClient(databaseURL, dbLogLevel string, logger *slog.Logger) (*Client, error) {
	start := time.Now()

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:  NewGormLogger(dbLogLevel),
		NowFunc: NowFunc,
	})
	if err != nil {
		logger.Error("failed to open GORM connection", "error", err)
		return nil, fmt.Errorf("open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("GORM connection established", "duration_ms", time.Since(start).Milliseconds())
	return &Client{DB: db, logger: logger}, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB from gorm: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		c.logger.Error("failed to close GORM connection", "error", err)
		return err
	}
	c.logger.Info("GORM connection closed")
	return nil
}

// ApplyMigrations применяет все доступные миграции к бд
func ApplyMigrations(migrationsPath, databaseURL string, logger *slog.Logger) error {
	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migrations are up to date")
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	default:
		version, _, _ := m.Version()
		logger.Info("migrations applied", "version", version)
	}
	return nil
}

// NewGormLogger настраивает встроенный логгер GORM по уровню из конфигурации.
func NewGormLogger(level string) gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(level),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
