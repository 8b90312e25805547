package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Client - пул соединений с PostgreSQL через sqlx.
// Используется для проверки доступности БД (healthz), отдельно от пула GORM.
type Client struct {
	DB     *sqlx.DB
	logger *slog.Logger
}

// NewClient открывает подключение к PostgreSQL и проверяет его
func NewClient(databaseURL string, logger *slog.Logger) (*Client, error) {
	start := time.Now()

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		logger.Error("failed to open PostgreSQL connection", "error", err)
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("PostgreSQL health connection established",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return NewFromDB(db, logger), nil
}

// NewFromDB оборачивает уже открытый пул.
func NewFromDB(db *sqlx.DB, logger *slog.Logger) *Client {
	return &Client{DB: db, logger: logger}
}

// Ping проверяет, что база отвечает на запрос.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()

	var one int
	if err := c.DB.GetContext(ctx, &one, "SELECT 1"); err != nil {
		c.logger.Error("database health check failed", "error", err)
		return fmt.Errorf("ping database: %w", err)
	}

	c.logger.Debug("database health check passed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Client) Close() error {
	start := time.Now()
	err := c.DB.Close()
	if err != nil {
		c.logger.Error("failed to close database connection", "error", err)
		return err
	}
	c.logger.Info("database connection closed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
