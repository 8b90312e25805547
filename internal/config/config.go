package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"file://internal/database/postgres/migrations"`
	DBLogLevel     string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
	ServerPort     string        `env:"SERVER_PORT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Токены и пароли
	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`

	// Администратор, создаваемый при старте
	Admin struct {
		SeedOnStart bool   `env:"SEED_ADMIN_ON_START" envDefault:"true"`
		FirstName   string `env:"ADMIN_FIRST_NAME" envDefault:"Admin"`
		LastName    string `env:"ADMIN_LAST_NAME" envDefault:"User"`
		Email       string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
		Password    string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
		DateOfBirth string `env:"ADMIN_DATE_OF_BIRTH" envDefault:"2000-01-01"`
	}

	// Настройки для MinIO (архив QR-кодов). Пустой endpoint отключает архив.
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"qr-codes"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`

	// Очередь задач перегенерации QR. Пустой URL отключает публикацию.
	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QR_QUEUE" envDefault:"qr_code_jobs"`
	}

	WorkerSweepBatch int `env:"WORKER_SWEEP_BATCH" envDefault:"100"`
}

// MinioEnabled сообщает, настроен ли архив QR-кодов.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// RabbitMQEnabled сообщает, настроена ли очередь задач.
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config from environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "5000"
	}
	if cfg.WorkerSweepBatch <= 0 {
		cfg.WorkerSweepBatch = 100
	}

	if cfg.MinioEnabled() && (cfg.MinioAccessKeyID == "" || cfg.MinioSecretAccessKey == "") {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY_ID and MINIO_SECRET_ACCESS_KEY must be set when MINIO_ENDPOINT is set")
	}

	return &cfg, nil
}
