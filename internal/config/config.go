package config

import (
	"fmt"
	"log"
	"os"

	"github.com/gofrs/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Port string
	}
	Postgres struct {
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Addr     string
		Password string
	}
	JWT struct {
		Secret string
	}
	Services struct {
		OrderURL string
		UserURL  string
	}
	Catalog struct {
		CustomCakeProductID uuid.UUID
	}
	MigrationsPath string
}

func Load(path string) (*Config, error) {
	if path != "" {
		err := godotenv.Load(path)
		if err != nil && err != os.ErrNotExist {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = os.Getenv("APP_PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	if cfg.Postgres.Host == "" {
		log.Fatalf("DB_HOST is required")
	}
	cfg.Postgres.Port = os.Getenv("DB_PORT")
	if cfg.Postgres.Port == "" {
		log.Fatalf("DB_PORT is required")
	}
	cfg.Postgres.User = os.Getenv("DB_USER")
	if cfg.Postgres.User == "" {
		log.Fatalf("DB_USER is required")
	}
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	if cfg.Postgres.Password == "" {
		log.Fatalf("DB_PASSWORD is required")
	}
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	if cfg.Postgres.DBName == "" {
		log.Fatalf("DB_NAME is required")
	}
	cfg.Postgres.SSLMode = os.Getenv("DB_SSLMODE")
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		log.Fatalf("JWT_SECRET is required")
	}

	cfg.Services.OrderURL = os.Getenv("ORDER_SERVICE_URL")
	if cfg.Services.OrderURL == "" {
		cfg.Services.OrderURL = "http://localhost:8082"
	}
	cfg.Services.UserURL = os.Getenv("USER_SERVICE_URL")
	if cfg.Services.UserURL == "" {
		cfg.Services.UserURL = "http://localhost:8084"
	}

	if raw := os.Getenv("CUSTOM_CAKE_PRODUCT_ID"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CUSTOM_CAKE_PRODUCT_ID: %w", err)
		}
		cfg.Catalog.CustomCakeProductID = id
	}

	cfg.MigrationsPath = os.Getenv("MIGRATIONS_PATH")
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	return cfg, nil
}

// PostgresDSN builds the connection string used by pgxpool and migrate.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}
