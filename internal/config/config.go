package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	CoffeeChat struct {
		DefaultPageSize int `yaml:"default_page_size" env:"COFFEECHAT_DEFAULT_PAGE_SIZE"`
		MaxPageSize     int `yaml:"max_page_size" env:"COFFEECHAT_MAX_PAGE_SIZE"`
	} `yaml:"coffeechat"`

	Batch struct {
		Enabled        bool `yaml:"enabled" env:"BATCH_ENABLED"`
		CourseScraping struct {
			Cron       string `yaml:"cron" env:"BATCH_COURSE_CRON"`
			CatalogURL string `yaml:"catalog_url" env:"BATCH_COURSE_CATALOG_URL"`
			MaxPages   int    `yaml:"max_pages" env:"BATCH_COURSE_MAX_PAGES"`
			Timeout    string `yaml:"timeout" env:"BATCH_COURSE_TIMEOUT"`
		} `yaml:"course_scraping"`
	} `yaml:"batch"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; environment variables alone are enough to run.
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "coffeechat"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"
	config.Database.SQLitePath = "data/coffeechat.db"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "coffeechat.jdon"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.CoffeeChat.DefaultPageSize = 12
	config.CoffeeChat.MaxPageSize = 100

	config.Batch.Enabled = false
	// seconds minutes hours day-of-month month day-of-week
	config.Batch.CourseScraping.Cron = "3 0 0 * * MON"
	config.Batch.CourseScraping.MaxPages = 50
	config.Batch.CourseScraping.Timeout = "30m"
}

func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Database.Driver) {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database connection max lifetime: %w", err)
		}
	case DriverSQLite:
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if config.CoffeeChat.DefaultPageSize <= 0 || config.CoffeeChat.MaxPageSize < config.CoffeeChat.DefaultPageSize {
		return fmt.Errorf("coffeechat page sizes must satisfy 0 < default_page_size <= max_page_size")
	}

	if config.Batch.Enabled {
		if config.Batch.CourseScraping.CatalogURL == "" {
			return fmt.Errorf("batch course_scraping catalog_url is required when batch is enabled")
		}
		if _, err := time.ParseDuration(config.Batch.CourseScraping.Timeout); err != nil {
			return fmt.Errorf("invalid batch course_scraping timeout: %w", err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
