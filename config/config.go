package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds all environment-derived settings. It is loaded and validated
// once at process start; collaborators receive the values they need through
// their constructors and never read the environment themselves.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DBDriver selects "postgres" (default) or "sqlite" for local runs.
	DBDriver   string `envconfig:"DB_DRIVER" default:"postgres"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"stock_signals"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
	DBPath     string `envconfig:"DB_PATH" default:"data/stock_signals.db"`

	TwelveDataAPIKey  string `envconfig:"TWELVE_DATA_API_KEY"`
	TwelveDataBaseURL string `envconfig:"TWELVE_DATA_BASE_URL" default:"https://api.twelvedata.com"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	AlertEmail   string `envconfig:"ALERT_EMAIL"`
	AlertFrom    string `envconfig:"ALERT_FROM" default:"Stock Signals <onboarding@resend.dev>"`

	CronSecret string `envconfig:"CRON_SECRET"`

	// ScanDelay is the pause between symbols during a scan. The scanner
	// issues two upstream calls per symbol against Twelve Data's free-tier
	// budget of 8 requests per minute, so the default of 16s keeps a full
	// batch at 7.5 calls per minute.
	ScanDelay time.Duration `envconfig:"SCAN_DELAY" default:"16s"`

	// ScheduleEnabled turns on the in-process daily scan job. Deployments
	// with an external cron hitting /api/v1/scan leave this off.
	ScheduleEnabled bool   `envconfig:"SCHEDULE_ENABLED" default:"false"`
	ScheduleAt      string `envconfig:"SCHEDULE_AT" default:"21:30"`
}

// Load reads the optional .env file, maps the environment onto a Config and
// validates the keys the service cannot run without.
func Load() (*Config, error) {
	// .env only exists in local development; missing is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the required keys and the alert recipient address.
func (c *Config) Validate() error {
	var missing []string
	if c.TwelveDataAPIKey == "" {
		missing = append(missing, "TWELVE_DATA_API_KEY")
	}
	if c.ResendAPIKey == "" {
		missing = append(missing, "RESEND_API_KEY")
	}
	if c.CronSecret == "" {
		missing = append(missing, "CRON_SECRET")
	}
	if c.AlertEmail == "" {
		missing = append(missing, "ALERT_EMAIL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if !strings.Contains(c.AlertEmail, "@") {
		return fmt.Errorf("ALERT_EMAIL %q is not a valid email address", c.AlertEmail)
	}

	if c.ScanDelay < 0 {
		return fmt.Errorf("SCAN_DELAY must not be negative")
	}

	return nil
}

// InitDB opens the database connection for the configured driver and
// verifies it with a ping.
func InitDB(cfg *Config) (*gorm.DB, error) {
	var logLevel gormlogger.LogLevel
	if cfg.Environment == "production" {
		logLevel = gormlogger.Error
	} else {
		logLevel = gormlogger.Info
	}
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		log.Info().Str("path", cfg.DBPath).Msg("Opening sqlite database")
		db, err = gorm.Open(sqlite.Open(cfg.DBPath), gormCfg)
	case "postgres":
		log.Info().
			Str("host", maskHost(cfg.DBHost)).
			Str("port", cfg.DBPort).
			Str("dbname", cfg.DBName).
			Msg("Connecting to postgres")
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Info().Msg("Database connection verified")
	return db, nil
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}
