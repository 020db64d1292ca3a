package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from the environment. Defaults live in the struct tags.
type Config struct {
	AppEnv      string     `envconfig:"APP_ENV" default:"dev"`
	LogLevelRaw string     `envconfig:"LOG_LEVEL" default:"info"`
	LogLevel    slog.Level `ignored:"true"`
	HTTPAddr    string     `envconfig:"HTTP_ADDR" default:":8080"`

	Driver          string        `envconfig:"DB_DRIVER" default:"sqlite3"`
	DSN             string        `envconfig:"DB_DSN"`
	Path            string        `envconfig:"SQLITE_PATH" default:"data/zonedash.db"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"0s"`
	LogSQL          bool          `envconfig:"DB_LOG_SQL" default:"false"`

	// WarehouseTable is the table the dashboard reads by default.
	WarehouseTable string `envconfig:"WAREHOUSE_TABLE" default:"BUILDING_A"`
	// TimeColumn overrides the time column candidates when set.
	TimeColumn string `envconfig:"TIME_COLUMN"`
	// ZoneLabelsFile is an optional YAML file of zone id to display label.
	ZoneLabelsFile string `envconfig:"ZONE_LABELS_FILE"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"33554432"`

	MQTTEnabled  bool   `envconfig:"MQTT_ENABLED" default:"false"`
	MQTTBroker   string `envconfig:"MQTT_BROKER" default:"localhost"`
	MQTTPort     int    `envconfig:"MQTT_PORT" default:"1883"`
	MQTTClientID string `envconfig:"MQTT_CLIENT_ID" default:"zonedash-server"`
	MQTTTopic    string `envconfig:"MQTT_TOPIC" default:"building/+/zones/+/telemetry"`
}

func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg.AppEnv = strings.TrimSpace(cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "dev"
	}
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	logLevelStr := strings.TrimSpace(cfg.LogLevelRaw)
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	cfg.HTTPAddr = strings.TrimSpace(cfg.HTTPAddr)
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.Path = strings.TrimSpace(cfg.Path)
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.WarehouseTable = strings.TrimSpace(cfg.WarehouseTable)
	if cfg.WarehouseTable == "" {
		return Config{}, fmt.Errorf("WAREHOUSE_TABLE must not be empty")
	}
	cfg.TimeColumn = strings.TrimSpace(cfg.TimeColumn)

	if f := strings.TrimSpace(cfg.ZoneLabelsFile); f != "" {
		abs, err := filepath.Abs(f)
		if err != nil {
			return Config{}, fmt.Errorf("ZONE_LABELS_FILE %q: %w", f, err)
		}
		cfg.ZoneLabelsFile = abs
	}
	if cfg.UploadMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", cfg.UploadMaxBytes)
	}
	if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d", cfg.MQTTPort)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
