// Package config loads service settings from defaults, an optional env file
// and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Evidence backends.
const (
	EvidenceSQLite = "sqlite"
	EvidenceS3     = "s3"
)

// Config is the complete service configuration.
type Config struct {
	Env      string
	Log      LogConfig
	Server   ServerConfig
	DB       DBConfig
	Catalog  CatalogConfig
	Export   ExportConfig
	Evidence EvidenceConfig
	S3       S3Config
	Kafka    KafkaConfig
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string
	File  string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DBConfig locates the SQLite database and its first admin.
type DBConfig struct {
	Path            string
	AdminEmployeeID string
}

// CatalogConfig points at a catalog file seeded on startup, if any.
type CatalogConfig struct {
	File string
}

// ExportConfig sizes the export fetch pool.
type ExportConfig struct {
	Workers int
}

// EvidenceConfig selects where new photos are stored. RemoteHosts enables
// resolving http(s) refs from those hosts only.
type EvidenceConfig struct {
	Backend     string
	MaxBytes    int64
	RemoteHosts []string
}

// S3Config holds object storage settings for the s3 evidence backend.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// KafkaConfig enables event publishing when brokers are set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 120*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)

	v.SetDefault("DB_PATH", "trocas.sqlite3")
	v.SetDefault("ADMIN_EMPLOYEE_ID", "admin")
	v.SetDefault("CATALOG_FILE", "")

	v.SetDefault("EXPORT_WORKERS", 4)

	v.SetDefault("EVIDENCE_BACKEND", EvidenceSQLite)
	v.SetDefault("EVIDENCE_MAX_BYTES", 10<<20)
	v.SetDefault("EVIDENCE_REMOTE_HOSTS", "")

	v.SetDefault("S3_ENDPOINT", "localhost:9000")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "trocas-evidence")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_SSL", false)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "entry-events")
}

// Load reads configuration. An empty file means defaults and environment only;
// otherwise the file must exist and is read as an env file. Variables set to
// the empty string count as set.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		Server: ServerConfig{
			Addr:            v.GetString("SERVER_ADDR"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		DB: DBConfig{
			Path:            v.GetString("DB_PATH"),
			AdminEmployeeID: v.GetString("ADMIN_EMPLOYEE_ID"),
		},
		Catalog: CatalogConfig{File: v.GetString("CATALOG_FILE")},
		Export:  ExportConfig{Workers: v.GetInt("EXPORT_WORKERS")},
		Evidence: EvidenceConfig{
			Backend:     strings.ToLower(v.GetString("EVIDENCE_BACKEND")),
			MaxBytes:    v.GetInt64("EVIDENCE_MAX_BYTES"),
			RemoteHosts: splitList(v.GetString("EVIDENCE_REMOTE_HOSTS")),
		},
		S3: S3Config{
			Endpoint:  v.GetString("S3_ENDPOINT"),
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Bucket:    v.GetString("S3_BUCKET"),
			Region:    v.GetString("S3_REGION"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) validate() error {
	var msgs []string

	if c.Server.Addr == "" {
		msgs = append(msgs, "SERVER_ADDR is required")
	}
	if c.Server.ReadTimeout <= 0 {
		msgs = append(msgs, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		msgs = append(msgs, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		msgs = append(msgs, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		msgs = append(msgs, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.DB.Path == "" {
		msgs = append(msgs, "DB_PATH is required")
	}
	if c.DB.AdminEmployeeID == "" {
		msgs = append(msgs, "ADMIN_EMPLOYEE_ID is required")
	}
	if c.Export.Workers <= 0 {
		msgs = append(msgs, "EXPORT_WORKERS must be greater than 0")
	}
	if c.Evidence.MaxBytes <= 0 {
		msgs = append(msgs, "EVIDENCE_MAX_BYTES must be greater than 0")
	}

	switch c.Evidence.Backend {
	case EvidenceSQLite:
	case EvidenceS3:
		if c.S3.Endpoint == "" {
			msgs = append(msgs, "S3_ENDPOINT is required for the s3 evidence backend")
		}
		if c.S3.Bucket == "" {
			msgs = append(msgs, "S3_BUCKET is required for the s3 evidence backend")
		}
	default:
		msgs = append(msgs, fmt.Sprintf("EVIDENCE_BACKEND must be %q or %q", EvidenceSQLite, EvidenceS3))
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		msgs = append(msgs, "KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	if len(msgs) > 0 {
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
