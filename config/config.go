package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crane-booking-backend/internal/schedule"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Auth       AuthConfig       `yaml:"auth"`
	Push       PushConfig       `yaml:"push"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" validate:"min=1,max=65535"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" validate:"gt=0"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" validate:"min=1"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" validate:"min=0"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN                    string `yaml:"dsn" validate:"required"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level" validate:"omitempty,oneof=silent error warn info"`
	EnableGist             bool   `yaml:"enable_gist"`
}

// ScheduleConfig holds the workday window and slot settings.
type ScheduleConfig struct {
	WorkdayStart  string `yaml:"workday_start" validate:"required"`
	WorkdayEnd    string `yaml:"workday_end" validate:"required"`
	SlotMinutes   int    `yaml:"slot_minutes" validate:"min=5,max=1440"`
	BufferMinutes int    `yaml:"buffer_minutes" validate:"min=0,max=1440"`
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
	Issuer    string `yaml:"issuer"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// AMQPConfig holds the broker that fans reservation events out to email/SMS.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// Settings converts the schedule section into the engine's snapshot type.
func (c ScheduleConfig) Settings() (schedule.Settings, error) {
	start, err := schedule.ParseClock(c.WorkdayStart)
	if err != nil {
		return schedule.Settings{}, fmt.Errorf("schedule.workday_start: %w", err)
	}
	end, err := schedule.ParseClock(c.WorkdayEnd)
	if err != nil {
		return schedule.Settings{}, fmt.Errorf("schedule.workday_end: %w", err)
	}
	s := schedule.Settings{
		WorkdayStart:  start,
		WorkdayEnd:    end,
		SlotMinutes:   c.SlotMinutes,
		BufferMinutes: c.BufferMinutes,
	}
	if err := s.Validate(); err != nil {
		return schedule.Settings{}, err
	}
	return s, nil
}

// Load reads the configuration from the given path. A .env file in the
// working directory, if present, is loaded first so env overrides apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Schedule.Settings(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQP.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Schedule.WorkdayStart == "" {
		cfg.Schedule.WorkdayStart = "08:00"
	}
	if cfg.Schedule.WorkdayEnd == "" {
		cfg.Schedule.WorkdayEnd = "16:00"
	}
	if cfg.Schedule.SlotMinutes == 0 {
		cfg.Schedule.SlotMinutes = 60
	}
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "crane.reservations"
	}
	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}
}
