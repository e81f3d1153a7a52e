package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Audio    AudioConfig
	TTS      TTSConfig
}

type ServerConfig struct {
	Host           string   `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port           int      `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"200"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

type DatabaseConfig struct {
	URL            string `env:"DATABASE_URL"`
	MaxConns       int    `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns       int    `env:"DB_MIN_CONNS" envDefault:"1"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AudioConfig struct {
	Dir            string        `env:"AUDIO_DIR" envDefault:"static/audio"`
	URLPrefix      string        `env:"AUDIO_URL_PREFIX" envDefault:"/static/audio"`
	RetentionHours float64       `env:"AUDIO_RETENTION_HOURS" envDefault:"24"`
	SweepMode      string        `env:"SWEEP_MODE" envDefault:"local"` // "local" or "queue"
	SweepInterval  time.Duration `env:"SWEEP_MIN_INTERVAL" envDefault:"0s"`
}

type TTSConfig struct {
	Timeout        time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"60s"`
	MaxInflight    int64         `env:"MAX_INFLIGHT_SYNTHESES" envDefault:"16"`
	CloudBaseURL   string        `env:"GTTS_BASE_URL" envDefault:"https://translate.google.com"`
	EspeakBin      string        `env:"ESPEAK_BIN" envDefault:"espeak-ng"`
	EdgeVoice      string        `env:"EDGE_DEFAULT_VOICE" envDefault:"en-US-AriaNeural"`
	EdgeVoicesURL  string        `env:"EDGE_VOICES_URL"`
	BackendTimeout time.Duration `env:"TTS_HTTP_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Retention converts AUDIO_RETENTION_HOURS to a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Audio.RetentionHours * float64(time.Hour))
}

// SlogLevel maps LOG_LEVEL onto slog levels; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT out of range")
	}
	if c.Audio.Dir == "" {
		problems = append(problems, "AUDIO_DIR is empty")
	}
	if !strings.HasPrefix(c.Audio.URLPrefix, "/") {
		problems = append(problems, "AUDIO_URL_PREFIX must start with /")
	}
	if c.Audio.RetentionHours <= 0 {
		problems = append(problems, "AUDIO_RETENTION_HOURS must be positive")
	}
	switch c.Audio.SweepMode {
	case "local":
	case "queue":
		if c.Redis.Addr == "" {
			problems = append(problems, "SWEEP_MODE=queue requires REDIS_ADDR")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown SWEEP_MODE %q", c.Audio.SweepMode))
	}
	if c.TTS.Timeout <= 0 {
		problems = append(problems, "SYNTHESIS_TIMEOUT must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
	}
	return nil
}
