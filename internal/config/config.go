package config

import (
	"time"

	"github.com/Squeakyrexx/SYNCBEATS-sub000/internal/auth"
	pkgconfig "github.com/Squeakyrexx/SYNCBEATS-sub000/pkg/config"
)

// Config holds all configuration for the sync service.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Stream StreamConfig `mapstructure:"stream"`
	Room   RoomConfig   `mapstructure:"room"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Users  []auth.Seed  `mapstructure:"users"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// StreamConfig holds subscription stream configuration.
type StreamConfig struct {
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	SinkBuffer        int           `mapstructure:"sink_buffer"`
}

// RoomConfig holds room code and retention configuration.
type RoomConfig struct {
	CodeLength    int           `mapstructure:"code_length"`
	CodeAlphabet  string        `mapstructure:"code_alphabet"`
	Retention     time.Duration `mapstructure:"retention"`      // 0 = never evict
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AuthConfig holds token issuance configuration.
type AuthConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string        `mapstructure:"issuer"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("stream.keep_alive_interval", "25s")
	v.SetDefault("stream.sink_buffer", 64)
	v.SetDefault("room.code_length", 4)
	v.SetDefault("room.code_alphabet", "ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	v.SetDefault("room.retention", "0")
	v.SetDefault("room.sweep_interval", "1m")
	v.SetDefault("auth.secret", "dev-secret-change-me")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "168h")
	v.SetDefault("auth.issuer", "syncbeats")
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("stream.keep_alive_interval", "STREAM_KEEP_ALIVE_INTERVAL")
	v.BindEnv("room.retention", "ROOM_RETENTION")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
