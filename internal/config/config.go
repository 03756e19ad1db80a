package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InsecureDefaultSecret is the placeholder JWT secret. Any real deployment
// must override it; main logs a loud warning when it is still in use.
const InsecureDefaultSecret = "default-secret-change-me"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Blacklist BlacklistConfig `mapstructure:"blacklist"`
	ML        MLConfig        `mapstructure:"ml"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	URL  string `mapstructure:"url"`
	// Migrate runs golang-migrate against the URL at startup.
	Migrate bool `mapstructure:"migrate"`
}

type BlacklistConfig struct {
	Type  string      `mapstructure:"type"` // memory | redis
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MLConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("auth.jwt_secret", InsecureDefaultSecret)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("database.type", "memory")
	v.SetDefault("database.migrate", true)
	v.SetDefault("blacklist.type", "memory")
	v.SetDefault("blacklist.redis.addr", "localhost:6379")
	v.SetDefault("blacklist.redis.db", 0)
	v.SetDefault("ml.base_url", "http://localhost:5004")
	v.SetDefault("ml.timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/csrbot")
	}

	v.SetEnvPrefix("CSRBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
