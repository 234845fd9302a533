package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration, read from the environment.
type Config struct {
	Port           string        `mapstructure:"PORT"`
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURI    string        `mapstructure:"POSTGRESQL_URI"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	CORSOrigins    string        `mapstructure:"CORS_ORIGINS"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	MQTTURL        string        `mapstructure:"MQTT_URL"`
	MQTTTopic      string        `mapstructure:"MQTT_TOPIC"`
}

var defaults = map[string]any{
	"PORT":            "3000",
	"DATABASE_DRIVER": "postgres",
	"POSTGRESQL_URI":  "",
	"JWT_SECRET":      "",
	"TOKEN_TTL":       "168h",
	"CORS_ORIGINS":    "*",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "text",
	"MQTT_URL":        "",
	"MQTT_TOPIC":      "tasks/events",
}

// LoadENV loads a .env file from the working directory when there is one.
func LoadENV() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads .env and the process environment into a Config.
func Load() (*Config, error) {
	if err := LoadENV(); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		// BindEnv makes Unmarshal see keys that only exist in the environment.
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("POSTGRESQL_URI must be set"))
	}
	switch c.DatabaseDriver {
	case "postgres", "postgresql", "pgx", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}
