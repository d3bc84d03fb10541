package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"habitTrackerAPI/utils"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Limits   LimitsConfig   `yaml:"limits"`
	Goals    GoalsConfig    `yaml:"goals"`
	Push     PushConfig     `yaml:"push"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	// Driver is postgres or sqlite.
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	ClerkSecretKey     string `yaml:"clerk_secret_key"`
	ClerkWebhookSecret string `yaml:"clerk_webhook_secret"`
	// Disabled trusts the X-User-ID header instead of a Clerk JWT. Local use only.
	Disabled bool `yaml:"disabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type MetricsConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type LimitsConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GoalsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type PushConfig struct {
	CredentialsFile    string `yaml:"credentials_file"`
	ServiceAccountJSON string `yaml:"-"`
}

type DefaultsConfig struct {
	Timezone string `yaml:"timezone"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        "3333",
			CORSOrigins: []string{"*"},
		},
		DB: DBConfig{
			Driver:     "postgres",
			SQLitePath: "habits.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Limits: LimitsConfig{
			RPS:   10,
			Burst: 20,
		},
		Goals: GoalsConfig{
			Workers:   2,
			QueueSize: 100,
		},
		Push: PushConfig{
			CredentialsFile: "./serviceAccountKey.json",
		},
		Defaults: DefaultsConfig{
			Timezone: "UTC",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// HABIT_CONFIG and environment variables, in that order. A .env file in the
// working directory is loaded into the environment first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("HABIT_CONFIG"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Server.Port)
	setString("DATABASE_DRIVER", &cfg.DB.Driver)
	setString("DATABASE_URL", &cfg.DB.URL)
	setString("SQLITE_PATH", &cfg.DB.SQLitePath)
	setString("CLERK_SECRET_KEY", &cfg.Auth.ClerkSecretKey)
	setString("CLERK_WEBHOOK_SECRET", &cfg.Auth.ClerkWebhookSecret)
	setString("METRICS_USER", &cfg.Metrics.User)
	setString("METRICS_PASS", &cfg.Metrics.Password)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_DIR", &cfg.Log.Dir)
	setString("DEFAULT_TIMEZONE", &cfg.Defaults.Timezone)
	setString("FCM_CREDENTIALS_FILE", &cfg.Push.CredentialsFile)
	setString("FCM_SERVICE_ACCOUNT_JSON", &cfg.Push.ServiceAccountJSON)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}

	if v := os.Getenv("AUTH_DISABLED"); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AUTH_DISABLED: %w", err)
		}
		cfg.Auth.Disabled = disabled
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		cfg.Limits.RPS = rps
	}

	ints := map[string]*int{
		"RATE_LIMIT_BURST": &cfg.Limits.Burst,
		"GOAL_WORKERS":     &cfg.Goals.Workers,
		"GOAL_QUEUE_SIZE":  &cfg.Goals.QueueSize,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	return nil
}

// Validate reports the first configuration problem that would stop the
// server from starting.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}

	switch c.DB.Driver {
	case "postgres":
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DB.Driver)
	}

	if !c.Auth.Disabled && c.Auth.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}
	if _, err := utils.LoadLocation(c.Defaults.Timezone); err != nil {
		return fmt.Errorf("invalid DEFAULT_TIMEZONE: %w", err)
	}
	if c.Limits.RPS <= 0 || c.Limits.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.Goals.Workers <= 0 || c.Goals.QueueSize <= 0 {
		return fmt.Errorf("goal worker pool must be positive")
	}
	return nil
}
