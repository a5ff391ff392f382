package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port         int           `yaml:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type PayPalConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	WebhookID    string `yaml:"webhook_id" validate:"required"`
	Mode         string `yaml:"mode" validate:"oneof=sandbox live"`
	BaseURL      string `yaml:"base_url"` // overrides the mode endpoint (tests, proxies)
	ReturnURL    string `yaml:"return_url" validate:"url"`
	CancelURL    string `yaml:"cancel_url" validate:"url"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres bolt"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" validate:"required_if=Driver postgres"`
	MaxConns int32  `yaml:"max_conns"`
	BoltPath string `yaml:"bolt_path"`
	Driver   string `yaml:"-"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the shared token cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TokenKey string `yaml:"token_key" validate:"omitempty,len=32"` // AES-256 key; cached tokens are sealed when set
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id" validate:"required_with=Token"`
	Lang   string `yaml:"lang" validate:"oneof=en fa"` // operator message language
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"` // empty leaves /payments open
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"` // OTLP/HTTP host:port, empty disables export
	ServiceName string `yaml:"service_name"`
}

type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	PayPal   PayPalConfig   `yaml:"paypal"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

var validate = validator.New()

// LoadConfig reads an optional YAML file, an optional .env file and the process
// environment, in that order of increasing precedence, then applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	return load(path, dev)
}

// storeFields are the only fields checked by LoadStoreConfig.
var storeFields = []string{"Store.Driver", "Database.URL", "HTTP.Port"}

// LoadStoreConfig is LoadConfig for maintenance commands (migrations, listing,
// token minting) that never talk to PayPal: only the store settings are validated.
func LoadStoreConfig(path string, dev bool) (*Config, error) {
	return load(path, dev, storeFields...)
}

func load(path string, dev bool, only ...string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// environment-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	cfg.Database.Driver = cfg.Store.Driver
	var err error
	if len(only) > 0 {
		err = validate.StructPartial(&cfg, only...)
	} else {
		err = validate.Struct(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	// later entries win, so DATABASE_URL overrides the legacy MONGODB_URI
	vars := []struct {
		key string
		dst *string
	}{
		{"PAYPAL_CLIENT_ID", &cfg.PayPal.ClientID},
		{"PAYPAL_CLIENT_SECRET", &cfg.PayPal.ClientSecret},
		{"PAYPAL_WEBHOOK_ID", &cfg.PayPal.WebhookID},
		{"PAYPAL_MODE", &cfg.PayPal.Mode},
		{"PAYPAL_BASE_URL", &cfg.PayPal.BaseURL},
		{"STORE_DRIVER", &cfg.Store.Driver},
		{"MONGODB_URI", &cfg.Database.URL},
		{"DATABASE_URL", &cfg.Database.URL},
		{"BOLT_PATH", &cfg.Database.BoltPath},
		{"REDIS_URL", &cfg.Redis.URL},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"REDIS_TOKEN_KEY", &cfg.Redis.TokenKey},
		{"TELEGRAM_BOT_TOKEN", &cfg.Telegram.Token},
		{"TELEGRAM_LANG", &cfg.Telegram.Lang},
		{"ADMIN_JWT_SECRET", &cfg.Admin.JWTSecret},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
	}
	for _, v := range vars {
		if val := os.Getenv(v.key); val != "" {
			*v.dst = val
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.HTTP.Port = port
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.PayPal.Mode = strings.ToLower(cfg.PayPal.Mode)
	if cfg.PayPal.Mode == "" {
		cfg.PayPal.Mode = "sandbox"
	}
	if cfg.PayPal.ReturnURL == "" {
		cfg.PayPal.ReturnURL = "https://example.com/success"
	}
	if cfg.PayPal.CancelURL == "" {
		cfg.PayPal.CancelURL = "https://example.com/cancel"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "postgres"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.BoltPath == "" {
		cfg.Database.BoltPath = "payments.db"
	}
	if cfg.Telegram.Lang == "" {
		cfg.Telegram.Lang = "en"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "paypal-relay"
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 2
	}
}
