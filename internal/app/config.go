package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/brandprompt-backend/internal/pkg/envutil"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
	"github.com/yungbote/brandprompt-backend/internal/pkg/pointers"
)

// Duration reads "5s"-style strings or bare integer seconds from YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if dd, err := time.ParseDuration(s); err == nil {
		d.Duration = dd
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or integer seconds: %q", s)
	}
	d.Duration = time.Duration(n) * time.Second
	return nil
}

type HTTPConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	CORSOrigins     []string `yaml:"cors_allowed_origins"`
}

type StoreConfig struct {
	Driver      string   `yaml:"driver"`
	DSN         string   `yaml:"dsn"`
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	User        string   `yaml:"user"`
	Password    string   `yaml:"password"`
	Name        string   `yaml:"name"`
	SSLMode     string   `yaml:"sslmode"`
	AutoMigrate bool     `yaml:"auto_migrate"`
	WaitReady   Duration `yaml:"wait_ready"`
}

type FetcherConfig struct {
	Provider              string   `yaml:"provider"`
	FirecrawlAPIKey       string   `yaml:"firecrawl_api_key"`
	FirecrawlBaseURL      string   `yaml:"firecrawl_base_url"`
	FirecrawlPollInterval Duration `yaml:"firecrawl_poll_interval"`
	RodControlURL         string   `yaml:"rod_control_url"`
	Timeout               Duration `yaml:"timeout"`
}

type GeneratorConfig struct {
	Provider      string   `yaml:"provider"`
	OpenAIAPIKey  string   `yaml:"openai_api_key"`
	OpenAIBaseURL string   `yaml:"openai_base_url"`
	OpenAIModel   string   `yaml:"openai_model"`
	OpenAITimeout Duration `yaml:"openai_timeout"`
	MaxRetries    int      `yaml:"openai_max_retries"`
	GeminiAPIKey  string   `yaml:"gemini_api_key"`
	GeminiModel   string   `yaml:"gemini_model"`
	GeminiBaseURL string   `yaml:"gemini_base_url"`

	// Temperature is sent only when set; some models reject it.
	Temperature *float64 `yaml:"temperature"`
}

type OnboardingConfig struct {
	MaxConcurrency int  `yaml:"max_concurrency"`
	Breakers       bool `yaml:"breakers"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Env         string `yaml:"env"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`

	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	Redis      RedisConfig      `yaml:"redis"`
	Otel       OtelConfig       `yaml:"otel"`
	Metrics    bool             `yaml:"metrics"`
}

func defaultConfig() Config {
	return Config{
		Env:         "development",
		ServiceName: "brandprompt-api",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{15 * time.Second},
			RequestTimeout:  Duration{5 * time.Minute},
		},
		Store: StoreConfig{
			Driver:      "postgres",
			AutoMigrate: true,
			WaitReady:   Duration{30 * time.Second},
		},
		Fetcher: FetcherConfig{
			Provider:              "firecrawl",
			FirecrawlPollInterval: Duration{2 * time.Second},
			Timeout:               Duration{30 * time.Second},
		},
		Generator: GeneratorConfig{
			Provider:      "openai",
			OpenAITimeout: Duration{180 * time.Second},
			MaxRetries:    2,
		},
		Onboarding: OnboardingConfig{
			MaxConcurrency: 4,
			Breakers:       true,
		},
		Otel:    OtelConfig{SampleRatio: 0.1},
		Metrics: true,
	}
}

// LoadConfig layers defaults, an optional YAML file at BRAND_CONFIG_PATH, and
// environment overrides, in that order.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := strings.TrimSpace(os.Getenv("BRAND_CONFIG_PATH")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version)

	cfg.HTTP.Addr = envutil.String("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ShutdownTimeout.Duration = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout.Duration)
	cfg.HTTP.RequestTimeout.Duration = envutil.Duration("HTTP_REQUEST_TIMEOUT", cfg.HTTP.RequestTimeout.Duration)
	cfg.HTTP.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSOrigins)

	cfg.Store.Driver = envutil.String("DB_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = envutil.String("DATABASE_DSN", cfg.Store.DSN)
	cfg.Store.Host = envutil.String("POSTGRES_HOST", cfg.Store.Host)
	cfg.Store.Port = envutil.String("POSTGRES_PORT", cfg.Store.Port)
	cfg.Store.User = envutil.String("POSTGRES_USER", cfg.Store.User)
	cfg.Store.Password = envutil.String("POSTGRES_PASSWORD", cfg.Store.Password)
	cfg.Store.Name = envutil.String("POSTGRES_NAME", cfg.Store.Name)
	cfg.Store.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.Store.SSLMode)
	cfg.Store.AutoMigrate = envutil.Bool("DB_AUTO_MIGRATE", cfg.Store.AutoMigrate)
	cfg.Store.WaitReady.Duration = envutil.Duration("DB_WAIT_READY", cfg.Store.WaitReady.Duration)

	cfg.Fetcher.Provider = envutil.String("FETCHER_PROVIDER", cfg.Fetcher.Provider)
	cfg.Fetcher.FirecrawlAPIKey = envutil.String("FIRECRAWL_API_KEY", cfg.Fetcher.FirecrawlAPIKey)
	cfg.Fetcher.FirecrawlBaseURL = envutil.String("FIRECRAWL_BASE_URL", cfg.Fetcher.FirecrawlBaseURL)
	cfg.Fetcher.FirecrawlPollInterval.Duration = envutil.Duration("FIRECRAWL_POLL_INTERVAL", cfg.Fetcher.FirecrawlPollInterval.Duration)
	cfg.Fetcher.RodControlURL = envutil.String("ROD_CONTROL_URL", cfg.Fetcher.RodControlURL)
	cfg.Fetcher.Timeout.Duration = envutil.Duration("FETCHER_TIMEOUT", cfg.Fetcher.Timeout.Duration)

	cfg.Generator.Provider = envutil.String("GENERATOR_PROVIDER", cfg.Generator.Provider)
	cfg.Generator.OpenAIAPIKey = envutil.String("OPENAI_API_KEY", cfg.Generator.OpenAIAPIKey)
	cfg.Generator.OpenAIBaseURL = envutil.String("OPENAI_BASE_URL", cfg.Generator.OpenAIBaseURL)
	cfg.Generator.OpenAIModel = envutil.String("OPENAI_MODEL", cfg.Generator.OpenAIModel)
	cfg.Generator.OpenAITimeout.Duration = envutil.Duration("OPENAI_TIMEOUT", cfg.Generator.OpenAITimeout.Duration)
	cfg.Generator.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", cfg.Generator.MaxRetries)
	cfg.Generator.GeminiAPIKey = envutil.String("GEMINI_API_KEY", cfg.Generator.GeminiAPIKey)
	cfg.Generator.GeminiModel = envutil.String("GEMINI_MODEL", cfg.Generator.GeminiModel)
	cfg.Generator.GeminiBaseURL = envutil.String("GEMINI_BASE_URL", cfg.Generator.GeminiBaseURL)
	if t := envutil.Float("GENERATOR_TEMPERATURE", -1); t >= 0 {
		cfg.Generator.Temperature = pointers.Ptr(t)
	}

	cfg.Onboarding.MaxConcurrency = envutil.Int("ONBOARD_MAX_CONCURRENCY", cfg.Onboarding.MaxConcurrency)
	cfg.Onboarding.Breakers = envutil.Bool("ONBOARD_BREAKERS", cfg.Onboarding.Breakers)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Otel.SampleRatio)

	cfg.Metrics = envutil.Bool("METRICS_ENABLED", cfg.Metrics)
}

func (c *Config) validate() error {
	c.Fetcher.Provider = strings.ToLower(strings.TrimSpace(c.Fetcher.Provider))
	c.Generator.Provider = strings.ToLower(strings.TrimSpace(c.Generator.Provider))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))

	switch c.Fetcher.Provider {
	case "firecrawl", "http", "rod":
	default:
		return fmt.Errorf("unknown FETCHER_PROVIDER %q (want firecrawl, http or rod)", c.Fetcher.Provider)
	}
	switch c.Generator.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown GENERATOR_PROVIDER %q (want openai or gemini)", c.Generator.Provider)
	}
	switch c.Store.Driver {
	case "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want postgres or sqlite)", c.Store.Driver)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Onboarding.MaxConcurrency <= 0 {
		c.Onboarding.MaxConcurrency = 4
	}
	return nil
}
