package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StripeModeTest = "test"
	StripeModeLive = "live"
)

type Config struct {
	Env       string
	LogLevel  string
	Server    Server
	LLM       LLM
	Stripe    Stripe
	RateLimit RateLimit
	Session   Session
	Database  Database
	Redis     Redis
	RabbitMQ  RabbitMQ
}

type Server struct {
	Port           string
	AllowedOrigins []string
	TrustedProxies []string
	PublicBaseURL  string
	MetricsPort    string
}

type LLM struct {
	Provider     string
	Model        string
	OpenAIApiKey string
	GeminiApiKey string
}

type Stripe struct {
	Mode          string
	TestSecretKey string
	LiveSecretKey string
	WebhookSecret string
}

type RateLimit struct {
	Window      time.Duration
	MaxRequests int
}

type Session struct {
	TTL           time.Duration
	Grace         time.Duration
	MaxPerClient  int
	SweepInterval time.Duration
}

type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQ struct {
	URI      string
	Exchange string
}

var defaultAllowedOrigins = []string{
	"https://tapolio.com",
	"https://www.tapolio.com",
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:8100",
}

// defaultTrustedProxies covers load balancers reaching the app over loopback or
// private networks, so X-Forwarded-For names the real client behind them.
var defaultTrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
}

func setDefaults() {
	viper.SetDefault("APP_ENV", EnvDevelopment)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	viper.SetDefault("STRIPE_MODE", StripeModeTest)
	viper.SetDefault("RATE_LIMIT_WINDOW", "60s")
	viper.SetDefault("RATE_LIMIT_MAX", 15)
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("SESSION_GRACE", "5s")
	viper.SetDefault("SESSION_MAX_PER_CLIENT", 3)
	viper.SetDefault("SWEEP_INTERVAL", "5m")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "file::memory:?cache=shared")
	viper.SetDefault("RABBITMQ_EXCHANGE", "tapolio.events")
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Env = strings.ToLower(firstNonEmpty(viper.GetString("APP_ENV"), viper.GetString("NODE_ENV")))
	if viper.GetString("NODE_ENV") == EnvProduction {
		config.Env = EnvProduction
	}
	config.LogLevel = viper.GetString("LOG_LEVEL")

	config.Server.Port = firstNonEmpty(viper.GetString("SERVER_PORT"), viper.GetString("PORT"), "4000")
	config.Server.AllowedOrigins = splitList(viper.GetString("ALLOWED_ORIGINS"))
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = defaultAllowedOrigins
	}
	config.Server.TrustedProxies = trustedProxies(viper.GetString("TRUSTED_PROXIES"))
	config.Server.MetricsPort = viper.GetString("METRICS_PORT")
	config.Server.PublicBaseURL = viper.GetString("PUBLIC_BASE_URL")
	if config.Server.PublicBaseURL == "" {
		if config.IsProduction() {
			config.Server.PublicBaseURL = "https://tapolio.com"
		} else {
			config.Server.PublicBaseURL = "http://localhost:5174"
		}
	}
	config.Server.PublicBaseURL = strings.TrimRight(config.Server.PublicBaseURL, "/")

	config.LLM.Provider = strings.ToLower(viper.GetString("LLM_PROVIDER"))
	config.LLM.Model = viper.GetString("LLM_MODEL")
	config.LLM.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")
	config.LLM.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	config.Stripe.Mode = strings.ToLower(viper.GetString("STRIPE_MODE"))
	config.Stripe.TestSecretKey = viper.GetString("STRIPE_TEST_SECRET_KEY")
	config.Stripe.LiveSecretKey = viper.GetString("STRIPE_LIVE_SECRET_KEY")
	config.Stripe.WebhookSecret = viper.GetString("STRIPE_WEBHOOK_SECRET")

	config.RateLimit.Window = viper.GetDuration("RATE_LIMIT_WINDOW")
	config.RateLimit.MaxRequests = viper.GetInt("RATE_LIMIT_MAX")

	config.Session.TTL = viper.GetDuration("SESSION_TTL")
	config.Session.Grace = viper.GetDuration("SESSION_GRACE")
	config.Session.MaxPerClient = viper.GetInt("SESSION_MAX_PER_CLIENT")
	config.Session.SweepInterval = viper.GetDuration("SWEEP_INTERVAL")

	config.Database.Driver = strings.ToLower(viper.GetString("DATABASE_DRIVER"))
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.Path = viper.GetString("DATABASE_PATH")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")

	config.RabbitMQ.URI = viper.GetString("RABBITMQ_URI")
	config.RabbitMQ.Exchange = viper.GetString("RABBITMQ_EXCHANGE")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Info().Interface("config", config.Redacted()).Msg("Config loaded")
	return &config, nil
}

// Validate refuses configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIApiKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
		}
	case ProviderGemini:
		if c.LLM.GeminiApiKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider))
	}

	switch c.Stripe.Mode {
	case StripeModeTest, StripeModeLive:
		if c.StripeSecretKey() == "" {
			errs = append(errs, fmt.Errorf("STRIPE_%s_SECRET_KEY is not set", strings.ToUpper(c.Stripe.Mode)))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STRIPE_MODE %q", c.Stripe.Mode))
	}

	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate limit window and max requests must be positive"))
	}
	if c.Session.TTL <= 0 || c.Session.MaxPerClient <= 0 || c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session ttl, max per client and sweep interval must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// StripeSecretKey returns the secret key matching the selected Stripe mode.
func (c *Config) StripeSecretKey() string {
	if c.Stripe.Mode == StripeModeLive {
		return c.Stripe.LiveSecretKey
	}
	return c.Stripe.TestSecretKey
}

// LLMModel returns the configured model name or the provider default.
func (c *Config) LLMModel() string {
	if c.LLM.Model != "" {
		return c.LLM.Model
	}
	if c.LLM.Provider == ProviderGemini {
		return "gemini-1.5-flash"
	}
	return "gpt-4o-mini"
}

// Redacted is a copy safe to log.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.LLM.OpenAIApiKey = mask(c.LLM.OpenAIApiKey)
	c.LLM.GeminiApiKey = mask(c.LLM.GeminiApiKey)
	c.Stripe.TestSecretKey = mask(c.Stripe.TestSecretKey)
	c.Stripe.LiveSecretKey = mask(c.Stripe.LiveSecretKey)
	c.Stripe.WebhookSecret = mask(c.Stripe.WebhookSecret)
	c.Database.Password = mask(c.Database.Password)
	c.Redis.Password = mask(c.Redis.Password)
	c.RabbitMQ.URI = mask(c.RabbitMQ.URI)
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// trustedProxies reads TRUSTED_PROXIES. Unset means the private defaults and
// "none" trusts no proxy at all.
func trustedProxies(raw string) []string {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "":
		return defaultTrustedProxies
	case "none":
		return nil
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
