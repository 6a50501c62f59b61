package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env          string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer   `yaml:"http_server"`
	Database     `yaml:"database"`
	URLShortener `yaml:"url_shortener"`
	Abuse        `yaml:"abuse"`
	Captcha      `yaml:"captcha"`
	Attribution  `yaml:"attribution"`
	Auth         `yaml:"auth"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Port         int           `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"supernova"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"supernova"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// URLShortener holds link creation configuration.
type URLShortener struct {
	CodeLength int    `yaml:"code_length" env:"SHORT_CODE_LENGTH" env-default:"6"`
	BaseURL    string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

// Abuse holds the click-protection policy: the per-link cooldown and the
// global rate limit that escalates to CAPTCHA.
type Abuse struct {
	CooldownMinutes        int `yaml:"cooldown_minutes" env:"COOLDOWN_MINUTES" env-default:"10"`
	RateLimitClicks        int `yaml:"rate_limit_clicks" env:"RATE_LIMIT_CLICKS" env-default:"10"`
	RateLimitWindowMinutes int `yaml:"rate_limit_window_minutes" env:"RATE_LIMIT_WINDOW_MINUTES" env-default:"5"`
}

// Captcha holds the third-party CAPTCHA verification configuration.
type Captcha struct {
	Secret    string        `yaml:"secret" env:"CAPTCHA_SECRET_KEY"`
	SiteKey   string        `yaml:"site_key" env:"CAPTCHA_SITE_KEY"`
	VerifyURL string        `yaml:"verify_url" env:"CAPTCHA_VERIFY_URL" env-default:"https://www.google.com/recaptcha/api/siteverify"`
	Timeout   time.Duration `yaml:"timeout" env:"CAPTCHA_TIMEOUT" env-default:"10s"`
}

// Attribution holds the async propagation worker-pool configuration.
type Attribution struct {
	Workers       int           `yaml:"workers" env:"ATTRIBUTION_WORKERS" env-default:"3"`
	BufferSize    int           `yaml:"buffer_size" env:"ATTRIBUTION_BUFFER_SIZE" env-default:"1000"`
	RetryAttempts int           `yaml:"retry_attempts" env:"ATTRIBUTION_RETRY_ATTEMPTS" env-default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"ATTRIBUTION_RETRY_DELAY" env-default:"1s"`
}

// Auth holds JWT configuration.
type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me-in-production"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"Supernova-Backend"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	// Try to load config file
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}

// CooldownWindow returns the per-link cooldown as a duration.
func (a *Abuse) CooldownWindow() time.Duration {
	return time.Duration(a.CooldownMinutes) * time.Minute
}

// RateLimitWindow returns the trailing global rate-limit window as a duration.
func (a *Abuse) RateLimitWindow() time.Duration {
	return time.Duration(a.RateLimitWindowMinutes) * time.Minute
}
