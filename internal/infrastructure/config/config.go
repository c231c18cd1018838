package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// MinJWTSecretLength is the shortest signing secret accepted for HS256.
const MinJWTSecretLength = 32

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	LogFile  string `env:"LOG_FILE"`

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,          default=24h"`
	TokenIssuer  string        `env:"TOKEN_ISSUER,       default=credential-service"`
	ResetWindow  time.Duration `env:"RESET_TOKEN_WINDOW, default=15m"`
	ResetURLBase string        `env:"RESET_URL_BASE"`
	BcryptCost   int           `env:"BCRYPT_COST,        default=10"`

	CORSOrigins   []string `env:"CORS_ORIGINS,   default=*"`
	NoticeWorkers int      `env:"NOTICE_WORKERS, default=4"`

	Mongo MongoConfig
	Redis RedisConfig
	Mail  MailConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=credentials"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig is optional: with an empty Addr the role cache is disabled.
type RedisConfig struct {
	Addr    string        `env:"REDIS_ADDR"`
	DB      int           `env:"REDIS_DB,       default=0"`
	RoleTTL time.Duration `env:"REDIS_ROLE_TTL, default=1m"`
}

type MailConfig struct {
	// Driver is "smtp" or "log".
	Driver       string        `env:"MAIL_DRIVER, default=log"`
	From         string        `env:"MAIL_FROM"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     string        `env:"SMTP_PORT,    default=587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	Timeout      time.Duration `env:"SMTP_TIMEOUT, default=10s"`
	// LogBody makes the log driver print message bodies, reset links included.
	LogBody bool `env:"MAIL_LOG_BODY, default=false"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot safely run with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.ResetWindow <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_WINDOW must be positive"))
	}
	if err := c.validateResetURLBase(); err != nil {
		errs = append(errs, err)
	}
	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when MAIL_DRIVER=smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_DRIVER must be smtp or log, got %q", c.Mail.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// validateResetURLBase requires an absolute link prefix for reset emails.
// Production deployments must use https.
func (c *Config) validateResetURLBase() error {
	if c.ResetURLBase == "" {
		return errors.New("RESET_URL_BASE is required")
	}
	u, err := url.Parse(c.ResetURLBase)
	if err != nil {
		return fmt.Errorf("RESET_URL_BASE: %w", err)
	}
	if u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("RESET_URL_BASE must be an absolute http(s) URL, got %q", c.ResetURLBase)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return errors.New("RESET_URL_BASE must use https in production")
	}
	return nil
}
