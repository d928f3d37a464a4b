package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment at startup.
type Config struct {
	Port                int           `env:"PORT"                  envDefault:"3000"`
	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// TokenSecret signs session tokens with HS256. Required.
	TokenSecret string        `env:"TOKEN_SECRET,required,unset"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"shopfront"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"    envDefault:"720h"`

	DatabaseFile      string `env:"DATABASE_FILE"      envDefault:"shopfront.db"`
	PepperFile        string `env:"PEPPER_FILE"        envDefault:"pepper"`
	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM" envDefault:"argon2id"`
	BcryptCost        int    `env:"BCRYPT_COST"        envDefault:"10"`

	// PublicBaseURL is the front-end origin emailed links point at.
	// AllowedOrigins lists other front-end origins that may be named by
	// the request Origin header instead.
	PublicBaseURL  string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:5173"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// HousekeepingSchedule is a cron spec for clearing expired reset grants.
	HousekeepingSchedule string `env:"HOUSEKEEPING_SCHEDULE" envDefault:"@every 1h"`

	Files FileConfig `envPrefix:"FILESTORE_"`
	SMTP  SMTPConfig `envPrefix:"SMTP_"`
}

// FileConfig selects where avatars live: "local", "minio" or "s3".
type FileConfig struct {
	Driver string `env:"DRIVER" envDefault:"local"`

	// local
	Dir     string `env:"DIR"      envDefault:"public/avatar"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// minio and s3
	Endpoint     string `env:"ENDPOINT"`
	Region       string `env:"REGION"         envDefault:"us-east-1"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY,unset"`
	Bucket       string `env:"BUCKET"         envDefault:"avatars"`
	UseSSL       bool   `env:"USE_SSL"`
	UsePathStyle bool   `env:"USE_PATH_STYLE"`
	PublicURL    string `env:"PUBLIC_URL"`
}

// SMTPConfig configures outgoing mail. With no Host, emails are logged.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD,unset"`
	From     string `env:"FROM"     envDefault:"Shopfront <no-reply@localhost>"`
}

// LoadConfig parses the environment and checks the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimRight(strings.TrimSpace(o), "/")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if len(c.TokenSecret) < 32 {
		errs = append(errs, errors.New("TOKEN_SECRET must be at least 32 bytes"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.Files.Driver {
	case "local":
	case "minio", "s3":
		if c.Files.Driver == "minio" && c.Files.Endpoint == "" {
			errs = append(errs, errors.New("FILESTORE_ENDPOINT is required for minio"))
		}
		if c.Files.Bucket == "" {
			errs = append(errs, errors.New("FILESTORE_BUCKET is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FILESTORE_DRIVER %q", c.Files.Driver))
	}
	return errors.Join(errs...)
}
