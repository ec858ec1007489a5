package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// envOverrides lists the environment variables that win over the YAML file.
// Every field is a string so an unset variable is distinguishable from a zero.
type envOverrides struct {
	Port       string `env:"PORT"`
	Env        string `env:"APP_ENV"`
	SiteURL    string `env:"SITE_URL"`
	JWTSecret  string `env:"JWT_SECRET"`
	Origins    string `env:"ALLOWED_ORIGINS"`
	DBDriver   string `env:"DATABASE_DRIVER"`
	DBURL      string `env:"DATABASE_URL"`
	RedisURL   string `env:"REDIS_URL"`
	LogDir     string `env:"LOG_DIR"`
	LogLevel   string `env:"LOG_LEVEL"`
	AIProvider string `env:"AI_PROVIDER"`
	AIKey      string `env:"AI_API_KEY"`
	AIModel    string `env:"AI_MODEL"`
	AIEndpoint string `env:"AI_ENDPOINT"`

	Storage storageEnv `envPrefix:"STORAGE_"`
}

type storageEnv struct {
	Driver          string `env:"DRIVER"`
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	UsePathStyle    string `env:"USE_PATH_STYLE"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`
	SignedURLTTL    string `env:"SIGNED_URL_TTL"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// LoadDotEnv loads .env.local then .env from the working directory.
// Variables already present in the process environment are kept.
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Port != "" {
		port, err := strconv.Atoi(o.Port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", o.Port, err)
		}
		cfg.Port = port
	}
	setString(&cfg.Env, o.Env)
	setString(&cfg.SiteURL, o.SiteURL)
	setString(&cfg.JWTSecret, o.JWTSecret)
	if o.Origins != "" {
		cfg.AllowedOrigins = strings.Split(o.Origins, ",")
	}
	setString(&cfg.Database.Driver, o.DBDriver)
	setString(&cfg.Database.DSN, o.DBURL)
	setString(&cfg.Redis.URL, o.RedisURL)
	setString(&cfg.Log.Dir, o.LogDir)
	setString(&cfg.Log.Level, o.LogLevel)
	setString(&cfg.AI.Provider, o.AIProvider)
	setString(&cfg.AI.APIKey, o.AIKey)
	setString(&cfg.AI.Model, o.AIModel)
	setString(&cfg.AI.Endpoint, o.AIEndpoint)

	s := o.Storage
	setString(&cfg.Storage.Driver, s.Driver)
	setString(&cfg.Storage.Bucket, s.Bucket)
	setString(&cfg.Storage.Region, s.Region)
	setString(&cfg.Storage.Endpoint, s.Endpoint)
	setString(&cfg.Storage.AccessKeyID, s.AccessKeyID)
	setString(&cfg.Storage.SecretAccessKey, s.SecretAccessKey)
	setString(&cfg.Storage.PublicBaseURL, s.PublicBaseURL)
	setString(&cfg.Storage.CredentialsFile, s.CredentialsFile)
	if s.UsePathStyle != "" {
		v, err := strconv.ParseBool(s.UsePathStyle)
		if err != nil {
			return fmt.Errorf("invalid STORAGE_USE_PATH_STYLE %q: %w", s.UsePathStyle, err)
		}
		cfg.Storage.UsePathStyle = v
	}
	if s.SignedURLTTL != "" {
		ttl, err := time.ParseDuration(s.SignedURLTTL)
		if err != nil {
			return fmt.Errorf("invalid STORAGE_SIGNED_URL_TTL %q: %w", s.SignedURLTTL, err)
		}
		cfg.Storage.SignedURLTTL = ttl
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
