package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when -config is not provided.
	DefaultConfigPath = "config.yml"
	// DefaultBucket is the media bucket name.
	DefaultBucket = "slideshow-media"

	defaultPort           = 8080
	defaultEnv            = "development"
	defaultDBDriver       = DriverPostgres
	defaultDBHost         = "127.0.0.1"
	defaultDBName         = "signage"
	defaultSignedURLTTL   = time.Hour
	defaultMaxUploadMB    = 50
	defaultAIMaxTokens    = 2048
	defaultAITimeout      = 60 * time.Second
	defaultReconcileEvery = 6 * time.Hour
	defaultReconcileAge   = 24 * time.Hour
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	StorageS3     = "s3"
	StorageGCS    = "gcs"
	StorageMemory = "memory"

	AIAnthropic        = "anthropic"
	AIOpenAI           = "openai"
	AIOpenAICompatible = "openai-compatible"
)

// AppConfig holds runtime configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int              `yaml:"port"`
	Env            string           `yaml:"env"` // "development" | "production"
	SiteURL        string           `yaml:"site_url"`
	AllowedOrigins []string         `yaml:"allowed_origins"`
	JWTSecret      string           `yaml:"jwt_secret"`
	Timezone       string           `yaml:"timezone"`
	Database       DatabaseConfig   `yaml:"database"`
	Redis          RedisConfig      `yaml:"redis"`
	Storage        StorageConfig    `yaml:"storage"`
	AI             AIConfig         `yaml:"ai"`
	Resilience     ResilienceConfig `yaml:"resilience"`
	Log            LogConfig        `yaml:"log"`
	Reconcile      ReconcileConfig  `yaml:"reconcile"`
}

type DatabaseConfig struct {
	Driver      string            `yaml:"driver"`
	DSN         string            `yaml:"dsn"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	User        string            `yaml:"user"`
	Password    string            `yaml:"password"`
	Name        string            `yaml:"name"`
	SSLMode     string            `yaml:"sslmode"`
	Params      map[string]string `yaml:"params"`
	AutoMigrate bool              `yaml:"auto_migrate"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.URL) != "" }

type StorageConfig struct {
	Driver          string        `yaml:"driver"`
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	UsePathStyle    bool          `yaml:"use_path_style"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	CredentialsFile string        `yaml:"credentials_file"`
	SignedURLTTL    time.Duration `yaml:"signed_url_ttl"`
	MaxUploadMB     int           `yaml:"max_upload_mb"`
	OpTimeout       time.Duration `yaml:"op_timeout"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (s StorageConfig) MaxUploadBytes() int64 { return int64(s.MaxUploadMB) * 1024 * 1024 }

// HasCredentials reports whether the service credential for the selected
// driver is present.
func (s StorageConfig) HasCredentials() bool {
	switch s.Driver {
	case StorageMemory:
		return true
	case StorageGCS:
		return s.CredentialsFile != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
	default:
		return s.AccessKeyID != "" && s.SecretAccessKey != ""
	}
}

type AIConfig struct {
	Provider  string        `yaml:"provider"`
	APIKey    string        `yaml:"api_key"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ResilienceConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type ReconcileConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	MinAge   time.Duration `yaml:"min_age"`
}

// Load reads the YAML file at configPath, overlays environment variables and
// validates the result. A missing file is tolerated only for the default path
// so env-only deployments keep working.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := Default()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used before file and env overrides.
func Default() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Driver:      defaultDBDriver,
			Host:        defaultDBHost,
			Name:        defaultDBName,
			AutoMigrate: true,
		},
		Storage: StorageConfig{
			Driver:       StorageS3,
			Bucket:       DefaultBucket,
			Region:       "us-east-1",
			SignedURLTTL: defaultSignedURLTTL,
			MaxUploadMB:  defaultMaxUploadMB,
			OpTimeout:    2 * time.Minute,
		},
		AI: AIConfig{
			Provider:  AIAnthropic,
			MaxTokens: defaultAIMaxTokens,
			Timeout:   defaultAITimeout,
		},
		Resilience: ResilienceConfig{
			MaxAttempts:     3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Log: LogConfig{
			Dir:        "logs",
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 7,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Reconcile: ReconcileConfig{
			Enabled:  true,
			Interval: defaultReconcileEvery,
			MinAge:   defaultReconcileAge,
		},
	}
}

// Validate checks ranges and enumerations.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageS3, StorageGCS, StorageMemory:
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required")
	}
	if c.Storage.SignedURLTTL <= 0 {
		return errors.New("storage.signed_url_ttl must be positive")
	}
	if c.Storage.MaxUploadMB <= 0 {
		return errors.New("storage.max_upload_mb must be positive")
	}
	switch c.AI.Provider {
	case AIAnthropic, AIOpenAI, AIOpenAICompatible:
	default:
		return fmt.Errorf("unsupported ai.provider %q", c.AI.Provider)
	}
	if c.AI.MaxTokens <= 0 || c.AI.MaxTokens > 8192 {
		return fmt.Errorf("ai.max_tokens %d out of range 1-8192", c.AI.MaxTokens)
	}
	if c.Resilience.MaxAttempts < 1 {
		return errors.New("resilience.max_attempts must be at least 1")
	}
	return nil
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }
