package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/secrets"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Pricing   PricingConfig
	F2        F2Config
	AutoSave  AutoSaveConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// PricingConfig locates the price data document
type PricingConfig struct {
	DataFile    string
	ProductType string
}

// F2Config holds the unit prices of the F2 fees
type F2Config struct {
	WifiUnitPrice     float64
	DeliveryUnitPrice float64
	InstallUnitPrice  float64
	RemovalUnitPrice  float64
}

// AutoSaveConfig controls the periodic quote backup
type AutoSaveConfig struct {
	Enabled bool
	// Cron is a robfig/cron spec such as "@every 60s"
	Cron string
	// Target is "storage" or "database"
	Target string
	// Key is the storage key or snapshot key the backup is written under
	Key string
	// Timeout bounds one save (seconds)
	Timeout int
	// RestoreOnStart loads the last backup into the session at startup
	RestoreOnStart bool
	// RetentionHours bounds how long database snapshots are kept; 0 keeps all
	RetentionHours int
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type StorageConfig struct {
	// Mode is "local", "azure" (or "cloud") or "s3"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	S3Bucket              string
	S3Region              string
	S3Endpoint            string
	S3PathStyle           bool
	S3AccessKeyID         string
	S3SecretAccessKey     string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS requests
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the rate limit per client IP
	RequestsPerMinute int
	// FileRequestsPerMinute limits export, load and save calls per client IP
	FileRequestsPerMinute int
	// FilePaths are the path prefixes counted against FileRequestsPerMinute
	FilePaths []string
	// WhitelistPaths bypass rate limiting (e.g., /health)
	WhitelistPaths []string
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// TimeoutDuration returns the auto-save timeout as duration
func (a *AutoSaveConfig) TimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// RetentionDuration returns the snapshot retention as duration
func (a *AutoSaveConfig) RetentionDuration() time.Duration {
	return time.Duration(a.RetentionHours) * time.Hour
}

// MaxUploadBytes returns the upload limit in bytes
func (s *StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB << 20
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if cfg.Storage.S3AccessKeyID == "" {
		cfg.Storage.S3AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	}
	if cfg.Storage.S3SecretAccessKey == "" {
		cfg.Storage.S3SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}
	if !provider.IsVaultEnabled() {
		return nil, fmt.Errorf("vault provider not enabled despite USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// SecretSource resolves a secret by vault name with an environment fallback
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envVar string) (string, error)
}

// applySecrets overlays database and storage credentials from src
func applySecrets(ctx context.Context, cfg *Config, src SecretSource) error {
	if cfg.Database.Driver == "postgres" {
		if host, err := src.GetSecretOrEnv(ctx, "POSTGRES-MAIN-HOST", "DATABASE_HOST"); err == nil && host != "" {
			cfg.Database.Host = host
		}
		if user, err := src.GetSecretOrEnv(ctx, "POSTGRES-MAIN-USER", "DATABASE_USER"); err == nil && user != "" {
			cfg.Database.User = user
		}
		password, err := src.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD")
		if err != nil {
			return fmt.Errorf("failed to resolve database password: %w", err)
		}
		if password != "" {
			cfg.Database.Password = password
		}
	}

	switch cfg.Storage.Mode {
	case "cloud", "azure":
		connStr, err := src.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING")
		if err != nil {
			return fmt.Errorf("failed to resolve storage connection string: %w", err)
		}
		if connStr != "" {
			cfg.Storage.CloudConnectionString = connStr
		}
	case "s3":
		if key, err := src.GetSecretOrEnv(ctx, "s3-access-key-id", "AWS_ACCESS_KEY_ID"); err == nil && key != "" {
			cfg.Storage.S3AccessKeyID = key
		}
		if secret, err := src.GetSecretOrEnv(ctx, "s3-secret-access-key", "AWS_SECRET_ACCESS_KEY"); err == nil && secret != "" {
			cfg.Storage.S3SecretAccessKey = secret
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Blind Quote")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Pricing defaults
	v.SetDefault("pricing.dataFile", "./data/price-matrix.json")
	v.SetDefault("pricing.productType", "rollerBlind")

	// F2 unit prices
	v.SetDefault("f2.wifiUnitPrice", 200)
	v.SetDefault("f2.deliveryUnitPrice", 100)
	v.SetDefault("f2.installUnitPrice", 20)
	v.SetDefault("f2.removalUnitPrice", 20)

	// Auto-save defaults
	v.SetDefault("autoSave.enabled", true)
	v.SetDefault("autoSave.cron", "@every 60s")
	v.SetDefault("autoSave.target", "storage")
	v.SetDefault("autoSave.key", "quoteAutoSaveData")
	v.SetDefault("autoSave.timeout", 10)
	v.SetDefault("autoSave.restoreOnStart", true)
	v.SetDefault("autoSave.retentionHours", 168)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "blind_quote")
	v.SetDefault("database.user", "quote_user")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.sqlitePath", "./data/quotes.db")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 300)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300) // 5 minutes

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "quotes")
	v.SetDefault("storage.s3Region", "us-east-1")
	v.SetDefault("storage.s3PathStyle", false)
	v.SetDefault("storage.maxUploadSizeMB", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Content-Disposition", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", false)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000) // 1 year
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 600)
	v.SetDefault("rateLimit.fileRequestsPerMinute", 60)
	v.SetDefault("rateLimit.filePaths", []string{"/api/v1/export/", "/api/v1/load", "/api/v1/save"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/metrics"})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
