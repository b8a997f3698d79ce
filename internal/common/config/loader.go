// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, overlays config.<APP_ENVIRONMENT>.yaml and
// the process environment, then fills defaults and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory. Variables already present in the environment win.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// An unset variable expands to "" so defaults and the
			// plain-env fallbacks still apply.
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values the deployment usually provides through
// plain environment variables rather than the YAML tree.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Store.Supabase.URL, "SUPABASE_URL")
	setIfEmpty(&cfg.Store.Supabase.ServiceRole, "SUPABASE_SERVICE_ROLE")
	setIfEmpty(&cfg.Reps.SigningSecret, "APP_SECRET")
	setIfEmpty(&cfg.Server.UploadDir, "UPLOAD_DIR")
	setIfEmpty(&cfg.Server.BaseURL, "BASE_URL")
	setIfEmpty(&cfg.Notifications.Email.TeamAddress, "TEAM_EMAIL")
	setIfEmpty(&cfg.Notifications.SMS.TeamPhone, "TEAM_PHONE")

	setIfEmpty(&cfg.Integrations.SMTP.Host, "SMTP_HOST")
	setIfEmpty(&cfg.Integrations.SMTP.Username, "SMTP_USER")
	setIfEmpty(&cfg.Integrations.SMTP.Password, "SMTP_PASS")
	setIfEmpty(&cfg.Integrations.AWS.Region, "AWS_REGION")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Address, "REDIS_ADDR")

	if cfg.Server.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			cfg.Server.Port = port
		}
	}
	if cfg.Integrations.SMTP.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
			cfg.Integrations.SMTP.Port = port
		}
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loan-intake"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}

	// Store defaults
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreDriverSupabase
	}
	if cfg.Store.ApplicationsTable == "" {
		cfg.Store.ApplicationsTable = "applications"
	}
	if cfg.Store.FilesTable == "" {
		cfg.Store.FilesTable = "application_files"
	}
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Reps
	if cfg.Reps.DirectoryPath == "" {
		cfg.Reps.DirectoryPath = "configs/reps.yaml"
	}
	if cfg.Reps.SigningSecret == "" {
		cfg.Reps.SigningSecret = "dev-secret"
	}

	// Rate limit
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 20
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = 60000
	}

	// Notifications
	cfg.Notifications.Email.Provider = strings.ToLower(strings.TrimSpace(cfg.Notifications.Email.Provider))
	if cfg.Notifications.Email.Provider == "" {
		cfg.Notifications.Email.Provider = EmailProviderSMTP
	}
	if cfg.Notifications.Email.SubjectPrefix == "" {
		cfg.Notifications.Email.SubjectPrefix = "New loan application"
	}
	if cfg.Notifications.Timeout == 0 {
		cfg.Notifications.Timeout = 30000
	}
	if cfg.Integrations.SMTP.Port == 0 {
		cfg.Integrations.SMTP.Port = 465
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Store.Driver {
	case StoreDriverSupabase:
		if cfg.Store.Supabase.URL == "" {
			return fmt.Errorf("store.supabase.url (SUPABASE_URL) is required")
		}
		if cfg.Store.Supabase.ServiceRole == "" {
			return fmt.Errorf("store.supabase.service_role (SUPABASE_SERVICE_ROLE) is required")
		}
	case StoreDriverPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}

	if cfg.RateLimit.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when rate_limit is enabled")
	}

	email := cfg.Notifications.Email
	if email.Enabled {
		if email.TeamAddress == "" {
			return fmt.Errorf("notifications.email.team_address is required")
		}
		if email.FromEmail == "" {
			return fmt.Errorf("notifications.email.from_email is required")
		}
		switch email.Provider {
		case EmailProviderSMTP:
			if cfg.Integrations.SMTP.Host == "" {
				return fmt.Errorf("integrations.smtp.host is required for the smtp provider")
			}
		case EmailProviderSES:
			if cfg.Integrations.AWS.Region == "" {
				return fmt.Errorf("integrations.aws.region is required for the ses provider")
			}
		default:
			return fmt.Errorf("notifications.email.provider %q is not supported", email.Provider)
		}
	}

	if cfg.Notifications.SMS.Enabled {
		if cfg.Notifications.SMS.TeamPhone == "" {
			return fmt.Errorf("notifications.sms.team_phone is required")
		}
		if cfg.Integrations.AWS.Region == "" {
			return fmt.Errorf("integrations.aws.region is required for sms")
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
