// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Store         StoreConfig        `mapstructure:"store"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Reps          RepsConfig         `mapstructure:"reps"`
	RateLimit     RateLimitConfig    `mapstructure:"rate_limit"`
	PDF           PDFConfig          `mapstructure:"pdf"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	BaseURL      string `mapstructure:"base_url"`
	UploadDir    string `mapstructure:"upload_dir"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	MaxUploadMB  int    `mapstructure:"max_upload_mb"`
}

// Address returns the listen address for the HTTP server.
func (s ServerConfig) Address() string {
	return fmt.Sprintf(":%d", s.Port)
}

const (
	StoreDriverSupabase = "supabase"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects and configures the persistence gateway.
type StoreConfig struct {
	Driver            string         `mapstructure:"driver"`
	ApplicationsTable string         `mapstructure:"applications_table"`
	FilesTable        string         `mapstructure:"files_table"`
	Timeout           int            `mapstructure:"timeout"` // milliseconds
	Supabase          SupabaseConfig `mapstructure:"supabase"`
}

type SupabaseConfig struct {
	URL         string `mapstructure:"url"`
	ServiceRole string `mapstructure:"service_role"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RepsConfig locates the referral directory and the key used to sign rep codes.
type RepsConfig struct {
	DirectoryPath string `mapstructure:"directory_path"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type RateLimitConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Requests int  `mapstructure:"requests"`
	Window   int  `mapstructure:"window"` // milliseconds
}

type PDFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

const (
	EmailProviderSMTP = "smtp"
	EmailProviderSES  = "ses"
)

// NotificationConfig holds settings for staff notifications.
type NotificationConfig struct {
	Email struct {
		Enabled       bool   `mapstructure:"enabled"`
		Provider      string `mapstructure:"provider"`
		FromEmail     string `mapstructure:"from_email"`
		TeamAddress   string `mapstructure:"team_address"`
		SubjectPrefix string `mapstructure:"subject_prefix"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled   bool   `mapstructure:"enabled"`
		TeamPhone string `mapstructure:"team_phone"`
	} `mapstructure:"sms"`
	Timeout int `mapstructure:"timeout"` // milliseconds
}

// IntegrationConfig holds settings for AWS and SMTP.
type IntegrationConfig struct {
	AWS struct {
		Region           string `mapstructure:"region"`
		ConfigurationSet string `mapstructure:"ses_configuration_set"`
		SMSSenderID      string `mapstructure:"sms_sender_id"`
	} `mapstructure:"aws"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
