package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Log       LogConfig       `yaml:"log"`
	Platform  PlatformConfig  `yaml:"platform"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains the ops HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SendGridConfig contains email delivery settings
type SendGridConfig struct {
	APIKey     string `yaml:"api_key"`
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	AdminEmail string `yaml:"admin_email"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PlatformConfig contains marketplace commercial settings. Shares are in
// basis points of the booking total: the owner and platform shares sum to
// 9400; the remaining 600 corresponds to the service fee baked into the
// total and is not distributed.
type PlatformConfig struct {
	FeeBps                    int64  `yaml:"fee_bps"`
	OwnerShareBps             int64  `yaml:"owner_share_bps"`
	PlatformShareBps          int64  `yaml:"platform_share_bps"`
	DepositBps                int64  `yaml:"deposit_bps"`
	Currency                  string `yaml:"currency"`
	PlatformUserID            string `yaml:"platform_user_id"`
	RefundCutoffHours         int    `yaml:"refund_cutoff_hours"`
	DepositNotifyOffsetHours  int    `yaml:"deposit_notify_offset_hours"`
	DepositCaptureOffsetHours int    `yaml:"deposit_capture_offset_hours"`
	DepositRetryWarnAfter     int32  `yaml:"deposit_retry_warn_after"`
	JobRetentionDays          int    `yaml:"job_retention_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DepositNotificationSweep string `yaml:"deposit_notification_sweep"`
	DepositCaptureSweep      string `yaml:"deposit_capture_sweep"`
	DepositJobPurge          string `yaml:"deposit_job_purge"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.SendGrid.FromEmail = val
	}
	if val := os.Getenv("ADMIN_EMAIL"); val != "" {
		c.SendGrid.AdminEmail = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Platform
	if val := os.Getenv("PLATFORM_USER_ID"); val != "" {
		c.Platform.PlatformUserID = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// SendGrid validation
	if c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required")
	}

	// Platform defaults
	if c.Platform.FeeBps == 0 {
		c.Platform.FeeBps = 600 // 6% service fee
	}
	if c.Platform.OwnerShareBps == 0 {
		c.Platform.OwnerShareBps = 7900 // 79% to the owner
	}
	if c.Platform.PlatformShareBps == 0 {
		c.Platform.PlatformShareBps = 1500 // 15% to the platform
	}
	if c.Platform.DepositBps == 0 {
		c.Platform.DepositBps = 2000 // deposit hold is 20% of the total
	}
	if c.Platform.Currency == "" {
		c.Platform.Currency = "eur"
	}
	if c.Platform.PlatformUserID == "" {
		return fmt.Errorf("platform user id is required")
	}
	if c.Platform.RefundCutoffHours == 0 {
		c.Platform.RefundCutoffHours = 24
	}
	if c.Platform.DepositNotifyOffsetHours == 0 {
		c.Platform.DepositNotifyOffsetHours = 48
	}
	if c.Platform.DepositCaptureOffsetHours == 0 {
		c.Platform.DepositCaptureOffsetHours = 24
	}
	if c.Platform.DepositRetryWarnAfter == 0 {
		c.Platform.DepositRetryWarnAfter = 5
	}
	if c.Platform.JobRetentionDays == 0 {
		c.Platform.JobRetentionDays = 30
	}

	// Scheduler defaults
	if c.Scheduler.DepositNotificationSweep == "" {
		c.Scheduler.DepositNotificationSweep = "0 0 * * * *" // hourly on the hour
	}
	if c.Scheduler.DepositCaptureSweep == "" {
		c.Scheduler.DepositCaptureSweep = "0 30 * * * *" // hourly at :30
	}
	if c.Scheduler.DepositJobPurge == "" {
		c.Scheduler.DepositJobPurge = "0 0 4 * * *" // 4 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the ops HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
