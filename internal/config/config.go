package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Booking    BookingConfig    `yaml:"booking"`
	Menu       MenuConfig       `yaml:"menu"`
	Storage    StorageConfig    `yaml:"storage"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type AuthConfig struct {
	JWTSecret       string         `yaml:"jwt_secret"`
	TokenTTLMinutes int            `yaml:"token_ttl_minutes"`
	Admins          []AdminAccount `yaml:"admins"`
}

type AdminAccount struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
}

type BookingConfig struct {
	Slots          []string        `yaml:"slots"`
	SlotCapacity   int             `yaml:"slot_capacity"`
	MaxAdvanceDays int             `yaml:"max_advance_days"`
	Packages       []PackageConfig `yaml:"packages"`
	PaymentMethods []string        `yaml:"payment_methods"`
}

type PackageConfig struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

type MenuConfig struct {
	Categories []CategoryConfig `yaml:"categories"`
}

type CategoryConfig struct {
	Key     string `yaml:"key"`
	Display string `yaml:"display"`
}

type StorageConfig struct {
	Backend string            `yaml:"backend"` // disk | s3
	Disk    DiskStorageConfig `yaml:"disk"`
	S3      S3StorageConfig   `yaml:"s3"`
}

type DiskStorageConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

type S3StorageConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile    string `yaml:"credentials_file"`
	SalesSpreadsheetID string `yaml:"sales_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	// .env, если есть, дополняет окружение перед подстановкой
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if len(c.Auth.Admins) > 0 && c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required when admin accounts are configured")
	}
	for _, a := range c.Auth.Admins {
		if a.Username == "" || a.PasswordHash == "" {
			return fmt.Errorf("admin account %q must have username and password_hash", a.Username)
		}
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram is enabled")
	}

	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return errors.New("storage s3 bucket is required for the s3 backend")
	}

	return c.Booking.validate()
}

func (b BookingConfig) validate() error {
	seen := make(map[string]bool)
	for _, slot := range b.Slots {
		if slot == "" {
			return errors.New("empty time slot label")
		}
		if seen[slot] {
			return fmt.Errorf("duplicate time slot: %s", slot)
		}
		seen[slot] = true
	}

	names := make(map[string]bool)
	for _, p := range b.Packages {
		if p.Name == "" {
			return errors.New("package without a name")
		}
		if names[p.Name] {
			return fmt.Errorf("duplicate package: %s", p.Name)
		}
		if p.Price < 0 {
			return fmt.Errorf("package %q has negative price", p.Name)
		}
		names[p.Name] = true
	}

	return nil
}

// PackagePrice looks up the configured price for a package tag.
func (b BookingConfig) PackagePrice(name string) (float64, bool) {
	for _, p := range b.Packages {
		if p.Name == name {
			return p.Price, true
		}
	}
	return 0, false
}

// DisplayName maps an internal category key to its friendly name.
// Unknown keys fall back to the key itself.
func (m MenuConfig) DisplayName(key string) string {
	for _, c := range m.Categories {
		if c.Key == key {
			return c.Display
		}
	}
	return key
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if len(c.Booking.Slots) == 0 {
		c.Booking.Slots = []string{
			"8:00 AM - 11:00 AM",
			"1:00 PM - 5:00 PM",
			"6:00 PM - 9:00 PM",
		}
	}
	if c.Booking.SlotCapacity == 0 {
		c.Booking.SlotCapacity = 2
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 90
	}
	if len(c.Booking.PaymentMethods) == 0 {
		c.Booking.PaymentMethods = []string{"GCash", "Cash"}
	}

	if c.Auth.TokenTTLMinutes == 0 {
		c.Auth.TokenTTLMinutes = 12 * 60
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "disk"
	}
	if c.Storage.Backend == "disk" && c.Storage.Disk.Path == "" {
		c.Storage.Disk.Path = "data/blobs"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "data/exports"
	}

	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
}
