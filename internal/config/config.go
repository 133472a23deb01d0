// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultStoreDriver      = "bolt"
	DefaultBoltPath         = "mido-ledger.db"
	DefaultSQLitePath       = "mido-ledger.sqlite"
	DefaultShopName         = "Mido"
	DefaultPhoneCountryCode = "20"
	DefaultS3Region         = "us-east-1"
)

var storeDrivers = []string{"bolt", "sqlite", "postgres", "memory"}

// Config holds all configuration for the application.
type Config struct {
	StoreDriver          string
	StorePath            string
	DatabaseURL          string
	GeminiAPIKey         string
	GeminiModel          string
	TelegramBotToken     string
	LogLevel             string
	LogFormat            string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	ShopName             string
	PhoneCountryCode     string
	Backup               BackupConfig

	mu       sync.Mutex
	bindings map[string]int64 // lowercased username -> user ID
}

// BackupConfig selects where archived backups go. Empty Dir and Bucket
// disables archiving.
type BackupConfig struct {
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
	S3Prefix    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:      strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))),
		StorePath:        os.Getenv("STORE_PATH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		ShopName:         strings.TrimSpace(os.Getenv("SHOP_NAME")),
		PhoneCountryCode: strings.TrimPrefix(strings.TrimSpace(os.Getenv("PHONE_COUNTRY_CODE")), "+"),
		Backup: BackupConfig{
			Dir:        os.Getenv("BACKUP_DIR"),
			S3Bucket:   os.Getenv("BACKUP_S3_BUCKET"),
			S3Region:   os.Getenv("BACKUP_S3_REGION"),
			S3Endpoint: os.Getenv("BACKUP_S3_ENDPOINT"),
			S3Prefix:   os.Getenv("BACKUP_S3_PREFIX"),
		},
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DefaultStoreDriver
	}
	if cfg.StorePath == "" {
		switch cfg.StoreDriver {
		case "bolt":
			cfg.StorePath = DefaultBoltPath
		case "sqlite":
			cfg.StorePath = DefaultSQLitePath
		}
	}
	if cfg.ShopName == "" {
		cfg.ShopName = DefaultShopName
	}
	if cfg.PhoneCountryCode == "" {
		cfg.PhoneCountryCode = DefaultPhoneCountryCode
	}
	if cfg.Backup.S3Bucket != "" && cfg.Backup.S3Region == "" {
		cfg.Backup.S3Region = DefaultS3Region
	}
	if v := os.Getenv("BACKUP_S3_PATH_STYLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backup.S3PathStyle = b
		}
	}

	for _, field := range listEnv("WHITELISTED_USER_IDS") {
		if id, err := strconv.ParseInt(field, 10, 64); err == nil {
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}
	for _, name := range listEnv("WHITELISTED_USERNAMES") {
		cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, strings.TrimPrefix(name, "@"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the settings every command depends on.
func (c *Config) validate() error {
	var errs []string

	if !slices.Contains(storeDrivers, c.StoreDriver) {
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be one of %s, got %q", strings.Join(storeDrivers, ", "), c.StoreDriver))
	}

	if c.StoreDriver == "postgres" && c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required when STORE_DRIVER=postgres")
	}

	if c.Backup.S3Endpoint != "" && c.Backup.S3Bucket == "" {
		errs = append(errs, "BACKUP_S3_BUCKET is required when BACKUP_S3_ENDPOINT is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateBot checks the additional settings needed to run the Telegram bot.
func (c *Config) ValidateBot() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("bot configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ArchiveEnabled reports whether any backup archive destination is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Backup.Dir != "" || c.Backup.S3Bucket != ""
}

// listEnv splits a comma separated variable, dropping blank entries.
func listEnv(key string) []string {
	var out []string
	for field := range strings.SplitSeq(os.Getenv(key), ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
