/* config.go
 * Contains the process configuration. An optional .env file is loaded first, then the environment is parsed into
 * Config. Variables already set in the environment win over the .env file
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/vlakddp4/publicbot/api/media"
	"github.com/vlakddp4/publicbot/api/store"
)

// Config holds every setting the bot reads at startup
type Config struct {
	DiscordToken   string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
	AllowedGuildID string `env:"ALLOWED_GUILD_ID,required,notEmpty"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"participants.db"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"publicbot"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	PageSize      int    `env:"PAGE_SIZE" envDefault:"3"`

	// ConfirmationTTL is how long public confirmations stay visible, 0 keeps them
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL" envDefault:"60s"`

	R2AccountID     string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID   string `env:"R2_ACCESS_KEY_ID"`
	R2SecretKey     string `env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket        string `env:"R2_BUCKET"`
	R2PublicBaseURL string `env:"R2_PUBLIC_BASE_URL"`

	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	TraceStdout bool   `env:"TRACE_STDOUT" envDefault:"false"`
}

// Load reads envFile if it exists and parses the environment
// Preconditions: Receives the path of an optional .env file, empty to skip it
// Postconditions: Returns the Config, or an error if the file is unreadable or a required variable is missing
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be at least 1, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// Store returns the store engine settings
func (c Config) Store() store.Config {
	return store.Config{
		Driver:   c.StoreDriver,
		Path:     c.SQLitePath,
		URI:      c.MongoURI,
		Database: c.MongoDatabase,
		DSN:      c.PostgresDSN,
	}
}

// R2 returns the profile image bucket settings. R2().Enabled() is false when no bucket is configured
func (c Config) R2() media.R2Config {
	return media.R2Config{
		AccountID:       c.R2AccountID,
		AccessKeyID:     c.R2AccessKeyID,
		AccessKeySecret: c.R2SecretKey,
		Bucket:          c.R2Bucket,
		PublicBaseURL:   c.R2PublicBaseURL,
	}
}
