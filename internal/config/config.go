package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every runtime setting. Values come from the environment, with
// sane defaults for local single-user deployments.
type Config struct {
	Port         string        `env:"PORT"              env-default:"8080"`
	DBPath       string        `env:"DB_PATH"           env-default:"./data/macrosnap.db"`
	ImageDir     string        `env:"IMAGE_DIR"         env-default:"./data/images"`
	SecretKey    string        `env:"SECRET_KEY"`
	CookieSecure bool          `env:"COOKIE_SECURE"     env-default:"false"`
	VisionAPIKey string        `env:"ANTHROPIC_API_KEY"`
	VisionModel  string        `env:"VISION_MODEL"      env-default:"claude-sonnet-4-5"`
	VisionWait   time.Duration `env:"VISION_TIMEOUT"    env-default:"30s"`
}

// Load reads configuration from environment variables and validates the
// settings the server cannot run without.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if cfg.VisionAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.VisionWait <= 0 {
		return fmt.Errorf("VISION_TIMEOUT must be positive")
	}
	return nil
}
