package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/SilverCrocus/slack-pr-bot/internal/gateway/slack"
	"github.com/SilverCrocus/slack-pr-bot/internal/logger"
	"github.com/SilverCrocus/slack-pr-bot/internal/relay"
	"github.com/SilverCrocus/slack-pr-bot/internal/server"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
	"github.com/SilverCrocus/slack-pr-bot/internal/verify"
)

type Config struct {
	HTTP   server.Config `yaml:"http"`
	Logger logger.Config `yaml:"logger"`
	Slack  slack.Config  `yaml:"slack"`
	Verify verify.Config `yaml:"verify"`
	Review relay.Config  `yaml:"review"`
	Team   team.Config   `yaml:"team"`
}

// New loads .env when present, then path (yaml) when given, then the environment.
// Environment variables win over file values.
func New(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}
