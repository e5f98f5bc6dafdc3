package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration.
type Config struct {
	WebhookURL string
	LogLevel   logrus.Level
	Debug      bool
	Invisible  bool
	Spotify    struct {
		ClientID     string
		ClientSecret string
		RefreshToken string
	}
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	cfg.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	cfg.Spotify.RefreshToken = os.Getenv("SPOTIFY_REFRESH_TOKEN")

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" || cfg.Spotify.RefreshToken == "" {
		return nil, fmt.Errorf("spotify credentials are not set")
	}

	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is not set")
	}

	if debug, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = debug
	}
	if invisible, err := strconv.ParseBool(os.Getenv("INVISIBLE")); err == nil {
		cfg.Invisible = invisible
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = logrus.DebugLevel
	case "warn":
		cfg.LogLevel = logrus.WarnLevel
	case "error":
		cfg.LogLevel = logrus.ErrorLevel
	default:
		cfg.LogLevel = logrus.InfoLevel
	}

	return cfg, nil
}

// ApplyFlags lets command line flags switch on debug and invisible
// mode over whatever the environment configured.
func (c *Config) ApplyFlags(args []string) {
	for _, arg := range args {
		switch arg {
		case "--debug", "-d":
			c.Debug = true
		case "--invisible", "-i":
			c.Invisible = true
		}
	}
}
