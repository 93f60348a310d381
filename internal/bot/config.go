// Package bot connects the battle engine to a live showdown server:
// websocket transport, login handshake, room routing, and the default
// decision policy.
package bot

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the bot needs to reach and play on a server.
type Config struct {
	// Username is the account to log in as.
	Username string `env:"PS_USERNAME"`
	// Password is the account password; empty for unregistered names.
	Password string `env:"PS_PASSWORD"`
	// ServerURL is the simulator websocket endpoint.
	ServerURL string `env:"PS_SERVER_URL" envDefault:"wss://sim3.psim.us/showdown/websocket"`
	// LoginURL is the HTTP login endpoint used for the challstr
	// handshake.
	LoginURL string `env:"PS_LOGIN_URL" envDefault:"https://play.pokemonshowdown.com/action.php"`
	// Format is the ladder format searched after login.
	Format string `env:"PS_FORMAT" envDefault:"gen9randombattle"`
	// RecordsPath is the SQLite file battle outcomes are written to.
	// Empty disables record keeping.
	RecordsPath string `env:"PS_RECORDS_PATH" envDefault:"showdown.db"`
	// LogLevel is a logrus level name.
	LogLevel string `env:"PS_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads configuration from the environment, with an
// optional .env file layered underneath.
func LoadConfig() (Config, error) {
	// Missing .env files are fine; the environment may be complete on
	// its own.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("bot: parsing environment: %w", err)
	}
	if cfg.Username == "" {
		return Config{}, fmt.Errorf("bot: PS_USERNAME is required")
	}
	return cfg, nil
}

// Logger builds the configured logrus logger.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("bot: bad log level %q: %w", c.LogLevel, err)
	}
	log := logrus.New()
	log.SetLevel(level)
	return log, nil
}
