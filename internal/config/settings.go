package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Settings are runtime options read from the environment. CLI flags override them.
type Settings struct {
	DBPath        string `env:"STAGEMAP_DB"`
	LogLevel      string `env:"STAGEMAP_LOG_LEVEL" envDefault:"info"`
	FPS           int    `env:"STAGEMAP_FPS" envDefault:"30"`
	Seed          int64  `env:"STAGEMAP_SEED"` // 0 = use current time
	ReducedMotion bool   `env:"STAGEMAP_REDUCED_MOTION"`
	Player        string `env:"STAGEMAP_PLAYER"`
	Difficulty    string `env:"STAGEMAP_DIFFICULTY" envDefault:"normal"`
}

// LoadSettings parses the environment and fills derived defaults.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("config: parse env: %w", err)
	}
	if s.DBPath == "" {
		s.DBPath = DefaultDBPath()
	}
	if s.FPS <= 0 {
		s.FPS = 30
	}
	if s.Player == "" {
		s.Player = os.Getenv("USER")
	}
	if s.Player == "" {
		s.Player = "player"
	}
	return s, nil
}

// DefaultDBPath returns ~/.stagemap/sessions.db, or a relative path if home is unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions.db"
	}
	return filepath.Join(home, ".stagemap", "sessions.db")
}
