// stagemap runs stage-map sessions in the terminal.
//
// Usage:
//
//	stagemap play [map]         - Play a map (menu when no map is named)
//	stagemap serve              - Start SSH server for remote play
//	stagemap validate <file>... - Check map files
//	stagemap maps               - List available maps and activities
//	stagemap results [map]      - Show finished sessions
//	stagemap saves              - List or delete saved sessions
//
// Global flags:
//
//	--fps <rate>         - Set tick rate (default: 30)
//	--seed <value>       - Set RNG seed for reproducible content
//	--db <path>          - Set database path (default: ~/.stagemap/sessions.db)
//	--player <name>      - Player name used for saves and results
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/config"

	// Import activities to register them
	_ "github.com/vovakirdan/stagemap/internal/activities/quiz"
	_ "github.com/vovakirdan/stagemap/internal/activities/sequence"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagPlayer   string
	flagLogLevel string

	// settings is the environment overlaid with flags that were set.
	settings config.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stagemap",
	Short: "Stagemap - progress through a map of exercises in your terminal",
	Long: `Stagemap plays maps of connected stages. Each stage holds a short
exercise; clearing it opens the paths to its neighbours. Lives, timers and a
score gate the way to the finish.

Available commands:
  play      - Play a map (interactive menu when no map is named)
  serve     - Start SSH server for remote play
  validate  - Check map files for problems
  maps      - List available maps and activities
  results   - Show finished sessions
  saves     - List or delete saved sessions

Settings are read from STAGEMAP_* environment variables; flags override them.

Examples:
  stagemap play
  stagemap play meadow --difficulty easy
  stagemap play --file ./maps/forest.yaml
  stagemap serve --ssh :2222
  stagemap results meadow`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to sessions database (default ~/.stagemap/sessions.db)")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Player name (default $USER)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mapsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(savesCmd)
}

// loadSettings reads the environment and applies the flags the user set.
func loadSettings(cmd *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("fps") {
		s.FPS = flagFPS
	}
	if flags.Changed("seed") {
		s.Seed = flagSeed
	}
	if flags.Changed("db") {
		s.DBPath = flagDBPath
	}
	if flags.Changed("player") {
		s.Player = flagPlayer
	}
	if flags.Changed("log-level") {
		s.LogLevel = flagLogLevel
	}
	if s.FPS <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", s.FPS)
	}

	settings = s
	return nil
}

// newLogger builds a logger at the configured level writing to stderr.
func newLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           logLevel(),
	})
}

// newFileLogger logs to ~/.stagemap/stagemap.log so the terminal UI stays clean.
// The returned function closes the file.
func newFileLogger() (*log.Logger, func()) {
	path := filepath.Join(filepath.Dir(config.DefaultDBPath()), "stagemap.log")
	//nolint:errcheck // OpenFile reports the failure
	os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		l := newLogger("stagemap")
		l.SetLevel(log.ErrorLevel)
		return l, func() {}
	}
	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "stagemap",
		Level:           logLevel(),
	})
	return l, func() { f.Close() }
}

func logLevel() log.Level {
	lvl, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
