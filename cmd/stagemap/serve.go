package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/platform/tui"
)

var (
	flagSSHAddr         string
	flagHostKey         string
	flagIdleTimeout     int
	flagServeDifficulty string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stagemap SSH server",
	Long: `Start an SSH server that allows users to connect and play maps.

Each SSH connection gets its own session with a map picker menu. The SSH
user name is the player name, so saved sessions follow the user between
connections. Results are stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.stagemap/host_key

Examples:
  stagemap serve                           # Listen on :23234 with auto-generated key
  stagemap serve --ssh :2222               # Listen on port 2222
  stagemap serve --host-key ./my_host_key  # Use specific host key
  stagemap serve --db ./sessions.db        # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServeDifficulty, "difficulty", "", "Difficulty offered first: easy, normal, hard, fixed")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("difficulty") {
		flagServeDifficulty = settings.Difficulty
	}
	difficulty, err := config.ParsePreset(flagServeDifficulty)
	if err != nil {
		return err
	}

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.DBPath = settings.DBPath
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.Difficulty = difficulty
	cfg.TickRate = settings.FPS
	cfg.ReducedMotion = settings.ReducedMotion
	cfg.LogLevel = logLevel()

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting stagemap SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
