package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/platform/tui"
	"github.com/vovakirdan/stagemap/internal/storage"
)

var (
	flagFile          string
	flagDifficulty    string
	flagResume        bool
	flagReducedMotion bool
)

var playCmd = &cobra.Command{
	Use:   "play [map]",
	Short: "Play a map",
	Long: `Start a session on the named map. Without a map name an interactive
menu lists every available map; after a session you return to the menu.

Maps are looked up in ~/.stagemap/maps, then ./maps, then the built-in set.

Controls:
  Arrows/WASD  - Move between stages
  Enter/Space  - Enter stage
  Esc          - Close exercise
  P            - Pause timers
  F            - Finish session
  V            - Show solutions (after the session ends)
  R            - Restart (after the session ends)
  ?            - Help
  Q/Ctrl+C     - Save and quit

Difficulty options:
  easy   - Two extra lives, 50% more time
  normal - The map as written
  hard   - Half the lives, a third less time
  fixed  - No time limits

Examples:
  stagemap play
  stagemap play meadow
  stagemap play meadow --resume
  stagemap play ridge --difficulty hard
  stagemap play --file ./my-map.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagFile, "file", "", "Path to a map YAML file")
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	playCmd.Flags().BoolVar(&flagResume, "resume", false, "Continue the latest saved session on the map")
	playCmd.Flags().BoolVar(&flagReducedMotion, "reduced-motion", false, "Skip animation delays")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("difficulty") {
		flagDifficulty = settings.Difficulty
	}
	difficulty, err := config.ParsePreset(flagDifficulty)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("reduced-motion") {
		settings.ReducedMotion = flagReducedMotion
	}

	logger, closeLog := newFileLogger()
	defer closeLog()

	// Open session storage
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open sessions database: %v\n", err)
		// Continue without storage - saves and results are skipped
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	rt := runtimeConfig()

	if len(args) == 0 && flagFile == "" {
		return runMenuLoop(store, rt, difficulty, logger)
	}

	mapID := ""
	if len(args) == 1 {
		mapID = args[0]
	}
	opts, err := tui.PrepareSession(tui.SessionRequest{
		MapID:         mapID,
		MapPath:       flagFile,
		Player:        settings.Player,
		Difficulty:    difficulty,
		Resume:        flagResume,
		Runtime:       rt,
		ReducedMotion: settings.ReducedMotion,
		Store:         store,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	if flagResume && opts.Resume == nil {
		fmt.Fprintf(os.Stderr, "No saved session for %s, starting a new one.\n", opts.MapID)
	}

	_, err = tui.Run(opts)
	return err
}

// runtimeConfig builds the runtime config from the terminal and settings.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	cfg.TickRate = settings.FPS
	cfg.Seed = settings.Seed
	return cfg
}

// runMenuLoop shows the map picker until the user quits.
func runMenuLoop(store *storage.Store, cfg core.RuntimeConfig, difficulty config.DifficultyPreset, logger *log.Logger) error {
	for {
		menuResult, err := tui.RunMenu(store, cfg, settings.Player)
		if err != nil {
			return err
		}

		// Update config with any size changes
		cfg = menuResult.Config

		if menuResult.Quit {
			return nil
		}

		if menuResult.WantsResults {
			goBack, err := tui.RunResults(store, cfg.ScreenW, cfg.ScreenH)
			if err != nil {
				return err
			}
			if goBack {
				continue // Back to menu
			}
			return nil // User quit from results
		}

		if menuResult.MapID == "" {
			return nil
		}

		sel, err := tui.RunStartMenu(menuResult.Title, menuResult.Saved, difficulty, cfg.ScreenW, cfg.ScreenH)
		if err != nil {
			return err
		}
		if sel == nil {
			continue
		}
		difficulty = sel.Difficulty

		// New content for each session unless a seed was pinned
		rt := cfg
		if settings.Seed == 0 {
			rt.Seed = time.Now().UnixNano()
		}

		opts, err := tui.PrepareSession(tui.SessionRequest{
			MapID:         menuResult.MapID,
			Player:        settings.Player,
			Difficulty:    sel.Difficulty,
			Resume:        sel.Resume,
			Runtime:       rt,
			ReducedMotion: settings.ReducedMotion,
			Store:         store,
			Logger:        logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading map: %v\n", err)
			continue
		}
		opts.CanGoBack = true

		back, err := tui.Run(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running map: %v\n", err)
		}
		if !back {
			return nil
		}
	}
}
