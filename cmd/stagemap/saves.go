package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/storage"
)

var (
	flagSavesAll    bool
	flagSavesDelete string
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List or delete saved sessions",
	Long: `List the sessions saved when quitting a map before it ended. A saved
session is picked up with 'stagemap play <map> --resume'.

Examples:
  stagemap saves
  stagemap saves --all
  stagemap saves --delete meadow`,
	Args: cobra.NoArgs,
	RunE: runSaves,
}

func init() {
	savesCmd.Flags().BoolVar(&flagSavesAll, "all", false, "List saves of every player")
	savesCmd.Flags().StringVar(&flagSavesDelete, "delete", "", "Delete the saves of the current player on a map")
}

func runSaves(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		return fmt.Errorf("opening sessions database: %w", err)
	}
	defer store.Close()

	if flagSavesDelete != "" {
		n, err := store.DeleteSnapshots(flagSavesDelete, settings.Player)
		if err != nil {
			return fmt.Errorf("deleting saves: %w", err)
		}
		fmt.Printf("Deleted %d saved session(s) on %s.\n", n, flagSavesDelete)
		return nil
	}

	player := settings.Player
	if flagSavesAll {
		player = ""
	}
	saves, err := store.Snapshots(player, 50)
	if err != nil {
		return fmt.Errorf("retrieving saves: %w", err)
	}
	if len(saves) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	fmt.Printf("  %-16s  %-12s  %-16s  %s\n", "Map", "Player", "Saved", "ID")
	fmt.Printf("  %-16s  %-12s  %-16s  %s\n", "---", "------", "-----", "--")
	for _, s := range saves {
		fmt.Printf("  %-16s  %-12s  %-16s  %s\n", s.MapID, s.Player, s.CreatedAt.Format("2006-01-02 15:04"), s.ID)
	}
	return nil
}
