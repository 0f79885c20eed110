package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/storage"
)

var resultsCmd = &cobra.Command{
	Use:   "results [map]",
	Short: "Show finished sessions",
	Long: `Display the top 10 results for the named map, or a summary of every
map that has results.

Examples:
  stagemap results
  stagemap results meadow`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func runResults(_ *cobra.Command, args []string) error {
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		return fmt.Errorf("opening sessions database: %w", err)
	}
	defer store.Close()

	if len(args) == 0 {
		return printMapStats(store)
	}

	mapID := args[0]
	mf, err := config.LoadMap(mapID, "")
	if err != nil {
		return fmt.Errorf("%w\nRun 'stagemap maps' to see available maps", err)
	}

	results, err := store.TopResults(mapID, 10)
	if err != nil {
		return fmt.Errorf("retrieving results: %w", err)
	}

	fmt.Printf("Results - %s\n", mf.Title)
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("No sessions finished yet.")
		fmt.Println()
		fmt.Printf("Play 'stagemap play %s' to set the first result!\n", mapID)
		return nil
	}

	fmt.Printf("  %-4s  %-9s  %-7s  %-15s  %-5s  %-5s  %-12s  %s\n", "Rank", "Score", "Stages", "Outcome", "Lives", "Time", "Player", "Date")
	fmt.Printf("  %-4s  %-9s  %-7s  %-15s  %-5s  %-5s  %-12s  %s\n", "----", "-----", "------", "-------", "-----", "----", "------", "----")
	for i, r := range results {
		score := fmt.Sprintf("%d/%d", r.Score, r.MaxScore)
		stages, lives, left := "-", "-", "-"
		if r.Stages > 0 {
			stages = fmt.Sprintf("%d/%d", r.Cleared, r.Stages)
		}
		switch {
		case r.LivesLeft == gamemap.Unlimited:
			lives = "inf"
		case r.LivesLeft > 0:
			lives = fmt.Sprint(r.LivesLeft)
		}
		if r.Timed {
			left = fmt.Sprintf("%d:%02d", int(r.TimeLeft.Minutes()), int(r.TimeLeft.Seconds())%60)
		}
		fmt.Printf("  %-4d  %-9s  %-7s  %-15s  %-5s  %-5s  %-12s  %s\n",
			i+1, score, stages, r.Outcome, lives, left, r.Player, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Println()
	if best, err := store.HighScore(mapID); err == nil {
		fmt.Printf("Best: %d\n", best)
	}
	return nil
}

func printMapStats(store *storage.Store) error {
	stats, err := store.AllMapStats()
	if err != nil {
		return fmt.Errorf("retrieving results: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No sessions finished yet.")
		return nil
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-16s  %-8s  %-8s  %-5s  %-7s  %s\n", "Map", "Sessions", "Finished", "Best", "Average", "Last played")
	fmt.Printf("  %-16s  %-8s  %-8s  %-5s  %-7s  %s\n", "---", "--------", "--------", "----", "-------", "-----------")
	for _, id := range ids {
		st := stats[id]
		fmt.Printf("  %-16s  %-8d  %-8d  %-5d  %-7.1f  %s\n",
			id, st.Sessions, st.Finished, st.HighScore, st.AvgScore, st.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}
