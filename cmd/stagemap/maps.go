package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/registry"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List available maps and activities",
	Long:  `Shows every map that can be played and the activities maps may use.`,
	Run:   runMaps,
}

func runMaps(_ *cobra.Command, _ []string) {
	maps := config.ListMaps()

	if len(maps) == 0 {
		fmt.Println("No maps available.")
	} else {
		fmt.Println("Available maps:")
		fmt.Println()

		// Calculate column widths
		maxIDLen := 2 // "ID" header
		maxTitleLen := 5
		for _, m := range maps {
			maxIDLen = max(maxIDLen, len(m.ID))
			maxTitleLen = max(maxTitleLen, len(m.Title))
		}

		fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, "ID", maxTitleLen, "Title", "Source")
		fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, "--", maxTitleLen, "-----", "------")
		for _, m := range maps {
			source := string(m.Source)
			if m.Path != "" {
				source += " (" + m.Path + ")"
			}
			fmt.Printf("  %-*s  %-*s  %s\n", maxIDLen, m.ID, maxTitleLen, m.Title, source)
		}
	}

	activities := registry.List()
	fmt.Println()
	fmt.Println("Activities:")
	fmt.Println()
	for _, a := range activities {
		variants := "-"
		if len(a.Variants) > 0 {
			variants = strings.Join(a.Variants, ", ")
		}
		fmt.Printf("  %-10s  %-20s  %s\n", a.ID, a.Title, variants)
	}

	fmt.Println()
	fmt.Println("Run 'stagemap play <id>' to play a map.")
}
