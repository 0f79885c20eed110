package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check map files for problems",
	Long: `Parse each map file, check the stage graph and make sure every
activity it names is available. Exits with status 1 if any file has problems.

Examples:
  stagemap validate ./maps/forest.yaml
  stagemap validate maps/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(_ *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		problems := validateFile(path)
		if len(problems) == 0 {
			fmt.Printf("ok    %s\n", path)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", path)
		for _, p := range problems {
			fmt.Printf("      %s\n", p)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d map files have problems", failed, len(args))
	}
	return nil
}

// validateFile returns a line per problem found in the map file at path.
func validateFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{err.Error()}
	}
	mf, err := config.ParseMap(data)
	if err != nil {
		return []string{"parse: " + err.Error()}
	}

	var problems []string
	if err := gamemap.Validate(mf.GameMap()); err != nil {
		var cfgErr *gamemap.ConfigError
		if errors.As(err, &cfgErr) {
			for _, p := range cfgErr.Problems {
				problems = append(problems, p.Error())
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	for _, ref := range mf.Activities() {
		if !registry.Exists(ref) {
			problems = append(problems, fmt.Sprintf("unknown activity %q", ref))
		}
	}
	return problems
}
