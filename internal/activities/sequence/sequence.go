// Package sequence implements an ordering activity: the player picks tiles
// in ascending order. Every correct pick scores a point and the first wrong
// pick ends the attempt.
package sequence

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/registry"
)

// Tiles per attempt.
const tileCount = 4

// Variant names.
const (
	VariantNumbers = "numbers"
	VariantLetters = "letters"
)

func init() {
	registry.Register("sequence", func() registry.Activity {
		return New()
	})
}

// Sequence is one ordering attempt.
type Sequence struct {
	variant string
	tiles   []string // Display order
	picked  []bool
	cursor  int
	score   int
	done    bool
	mistake int // Tile index of the wrong pick, -1 if none

	solutions bool
}

// New creates a sequence activity. Reset must be called before use.
func New() *Sequence {
	return &Sequence{mistake: -1}
}

// ID returns the activity kind.
func (s *Sequence) ID() string { return "sequence" }

// Title returns the display name.
func (s *Sequence) Title() string { return "Sequence" }

// Variants returns the supported tile sets.
func (s *Sequence) Variants() []string {
	return []string{VariantNumbers, VariantLetters}
}

// Reset deals a new set of tiles.
func (s *Sequence) Reset(cfg core.RuntimeConfig) {
	s.variant = cfg.Variant
	if s.variant != VariantLetters {
		s.variant = VariantNumbers
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	s.tiles = deal(rng, s.variant)
	s.picked = make([]bool, len(s.tiles))
	s.cursor = 0
	s.score = 0
	s.done = false
	s.mistake = -1
	s.solutions = false
}

// deal draws distinct tiles in shuffled order.
func deal(rng *rand.Rand, variant string) []string {
	var pool []string
	if variant == VariantLetters {
		for r := 'A'; r <= 'Z'; r++ {
			pool = append(pool, string(r))
		}
	} else {
		for n := 1; n <= 99; n++ {
			pool = append(pool, fmt.Sprint(n))
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:tileCount]
}

// less orders tiles numerically for numbers and alphabetically for letters.
func (s *Sequence) less(a, b string) bool {
	if s.variant == VariantNumbers && len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// sorted returns the tiles in the order they must be picked.
func (s *Sequence) sorted() []string {
	out := slices.Clone(s.tiles)
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case s.less(a, b):
			return -1
		case s.less(b, a):
			return 1
		}
		return 0
	})
	return out
}

// Step moves the cursor or picks the highlighted tile.
func (s *Sequence) Step(in core.InputFrame) core.StepResult {
	if s.done || s.solutions || len(s.tiles) == 0 {
		return core.StepResult{State: s.State()}
	}

	n := len(s.tiles)
	switch {
	case in.Has(core.ActionLeft):
		s.cursor = (s.cursor + n - 1) % n
	case in.Has(core.ActionRight):
		s.cursor = (s.cursor + 1) % n
	case in.Has(core.ActionConfirm):
		return s.pick()
	}
	return core.StepResult{State: s.State()}
}

func (s *Sequence) pick() core.StepResult {
	if s.picked[s.cursor] {
		return core.StepResult{State: s.State()}
	}
	if s.tiles[s.cursor] != s.sorted()[s.score] {
		s.mistake = s.cursor
		s.done = true
		return core.StepResult{State: s.State(), Finished: true}
	}
	s.picked[s.cursor] = true
	s.score++
	if s.score == len(s.tiles) {
		s.done = true
		return core.StepResult{State: s.State(), Finished: true}
	}
	return core.StepResult{State: s.State()}
}

// State returns the score so far.
func (s *Sequence) State() core.ActivityState {
	return core.ActivityState{
		Score:    s.score,
		MaxScore: len(s.tiles),
		Done:     s.done,
	}
}

// ShowSolutions displays the tiles in the correct order.
func (s *Sequence) ShowSolutions() {
	s.solutions = true
}

// Render draws the tile row.
func (s *Sequence) Render(dst *core.Screen) {
	title := "Pick the numbers from smallest to largest"
	if s.variant == VariantLetters {
		title = "Pick the letters in alphabetical order"
	}
	dst.DrawTextCentered(0, title, core.ColorBrightWhite)

	tiles := s.tiles
	if s.solutions {
		tiles = s.sorted()
		dst.DrawTextCentered(1, "Solution", core.ColorGray)
	}

	const tileW = 6
	x := (dst.Width() - len(tiles)*tileW) / 2
	for i, t := range tiles {
		color := core.ColorDefault
		switch {
		case s.solutions:
			color = core.ColorGreen
		case i == s.mistake:
			color = core.ColorRed
		case s.picked[i]:
			color = core.ColorDim
		case i == s.cursor && !s.done:
			color = core.ColorYellow
		}
		r := core.NewRect(x+i*tileW, 3, tileW-1, 3)
		dst.DrawBox(r, color)
		label := t
		if !s.solutions && s.picked[i] {
			label = strings.Repeat("·", len(t))
		}
		dst.DrawTextColor(r.Center().X-len(label)/2, r.Y+1, label, color)
	}

	if s.done && !s.solutions {
		dst.DrawTextCentered(7, fmt.Sprintf("Score: %d/%d", s.score, len(s.tiles)), core.ColorBrightYellow)
	}
}

type snapshot struct {
	Variant string   `json:"variant"`
	Tiles   []string `json:"tiles"`
	Picked  []bool   `json:"picked"`
	Cursor  int      `json:"cursor"`
	Score   int      `json:"score"`
	Done    bool     `json:"done"`
	Mistake int      `json:"mistake"`
}

// Snapshot returns the attempt so far as JSON.
func (s *Sequence) Snapshot() json.RawMessage {
	data, _ := json.Marshal(snapshot{
		Variant: s.variant,
		Tiles:   s.tiles,
		Picked:  s.picked,
		Cursor:  s.cursor,
		Score:   s.score,
		Done:    s.done,
		Mistake: s.mistake,
	})
	return data
}

// Restore continues an attempt saved by Snapshot.
func (s *Sequence) Restore(data json.RawMessage) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("sequence: decode snapshot: %w", err)
	}
	if snap.Variant != VariantNumbers && snap.Variant != VariantLetters {
		return fmt.Errorf("sequence: unknown variant %q", snap.Variant)
	}
	if len(snap.Tiles) == 0 || len(snap.Picked) != len(snap.Tiles) || snap.Score > len(snap.Tiles) {
		return fmt.Errorf("sequence: inconsistent snapshot")
	}

	s.variant = snap.Variant
	s.tiles = snap.Tiles
	s.picked = snap.Picked
	s.cursor = core.Clamp(snap.Cursor, 0, len(snap.Tiles)-1)
	s.score = snap.Score
	s.done = snap.Done
	s.mistake = snap.Mistake
	s.solutions = false
	return nil
}
