// Package gamemap implements the stage-map progression engine: a graph of
// scorable stages joined by paths, where clearing a stage unlocks its
// neighbours subject to lives, time limits and score gates.
//
// The engine is single-threaded and driven entirely by its callers: stage
// activations, exercise score reports and Tick calls carrying elapsed time.
// Side effects reach the host through a transition queue so that they can be
// sequenced against animations.
package gamemap

import (
	"fmt"
	"time"
)

// RoamingMode controls what a stage needs before its neighbours unlock.
type RoamingMode string

const (
	// RoamingFree opens every reachable stage from the start.
	RoamingFree RoamingMode = "free"
	// RoamingComplete unlocks neighbours once a stage's exercise is finished with any score.
	RoamingComplete RoamingMode = "complete"
	// RoamingSuccess unlocks neighbours only when the exercise reaches full score.
	RoamingSuccess RoamingMode = "success"
)

// FogMode controls which not-yet-opened stages and paths are shown.
type FogMode string

const (
	FogAll      FogMode = "all"      // Reveal everything reachable
	FogAdjacent FogMode = "adjacent" // Reveal opened stages and their direct neighbours
	FogNone     FogMode = "none"     // Reveal opened stages only
)

// StageKind distinguishes scorable stages from special ones.
type StageKind string

const (
	KindNormal  StageKind = "normal"
	KindSpecial StageKind = "special"
)

// SpecialKind is the subtype of a special stage.
type SpecialKind string

const (
	SpecialNone      SpecialKind = ""
	SpecialFinish    SpecialKind = "finish"
	SpecialExtraLife SpecialKind = "extra-life"
	SpecialExtraTime SpecialKind = "extra-time"
)

// Unlimited is the lives value meaning the life pool never runs out.
const Unlimited = -1

// Access holds score gates for a stage.
type Access struct {
	MinScore              int
	OpenOnScoreSufficient bool
}

// ExerciseConfig binds a scorable activity to a stage.
type ExerciseConfig struct {
	Activity  string        // Activity reference resolved by the host
	MaxScore  int           // Score needed to clear the stage
	TimeLimit time.Duration // 0 means no per-exercise timer
	WarnAt    time.Duration // Remaining time that triggers a warning
}

// StageConfig is the static definition of one stage.
type StageConfig struct {
	ID         string
	Label      string
	Neighbors  []string
	Kind       StageKind
	Special    SpecialKind
	ExtraLives int           // Lives granted by an extra-life stage
	ExtraTime  time.Duration // Time granted by an extra-time stage
	Exercise   *ExerciseConfig
	Access     Access
	CanBeStart bool
}

// IsSpecial reports whether the stage is a special stage.
func (s StageConfig) IsSpecial() bool {
	return s.Kind == KindSpecial
}

// Behaviour holds session-wide settings.
type Behaviour struct {
	Roaming     RoamingMode
	Fog         FogMode
	Lives       int           // Unlimited or a positive count
	TimeLimit   time.Duration // 0 means no global timer
	WarnAt      time.Duration // Remaining global time that triggers a warning
	FinishScore int           // 0 means no cap
}

// Config is the complete construction input for a map.
type Config struct {
	ID         string
	Title      string
	Background string
	Behaviour  Behaviour
	Stages     []StageConfig
}

// withDefaults fills optional settings left empty.
func (c Config) withDefaults() Config {
	if c.Behaviour.Roaming == "" {
		c.Behaviour.Roaming = RoamingSuccess
	}
	if c.Behaviour.Fog == "" {
		c.Behaviour.Fog = FogAll
	}
	if c.Behaviour.Lives == 0 {
		c.Behaviour.Lives = Unlimited
	}
	stages := make([]StageConfig, len(c.Stages))
	for i, s := range c.Stages {
		if s.Kind == "" {
			s.Kind = KindNormal
			if s.Special != SpecialNone {
				s.Kind = KindSpecial
			}
		}
		if s.Label == "" {
			s.Label = s.ID
		}
		stages[i] = s
	}
	c.Stages = stages
	return c
}

// Validate checks a map configuration and reports every problem found.
// It returns nil or a *ConfigError.
func Validate(cfg Config) error {
	cfg = cfg.withDefaults()
	var problems []ValidationError
	add := func(code, format string, args ...any) {
		problems = append(problems, ValidationError{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Background == "" {
		add(CodeNoBackground, "map %q has no background", cfg.ID)
	}
	switch cfg.Behaviour.Roaming {
	case RoamingFree, RoamingComplete, RoamingSuccess:
	default:
		add(CodeUnknownMode, "unknown roaming mode %q", cfg.Behaviour.Roaming)
	}
	switch cfg.Behaviour.Fog {
	case FogAll, FogAdjacent, FogNone:
	default:
		add(CodeUnknownFog, "unknown fog setting %q", cfg.Behaviour.Fog)
	}
	if cfg.Behaviour.Lives != Unlimited && cfg.Behaviour.Lives < 1 {
		add(CodeInvalidLives, "lives must be positive or unlimited, got %d", cfg.Behaviour.Lives)
	}
	if cfg.Behaviour.TimeLimit < 0 || cfg.Behaviour.FinishScore < 0 {
		add(CodeInvalidBehaviour, "time limit and finish score must not be negative")
	}

	if len(cfg.Stages) == 0 {
		add(CodeNoStages, "map %q defines no stages", cfg.ID)
		return newConfigError(problems)
	}

	ids := make(map[string]bool, len(cfg.Stages))
	for _, s := range cfg.Stages {
		if s.ID == "" {
			add(CodeDuplicateStage, "stage with empty id")
			continue
		}
		if ids[s.ID] {
			add(CodeDuplicateStage, "stage %q defined more than once", s.ID)
		}
		ids[s.ID] = true
	}

	for _, s := range cfg.Stages {
		for _, n := range s.Neighbors {
			switch {
			case n == s.ID:
				add(CodeSelfNeighbor, "stage %q lists itself as a neighbour", s.ID)
			case !ids[n]:
				add(CodeDanglingNeighbor, "stage %q references unknown neighbour %q", s.ID, n)
			}
		}

		if s.IsSpecial() {
			switch s.Special {
			case SpecialFinish:
			case SpecialExtraLife:
				if s.ExtraLives <= 0 {
					add(CodeInvalidSpecial, "extra-life stage %q grants no lives", s.ID)
				}
			case SpecialExtraTime:
				if s.ExtraTime <= 0 {
					add(CodeInvalidSpecial, "extra-time stage %q grants no time", s.ID)
				}
			default:
				add(CodeInvalidSpecial, "stage %q has unknown special type %q", s.ID, s.Special)
			}
			if s.Exercise != nil {
				add(CodeInvalidSpecial, "special stage %q cannot bind an exercise", s.ID)
			}
		}

		if ex := s.Exercise; ex != nil {
			if ex.MaxScore <= 0 {
				add(CodeInvalidExercise, "stage %q exercise needs a positive max score", s.ID)
			}
			if ex.TimeLimit < 0 || ex.WarnAt < 0 || (ex.TimeLimit > 0 && ex.WarnAt >= ex.TimeLimit) {
				add(CodeInvalidExercise, "stage %q exercise has an invalid time limit or warning", s.ID)
			}
		}
	}

	if len(StartCandidates(cfg.Stages)) == 0 {
		add(CodeNoStartStage, "map %q has no stage that can start a session", cfg.ID)
	}

	return newConfigError(problems)
}
