// Package config provides YAML-based map loading, difficulty presets and
// environment settings for the stagemap platform.
package config

import (
	"time"

	"github.com/vovakirdan/stagemap/internal/gamemap"
)

// MapFile is the on-disk form of a stage map.
type MapFile struct {
	ID         string        `yaml:"id"`
	Title      string        `yaml:"title"`
	Background string        `yaml:"background"`
	Behaviour  BehaviourFile `yaml:"behaviour"`
	Stages     []StageFile   `yaml:"stages"`
}

// BehaviourFile holds session-wide settings. Durations are in seconds.
type BehaviourFile struct {
	Roaming     string `yaml:"roaming"`      // "free", "complete" or "success"
	Fog         string `yaml:"fog"`          // "all", "adjacent" or "none"
	Lives       int    `yaml:"lives"`        // 0 or -1 = unlimited
	TimeLimit   int    `yaml:"time_limit"`   // 0 = no global timer
	WarnAt      int    `yaml:"warn_at"`      // Remaining seconds that trigger a warning
	FinishScore int    `yaml:"finish_score"` // 0 = no cap
}

// StageFile defines one stage.
type StageFile struct {
	ID         string        `yaml:"id"`
	Label      string        `yaml:"label"`
	Neighbors  []string      `yaml:"neighbors"`
	Start      bool          `yaml:"start"`
	Special    string        `yaml:"special"` // "finish", "extra-life" or "extra-time"
	ExtraLives int           `yaml:"extra_lives"`
	ExtraTime  int           `yaml:"extra_time"`
	Exercise   *ExerciseFile `yaml:"exercise"`
	Access     AccessFile    `yaml:"access"`
}

// ExerciseFile binds an activity to a stage.
type ExerciseFile struct {
	Activity  string `yaml:"activity"`
	MaxScore  int    `yaml:"max_score"`
	TimeLimit int    `yaml:"time_limit"`
	WarnAt    int    `yaml:"warn_at"`
}

// AccessFile holds the score gate of a stage.
type AccessFile struct {
	MinScore              int  `yaml:"min_score"`
	OpenOnScoreSufficient bool `yaml:"open_on_score_sufficient"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// GameMap converts the file into engine configuration.
func (m MapFile) GameMap() gamemap.Config {
	lives := m.Behaviour.Lives
	if lives < 0 {
		lives = gamemap.Unlimited
	}

	cfg := gamemap.Config{
		ID:         m.ID,
		Title:      m.Title,
		Background: m.Background,
		Behaviour: gamemap.Behaviour{
			Roaming:     gamemap.RoamingMode(m.Behaviour.Roaming),
			Fog:         gamemap.FogMode(m.Behaviour.Fog),
			Lives:       lives,
			TimeLimit:   seconds(m.Behaviour.TimeLimit),
			WarnAt:      seconds(m.Behaviour.WarnAt),
			FinishScore: m.Behaviour.FinishScore,
		},
		Stages: make([]gamemap.StageConfig, 0, len(m.Stages)),
	}

	for _, s := range m.Stages {
		sc := gamemap.StageConfig{
			ID:         s.ID,
			Label:      s.Label,
			Neighbors:  append([]string(nil), s.Neighbors...),
			Special:    gamemap.SpecialKind(s.Special),
			ExtraLives: s.ExtraLives,
			ExtraTime:  seconds(s.ExtraTime),
			Access: gamemap.Access{
				MinScore:              s.Access.MinScore,
				OpenOnScoreSufficient: s.Access.OpenOnScoreSufficient,
			},
			CanBeStart: s.Start,
		}
		if ex := s.Exercise; ex != nil {
			sc.Exercise = &gamemap.ExerciseConfig{
				Activity:  ex.Activity,
				MaxScore:  ex.MaxScore,
				TimeLimit: seconds(ex.TimeLimit),
				WarnAt:    seconds(ex.WarnAt),
			}
		}
		cfg.Stages = append(cfg.Stages, sc)
	}
	return cfg
}

// Activities returns the distinct activity references used by the map.
func (m MapFile) Activities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range m.Stages {
		if s.Exercise == nil || seen[s.Exercise.Activity] {
			continue
		}
		seen[s.Exercise.Activity] = true
		out = append(out, s.Exercise.Activity)
	}
	return out
}
