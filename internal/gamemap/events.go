package gamemap

import (
	"fmt"
	"time"
)

// Event is emitted by the controller to external collaborators.
type Event interface {
	gameMapEvent()
}

// StageStateChangedEvent is sent when a stage's state or visibility changes.
type StageStateChangedEvent struct {
	StageID string
	State   StageState
	Visible bool
}

func (StageStateChangedEvent) gameMapEvent() {}

// PathStateChangedEvent is sent when a path's state or visibility changes.
type PathStateChangedEvent struct {
	Path    PathKey
	State   PathState
	Visible bool
}

func (PathStateChangedEvent) gameMapEvent() {}

// ScoreChangedEvent carries the reported score pair.
type ScoreChangedEvent struct {
	Score    int
	MaxScore int
}

func (ScoreChangedEvent) gameMapEvent() {}

// LifeLostEvent is sent when a life is taken.
type LifeLostEvent struct {
	StageID   string
	LivesLeft int
}

func (LifeLostEvent) gameMapEvent() {}

// LifeGainedEvent is sent when lives are added.
type LifeGainedEvent struct {
	Added     int
	LivesLeft int
}

func (LifeGainedEvent) gameMapEvent() {}

// TimeGainedEvent is sent when the global timer is extended.
type TimeGainedEvent struct {
	Added    time.Duration
	TimeLeft time.Duration
}

func (TimeGainedEvent) gameMapEvent() {}

// GameOverEvent is sent once when the session ends.
type GameOverEvent struct {
	Outcome  Outcome
	Score    int
	MaxScore int
}

func (GameOverEvent) gameMapEvent() {}

// FullScoreReachedEvent fires at most once per session.
type FullScoreReachedEvent struct {
	Score    int
	MaxScore int
}

func (FullScoreReachedEvent) gameMapEvent() {}

// ExerciseOpenedEvent is sent when a stage's exercise overlay opens.
type ExerciseOpenedEvent struct {
	StageID string
}

func (ExerciseOpenedEvent) gameMapEvent() {}

// ExerciseClosedEvent is sent when the overlay closes.
type ExerciseClosedEvent struct {
	StageID string
}

func (ExerciseClosedEvent) gameMapEvent() {}

// TimeoutWarningEvent is sent when a timer crosses its warning threshold.
type TimeoutWarningEvent struct {
	Scope    Scope
	TimeLeft time.Duration
}

func (TimeoutWarningEvent) gameMapEvent() {}

// TimeoutEvent is sent when a timer runs out.
type TimeoutEvent struct {
	Scope Scope
}

func (TimeoutEvent) gameMapEvent() {}

// ActivationRejectedEvent is sent when a stage activation is refused.
type ActivationRejectedEvent struct {
	StageID   string
	Rejection Rejection
}

func (ActivationRejectedEvent) gameMapEvent() {}

// Scope tells which timer an event refers to.
type Scope struct {
	StageID string // Empty for the global timer
}

// GlobalScope is the scope of the session timer.
var GlobalScope = Scope{}

// IsGlobal reports whether the scope is the session timer.
func (s Scope) IsGlobal() bool { return s.StageID == "" }

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "exercise:" + s.StageID
}

// Outcome describes how a session ended.
type Outcome int

const (
	OutcomeNone           Outcome = iota // Session still running
	OutcomeFinished                      // Player confirmed finishing
	OutcomeLivesExhausted                // Lives reached zero
	OutcomeTimedOut                      // Global timer expired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeFinished:
		return "finished"
	case OutcomeLivesExhausted:
		return "lives-exhausted"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// IsLoss reports whether the outcome counts as a loss.
func (o Outcome) IsLoss() bool {
	return o == OutcomeLivesExhausted || o == OutcomeTimedOut
}

// cueFor returns the cue matching an event, if any.
func cueFor(e Event) (Cue, bool) {
	switch ev := e.(type) {
	case StageStateChangedEvent:
		switch ev.State {
		case StageOpen:
			return CueUnlocked, true
		case StageCleared:
			return CueCleared, true
		}
	case LifeLostEvent:
		return CueLifeLost, true
	case LifeGainedEvent:
		return CueLifeGained, true
	case TimeGainedEvent:
		return CueTimeGained, true
	case FullScoreReachedEvent:
		return CueFullScore, true
	case GameOverEvent:
		return CueGameOver, true
	case TimeoutWarningEvent:
		return CueTimeoutWarning, true
	case TimeoutEvent:
		return CueTimeout, true
	case ActivationRejectedEvent:
		return CueLocked, true
	}
	return "", false
}

// Describe renders an event as accessibility text. labels maps stage ids to labels.
func Describe(e Event, labels map[string]string) string {
	label := func(id string) string {
		if l, ok := labels[id]; ok && l != "" {
			return l
		}
		return id
	}

	switch ev := e.(type) {
	case StageStateChangedEvent:
		return fmt.Sprintf("Stage %s is now %s", label(ev.StageID), ev.State)
	case PathStateChangedEvent:
		return fmt.Sprintf("Path from %s to %s is now %s", label(ev.Path.From), label(ev.Path.To), ev.State)
	case ScoreChangedEvent:
		return fmt.Sprintf("Score %d of %d", ev.Score, ev.MaxScore)
	case LifeLostEvent:
		return fmt.Sprintf("Life lost, %d left", ev.LivesLeft)
	case LifeGainedEvent:
		return fmt.Sprintf("Gained %d lives, %d left", ev.Added, ev.LivesLeft)
	case TimeGainedEvent:
		return fmt.Sprintf("Gained %s, %s left", ev.Added, ev.TimeLeft)
	case GameOverEvent:
		return fmt.Sprintf("Game over (%s), final score %d of %d", ev.Outcome, ev.Score, ev.MaxScore)
	case FullScoreReachedEvent:
		return fmt.Sprintf("Full score reached: %d of %d", ev.Score, ev.MaxScore)
	case ExerciseOpenedEvent:
		return fmt.Sprintf("Opened %s", label(ev.StageID))
	case ExerciseClosedEvent:
		return fmt.Sprintf("Closed %s", label(ev.StageID))
	case TimeoutWarningEvent:
		if ev.Scope.IsGlobal() {
			return fmt.Sprintf("Hurry, %s left", ev.TimeLeft.Round(time.Second))
		}
		return fmt.Sprintf("Hurry, %s left for %s", ev.TimeLeft.Round(time.Second), label(ev.Scope.StageID))
	case TimeoutEvent:
		if ev.Scope.IsGlobal() {
			return "Time is up"
		}
		return fmt.Sprintf("Time is up for %s", label(ev.Scope.StageID))
	case ActivationRejectedEvent:
		if ev.Rejection.Reason == RejectMinScore {
			return fmt.Sprintf("%s needs a score of %d", label(ev.StageID), ev.Rejection.MinScore)
		}
		return fmt.Sprintf("%s is not available (%s)", label(ev.StageID), ev.Rejection.Reason)
	}
	return ""
}
