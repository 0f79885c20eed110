package gamemap

import (
	"encoding/json"
	"time"
)

// ExerciseState is the lifecycle state of an exercise runtime.
type ExerciseState int

const (
	ExerciseIdle      ExerciseState = iota // Closed, not finished
	ExerciseActive                         // Overlay open, timer running
	ExerciseCompleted                      // A score has been reported
)

func (s ExerciseState) String() string {
	switch s {
	case ExerciseIdle:
		return "idle"
	case ExerciseActive:
		return "active"
	case ExerciseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ScoreReport is what an exercise sends when it finishes.
type ScoreReport struct {
	Score    int
	MaxScore int
}

// ExerciseRuntime binds a scorable activity to a stage together with its countdown.
type ExerciseRuntime struct {
	stageID string
	cfg     ExerciseConfig

	state     ExerciseState
	score     int
	maxScore  int
	completed bool
	timer     *Countdown

	handle        ExerciseHandle
	instanceState json.RawMessage

	// Captured at Start so a timeout can roll back.
	preScore     int
	preCompleted bool
}

// NewExerciseRuntime creates an idle runtime for a stage.
func NewExerciseRuntime(stageID string, cfg ExerciseConfig) *ExerciseRuntime {
	return &ExerciseRuntime{
		stageID:  stageID,
		cfg:      cfg,
		maxScore: cfg.MaxScore,
		timer:    NewCountdown(cfg.TimeLimit, cfg.WarnAt),
	}
}

// StageID returns the owning stage.
func (e *ExerciseRuntime) StageID() string { return e.stageID }

// Activity returns the bound activity reference.
func (e *ExerciseRuntime) Activity() string { return e.cfg.Activity }

// State returns the runtime state.
func (e *ExerciseRuntime) State() ExerciseState { return e.state }

// Score returns the last reported score.
func (e *ExerciseRuntime) Score() int { return e.score }

// MaxScore returns the maximum score.
func (e *ExerciseRuntime) MaxScore() int { return e.maxScore }

// IsCompleted reports whether a score was ever reported.
func (e *ExerciseRuntime) IsCompleted() bool { return e.completed }

// IsFullScore reports whether the reported score equals the maximum.
func (e *ExerciseRuntime) IsFullScore() bool {
	return e.completed && e.score >= e.maxScore
}

// RemainingTime returns the time left, or 0 when no limit is configured.
func (e *ExerciseRuntime) RemainingTime() time.Duration { return e.timer.Remaining() }

// HasTimeLimit reports whether the exercise runs a countdown.
func (e *ExerciseRuntime) HasTimeLimit() bool { return e.timer.Enabled() }

// IsTimeoutWarning reports whether the remaining time is under the warning threshold.
func (e *ExerciseRuntime) IsTimeoutWarning() bool { return e.timer.IsWarning() }

// Handle returns the content handle of the current visit, or nil.
func (e *ExerciseRuntime) Handle() ExerciseHandle { return e.handle }

// Start marks the exercise active and starts its countdown.
func (e *ExerciseRuntime) Start() {
	e.preScore = e.score
	e.preCompleted = e.completed
	e.state = ExerciseActive
	if e.timer.Remaining() <= 0 {
		e.timer.Reset()
	}
	e.timer.Start()
}

// Stop closes the exercise. The remaining time is kept.
func (e *ExerciseRuntime) Stop() {
	e.timer.Stop()
	e.captureInstanceState()
	if e.completed {
		e.state = ExerciseCompleted
	} else {
		e.state = ExerciseIdle
	}
}

// attach records the content handle for the current visit.
func (e *ExerciseRuntime) attach(h ExerciseHandle) {
	e.handle = h
}

// captureInstanceState pulls resumable state out of the content.
func (e *ExerciseRuntime) captureInstanceState() {
	if e.handle == nil {
		return
	}
	if st := e.handle.CurrentState(); st != nil {
		e.instanceState = st
	}
}

// ReportScore records a finished attempt. The countdown stops.
func (e *ExerciseRuntime) ReportScore(r ScoreReport) {
	if r.MaxScore > 0 {
		e.maxScore = r.MaxScore
	}
	e.score = clamp(r.Score, 0, e.maxScore)
	e.completed = true
	e.timer.Stop()
	if e.state != ExerciseActive {
		e.state = ExerciseCompleted
	}
}

// Revert rolls back to the state captured at Start and refills the countdown.
func (e *ExerciseRuntime) Revert() {
	e.score = e.preScore
	e.completed = e.preCompleted
	e.timer.Reset()
	e.instanceState = nil
	if e.handle != nil {
		e.handle.Reset()
	}
}

// Tick advances the countdown while the exercise is active.
func (e *ExerciseRuntime) Tick(dt time.Duration) TimerTick {
	if e.state != ExerciseActive {
		return TimerTick{}
	}
	return e.timer.Tick(dt)
}

// Pause halts the countdown without closing the exercise.
func (e *ExerciseRuntime) Pause() { e.timer.Stop() }

// Resume continues the countdown of an active, unfinished exercise.
func (e *ExerciseRuntime) Resume() {
	if e.state == ExerciseActive && !e.completed {
		e.timer.Start()
	}
}

// Reset returns the runtime to its configured defaults.
func (e *ExerciseRuntime) Reset() {
	e.state = ExerciseIdle
	e.score = 0
	e.maxScore = e.cfg.MaxScore
	e.completed = false
	e.timer.Reset()
	e.instanceState = nil
	e.preScore, e.preCompleted = 0, false
	if e.handle != nil {
		e.handle.Reset()
	}
	e.handle = nil
}

// CurrentState returns the serializable state of the runtime.
func (e *ExerciseRuntime) CurrentState() ExerciseSnapshot {
	e.captureInstanceState()
	state := e.state
	if state == ExerciseActive {
		state = ExerciseIdle
		if e.completed {
			state = ExerciseCompleted
		}
	}
	return ExerciseSnapshot{
		ID:            e.stageID,
		State:         state,
		RemainingTime: e.timer.Remaining(),
		IsCompleted:   e.completed,
		Score:         e.score,
		MaxScore:      e.maxScore,
		InstanceState: e.instanceState,
	}
}

// Restore loads a snapshot produced by CurrentState.
func (e *ExerciseRuntime) Restore(s ExerciseSnapshot) {
	e.Reset()
	e.state = s.State
	if e.state == ExerciseActive {
		e.state = ExerciseIdle
	}
	if s.MaxScore > 0 {
		e.maxScore = s.MaxScore
	}
	e.completed = s.IsCompleted
	e.score = clamp(s.Score, 0, e.maxScore)
	if e.timer.Enabled() {
		e.timer.Restore(s.RemainingTime)
	}
	e.instanceState = s.InstanceState
}
