package gamemap

// StageState is the lifecycle state of a stage.
type StageState int

const (
	StageUnstarted StageState = iota // Built but not yet reset
	StageLocked                      // Not reachable by the player yet
	StageUnlocking                   // A neighbour cleared but the score gate is not met
	StageOpen                        // Playable, never visited
	StageOpened                      // Playable, exercise opened at least once
	StageCompleted                   // Finished below full score
	StageCleared                     // Finished successfully
	StageSealed                      // Lives exhausted or time ran out
)

func (s StageState) String() string {
	switch s {
	case StageUnstarted:
		return "unstarted"
	case StageLocked:
		return "locked"
	case StageUnlocking:
		return "unlocking"
	case StageOpen:
		return "open"
	case StageOpened:
		return "opened"
	case StageCompleted:
		return "completed"
	case StageCleared:
		return "cleared"
	case StageSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// IsOpen reports whether the player has access to a stage in this state.
func (s StageState) IsOpen() bool {
	switch s {
	case StageOpen, StageOpened, StageCompleted, StageCleared:
		return true
	}
	return false
}

// IsFinished reports whether the stage's exercise has been finished.
func (s StageState) IsFinished() bool {
	return s == StageCompleted || s == StageCleared
}

// stageTransitions lists every allowed edge of the stage state machine.
// Resets bypass the table.
var stageTransitions = map[StageState][]StageState{
	StageUnstarted: {StageLocked, StageOpen},
	StageLocked:    {StageUnlocking, StageOpen, StageSealed},
	StageUnlocking: {StageOpen, StageSealed},
	StageOpen:      {StageOpened, StageCompleted, StageCleared, StageSealed},
	StageOpened:    {StageOpen, StageCompleted, StageCleared, StageSealed},
	StageCompleted: {StageCleared, StageSealed},
	StageCleared:   {StageSealed},
	StageSealed:    nil,
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to StageState) bool {
	for _, s := range stageTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Stage is a node of the map with its mutable state.
// Only the controller mutates stages.
type Stage struct {
	cfg     StageConfig
	state   StageState
	preSeal StageState
	visible bool
}

func newStage(cfg StageConfig) *Stage {
	return &Stage{cfg: cfg, state: StageUnstarted}
}

// ID returns the stage id.
func (s *Stage) ID() string { return s.cfg.ID }

// Config returns the static stage definition.
func (s *Stage) Config() StageConfig { return s.cfg }

// State returns the current state.
func (s *Stage) State() StageState { return s.state }

// Visible reports whether fog rules reveal the stage.
func (s *Stage) Visible() bool { return s.visible }

// effective is the state used for display rules; sealed stages show what they were.
func (s *Stage) effective() StageState {
	if s.state == StageSealed {
		return s.preSeal
	}
	return s.state
}

// transition moves to a new state if the edge exists. Illegal edges are no-ops.
func (s *Stage) transition(to StageState) bool {
	if !CanTransition(s.state, to) {
		return false
	}
	if to == StageSealed {
		s.preSeal = s.state
	}
	s.state = to
	return true
}

// seal forces the stage into the sealed overlay, remembering the prior state.
func (s *Stage) seal() bool {
	if s.state == StageSealed {
		return false
	}
	if s.state == StageUnstarted {
		s.preSeal = StageLocked
		s.state = StageSealed
		return true
	}
	return s.transition(StageSealed)
}

// unseal puts back the state recorded when the stage was sealed.
func (s *Stage) unseal() bool {
	if s.state != StageSealed {
		return false
	}
	s.state = s.preSeal
	return true
}

// reset sets the state directly, bypassing the transition table.
func (s *Stage) reset(state, preSeal StageState) {
	s.state = state
	s.preSeal = preSeal
}

// hasExercise reports whether a scorable exercise is bound to the stage.
func (s *Stage) hasExercise() bool {
	return s.cfg.Exercise != nil
}
