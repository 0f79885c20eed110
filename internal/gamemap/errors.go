package gamemap

import (
	"fmt"
	"strings"
)

// Validation codes reported by Validate.
const (
	CodeNoStages         = "NO_STAGES"
	CodeDuplicateStage   = "DUPLICATE_STAGE"
	CodeDanglingNeighbor = "DANGLING_NEIGHBOR"
	CodeSelfNeighbor     = "SELF_NEIGHBOR"
	CodeNoBackground     = "NO_BACKGROUND"
	CodeUnknownMode      = "UNKNOWN_MODE"
	CodeUnknownFog       = "UNKNOWN_FOG"
	CodeInvalidLives     = "INVALID_LIVES"
	CodeInvalidBehaviour = "INVALID_BEHAVIOUR"
	CodeInvalidSpecial   = "INVALID_SPECIAL"
	CodeInvalidExercise  = "INVALID_EXERCISE"
	CodeNoStartStage     = "NO_START_STAGE"
)

// ValidationError contains details about a single configuration problem.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ConfigError is returned when a map cannot be built. The engine never
// starts partially from a malformed configuration.
type ConfigError struct {
	Problems []ValidationError
}

func newConfigError(problems []ValidationError) error {
	if len(problems) == 0 {
		return nil
	}
	return &ConfigError{Problems: problems}
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "gamemap: invalid configuration: " + strings.Join(msgs, "; ")
}

// Has reports whether a problem with the given code was found.
func (e *ConfigError) Has(code string) bool {
	for _, p := range e.Problems {
		if p.Code == code {
			return true
		}
	}
	return false
}

// RejectReason explains why a stage activation was refused.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectLocked
	RejectMinScore
	RejectSealed
	RejectSpent
	RejectBusy
	RejectGameOver
	RejectUnknownStage
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectLocked:
		return "locked"
	case RejectMinScore:
		return "min-score"
	case RejectSealed:
		return "sealed"
	case RejectSpent:
		return "spent"
	case RejectBusy:
		return "busy"
	case RejectGameOver:
		return "game-over"
	case RejectUnknownStage:
		return "unknown-stage"
	default:
		return "unknown"
	}
}

// Rejection is the result of an activation request. The zero value means accepted.
type Rejection struct {
	Reason   RejectReason
	MinScore int // Set for RejectMinScore
}

// Accepted reports whether the activation went through.
func (r Rejection) Accepted() bool {
	return r.Reason == RejectNone
}

func (r Rejection) String() string {
	if r.Reason == RejectMinScore {
		return fmt.Sprintf("min-score(%d)", r.MinScore)
	}
	return r.Reason.String()
}
