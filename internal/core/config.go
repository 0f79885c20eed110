package core

// RuntimeConfig is passed to activities when they are (re)started.
type RuntimeConfig struct {
	ScreenW  int    // Screen width in characters
	ScreenH  int    // Screen height in characters
	TickRate int    // Host ticks per second (default 30)
	Seed     int64  // RNG seed for deterministic content
	Variant  string // Content set selected by the activity reference, e.g. "capitals"
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 30,
		Seed:     0, // 0 means use current time in platform layer
	}
}

// ActivityState is the scoring status of an activity.
type ActivityState struct {
	Score    int  // Points earned so far
	MaxScore int  // Points available
	Done     bool // The attempt is over and the score is final
}

// StepResult is returned by Activity.Step after each input frame.
type StepResult struct {
	State ActivityState

	// Finished is set on the step where the attempt ended.
	Finished bool
}
