package gamemap

import (
	"encoding/json"
	"time"
)

// Snapshot is the serializable state of a session, used to resume play.
// Durations are encoded in nanoseconds.
type Snapshot struct {
	Stages        []StageSnapshot    `json:"stages"`
	Paths         []PathSnapshot     `json:"paths"`
	Exercises     []ExerciseSnapshot `json:"exercises"`
	LivesLeft     *int               `json:"livesLeft,omitempty"`
	TimeLeft      *time.Duration     `json:"timeLeft,omitempty"`
	GameDone      bool               `json:"gameDone,omitempty"`
	Outcome       Outcome            `json:"outcome,omitempty"`
	StartStageIDs []string           `json:"startStageIds,omitempty"`
}

// StageSnapshot is the saved state of one stage.
type StageSnapshot struct {
	ID           string     `json:"id"`
	State        StageState `json:"state"`
	Visible      bool       `json:"visible"`
	PreSealState StageState `json:"preSealState,omitempty"`
}

// PathStageIDs names the endpoints of a saved path.
type PathStageIDs struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PathSnapshot is the saved state of one path.
type PathSnapshot struct {
	StageIDs PathStageIDs `json:"stageIds"`
	State    PathState    `json:"state"`
	Visible  bool         `json:"visible"`
}

// ExerciseSnapshot is the saved state of one exercise.
type ExerciseSnapshot struct {
	ID            string          `json:"id"`
	State         ExerciseState   `json:"state"`
	RemainingTime time.Duration   `json:"remainingTime"`
	IsCompleted   bool            `json:"isCompleted"`
	Score         int             `json:"score"`
	MaxScore      int             `json:"maxScore"`
	InstanceState json.RawMessage `json:"instanceState,omitempty"`
}

// Marshal encodes the snapshot as JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot produced by Marshal.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// stage returns a saved stage by id.
func (s Snapshot) stage(id string) (StageSnapshot, bool) {
	for _, st := range s.Stages {
		if st.ID == id {
			return st, true
		}
	}
	return StageSnapshot{}, false
}

// exercise returns a saved exercise by id.
func (s Snapshot) exercise(id string) (ExerciseSnapshot, bool) {
	for _, ex := range s.Exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return ExerciseSnapshot{}, false
}
