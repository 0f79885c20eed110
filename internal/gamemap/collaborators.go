package gamemap

import "encoding/json"

// Cue names an audio cue the host may play.
type Cue string

const (
	CueUnlocked       Cue = "unlocked"
	CueCleared        Cue = "cleared"
	CueLocked         Cue = "locked"
	CueLifeLost       Cue = "life-lost"
	CueLifeGained     Cue = "life-gained"
	CueTimeGained     Cue = "time-gained"
	CueFullScore      Cue = "full-score"
	CueGameOver       Cue = "game-over"
	CueTimeoutWarning Cue = "timeout-warning"
	CueTimeout        Cue = "timeout"
)

// ConfirmKind names a confirmation dialog.
type ConfirmKind string

const (
	ConfirmFinish ConfirmKind = "finish"
)

// ExerciseHandle is the host-side content of an open exercise.
type ExerciseHandle interface {
	// Reset discards progress inside the content.
	Reset()

	// CurrentState returns the content's own resumable state, or nil.
	CurrentState() json.RawMessage

	// ShowSolutions switches the content into read-only solution display.
	ShowSolutions()
}

// ExerciseRenderer hosts exercise content for a stage.
type ExerciseRenderer interface {
	// RenderExerciseContent opens the activity for stageID. previous is the
	// content state saved from an earlier visit, or nil.
	RenderExerciseContent(stageID, activity string, previous json.RawMessage) ExerciseHandle
}

// CuePlayer plays audio cues. Calls are fire-and-forget.
type CuePlayer interface {
	PlayCue(cue Cue)
}

// Confirmer asks the player a yes/no question and reports back through onResult.
type Confirmer interface {
	ShowConfirmation(kind ConfirmKind, onResult func(confirmed bool))
}

// Announcer forwards accessibility text to the host.
type Announcer interface {
	Announce(text string)
}

// Collaborators groups the outward interfaces. Nil members are replaced by no-ops.
type Collaborators struct {
	Renderer  ExerciseRenderer
	Cues      CuePlayer
	Dialogs   Confirmer
	Announcer Announcer
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Renderer == nil {
		c.Renderer = nopRenderer{}
	}
	if c.Cues == nil {
		c.Cues = nopCues{}
	}
	if c.Dialogs == nil {
		c.Dialogs = autoConfirm{}
	}
	if c.Announcer == nil {
		c.Announcer = nopAnnouncer{}
	}
	return c
}

type nopRenderer struct{}

func (nopRenderer) RenderExerciseContent(string, string, json.RawMessage) ExerciseHandle {
	return nil
}

type nopCues struct{}

func (nopCues) PlayCue(Cue) {}

// autoConfirm accepts every question; used when no dialog host is attached.
type autoConfirm struct{}

func (autoConfirm) ShowConfirmation(_ ConfirmKind, onResult func(bool)) {
	if onResult != nil {
		onResult(true)
	}
}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(string) {}

// Listener receives engine events after they leave the transition queue.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) { f(e) }
