package tui

import (
	"encoding/json"
	"hash/fnv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/registry"
)

const (
	maxAnnouncements = 4
	cueFlashDuration = 600 * time.Millisecond
)

// activityHandle adapts a registry activity to the engine's exercise handle.
type activityHandle struct {
	stageID  string
	activity registry.Activity
	cfg      core.RuntimeConfig
}

func (h *activityHandle) Reset() {
	h.activity.Reset(h.cfg)
}

func (h *activityHandle) CurrentState() json.RawMessage {
	return h.activity.Snapshot()
}

func (h *activityHandle) ShowSolutions() {
	h.activity.ShowSolutions()
}

// dialog is a pending yes/no question.
type dialog struct {
	kind     gamemap.ConfirmKind
	onResult func(bool)
}

// Host implements the engine's collaborator interfaces for the terminal.
// It is shared by pointer between the Bubble Tea model copies.
type Host struct {
	cfg    core.RuntimeConfig
	logger *log.Logger

	exercise      *activityHandle
	pending       *dialog
	announcements []string
	cue           gamemap.Cue
	cueLeft       time.Duration
	reviewing     bool
	gameOver      *gamemap.GameOverEvent
}

// NewHost creates a host. cfg is the base configuration handed to activities.
func NewHost(cfg core.RuntimeConfig, logger *log.Logger) *Host {
	return &Host{cfg: cfg, logger: logger}
}

// HandleEvent tracks the engine events the host reacts to.
func (h *Host) HandleEvent(e gamemap.Event) {
	switch ev := e.(type) {
	case gamemap.ExerciseOpenedEvent:
		// A finished attempt below full score is retried from scratch.
		if h.exercise != nil && !h.reviewing {
			st := h.exercise.activity.State()
			if st.Done && st.Score < st.MaxScore {
				h.exercise.Reset()
			}
		}
	case gamemap.ExerciseClosedEvent:
		h.closeExercise()
	case gamemap.GameOverEvent:
		h.gameOver = &ev
	}
}

// takeGameOver returns the game-over event once.
func (h *Host) takeGameOver() *gamemap.GameOverEvent {
	ev := h.gameOver
	h.gameOver = nil
	return ev
}

// Collaborators returns the host wired as every engine collaborator.
func (h *Host) Collaborators() gamemap.Collaborators {
	return gamemap.Collaborators{
		Renderer:  h,
		Cues:      h,
		Dialogs:   h,
		Announcer: h,
	}
}

// stageSeed derives a per-stage seed so each stage deals its own content.
func stageSeed(base int64, stageID string) int64 {
	f := fnv.New64a()
	f.Write([]byte(stageID))
	return base ^ int64(f.Sum64())
}

// RenderExerciseContent creates the activity bound to a stage.
func (h *Host) RenderExerciseContent(stageID, activity string, previous json.RawMessage) gamemap.ExerciseHandle {
	a, variant, err := registry.Create(activity)
	if err != nil {
		h.logger.Error("cannot open activity", "stage", stageID, "activity", activity, "err", err)
		h.exercise = nil
		return nil
	}

	cfg := h.cfg
	cfg.Variant = variant
	cfg.Seed = stageSeed(h.cfg.Seed, stageID)
	a.Reset(cfg)
	if previous != nil {
		if err := a.Restore(previous); err != nil {
			h.logger.Warn("discarding saved activity state", "stage", stageID, "err", err)
			a.Reset(cfg)
		}
	}

	h.exercise = &activityHandle{stageID: stageID, activity: a, cfg: cfg}
	return h.exercise
}

// Exercise returns the content of the open exercise, or nil.
func (h *Host) Exercise() registry.Activity {
	if h.exercise == nil {
		return nil
	}
	return h.exercise.activity
}

// closeExercise drops the open content.
func (h *Host) closeExercise() {
	h.exercise = nil
}

// PlayCue flashes the cue name in the status line.
func (h *Host) PlayCue(cue gamemap.Cue) {
	h.logger.Debug("cue", "name", cue)
	h.cue = cue
	h.cueLeft = cueFlashDuration
}

// ShowConfirmation stores the question until the player answers.
func (h *Host) ShowConfirmation(kind gamemap.ConfirmKind, onResult func(bool)) {
	h.pending = &dialog{kind: kind, onResult: onResult}
}

// Confirming reports whether a dialog is waiting for an answer.
func (h *Host) Confirming() bool {
	return h.pending != nil
}

// Answer resolves the pending dialog.
func (h *Host) Answer(confirmed bool) {
	d := h.pending
	if d == nil {
		return
	}
	h.pending = nil
	if d.onResult != nil {
		d.onResult(confirmed)
	}
}

// Announce keeps the most recent accessibility lines.
func (h *Host) Announce(text string) {
	h.announcements = append(h.announcements, text)
	if len(h.announcements) > maxAnnouncements {
		h.announcements = h.announcements[len(h.announcements)-maxAnnouncements:]
	}
}

// Announcements returns the recent lines, oldest first.
func (h *Host) Announcements() []string {
	return h.announcements
}

// tick fades the cue flash.
func (h *Host) tick(dt time.Duration) {
	if h.cueLeft <= 0 {
		return
	}
	h.cueLeft -= dt
	if h.cueLeft <= 0 {
		h.cue = ""
	}
}

// Cue returns the cue currently flashing, or "".
func (h *Host) Cue() gamemap.Cue {
	return h.cue
}
