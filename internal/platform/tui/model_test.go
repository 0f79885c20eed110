package tui

import (
	"encoding/json"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/registry"
	"github.com/vovakirdan/stagemap/internal/storage"
)

// tapActivity scores full on Confirm and zero on Left.
type tapActivity struct {
	state  core.ActivityState
	resets int
	solved bool
}

func (a *tapActivity) ID() string { return "tap" }
func (a *tapActivity) Title() string { return "Tap" }
func (a *tapActivity) Variants() []string { return []string{"plain"} }
func (a *tapActivity) Render(dst *core.Screen) { dst.DrawText(0, 0, "tap") }
func (a *tapActivity) State() core.ActivityState { return a.state }
func (a *tapActivity) ShowSolutions() { a.solved = true }

func (a *tapActivity) Reset(core.RuntimeConfig) {
	a.resets++
	a.state = core.ActivityState{MaxScore: 1}
}

func (a *tapActivity) Step(in core.InputFrame) core.StepResult {
	if a.state.Done {
		return core.StepResult{State: a.state}
	}
	switch {
	case in.Has(core.ActionConfirm):
		a.state.Score, a.state.Done = 1, true
	case in.Has(core.ActionLeft):
		a.state.Done = true
	default:
		return core.StepResult{State: a.state}
	}
	return core.StepResult{State: a.state, Finished: true}
}

func (a *tapActivity) Snapshot() json.RawMessage {
	data, _ := json.Marshal(a.state)
	return data
}

func (a *tapActivity) Restore(data json.RawMessage) error {
	return json.Unmarshal(data, &a.state)
}

func init() {
	registry.Register("tap", func() registry.Activity { return &tapActivity{} })
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func tapExercise() *gamemap.ExerciseConfig {
	return &gamemap.ExerciseConfig{Activity: "tap", MaxScore: 1}
}

// lineMap is A - B - C with A as the start stage.
func lineMap(lives int) gamemap.Config {
	return gamemap.Config{
		ID:         "line",
		Title:      "Line",
		Background: "line.png",
		Behaviour:  gamemap.Behaviour{Roaming: gamemap.RoamingSuccess, Lives: lives},
		Stages: []gamemap.StageConfig{
			{ID: "A", Neighbors: []string{"B"}, CanBeStart: true, Exercise: tapExercise()},
			{ID: "B", Neighbors: []string{"A", "C"}, Exercise: tapExercise()},
			{ID: "C", Neighbors: []string{"B"}, Exercise: tapExercise()},
		},
	}
}

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

// containsPlain reports whether s contains want once styling is stripped.
func containsPlain(s, want string) bool {
	return strings.Contains(ansiRe.ReplaceAllString(s, ""), want)
}

func newTestModel(t *testing.T, store *storage.Store) Model {
	t.Helper()
	m, err := NewModel(SessionOptions{
		MapID:         "line",
		Player:        "ann",
		Map:           lineMap(2),
		Runtime:       core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 30, Seed: 7},
		ReducedMotion: true,
		Store:         store,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewModel() failed: %v", err)
	}
	return m
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm
}

func press(t *testing.T, m Model, k tea.KeyType) Model {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: k})
}

func typeRune(t *testing.T, m Model, r rune) Model {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func stageState(t *testing.T, m Model, id string) gamemap.StageState {
	t.Helper()
	s, ok := m.Controller().Stage(id)
	if !ok {
		t.Fatalf("Stage %q not found", id)
	}
	return s.State
}

func TestModelPlaysStage(t *testing.T) {
	m := newTestModel(t, nil)

	if m.selected != "A" {
		t.Fatalf("Initial selection = %q, want A", m.selected)
	}

	m = press(t, m, tea.KeyEnter)
	if m.Controller().ActiveExercise() != "A" {
		t.Fatalf("ActiveExercise = %q, want A", m.Controller().ActiveExercise())
	}
	if m.host.Exercise() == nil {
		t.Fatal("Host should hold the activity")
	}

	// Confirm goes to the activity, which finishes on the next tick.
	m = press(t, m, tea.KeyEnter)
	m = send(t, m, TickMsg(time.Now()))

	if got := stageState(t, m, "A"); got != gamemap.StageCleared {
		t.Errorf("A = %s, want cleared", got)
	}
	if m.Controller().Score() != 1 {
		t.Errorf("Score = %d, want 1", m.Controller().Score())
	}

	m = press(t, m, tea.KeyEsc)
	if m.Controller().ActiveExercise() != "" {
		t.Error("Esc should close the exercise")
	}
	if m.host.Exercise() != nil {
		t.Error("Host should drop the activity on close")
	}

	m = press(t, m, tea.KeyRight)
	if m.selected != "B" {
		t.Errorf("Selection after right = %q, want B", m.selected)
	}
	if got := stageState(t, m, "B"); got != gamemap.StageOpen {
		t.Errorf("B = %s, want open", got)
	}
}

func TestModelRetryResetsFailedAttempt(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyLeft) // Wrong answer
	m = send(t, m, TickMsg(time.Now()))

	if m.Controller().LivesLeft() != 1 {
		t.Fatalf("LivesLeft = %d, want 1", m.Controller().LivesLeft())
	}
	m = press(t, m, tea.KeyEsc)

	m = press(t, m, tea.KeyEnter)
	a, ok := m.host.Exercise().(*tapActivity)
	if !ok {
		t.Fatalf("Exercise = %T", m.host.Exercise())
	}
	if st := a.State(); st.Done {
		t.Errorf("Reopened failed attempt should start over, got %+v", st)
	}
}

func TestModelIgnoresMapKeysWhileExerciseOpen(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyRight)
	if m.selected != "A" {
		t.Errorf("Selection moved to %q while the exercise was open", m.selected)
	}
	if !m.input.Has(core.ActionRight) {
		t.Error("Right should be passed to the activity")
	}
}

func TestModelFinishConfirmation(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	m := newTestModel(t, store)

	m = typeRune(t, m, 'f')
	if !m.host.Confirming() {
		t.Fatal("Finish should ask for confirmation")
	}

	// Declining keeps the session running.
	m = typeRune(t, m, 'n')
	if m.host.Confirming() || m.Controller().IsDone() {
		t.Fatal("Declined finish should leave the session running")
	}

	m = typeRune(t, m, 'f')
	m = typeRune(t, m, 'y')
	if !m.Controller().IsDone() || m.Controller().Outcome() != gamemap.OutcomeFinished {
		t.Fatalf("Expected finished session, got done=%v outcome=%s",
			m.Controller().IsDone(), m.Controller().Outcome())
	}

	m = send(t, m, TickMsg(time.Now()))
	m = send(t, m, TickMsg(time.Now()))

	results, err := store.TopResults("line", 10)
	if err != nil {
		t.Fatalf("TopResults() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 saved result, got %d", len(results))
	}
	if results[0].Outcome != "finished" || results[0].Player != "ann" {
		t.Errorf("Result = %+v", results[0])
	}
	if results[0].Stages != 3 || results[0].Cleared != 0 || results[0].LivesLeft != 2 || results[0].Timed {
		t.Errorf("Result details = %+v", results[0])
	}

	// Restart begins a fresh session.
	m = typeRune(t, m, 'r')
	if m.Controller().IsDone() {
		t.Error("Restart should start a new session")
	}
	if m.resultSaved {
		t.Error("Restart should clear the saved-result latch")
	}
}

func TestModelPauseStopsActivity(t *testing.T) {
	m := newTestModel(t, nil)

	m = press(t, m, tea.KeyEnter)
	m = typeRune(t, m, 'p')
	if !m.paused || !m.Controller().TimersPaused() {
		t.Fatal("p should pause the session")
	}

	m = press(t, m, tea.KeyEnter)
	m = send(t, m, TickMsg(time.Now()))
	if got := stageState(t, m, "A"); got == gamemap.StageCleared {
		t.Error("Activity should not step while paused")
	}

	m = typeRune(t, m, 'p')
	if m.paused || m.Controller().TimersPaused() {
		t.Error("Second p should resume")
	}
}

func TestModelQuitSavesSession(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	m := newTestModel(t, store)
	m = press(t, m, tea.KeyEnter)
	m = press(t, m, tea.KeyEnter)
	m = send(t, m, TickMsg(time.Now()))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("Quit should return a command")
	}
	if !next.(Model).IsQuitting() {
		t.Error("Model should report quitting")
	}

	rec, err := store.LatestSnapshot("line", "ann")
	if err != nil || rec == nil {
		t.Fatalf("Expected a saved snapshot, got %v, %v", rec, err)
	}
	snap, err := gamemap.UnmarshalSnapshot(rec.Data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() failed: %v", err)
	}

	resumed, err := NewModel(SessionOptions{
		MapID:   "line",
		Player:  "ann",
		Map:     lineMap(2),
		Runtime: core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 30, Seed: 7},
		Resume:  &snap,
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewModel() with resume failed: %v", err)
	}
	if got := stageState(t, resumed, "A"); got != gamemap.StageCleared {
		t.Errorf("Resumed A = %s, want cleared", got)
	}
	if resumed.Controller().Score() != 1 {
		t.Errorf("Resumed score = %d, want 1", resumed.Controller().Score())
	}
}

func TestModelViewShowsStatus(t *testing.T) {
	m := newTestModel(t, nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	for _, want := range []string{"Line", "Score 0/3", "Lives ♥♥"} {
		if !containsPlain(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{90 * time.Second, "1:30"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
