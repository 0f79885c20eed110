package gamemap

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) count(match func(Event) bool) int {
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func isGameOver(e Event) bool {
	_, ok := e.(GameOverEvent)
	return ok
}

func isFullScore(e Event) bool {
	_, ok := e.(FullScoreReachedEvent)
	return ok
}

func isTimeout(e Event) bool {
	_, ok := e.(TimeoutEvent)
	return ok
}

func stageOpened(id string) func(Event) bool {
	return func(e Event) bool {
		ev, ok := e.(StageStateChangedEvent)
		return ok && ev.StageID == id && ev.State == StageOpen
	}
}

type stubConfirmer struct {
	asked   int
	pending func(bool)
}

func (s *stubConfirmer) ShowConfirmation(_ ConfirmKind, onResult func(bool)) {
	s.asked++
	s.pending = onResult
}

type stubHandle struct {
	resets    int
	solutions int
	state     json.RawMessage
}

func (h *stubHandle) Reset() { h.resets++ }
func (h *stubHandle) CurrentState() json.RawMessage { return h.state }
func (h *stubHandle) ShowSolutions() { h.solutions++ }

type stubRenderer struct {
	handles map[string]*stubHandle
	opened  []string
}

func (r *stubRenderer) RenderExerciseContent(stageID, _ string, _ json.RawMessage) ExerciseHandle {
	if r.handles == nil {
		r.handles = make(map[string]*stubHandle)
	}
	r.opened = append(r.opened, stageID)
	h := &stubHandle{state: json.RawMessage(`{"step":1}`)}
	r.handles[stageID] = h
	return h
}

func exercise(limit time.Duration) *ExerciseConfig {
	return &ExerciseConfig{Activity: "quiz", MaxScore: 10, TimeLimit: limit}
}

// lineConfig is A - B - C with A as the start stage.
func lineConfig(lives int) Config {
	return Config{
		ID:         "line",
		Background: "meadow.png",
		Behaviour:  Behaviour{Roaming: RoamingSuccess, Lives: lives},
		Stages: []StageConfig{
			{ID: "A", Neighbors: []string{"B"}, CanBeStart: true, Exercise: exercise(0)},
			{ID: "B", Neighbors: []string{"A", "C"}, Exercise: exercise(30 * time.Second)},
			{ID: "C", Neighbors: []string{"B"}, Exercise: exercise(0)},
		},
	}
}

func newController(t *testing.T, cfg Config, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithReducedMotion(true)}, opts...)
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	c.Start(false)
	return c
}

func stageState(t *testing.T, c *Controller, id string) StageState {
	t.Helper()
	v, ok := c.Stage(id)
	if !ok {
		t.Fatalf("Stage %q not found", id)
	}
	return v.State
}

func pathState(t *testing.T, c *Controller, from, to string) PathState {
	t.Helper()
	for _, p := range c.Paths() {
		if p.Key == (PathKey{From: from, To: to}) {
			return p.State
		}
	}
	t.Fatalf("Path %s-%s not found", from, to)
	return PathLocked
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := lineConfig(2)
	cfg.Stages[0].Neighbors = []string{"missing"}

	_, err := New(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigError, got %v", err)
	}
	if !cfgErr.Has(CodeDanglingNeighbor) {
		t.Errorf("Expected %s in %v", CodeDanglingNeighbor, cfgErr)
	}
}

func TestLineScenario(t *testing.T) {
	rec := &recorder{}
	c := newController(t, lineConfig(2), WithListener(rec))

	if got := stageState(t, c, "A"); got != StageOpen {
		t.Fatalf("A = %s, want open", got)
	}
	if got := stageState(t, c, "B"); got != StageLocked {
		t.Fatalf("B = %s, want locked", got)
	}

	if r := c.HandleStageActivated("B"); r.Reason != RejectLocked {
		t.Errorf("Activating locked B = %s, want locked", r)
	}

	if r := c.HandleStageActivated("A"); !r.Accepted() {
		t.Fatalf("Activating A rejected: %s", r)
	}
	if c.ActiveExercise() != "A" {
		t.Fatalf("ActiveExercise = %q, want A", c.ActiveExercise())
	}
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	if got := stageState(t, c, "A"); got != StageCleared {
		t.Errorf("A = %s, want cleared", got)
	}
	if got := stageState(t, c, "B"); got != StageOpen {
		t.Errorf("B = %s, want open", got)
	}
	if got := pathState(t, c, "A", "B"); got != PathCleared {
		t.Errorf("Path A-B = %s, want cleared", got)
	}
	if got := pathState(t, c, "B", "C"); got != PathOpen {
		t.Errorf("Path B-C = %s, want open", got)
	}

	// B times out: one life lost, B back to open.
	c.HandleStageActivated("B")
	c.Tick(31 * time.Second)

	if c.LivesLeft() != 1 {
		t.Errorf("LivesLeft = %d, want 1", c.LivesLeft())
	}
	if got := stageState(t, c, "B"); got != StageOpen {
		t.Errorf("B after timeout = %s, want open", got)
	}
	if c.ActiveExercise() != "" {
		t.Error("Timeout should close the exercise")
	}
	if n := rec.count(isTimeout); n != 1 {
		t.Errorf("Timeout events = %d, want 1", n)
	}

	// B partial: last life gone, everything sealed.
	c.HandleStageActivated("B")
	c.HandleExerciseScoreChanged("B", ScoreReport{Score: 5, MaxScore: 10})

	if c.LivesLeft() != 0 {
		t.Errorf("LivesLeft = %d, want 0", c.LivesLeft())
	}
	if !c.IsDone() || c.Outcome() != OutcomeLivesExhausted {
		t.Errorf("Expected lives-exhausted game over, got done=%v outcome=%s", c.IsDone(), c.Outcome())
	}
	for _, s := range c.Stages() {
		if s.State != StageSealed {
			t.Errorf("Stage %s = %s, want sealed", s.ID, s.State)
		}
	}
	for _, p := range c.Paths() {
		if p.State != PathSealed {
			t.Errorf("Path %v = %s, want sealed", p.Key, p.State)
		}
	}
	if n := rec.count(isGameOver); n != 1 {
		t.Errorf("GameOver events = %d, want 1", n)
	}

	// Nothing moves after the seal.
	if r := c.HandleStageActivated("C"); r.Reason != RejectSealed {
		t.Errorf("Activating after seal = %s, want sealed", r)
	}
	c.HandleExerciseScoreChanged("C", ScoreReport{Score: 1, MaxScore: 10})
	if c.LivesLeft() != 0 {
		t.Errorf("Lives went to %d after game over", c.LivesLeft())
	}
}

func TestCompletedRoamingUnlocksOnAnyScore(t *testing.T) {
	cfg := lineConfig(2)
	cfg.Behaviour.Roaming = RoamingComplete
	c := newController(t, cfg)

	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 3, MaxScore: 10})
	c.CloseExercise()

	if got := stageState(t, c, "A"); got != StageCompleted {
		t.Errorf("A = %s, want completed", got)
	}
	if got := stageState(t, c, "B"); got != StageOpen {
		t.Errorf("B = %s, want open", got)
	}
	if c.LivesLeft() != 2 {
		t.Errorf("Complete roaming should not cost lives, left %d", c.LivesLeft())
	}

	// Replaying to full score upgrades to cleared.
	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()
	if got := stageState(t, c, "A"); got != StageCleared {
		t.Errorf("A after replay = %s, want cleared", got)
	}
}

func TestFreeRoamingOpensEverything(t *testing.T) {
	cfg := lineConfig(0)
	cfg.Behaviour.Roaming = RoamingFree
	c := newController(t, cfg)

	for _, id := range []string{"A", "B", "C"} {
		if got := stageState(t, c, id); got != StageOpen {
			t.Errorf("%s = %s, want open", id, got)
		}
	}
	if c.LivesLeft() != Unlimited {
		t.Errorf("LivesLeft = %d, want unlimited", c.LivesLeft())
	}

	c.HandleStageActivated("C")
	c.HandleExerciseScoreChanged("C", ScoreReport{Score: 1, MaxScore: 10})
	c.CloseExercise()
	if got := stageState(t, c, "C"); got != StageCleared {
		t.Errorf("C = %s, want cleared", got)
	}
}

func TestUnlimitedLivesSurvivePartialScores(t *testing.T) {
	c := newController(t, lineConfig(0))

	for i := 0; i < 5; i++ {
		c.HandleStageActivated("A")
		c.HandleExerciseScoreChanged("A", ScoreReport{Score: 1, MaxScore: 10})
		c.CloseExercise()
	}
	if c.IsDone() {
		t.Error("Unlimited lives should never end the session")
	}
	if got := stageState(t, c, "B"); got != StageLocked {
		t.Errorf("B = %s, want locked after partial scores", got)
	}
}

func TestUnreachableStagesStayOutOfPlay(t *testing.T) {
	cfg := Config{
		ID:         "islands",
		Background: "sea.png",
		Stages: []StageConfig{
			{ID: "a", Neighbors: []string{"b"}, CanBeStart: true, Exercise: exercise(0)},
			{ID: "b", Exercise: exercise(0)},
			{ID: "c", Neighbors: []string{"d"}, Exercise: exercise(0)},
			{ID: "d", Exercise: exercise(0)},
		},
	}
	c := newController(t, cfg)

	v, _ := c.Stage("c")
	if v.Reachable || v.Visible {
		t.Errorf("Stage c should be unreachable and hidden, got %+v", v)
	}
	if r := c.HandleStageActivated("c"); r.Reason != RejectLocked {
		t.Errorf("Activating unreachable c = %s, want locked", r)
	}
	if c.MaxScore() != 20 {
		t.Errorf("MaxScore = %d, want 20 (reachable exercises only)", c.MaxScore())
	}
	if r := c.HandleStageActivated("nope"); r.Reason != RejectUnknownStage {
		t.Errorf("Unknown stage = %s", r)
	}
}

func TestFinishScoreCap(t *testing.T) {
	rec := &recorder{}
	cfg := Config{
		ID:         "cap",
		Background: "bg.png",
		Behaviour:  Behaviour{Roaming: RoamingFree, FinishScore: 5},
		Stages: []StageConfig{
			{ID: "x", Neighbors: []string{"y"}, Exercise: exercise(0)},
			{ID: "y", Exercise: exercise(0)},
		},
	}
	c := newController(t, cfg, WithListener(rec))

	if c.MaxScore() != 5 {
		t.Fatalf("MaxScore = %d, want 5", c.MaxScore())
	}

	c.HandleStageActivated("x")
	c.HandleExerciseScoreChanged("x", ScoreReport{Score: 5, MaxScore: 10})
	c.CloseExercise()

	if c.Score() != 5 {
		t.Errorf("Score = %d, want 5", c.Score())
	}
	if n := rec.count(isFullScore); n != 1 {
		t.Fatalf("FullScoreReached = %d, want 1", n)
	}

	c.HandleStageActivated("y")
	c.HandleExerciseScoreChanged("y", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	if c.Score() != 5 {
		t.Errorf("Score = %d, want 5 (capped)", c.Score())
	}
	if n := rec.count(isFullScore); n != 1 {
		t.Errorf("FullScoreReached fired %d times, want 1", n)
	}
}

func gatedConfig(auto bool) Config {
	return Config{
		ID:         "gated",
		Background: "bg.png",
		Behaviour:  Behaviour{Roaming: RoamingComplete},
		Stages: []StageConfig{
			{ID: "a", Neighbors: []string{"b"}, CanBeStart: true, Exercise: exercise(0)},
			{ID: "b", Exercise: exercise(0), Access: Access{MinScore: 8, OpenOnScoreSufficient: auto}},
		},
	}
}

func TestMinScoreGate(t *testing.T) {
	c := newController(t, gatedConfig(false))

	c.HandleStageActivated("a")
	c.HandleExerciseScoreChanged("a", ScoreReport{Score: 5, MaxScore: 10})
	c.CloseExercise()

	if got := stageState(t, c, "b"); got != StageUnlocking {
		t.Fatalf("b = %s, want unlocking", got)
	}
	r := c.HandleStageActivated("b")
	if r.Reason != RejectMinScore || r.MinScore != 8 {
		t.Fatalf("Activating b = %s, want min-score(8)", r)
	}
	if got := stageState(t, c, "b"); got != StageUnlocking {
		t.Errorf("Rejected activation changed b to %s", got)
	}

	c.HandleStageActivated("a")
	c.HandleExerciseScoreChanged("a", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	if got := stageState(t, c, "b"); got != StageUnlocking {
		t.Errorf("b should wait for an explicit request, got %s", got)
	}
	if r := c.HandleStageActivated("b"); !r.Accepted() {
		t.Fatalf("Activating b after reaching 10 = %s", r)
	}
	if got := stageState(t, c, "b"); got != StageOpened {
		t.Errorf("b = %s, want opened", got)
	}
}

func TestOpenOnScoreSufficient(t *testing.T) {
	c := newController(t, gatedConfig(true))

	c.HandleStageActivated("a")
	c.HandleExerciseScoreChanged("a", ScoreReport{Score: 9, MaxScore: 10})
	c.CloseExercise()

	if got := stageState(t, c, "b"); got != StageOpen {
		t.Errorf("b = %s, want open once score >= 8", got)
	}
}

func TestExtraLifeStage(t *testing.T) {
	rec := &recorder{}
	cfg := Config{
		ID:         "bonus",
		Background: "bg.png",
		Behaviour:  Behaviour{Roaming: RoamingSuccess, Lives: 1},
		Stages: []StageConfig{
			{ID: "a", Neighbors: []string{"heart"}, CanBeStart: true, Exercise: exercise(0)},
			{ID: "heart", Special: SpecialExtraLife, ExtraLives: 2},
		},
	}
	c := newController(t, cfg, WithListener(rec))

	c.HandleStageActivated("a")
	c.HandleExerciseScoreChanged("a", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	if r := c.HandleStageActivated("heart"); !r.Accepted() {
		t.Fatalf("Activating heart = %s", r)
	}
	if c.LivesLeft() != 3 {
		t.Errorf("LivesLeft = %d, want 3", c.LivesLeft())
	}
	if got := stageState(t, c, "heart"); got != StageCleared {
		t.Errorf("heart = %s, want cleared", got)
	}
	if r := c.HandleStageActivated("heart"); r.Reason != RejectSpent {
		t.Errorf("Second activation = %s, want spent", r)
	}
	gained := rec.count(func(e Event) bool { _, ok := e.(LifeGainedEvent); return ok })
	if gained != 1 {
		t.Errorf("LifeGained events = %d, want 1", gained)
	}
}

func TestGlobalTimerAndExtraTime(t *testing.T) {
	rec := &recorder{}
	cfg := Config{
		ID:         "clock",
		Background: "bg.png",
		Behaviour: Behaviour{
			Roaming:   RoamingFree,
			TimeLimit: time.Minute,
			WarnAt:    10 * time.Second,
		},
		Stages: []StageConfig{
			{ID: "a", Neighbors: []string{"hourglass"}, Exercise: exercise(0)},
			{ID: "hourglass", Special: SpecialExtraTime, ExtraTime: 30 * time.Second},
		},
	}
	c := newController(t, cfg, WithListener(rec))

	c.Tick(20 * time.Second)
	c.HandleStageActivated("hourglass")
	if left, ok := c.TimeLeft(); !ok || left != 70*time.Second {
		t.Errorf("TimeLeft = %s, want 70s", left)
	}

	c.PauseTimers()
	c.Tick(time.Hour)
	if left, _ := c.TimeLeft(); left != 70*time.Second {
		t.Errorf("Paused timer moved to %s", left)
	}
	c.ResumeTimers()

	c.Tick(65 * time.Second)
	warned := rec.count(func(e Event) bool {
		ev, ok := e.(TimeoutWarningEvent)
		return ok && ev.Scope.IsGlobal()
	})
	if warned != 1 {
		t.Errorf("Global warnings = %d, want 1", warned)
	}

	c.Tick(5 * time.Second)
	if !c.IsDone() || c.Outcome() != OutcomeTimedOut {
		t.Fatalf("Expected timed-out game over, got done=%v outcome=%s", c.IsDone(), c.Outcome())
	}
	if got := stageState(t, c, "a"); got != StageSealed {
		t.Errorf("a = %s, want sealed", got)
	}
}

func TestFinishStageNeedsConfirmation(t *testing.T) {
	dialogs := &stubConfirmer{}
	cfg := Config{
		ID:         "finish",
		Background: "bg.png",
		Stages: []StageConfig{
			{ID: "a", Neighbors: []string{"end"}, CanBeStart: true, Exercise: exercise(0)},
			{ID: "end", Special: SpecialFinish},
		},
	}
	c := newController(t, cfg, WithCollaborators(Collaborators{Dialogs: dialogs}))

	if r := c.HandleStageActivated("end"); r.Reason != RejectLocked {
		t.Errorf("Finish before unlock = %s, want locked", r)
	}

	c.HandleStageActivated("a")
	c.HandleExerciseScoreChanged("a", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	c.HandleStageActivated("end")
	if dialogs.asked != 1 {
		t.Fatalf("Confirmation asked %d times, want 1", dialogs.asked)
	}
	dialogs.pending(false)
	if c.IsDone() {
		t.Fatal("Declining must keep the session running")
	}

	c.HandleStageActivated("end")
	dialogs.pending(true)
	if !c.IsDone() || c.Outcome() != OutcomeFinished {
		t.Fatalf("Expected finished outcome, got %s", c.Outcome())
	}
	if got := stageState(t, c, "end"); got != StageCleared {
		t.Errorf("end = %s, want cleared", got)
	}
	if got := stageState(t, c, "a"); got != StageCleared {
		t.Errorf("Finishing should not seal, a = %s", got)
	}
}

func TestFogModes(t *testing.T) {
	build := func(fog FogMode) *Controller {
		cfg := lineConfig(0)
		cfg.Behaviour.Fog = fog
		return newController(t, cfg)
	}

	adjacent := build(FogAdjacent)
	visible := map[string]bool{"A": true, "B": true, "C": false}
	for id, want := range visible {
		if v, _ := adjacent.Stage(id); v.Visible != want {
			t.Errorf("adjacent fog: %s visible = %v, want %v", id, v.Visible, want)
		}
	}

	none := build(FogNone)
	if v, _ := none.Stage("B"); v.Visible {
		t.Error("no-fog-reveal: locked B should be hidden")
	}
	for _, p := range none.Paths() {
		if p.Visible {
			t.Errorf("no-fog-reveal: path %v should be hidden", p.Key)
		}
	}

	all := build(FogAll)
	for _, s := range all.Stages() {
		if !s.Visible {
			t.Errorf("fog all: %s should be visible", s.ID)
		}
	}
}

func TestQueueHoldsEffectsWhileExerciseOpen(t *testing.T) {
	rec := &recorder{}
	c, err := New(lineConfig(2), WithListener(rec))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	c.Start(false)

	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})

	if n := rec.count(stageOpened("B")); n != 0 {
		t.Fatalf("B unlock delivered while the exercise was open")
	}

	c.CloseExercise()
	c.Flush()

	if n := rec.count(stageOpened("B")); n != 1 {
		t.Errorf("B unlock delivered %d times after close, want 1", n)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	c := newController(t, lineConfig(3), WithRand(fixedRand{n: 1}))
	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})

	c.Reset(false)
	first, err := c.GetCurrentState().Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	c.Reset(false)
	second, err := c.GetCurrentState().Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Reset twice differs:\n%s\n%s", first, second)
	}
	if c.ActiveExercise() != "" {
		t.Error("Reset should close the open exercise")
	}
	if got := stageState(t, c, "A"); got != StageOpen {
		t.Errorf("A = %s after reset, want open", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := lineConfig(2)
	cfg.Behaviour.TimeLimit = 5 * time.Minute

	renderer := &stubRenderer{}
	c := newController(t, cfg, WithCollaborators(Collaborators{Renderer: renderer}))
	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()
	c.HandleStageActivated("B")
	c.Tick(10 * time.Second)

	data, err := c.GetCurrentState().Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() failed: %v", err)
	}

	restored := newController(t, cfg, WithSnapshot(snap))
	restored.Start(true)

	again, err := restored.GetCurrentState().Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Errorf("Restored state differs:\n%s\n%s", data, again)
	}

	ex, _ := restored.Exercise("B")
	if ex.Remaining != 20*time.Second {
		t.Errorf("B remaining = %s, want 20s", ex.Remaining)
	}
	if left, _ := restored.TimeLeft(); left != 4*time.Minute+50*time.Second {
		t.Errorf("Global time left = %s, want 4m50s", left)
	}
	if restored.Score() != 10 {
		t.Errorf("Score = %d, want 10", restored.Score())
	}
}

func TestSnapshotKeepsSealedHistory(t *testing.T) {
	c := newController(t, lineConfig(1))
	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()
	c.HandleStageActivated("B")
	c.HandleExerciseScoreChanged("B", ScoreReport{Score: 0, MaxScore: 10})

	if !c.IsDone() {
		t.Fatal("Expected game over")
	}

	snap := c.GetCurrentState()
	restored := newController(t, lineConfig(1), WithSnapshot(snap))
	restored.Start(true)

	if !restored.IsDone() {
		t.Fatal("Restored session should stay over")
	}
	if r := restored.HandleStageActivated("C"); r.Reason != RejectSealed {
		t.Errorf("Activating in restored sealed map = %s", r)
	}

	restored.ShowSolutions()
	if got := stageState(t, restored, "A"); got != StageCleared {
		t.Errorf("A after ShowSolutions = %s, want cleared", got)
	}
	if got := stageState(t, restored, "B"); got != StageCompleted {
		t.Errorf("B after ShowSolutions = %s, want completed", got)
	}
}

func TestShowSolutionsOpensReadOnly(t *testing.T) {
	renderer := &stubRenderer{}
	c := newController(t, lineConfig(1), WithCollaborators(Collaborators{Renderer: renderer}))

	if c.ShowSolutions() {
		t.Error("ShowSolutions should be refused while the session runs")
	}

	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 2, MaxScore: 10})
	if !c.IsDone() {
		t.Fatal("Expected game over")
	}

	if !c.ShowSolutions() {
		t.Fatal("ShowSolutions refused after game over")
	}
	if r := c.HandleStageActivated("A"); !r.Accepted() {
		t.Fatalf("Reviewing A = %s", r)
	}
	if h := renderer.handles["A"]; h == nil || h.solutions == 0 {
		t.Error("Review should switch content into solution display")
	}

	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	if c.Score() != 2 {
		t.Errorf("Score changed to %d during review", c.Score())
	}
	c.CloseExercise()
}

func TestTimeoutRevertsExercise(t *testing.T) {
	renderer := &stubRenderer{}
	c := newController(t, lineConfig(3), WithCollaborators(Collaborators{Renderer: renderer}))
	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	c.CloseExercise()

	c.HandleStageActivated("B")
	c.Tick(30 * time.Second)

	ex, _ := c.Exercise("B")
	if ex.Remaining != 30*time.Second {
		t.Errorf("Timer should refill after timeout, got %s", ex.Remaining)
	}
	if ex.Completed {
		t.Error("Timed out exercise should not count as completed")
	}
	if h := renderer.handles["B"]; h == nil || h.resets != 1 {
		t.Error("Timeout should reset the exercise content")
	}
	if c.LivesLeft() != 2 {
		t.Errorf("LivesLeft = %d, want 2", c.LivesLeft())
	}
}

func TestBusyWhileExerciseOpen(t *testing.T) {
	cfg := lineConfig(0)
	cfg.Behaviour.Roaming = RoamingFree
	c := newController(t, cfg)

	c.HandleStageActivated("A")
	if r := c.HandleStageActivated("B"); r.Reason != RejectBusy {
		t.Errorf("Second activation = %s, want busy", r)
	}
}

// lastStageStates returns the state each stage had in its last emitted change.
func lastStageStates(events []Event) map[string]StageState {
	last := make(map[string]StageState)
	for _, e := range events {
		if ev, ok := e.(StageStateChangedEvent); ok {
			last[ev.StageID] = ev.State
		}
	}
	return last
}

func TestLossDropsOvertakenEffects(t *testing.T) {
	rec := &recorder{}
	c, err := New(lineConfig(1), WithListener(rec))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	c.Start(false)
	c.Flush()

	c.HandleStageActivated("A")
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 5, MaxScore: 10})
	c.Flush()
	c.Tick(time.Minute)

	if c.Outcome() != OutcomeLivesExhausted {
		t.Fatalf("Outcome = %s, want lives-exhausted", c.Outcome())
	}
	for id, state := range lastStageStates(rec.events) {
		if state != StageSealed {
			t.Errorf("Last emitted state of %s = %s, want sealed", id, state)
		}
	}
	if _, ok := rec.events[len(rec.events)-1].(GameOverEvent); !ok {
		t.Errorf("Last event = %T, want GameOverEvent", rec.events[len(rec.events)-1])
	}

	var score ScoreChangedEvent
	for _, e := range rec.events {
		if ev, ok := e.(ScoreChangedEvent); ok {
			score = ev
		}
	}
	if score.Score != c.Score() || score.MaxScore != c.MaxScore() {
		t.Errorf("Last score event = %d/%d, engine has %d/%d", score.Score, score.MaxScore, c.Score(), c.MaxScore())
	}
}

func TestGlobalTimerRunsDuringExercise(t *testing.T) {
	rec := &recorder{}
	cfg := lineConfig(Unlimited)
	cfg.Behaviour.TimeLimit = time.Minute
	c, err := New(cfg, WithListener(rec))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	c.Start(false)

	c.HandleStageActivated("A")
	c.Tick(30 * time.Second)
	if left, _ := c.TimeLeft(); left != 30*time.Second {
		t.Errorf("TimeLeft with exercise open = %s, want 30s", left)
	}
	if c.ActiveExercise() != "A" {
		t.Fatalf("ActiveExercise = %q, want A", c.ActiveExercise())
	}

	// Partial score is buffered behind the overlay, then the clock runs out.
	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 4, MaxScore: 10})
	c.Tick(30 * time.Second)
	c.Flush()

	if !c.IsDone() || c.Outcome() != OutcomeTimedOut {
		t.Fatalf("Expected timed-out game over, got done=%v outcome=%s", c.IsDone(), c.Outcome())
	}
	if c.ActiveExercise() != "" {
		t.Error("Timeout should close the exercise")
	}
	closed := rec.count(func(e Event) bool {
		ev, ok := e.(ExerciseClosedEvent)
		return ok && ev.StageID == "A"
	})
	if closed != 1 {
		t.Errorf("ExerciseClosed events for A = %d, want 1", closed)
	}
	for _, s := range c.Stages() {
		if s.State != StageSealed {
			t.Errorf("Stage %s = %s, want sealed", s.ID, s.State)
		}
	}
	for id, state := range lastStageStates(rec.events) {
		if state != StageSealed {
			t.Errorf("Last emitted state of %s = %s, want sealed", id, state)
		}
	}
}

func TestScoreReportNeedsActiveExercise(t *testing.T) {
	c := newController(t, lineConfig(2))

	c.HandleExerciseScoreChanged("A", ScoreReport{Score: 5, MaxScore: 10})
	if got := stageState(t, c, "A"); got != StageOpen {
		t.Errorf("A = %s after a report without an open exercise, want open", got)
	}
	if c.LivesLeft() != 2 || c.Score() != 0 {
		t.Errorf("Lives/score = %d/%d, want 2/0", c.LivesLeft(), c.Score())
	}

	cfg := lineConfig(2)
	cfg.Behaviour.Roaming = RoamingFree
	free := newController(t, cfg)
	free.HandleStageActivated("A")
	free.HandleExerciseScoreChanged("C", ScoreReport{Score: 10, MaxScore: 10})
	if got := stageState(t, free, "C"); got != StageOpen {
		t.Errorf("C = %s after a report while A is open, want open", got)
	}
	free.HandleExerciseScoreChanged("A", ScoreReport{Score: 10, MaxScore: 10})
	if got := stageState(t, free, "A"); got != StageCleared {
		t.Errorf("A = %s, want cleared", got)
	}
}
