package gamemap

import "time"

// StageView is a read-only copy of a stage for rendering.
type StageView struct {
	ID          string
	Label       string
	Kind        StageKind
	Special     SpecialKind
	State       StageState
	Visible     bool
	Reachable   bool
	HasExercise bool
	MinScore    int
	Neighbors   []string
}

// PathView is a read-only copy of a path for rendering.
type PathView struct {
	Key     PathKey
	State   PathState
	Visible bool
}

// ExerciseView is a read-only copy of an exercise runtime.
type ExerciseView struct {
	StageID      string
	Activity     string
	State        ExerciseState
	Score        int
	MaxScore     int
	Completed    bool
	Remaining    time.Duration
	HasTimeLimit bool
	Warning      bool
}

// Config returns the configuration with defaults applied.
func (c *Controller) Config() Config { return c.cfg }

// Score returns the reported session score.
func (c *Controller) Score() int { return c.score.Score() }

// MaxScore returns the reported maximum score.
func (c *Controller) MaxScore() int { return c.score.MaxScore() }

// LivesLeft returns the remaining lives, or Unlimited.
func (c *Controller) LivesLeft() int {
	if c.lives.Unlimited() {
		return Unlimited
	}
	return c.lives.Left()
}

// TimeLeft returns the global time left and whether a global limit exists.
func (c *Controller) TimeLeft() (time.Duration, bool) {
	return c.timer.Remaining(), c.timer.Enabled()
}

// GlobalTimeWarning reports whether the global timer is in its warning window.
func (c *Controller) GlobalTimeWarning() bool { return c.timer.IsWarning() }

// IsDone reports whether the session has ended.
func (c *Controller) IsDone() bool { return c.gameDone }

// Outcome returns how the session ended.
func (c *Controller) Outcome() Outcome { return c.outcome }

// SolutionsShown reports whether ShowSolutions is in effect.
func (c *Controller) SolutionsShown() bool { return c.solutionsShown }

// ActiveExercise returns the stage whose exercise is open, or "".
func (c *Controller) ActiveExercise() string { return c.active }

// StartStageIDs returns the entry stages of this session.
func (c *Controller) StartStageIDs() []string {
	return append([]string(nil), c.startIDs...)
}

// Label returns the display label of a stage.
func (c *Controller) Label(id string) string {
	if l, ok := c.labels[id]; ok {
		return l
	}
	return id
}

// Stage returns a view of one stage.
func (c *Controller) Stage(id string) (StageView, bool) {
	st, ok := c.stages[id]
	if !ok {
		return StageView{}, false
	}
	return c.stageView(st), true
}

// Stages returns views of every stage in configuration order.
func (c *Controller) Stages() []StageView {
	ids := c.graph.StageIDs()
	out := make([]StageView, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.stageView(c.stages[id]))
	}
	return out
}

func (c *Controller) stageView(st *Stage) StageView {
	cfg := st.Config()
	return StageView{
		ID:          cfg.ID,
		Label:       cfg.Label,
		Kind:        cfg.Kind,
		Special:     cfg.Special,
		State:       st.state,
		Visible:     st.visible,
		Reachable:   c.reach.Contains(cfg.ID),
		HasExercise: st.hasExercise(),
		MinScore:    cfg.Access.MinScore,
		Neighbors:   c.graph.Neighbors(cfg.ID),
	}
}

// Paths returns views of every path.
func (c *Controller) Paths() []PathView {
	out := make([]PathView, 0, len(c.paths))
	for _, p := range c.paths {
		out = append(out, PathView{Key: p.key, State: p.state, Visible: p.visible})
	}
	return out
}

// Exercise returns a view of the exercise bound to a stage.
func (c *Controller) Exercise(id string) (ExerciseView, bool) {
	ex, ok := c.exercises[id]
	if !ok {
		return ExerciseView{}, false
	}
	return ExerciseView{
		StageID:      id,
		Activity:     ex.Activity(),
		State:        ex.State(),
		Score:        ex.Score(),
		MaxScore:     ex.MaxScore(),
		Completed:    ex.IsCompleted(),
		Remaining:    ex.RemainingTime(),
		HasTimeLimit: ex.HasTimeLimit(),
		Warning:      ex.IsTimeoutWarning(),
	}, true
}

// Progress counts the reachable exercise stages and how many are cleared.
// Sealed stages count by the state they had before the seal.
func (c *Controller) Progress() (cleared, total int) {
	for _, id := range c.reach.Stages() {
		st := c.stages[id]
		if !st.hasExercise() {
			continue
		}
		total++
		if st.effective() == StageCleared {
			cleared++
		}
	}
	return cleared, total
}
