package gamemap

import (
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagemap/internal/transition"
)

// Animation timing for queued effects.
const (
	stageBlock     = 450 * time.Millisecond
	pathBlock      = 250 * time.Millisecond
	lifeBlock      = 400 * time.Millisecond
	fullScoreBlock = time.Second
)

// Option configures a Controller.
type Option func(*Controller)

// WithSnapshot supplies a previously saved session for Start(true) / Reset(true).
func WithSnapshot(s Snapshot) Option {
	return func(c *Controller) { c.previous = &s }
}

// WithRand sets the source used to choose the start stage.
func WithRand(r Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

// WithCollaborators attaches the host's renderer, audio, dialogs and announcer.
func WithCollaborators(col Collaborators) Option {
	return func(c *Controller) { c.collab = col }
}

// WithListener receives every event after it leaves the transition queue.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithReducedMotion collapses animation delays so queued effects fire back to back.
func WithReducedMotion(enabled bool) Option {
	return func(c *Controller) { c.reducedMotion = enabled }
}

type stageMark struct {
	state   StageState
	visible bool
}

type pathMark struct {
	state   PathState
	visible bool
}

// Controller owns a map session. All engine state is mutated here.
type Controller struct {
	cfg    Config
	graph  *Graph
	reach  *Reachability
	labels map[string]string

	stages    map[string]*Stage
	paths     []*Path
	exercises map[string]*ExerciseRuntime

	lives *LivesTracker
	timer *GlobalTimer
	score *ScoreAggregator
	queue *transition.Queue

	collab        Collaborators
	listener      Listener
	logger        *log.Logger
	rnd           Rand
	reducedMotion bool

	startIDs []string
	previous *Snapshot

	started        bool
	active         string     // Stage whose exercise overlay is open
	activePre      StageState // State of the active stage before it was opened
	gameDone       bool
	outcome        Outcome
	confirming     bool
	solutionsShown bool

	emittedStages map[string]stageMark
	emittedPaths  map[PathKey]pathMark
}

// New builds a controller from a map configuration. A malformed configuration
// returns a *ConfigError and no controller.
func New(cfg Config, opts ...Option) (*Controller, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Controller{
		cfg:           cfg,
		graph:         NewGraph(cfg.Stages),
		labels:        make(map[string]string, len(cfg.Stages)),
		stages:        make(map[string]*Stage, len(cfg.Stages)),
		exercises:     make(map[string]*ExerciseRuntime),
		lives:         NewLivesTracker(cfg.Behaviour.Lives),
		timer:         NewGlobalTimer(cfg.Behaviour.TimeLimit, cfg.Behaviour.WarnAt),
		score:         NewScoreAggregator(cfg.Behaviour.FinishScore),
		queue:         transition.New(),
		emittedStages: make(map[string]stageMark),
		emittedPaths:  make(map[PathKey]pathMark),
	}
	c.reach = NewReachability(c.graph)

	for _, s := range cfg.Stages {
		c.stages[s.ID] = newStage(s)
		c.labels[s.ID] = s.Label
		if s.Exercise != nil {
			c.exercises[s.ID] = NewExerciseRuntime(s.ID, *s.Exercise)
		}
	}
	for _, key := range c.graph.Paths() {
		c.paths = append(c.paths, &Path{key: key})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewSource(0))
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	c.collab = c.collab.withDefaults()
	c.queue.SetReducedMotion(c.reducedMotion)

	c.startIDs = SelectStart(cfg.Stages, c.rnd)
	return c, nil
}

// Start resets the session and starts the global timer.
// With isInitial set and a snapshot supplied, the snapshot is resumed.
func (c *Controller) Start(isInitial bool) {
	c.started = true
	c.Reset(isInitial)
}

// Reset cancels pending work and reinitialises the session, either from the
// supplied snapshot (isInitial) or to the configured defaults.
func (c *Controller) Reset(isInitial bool) {
	c.queue.ClearQueued()
	c.queue.ClearScheduled()
	c.queue.Open()

	if c.active != "" {
		c.exercises[c.active].Stop()
		c.active = ""
	}
	c.timer.Reset()
	c.confirming = false
	c.solutionsShown = false
	c.emittedStages = make(map[string]stageMark)
	c.emittedPaths = make(map[PathKey]pathMark)

	if isInitial && c.previous != nil {
		c.restore(*c.previous)
	} else {
		c.resetDefaults()
	}

	c.syncMap(false, false)
	c.emit(ScoreChangedEvent{Score: c.score.Score(), MaxScore: c.score.MaxScore()}, 0, false)

	if c.started && !c.gameDone {
		c.timer.Start()
	}
}

func (c *Controller) resetDefaults() {
	for _, ex := range c.exercises {
		ex.Reset()
	}
	c.lives.Reset()
	c.score.Reset()
	c.gameDone = false
	c.outcome = OutcomeNone

	c.reach.Recompute(c.startIDs...)
	for _, st := range c.stages {
		st.reset(StageLocked, StageLocked)
	}

	open := c.startIDs
	if c.cfg.Behaviour.Roaming == RoamingFree {
		open = c.reach.Stages()
	}
	for _, id := range open {
		c.stages[id].reset(StageOpen, StageLocked)
	}

	c.score.Recompute(c.reachableExercises())
}

func (c *Controller) restore(s Snapshot) {
	if len(s.StartStageIDs) > 0 {
		var ids []string
		for _, id := range s.StartStageIDs {
			if c.graph.Has(id) {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			c.startIDs = ids
		}
	}

	for id, ex := range c.exercises {
		if saved, ok := s.exercise(id); ok {
			ex.Restore(saved)
		} else {
			ex.Reset()
		}
	}

	for id, st := range c.stages {
		saved, ok := s.stage(id)
		if !ok || saved.State <= StageUnstarted || saved.State > StageSealed {
			st.reset(StageLocked, StageLocked)
			continue
		}
		pre := saved.PreSealState
		if pre <= StageUnstarted || pre >= StageSealed {
			pre = StageLocked
		}
		st.reset(saved.State, pre)
	}

	c.lives.Reset()
	if s.LivesLeft != nil {
		c.lives.Restore(*s.LivesLeft)
	}
	if s.TimeLeft != nil && c.timer.Enabled() {
		c.timer.Restore(*s.TimeLeft)
	}
	c.gameDone = s.GameDone
	c.outcome = s.Outcome

	c.refreshReach()
	c.score.Reset()
	c.score.Recompute(c.reachableExercises())
	c.score.restoreLatch()
}

// refreshReach recomputes the reachable set from the start stages and every opened stage.
func (c *Controller) refreshReach() {
	seeds := append([]string(nil), c.startIDs...)
	for _, id := range c.graph.StageIDs() {
		eff := c.stages[id].effective()
		if eff.IsOpen() || eff == StageUnlocking {
			seeds = append(seeds, id)
		}
	}
	c.reach.Recompute(seeds...)
}

func (c *Controller) reachableExercises() []*ExerciseRuntime {
	var out []*ExerciseRuntime
	for _, id := range c.reach.Stages() {
		if ex, ok := c.exercises[id]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// HandleStageActivated processes a request to enter a stage. Refused requests
// leave state untouched and report why.
func (c *Controller) HandleStageActivated(id string) Rejection {
	st, ok := c.stages[id]
	if !ok {
		return c.reject(id, Rejection{Reason: RejectUnknownStage})
	}
	if c.solutionsShown {
		return c.review(st)
	}
	if st.state == StageSealed {
		return c.reject(id, Rejection{Reason: RejectSealed})
	}
	if c.gameDone {
		return c.reject(id, Rejection{Reason: RejectGameOver})
	}
	if c.active != "" {
		return c.reject(id, Rejection{Reason: RejectBusy})
	}
	if !c.reach.Contains(id) {
		return c.reject(id, Rejection{Reason: RejectLocked})
	}

	switch st.state {
	case StageUnstarted, StageLocked:
		return c.reject(id, Rejection{Reason: RejectLocked})
	case StageUnlocking:
		if r := c.Unlock(id); !r.Accepted() {
			return r
		}
	}

	cfg := st.Config()
	switch {
	case cfg.Special == SpecialFinish:
		c.finishFrom(st)
	case cfg.Special == SpecialExtraLife || cfg.Special == SpecialExtraTime:
		if st.state == StageCleared {
			return c.reject(id, Rejection{Reason: RejectSpent})
		}
		c.claimBonus(st)
	case !st.hasExercise():
		c.resolveStage(st, true)
		c.recomputeScore()
		c.syncMap(false, true)
	default:
		c.openExercise(st)
	}
	return Rejection{}
}

// Unlock promotes an unlocking stage once its score gate is met. A locked
// stage qualifies when it borders a stage whose result unlocks neighbours.
func (c *Controller) Unlock(id string) Rejection {
	st, ok := c.stages[id]
	if !ok {
		return c.reject(id, Rejection{Reason: RejectUnknownStage})
	}
	switch st.state {
	case StageSealed:
		return c.reject(id, Rejection{Reason: RejectSealed})
	case StageUnstarted:
		return c.reject(id, Rejection{Reason: RejectLocked})
	case StageLocked:
		if !c.reach.Contains(id) || !c.bordersFinished(id) {
			return c.reject(id, Rejection{Reason: RejectLocked})
		}
		fallthrough
	case StageUnlocking:
		if !c.scoreAllows(st) {
			return c.reject(id, Rejection{Reason: RejectMinScore, MinScore: st.cfg.Access.MinScore})
		}
		c.setStageState(st, StageOpen)
		c.refreshReach()
		c.syncMap(false, true)
	}
	return Rejection{}
}

// bordersFinished reports whether a neighbour's result would unlock id.
func (c *Controller) bordersFinished(id string) bool {
	for _, n := range c.graph.Neighbors(id) {
		switch c.stages[n].state {
		case StageCleared:
			return true
		case StageCompleted:
			if c.cfg.Behaviour.Roaming != RoamingSuccess {
				return true
			}
		}
	}
	return false
}

func (c *Controller) reject(id string, r Rejection) Rejection {
	c.logger.Debug("activation rejected", "stage", id, "reason", r)
	c.emit(ActivationRejectedEvent{StageID: id, Rejection: r}, 0, true)
	return r
}

func (c *Controller) scoreAllows(st *Stage) bool {
	return c.score.Score() >= st.cfg.Access.MinScore
}

func (c *Controller) setStageState(st *Stage, to StageState) bool {
	from := st.state
	if !st.transition(to) {
		c.logger.Debug("ignored stage transition", "stage", st.ID(), "from", from, "to", to)
		return false
	}
	c.logger.Debug("stage transition", "stage", st.ID(), "from", from, "to", to)
	return true
}

func (c *Controller) openExercise(st *Stage) {
	id := st.ID()
	ex := c.exercises[id]

	c.activePre = st.state
	if st.state == StageOpen {
		c.setStageState(st, StageOpened)
		c.syncMap(false, true)
	}

	ex.Start()
	if c.timer.Paused() {
		ex.Pause()
	}
	c.active = id
	ex.attach(c.collab.Renderer.RenderExerciseContent(id, ex.Activity(), ex.instanceState))

	c.emit(ExerciseOpenedEvent{StageID: id}, 0, true)
	c.queue.Close()
}

// review opens an exercise read-only after ShowSolutions.
func (c *Controller) review(st *Stage) Rejection {
	id := st.ID()
	ex, ok := c.exercises[id]
	if !ok || !c.reach.Contains(id) {
		return c.reject(id, Rejection{Reason: RejectGameOver})
	}
	if c.active != "" {
		return c.reject(id, Rejection{Reason: RejectBusy})
	}
	c.active = id
	h := c.collab.Renderer.RenderExerciseContent(id, ex.Activity(), ex.instanceState)
	ex.attach(h)
	if h != nil {
		h.ShowSolutions()
	}
	c.emit(ExerciseOpenedEvent{StageID: id}, 0, true)
	c.queue.Close()
	return Rejection{}
}

// CloseExercise closes the open exercise overlay and releases queued effects.
func (c *Controller) CloseExercise() {
	if c.active == "" {
		return
	}
	id := c.active
	c.exercises[id].Stop()
	c.active = ""

	c.emit(ExerciseClosedEvent{StageID: id}, 0, true)
	c.queue.Open()
}

// HandleExerciseScoreChanged applies a finished attempt to its stage.
func (c *Controller) HandleExerciseScoreChanged(id string, r ScoreReport) {
	ex, ok := c.exercises[id]
	if !ok {
		c.logger.Debug("score for stage without exercise", "stage", id)
		return
	}
	st := c.stages[id]
	if c.gameDone || c.solutionsShown || id != c.active || !st.state.IsOpen() {
		c.logger.Debug("ignored score report", "stage", id, "state", st.state)
		return
	}

	ex.ReportScore(r)
	full := ex.IsFullScore()

	c.recomputeScore()
	c.resolveStage(st, full)
	c.recomputeScore()
	c.syncMap(false, true)

	if c.cfg.Behaviour.Roaming == RoamingSuccess && !full {
		c.loseLife(id)
	}
}

// resolveStage moves a finished stage to its terminal state and unlocks
// neighbours when the roaming mode allows it.
func (c *Controller) resolveStage(st *Stage, full bool) {
	roaming := c.cfg.Behaviour.Roaming
	target := StageCompleted
	if full || roaming == RoamingFree {
		target = StageCleared
	}

	switch st.state {
	case StageOpen, StageOpened:
		c.setStageState(st, target)
	case StageCompleted:
		if target == StageCleared {
			c.setStageState(st, StageCleared)
		}
	}

	if full || roaming != RoamingSuccess {
		c.unlockNeighbors(st.ID())
	}
}

func (c *Controller) unlockNeighbors(id string) {
	for _, n := range c.graph.Neighbors(id) {
		nb := c.stages[n]
		if !c.reach.Contains(n) || nb.state != StageLocked {
			continue
		}
		if c.scoreAllows(nb) {
			c.setStageState(nb, StageOpen)
		} else {
			c.setStageState(nb, StageUnlocking)
		}
	}
	c.refreshReach()
}

func (c *Controller) claimBonus(st *Stage) {
	c.setStageState(st, StageCleared)
	switch st.cfg.Special {
	case SpecialExtraLife:
		c.AddExtraLives(st.cfg.ExtraLives)
	case SpecialExtraTime:
		c.AddExtraTime(st.cfg.ExtraTime)
	}
	c.unlockNeighbors(st.ID())
	c.recomputeScore()
	c.syncMap(false, true)
}

// recomputeScore refreshes the aggregate and applies score-driven unlocks.
func (c *Controller) recomputeScore() {
	changed, full := c.score.Recompute(c.reachableExercises())
	if changed {
		c.emit(ScoreChangedEvent{Score: c.score.Score(), MaxScore: c.score.MaxScore()}, 0, false)
	}
	if full {
		c.logger.Info("full score reached", "score", c.score.Score(), "max", c.score.MaxScore())
		c.emit(FullScoreReachedEvent{Score: c.score.Score(), MaxScore: c.score.MaxScore()}, fullScoreBlock, false)
		c.openFinishStages()
	}
	c.promoteUnlocking()
}

func (c *Controller) openFinishStages() {
	for _, id := range c.reach.Stages() {
		st := c.stages[id]
		if st.cfg.Special == SpecialFinish && (st.state == StageLocked || st.state == StageUnlocking) {
			c.setStageState(st, StageOpen)
		}
	}
}

func (c *Controller) promoteUnlocking() {
	promoted := false
	for _, id := range c.reach.Stages() {
		st := c.stages[id]
		if st.state == StageUnlocking && st.cfg.Access.OpenOnScoreSufficient && c.scoreAllows(st) {
			promoted = c.setStageState(st, StageOpen) || promoted
		}
	}
	if promoted {
		c.refreshReach()
	}
}

// HandleExerciseTimeout costs a life and rolls the active stage back to how
// it was before the exercise opened.
func (c *Controller) HandleExerciseTimeout(id string) {
	if c.gameDone || id == "" || id != c.active {
		return
	}
	ex := c.exercises[id]
	st := c.stages[id]

	c.emit(TimeoutEvent{Scope: Scope{StageID: id}}, 0, true)

	ex.Revert()
	ex.Stop()
	c.active = ""
	if st.state != c.activePre {
		c.setStageState(st, c.activePre)
	}

	c.emit(ExerciseClosedEvent{StageID: id}, 0, true)
	c.queue.Open()

	c.recomputeScore()
	c.syncMap(false, true)
	c.loseLife(id)
}

func (c *Controller) loseLife(stageID string) {
	if !c.lives.Lose() {
		return
	}
	c.logger.Info("life lost", "stage", stageID, "left", c.lives.Left())
	c.emit(LifeLostEvent{StageID: stageID, LivesLeft: c.lives.Left()}, lifeBlock, true)
	if c.lives.Exhausted() {
		c.endSession(OutcomeLivesExhausted)
	}
}

// endSession latches the session as done. Losses seal every stage.
func (c *Controller) endSession(outcome Outcome) {
	if c.gameDone {
		return
	}
	c.gameDone = true
	c.outcome = outcome
	c.timer.Stop()

	if id := c.active; id != "" {
		c.exercises[id].Stop()
		c.active = ""
		c.emit(ExerciseClosedEvent{StageID: id}, 0, true)
	}

	if outcome.IsLoss() {
		c.dropPendingEffects()
		for _, id := range c.graph.StageIDs() {
			c.stages[id].seal()
		}
		c.syncMap(true, false)
	}

	c.logger.Info("session over", "outcome", outcome, "score", c.score.Score(), "max", c.score.MaxScore())
	c.emit(GameOverEvent{Outcome: outcome, Score: c.score.Score(), MaxScore: c.score.MaxScore()}, 0, true)
	c.queue.Open()
}

// dropPendingEffects discards buffered and scheduled effects that a loss has
// overtaken. The emitted marks are forgotten so the following sync reports
// the final map in full, and the score is re-sent past the queue.
func (c *Controller) dropPendingEffects() {
	if c.queue.Idle() {
		return
	}
	c.queue.ClearQueued()
	c.queue.ClearScheduled()
	clear(c.emittedStages)
	clear(c.emittedPaths)
	c.emitQuiet(ScoreChangedEvent{Score: c.score.Score(), MaxScore: c.score.MaxScore()}, 0, true, true)
}

// Finish asks for confirmation and then ends the session.
func (c *Controller) Finish() {
	c.finishFrom(nil)
}

func (c *Controller) finishFrom(st *Stage) {
	if c.gameDone || c.confirming {
		return
	}
	c.confirming = true
	c.collab.Dialogs.ShowConfirmation(ConfirmFinish, func(confirmed bool) {
		c.confirming = false
		if !confirmed || c.gameDone {
			return
		}
		if st != nil && c.setStageState(st, StageCleared) {
			c.syncMap(false, true)
		}
		c.endSession(OutcomeFinished)
	})
}

// AddExtraLives grants n lives. Unlimited pools and finished sessions are unaffected.
func (c *Controller) AddExtraLives(n int) {
	if c.gameDone || !c.lives.Add(n) {
		return
	}
	c.emit(LifeGainedEvent{Added: n, LivesLeft: c.lives.Left()}, lifeBlock, false)
}

// AddExtraTime extends the global timer, if one is configured.
func (c *Controller) AddExtraTime(d time.Duration) {
	if c.gameDone || !c.timer.Enabled() || d <= 0 {
		return
	}
	c.timer.Add(d)
	c.emit(TimeGainedEvent{Added: d, TimeLeft: c.timer.Remaining()}, lifeBlock, false)
}

// ShowSolutions lifts the seal after a session ended so every stage shows
// the state it had, and switches open content into solution display.
func (c *Controller) ShowSolutions() bool {
	if !c.gameDone {
		return false
	}
	c.solutionsShown = true
	for _, st := range c.stages {
		st.unseal()
	}
	c.syncMap(false, false)
	for _, ex := range c.exercises {
		if h := ex.Handle(); h != nil {
			h.ShowSolutions()
		}
	}
	return true
}

// PauseTimers halts the global and exercise timers.
func (c *Controller) PauseTimers() {
	c.timer.Pause()
	if c.active != "" {
		c.exercises[c.active].Pause()
	}
}

// ResumeTimers continues after PauseTimers.
func (c *Controller) ResumeTimers() {
	c.timer.Resume()
	if c.active != "" && !c.gameDone {
		c.exercises[c.active].Resume()
	}
}

// TimersPaused reports whether PauseTimers is in effect.
func (c *Controller) TimersPaused() bool {
	return c.timer.Paused()
}

// Tick advances timers and the transition queue by dt.
func (c *Controller) Tick(dt time.Duration) {
	if c.started && !c.gameDone {
		c.tickGlobal(dt)
	}
	if c.active != "" && !c.gameDone {
		c.tickExercise(dt)
	}
	c.queue.Advance(dt)
}

func (c *Controller) tickGlobal(dt time.Duration) {
	r := c.timer.Tick(dt)
	if r.Warned {
		c.emit(TimeoutWarningEvent{Scope: GlobalScope, TimeLeft: c.timer.Remaining()}, 0, true)
	}
	if r.Expired {
		c.emit(TimeoutEvent{Scope: GlobalScope}, 0, true)
		c.endSession(OutcomeTimedOut)
	}
}

func (c *Controller) tickExercise(dt time.Duration) {
	id := c.active
	ex := c.exercises[id]
	r := ex.Tick(dt)
	if r.Warned {
		c.emit(TimeoutWarningEvent{Scope: Scope{StageID: id}, TimeLeft: ex.RemainingTime()}, 0, true)
	}
	if r.Expired {
		c.HandleExerciseTimeout(id)
	}
}

// Flush runs every scheduled effect immediately.
func (c *Controller) Flush() {
	c.queue.Flush()
}

// syncMap recomputes visibility and path states and emits every change since
// the last emission. skip sends the events past the queue; animate adds
// animation blocks and cues.
func (c *Controller) syncMap(skip, animate bool) {
	fog := c.cfg.Behaviour.Fog
	ids := c.graph.StageIDs()

	for _, id := range ids {
		st := c.stages[id]
		st.visible = c.reach.Contains(id) && stageVisible(fog, st, c.neighbourStages(id))
	}

	sb, pb := time.Duration(0), time.Duration(0)
	if animate {
		sb, pb = stageBlock, pathBlock
	}

	for _, id := range ids {
		st := c.stages[id]
		mark := stageMark{state: st.state, visible: st.visible}
		if prev, ok := c.emittedStages[id]; ok && prev == mark {
			continue
		}
		c.emittedStages[id] = mark
		c.emitQuiet(StageStateChangedEvent{StageID: id, State: st.state, Visible: st.visible}, sb, skip, !animate)
	}

	for _, p := range c.paths {
		a, b := c.stages[p.key.From], c.stages[p.key.To]
		p.state = derivePathState(a, b)
		p.visible = c.reach.ContainsPath(p.key) && pathVisible(fog, a, b)

		mark := pathMark{state: p.state, visible: p.visible}
		if prev, ok := c.emittedPaths[p.key]; ok && prev == mark {
			continue
		}
		c.emittedPaths[p.key] = mark
		c.emitQuiet(PathStateChangedEvent{Path: p.key, State: p.state, Visible: p.visible}, pb, skip, !animate)
	}
}

func (c *Controller) neighbourStages(id string) []*Stage {
	ns := c.graph.Neighbors(id)
	out := make([]*Stage, 0, len(ns))
	for _, n := range ns {
		out = append(out, c.stages[n])
	}
	return out
}

func (c *Controller) emit(e Event, block time.Duration, skip bool) {
	c.emitQuiet(e, block, skip, false)
}

// emitQuiet queues delivery of e. Quiet deliveries play no cue.
func (c *Controller) emitQuiet(e Event, block time.Duration, skip, quiet bool) {
	c.queue.Add(transition.Entry{
		Action:    func() { c.deliver(e, quiet) },
		Block:     block,
		SkipQueue: skip,
	})
}

func (c *Controller) deliver(e Event, quiet bool) {
	if !quiet {
		if cue, ok := cueFor(e); ok {
			c.collab.Cues.PlayCue(cue)
		}
	}
	if _, isPath := e.(PathStateChangedEvent); !isPath && !quiet {
		if text := Describe(e, c.labels); text != "" {
			c.collab.Announcer.Announce(text)
		}
	}
	if c.listener != nil {
		c.listener.HandleEvent(e)
	}
}

// GetCurrentState returns a snapshot that Reset(true) can resume from.
func (c *Controller) GetCurrentState() Snapshot {
	s := Snapshot{
		StartStageIDs: append([]string(nil), c.startIDs...),
		GameDone:      c.gameDone,
		Outcome:       c.outcome,
	}
	for _, id := range c.graph.StageIDs() {
		st := c.stages[id]
		ss := StageSnapshot{ID: id, State: st.state, Visible: st.visible}
		if st.state == StageSealed {
			ss.PreSealState = st.preSeal
		}
		s.Stages = append(s.Stages, ss)
		if ex, ok := c.exercises[id]; ok {
			s.Exercises = append(s.Exercises, ex.CurrentState())
		}
	}
	for _, p := range c.paths {
		s.Paths = append(s.Paths, PathSnapshot{
			StageIDs: PathStageIDs{From: p.key.From, To: p.key.To},
			State:    p.state,
			Visible:  p.visible,
		})
	}
	if !c.lives.Unlimited() {
		left := c.lives.Left()
		s.LivesLeft = &left
	}
	if c.timer.Enabled() {
		left := c.timer.Remaining()
		s.TimeLeft = &left
	}
	return s
}
