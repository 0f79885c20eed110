package tui

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/storage"
)

// Screen rows outside the map area.
const (
	headerLines = 2
	footerLines = 4
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	cueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// SessionOptions describe the map session to run.
type SessionOptions struct {
	MapID         string
	Player        string
	Map           gamemap.Config
	Runtime       core.RuntimeConfig
	Resume        *gamemap.Snapshot // Saved session to continue, or nil
	ReducedMotion bool
	Store         *storage.Store // Optional
	Logger        *log.Logger
	CanGoBack     bool // Esc on the map returns to the caller
}

// Model is the Bubble Tea model for a map session.
type Model struct {
	opts     SessionOptions
	ctrl     *gamemap.Controller
	host     *Host
	screen   *core.Screen
	overlay  *core.Screen
	layout   mapLayout
	keys     *KeyMapper
	help     help.Model
	progress progress.Model
	input    core.InputFrame
	selected string
	paused   bool

	resultSaved bool
	quitting    bool
	backToMenu  bool
}

// NewModel builds the controller and starts the session.
func NewModel(opts SessionOptions) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}
	if opts.Runtime.TickRate <= 0 {
		opts.Runtime.TickRate = 30
	}
	// Use time-based seed if not specified
	if opts.Runtime.Seed == 0 {
		opts.Runtime.Seed = time.Now().UnixNano()
	}

	host := NewHost(opts.Runtime, opts.Logger)
	ctrlOpts := []gamemap.Option{
		gamemap.WithCollaborators(host.Collaborators()),
		gamemap.WithListener(host),
		gamemap.WithLogger(opts.Logger),
		gamemap.WithReducedMotion(opts.ReducedMotion),
		gamemap.WithRand(rand.New(rand.NewSource(opts.Runtime.Seed))),
	}
	if opts.Resume != nil {
		ctrlOpts = append(ctrlOpts, gamemap.WithSnapshot(*opts.Resume))
	}

	ctrl, err := gamemap.New(opts.Map, ctrlOpts...)
	if err != nil {
		return Model{}, err
	}
	ctrl.Start(opts.Resume != nil)

	m := Model{
		opts:     opts,
		ctrl:     ctrl,
		host:     host,
		keys:     NewKeyMapper(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		input:    core.NewInputFrame(),
	}
	if starts := ctrl.StartStageIDs(); len(starts) > 0 {
		m.selected = starts[0]
	}
	m.resize(opts.Runtime.ScreenW, opts.Runtime.ScreenH)
	return m, nil
}

// resize reallocates the buffers and recomputes the layout.
func (m *Model) resize(w, h int) {
	m.opts.Runtime.ScreenW = w
	m.opts.Runtime.ScreenH = h
	mapH := max(h-headerLines-footerLines, 5)
	if m.screen == nil {
		m.screen = core.NewScreen(w, mapH)
		m.overlay = core.NewScreen(max(w-8, 10), max(mapH-4, 3))
	} else {
		m.screen.Resize(w, mapH)
		m.overlay.Resize(max(w-8, 10), max(mapH-4, 3))
	}
	area := core.NewRect(2, 0, max(w-4, 1), max(mapH-1, 1))
	m.layout = computeLayout(m.ctrl.Stages(), m.ctrl.StartStageIDs(), area)
	m.help.Width = w
	m.progress.Width = max(w-4, 10)
}

// Controller exposes the engine, mainly for tests.
func (m Model) Controller() *gamemap.Controller {
	return m.ctrl
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keys.MapKey(msg)
	if isQuit {
		m.saveSession()
		m.quitting = true
		return m, tea.Quit
	}

	if m.host.Confirming() {
		switch {
		case action == core.ActionConfirm || msg.String() == "y":
			m.host.Answer(true)
		case action == core.ActionBack || msg.String() == "n":
			m.host.Answer(false)
		}
		return m, nil
	}

	if action == core.ActionPause {
		m.togglePause()
		return m, nil
	}
	if action == core.ActionHelp {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.ctrl.ActiveExercise() != "" {
		if action == core.ActionBack {
			m.ctrl.CloseExercise()
			return m, nil
		}
		if action != core.ActionNone {
			m.input.Set(action)
		}
		return m, nil
	}

	return m.handleMapAction(action)
}

// handleMapAction applies an action while the map has focus.
func (m Model) handleMapAction(action core.Action) (tea.Model, tea.Cmd) {
	switch action {
	case core.ActionUp:
		m.moveSelection(0, -1)
	case core.ActionDown:
		m.moveSelection(0, 1)
	case core.ActionLeft:
		m.moveSelection(-1, 0)
	case core.ActionRight:
		m.moveSelection(1, 0)
	case core.ActionConfirm:
		if m.paused {
			return m, nil
		}
		m.ctrl.HandleStageActivated(m.selected)
	case core.ActionFinish:
		m.ctrl.Finish()
	case core.ActionSolutions:
		if m.ctrl.ShowSolutions() {
			m.host.reviewing = true
		}
	case core.ActionRestart:
		if m.ctrl.IsDone() {
			m.restart()
		}
	case core.ActionBack:
		if m.opts.CanGoBack {
			m.saveSession()
			m.backToMenu = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) togglePause() {
	m.paused = !m.paused
	if m.paused {
		m.ctrl.PauseTimers()
	} else {
		m.ctrl.ResumeTimers()
	}
}

// moveSelection jumps to the nearest visible stage in a direction.
func (m *Model) moveSelection(dx, dy int) {
	m.selected = m.layout.step(m.selected, dx, dy, m.visibleStages())
}

func (m Model) visibleStages() []string {
	var ids []string
	for _, s := range m.ctrl.Stages() {
		if s.Visible {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// ensureSelection moves the cursor onto a visible stage.
func (m *Model) ensureSelection() {
	visible := m.visibleStages()
	for _, id := range visible {
		if id == m.selected {
			return
		}
	}
	if len(visible) > 0 {
		m.selected = visible[0]
	}
}

// restart begins a fresh session on the same map.
func (m *Model) restart() {
	if m.opts.Store != nil {
		//nolint:errcheck // Best-effort cleanup
		m.opts.Store.DeleteSnapshots(m.opts.MapID, m.opts.Player)
	}
	m.host.reviewing = false
	m.host.closeExercise()
	m.ctrl.Reset(false)
	m.resultSaved = false
	if m.paused {
		m.togglePause()
	}
	m.opts.Logger.Info("session restarted", "map", m.opts.MapID)
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	dt := time.Second / time.Duration(m.opts.Runtime.TickRate)

	if id := m.ctrl.ActiveExercise(); id != "" && !m.paused {
		if a := m.host.Exercise(); a != nil {
			res := a.Step(m.input)
			if res.Finished {
				m.ctrl.HandleExerciseScoreChanged(id, gamemap.ScoreReport{
					Score:    res.State.Score,
					MaxScore: res.State.MaxScore,
				})
			}
		}
	}
	m.input.Clear()

	m.ctrl.Tick(dt)
	m.host.tick(dt)
	m.ensureSelection()

	if ev := m.host.takeGameOver(); ev != nil && !m.resultSaved {
		m.saveResult(*ev)
	}

	if m.backToMenu {
		return m, nil
	}
	return m, tickCmd(m.opts.Runtime.TickRate)
}

// saveResult records the finished session and drops its saves.
func (m *Model) saveResult(ev gamemap.GameOverEvent) {
	m.resultSaved = true
	if m.opts.Store == nil {
		return
	}
	cleared, stages := m.ctrl.Progress()
	timeLeft, timed := m.ctrl.TimeLeft()
	_, err := m.opts.Store.SaveResult(storage.Result{
		MapID:     m.opts.MapID,
		Player:    m.opts.Player,
		Score:     ev.Score,
		MaxScore:  ev.MaxScore,
		Outcome:   ev.Outcome.String(),
		Cleared:   cleared,
		Stages:    stages,
		LivesLeft: m.ctrl.LivesLeft(),
		TimeLeft:  timeLeft,
		Timed:     timed,
	})
	if err != nil {
		m.opts.Logger.Warn("could not save result", "err", err)
	}
	//nolint:errcheck // Best-effort cleanup
	m.opts.Store.DeleteSnapshots(m.opts.MapID, m.opts.Player)
}

// saveSession stores a resumable snapshot of an unfinished session.
func (m *Model) saveSession() {
	if m.opts.Store == nil || m.ctrl.IsDone() {
		return
	}
	data, err := m.ctrl.GetCurrentState().Marshal()
	if err != nil {
		m.opts.Logger.Warn("could not encode session", "err", err)
		return
	}
	if _, err := m.opts.Store.SaveSnapshot(m.opts.MapID, m.opts.Player, data); err != nil {
		m.opts.Logger.Warn("could not save session", "err", err)
	}
}

// saveScreenshot saves the current map to a file.
func (m *Model) saveScreenshot() {
	m.draw()

	dir := filepath.Join(os.Getenv("HOME"), ".stagemap", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.txt", m.opts.MapID, timestamp)
	//nolint:errcheck // Best-effort save, session continues regardless
	os.WriteFile(filepath.Join(dir, filename), []byte(m.screen.String()), 0o600)
}

// draw renders the map and any overlay into the screen buffer.
func (m *Model) draw() {
	m.screen.Clear()
	drawMap(m.screen, m.layout, m.ctrl.Stages(), m.ctrl.Paths(), m.selected)

	switch {
	case m.host.Confirming():
		m.drawDialog([]string{"Finish the session?", "", "y: yes   n: no"})
	case m.ctrl.ActiveExercise() != "":
		m.drawExercise()
	case m.ctrl.IsDone() && !m.ctrl.SolutionsShown():
		m.drawDialog([]string{
			fmt.Sprintf("Session over: %s", m.ctrl.Outcome()),
			fmt.Sprintf("Score %d / %d", m.ctrl.Score(), m.ctrl.MaxScore()),
			"",
			"r: restart   v: solutions   q: quit",
		})
	}
}

// drawDialog draws a centered box with the given lines.
func (m *Model) drawDialog(lines []string) {
	w := 0
	for _, l := range lines {
		w = max(w, len([]rune(l)))
	}
	box := core.NewRect((m.screen.Width()-w-4)/2, (m.screen.Height()-len(lines)-2)/2, w+4, len(lines)+2)
	m.screen.DrawRect(box, ' ')
	m.screen.DrawBox(box, core.ColorBrightWhite)
	for i, l := range lines {
		m.screen.DrawTextCentered(box.Y+1+i, l, core.ColorBrightWhite)
	}
}

// drawExercise renders the open activity in a framed overlay.
func (m *Model) drawExercise() {
	id := m.ctrl.ActiveExercise()
	ov := m.overlay
	ov.Clear()
	if a := m.host.Exercise(); a != nil {
		a.Render(ov)
	} else {
		ov.DrawTextCentered(ov.Height()/2, "This exercise cannot be displayed.", core.ColorRed)
	}

	box := core.NewRect(3, 1, ov.Width()+2, ov.Height()+2)
	m.screen.DrawRect(box, ' ')
	m.screen.DrawBox(box, core.ColorCyan)
	m.screen.DrawTextColor(box.X+2, box.Y, " "+m.ctrl.Label(id)+" ", core.ColorBrightWhite)
	for y := 0; y < ov.Height(); y++ {
		for x := 0; x < ov.Width(); x++ {
			c := ov.GetCell(x, y)
			m.screen.SetColor(box.X+1+x, box.Y+1+y, c.Rune, c.Color)
		}
	}

	if ex, ok := m.ctrl.Exercise(id); ok && ex.HasTimeLimit {
		color := core.ColorGray
		if ex.Warning {
			color = core.ColorRed
		}
		timer := fmt.Sprintf(" ⏱ %s ", formatDuration(ex.Remaining))
		m.screen.DrawTextColor(box.Right()-len([]rune(timer))-2, box.Bottom()-1, timer, color)
	}
}

// formatDuration renders m:ss.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// header renders the title and status line plus the score bar.
func (m Model) header() string {
	cfg := m.ctrl.Config()
	title := cfg.Title
	if title == "" {
		title = cfg.ID
	}

	parts := []string{fmt.Sprintf("Score %d/%d", m.ctrl.Score(), m.ctrl.MaxScore())}
	if lives := m.ctrl.LivesLeft(); lives == gamemap.Unlimited {
		parts = append(parts, "Lives ∞")
	} else {
		parts = append(parts, "Lives "+strings.Repeat("♥", lives))
	}
	status := statusStyle.Render(strings.Join(parts, "  "))
	if left, ok := m.ctrl.TimeLeft(); ok {
		t := "Time " + formatDuration(left)
		if m.ctrl.GlobalTimeWarning() {
			t = warnStyle.Render(t)
		} else {
			t = statusStyle.Render(t)
		}
		status += "  " + t
	}
	if m.paused {
		status += "  " + warnStyle.Render("PAUSED")
	}

	ratio := 0.0
	if maxScore := m.ctrl.MaxScore(); maxScore > 0 {
		ratio = float64(m.ctrl.Score()) / float64(maxScore)
	}
	return titleStyle.Render(title) + "  " + status + "\n  " + m.progress.ViewAs(ratio)
}

// footer renders the cue flash, recent announcements and key help.
func (m Model) footer() string {
	lines := make([]string, 0, footerLines)

	cue := ""
	if c := m.host.Cue(); c != "" {
		cue = cueStyle.Render("♪ " + string(c))
	}
	if s, ok := m.ctrl.Stage(m.selected); ok && s.Visible {
		info := fmt.Sprintf("%s: %s", s.Label, s.State)
		if s.MinScore > 0 && !s.State.IsOpen() {
			info += fmt.Sprintf(" (needs %d)", s.MinScore)
		}
		cue = noteStyle.Render(info) + "  " + cue
	}
	lines = append(lines, cue)

	notes := m.host.Announcements()
	if len(notes) > 2 {
		notes = notes[len(notes)-2:]
	}
	for i := 0; i < 2; i++ {
		if i < len(notes) {
			lines = append(lines, noteStyle.Render(notes[i]))
		} else {
			lines = append(lines, "")
		}
	}

	lines = append(lines, helpStyle.Render(m.help.View(m.keys.Keys())))
	return strings.Join(lines, "\n")
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting || m.backToMenu {
		return ""
	}
	m.draw()
	return m.header() + "\n" + RenderScreen(m.screen) + "\n" + m.footer()
}

// IsQuitting returns true if the user requested to quit.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if the user asked to leave the map.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run starts the Bubble Tea program for a map session.
// It reports whether the user asked to go back to the menu.
func Run(opts SessionOptions) (backToMenu bool, err error) {
	model, err := NewModel(opts)
	if err != nil {
		return false, err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := finalModel.(Model)
	return ok && m.BackToMenu(), nil
}
