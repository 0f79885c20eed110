package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/gamemap"
	"github.com/vovakirdan/stagemap/internal/storage"
)

const (
	resultsSidebarMinWidth = 96 // Below this the map list collapses into a selector line
	resultsSidebarWidth    = 24
	resultsLimit           = 50
)

// resultOrder selects how the board ranks sessions.
type resultOrder int

const (
	orderBest resultOrder = iota
	orderRecent
)

func (o resultOrder) String() string {
	if o == orderRecent {
		return "most recent"
	}
	return "best first"
}

// ResultsKeyMap defines the key bindings for the results board.
type ResultsKeyMap struct {
	Scroll  key.Binding
	PrevMap key.Binding
	NextMap key.Binding
	Order   key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// ShortHelp implements help.KeyMap.
func (k ResultsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scroll, k.PrevMap, k.NextMap, k.Order, k.Back}
}

// FullHelp implements help.KeyMap.
func (k ResultsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Scroll, k.PrevMap, k.NextMap},
		{k.Order, k.Back, k.Quit},
	}
}

// DefaultResultsKeyMap returns the results board bindings.
func DefaultResultsKeyMap() ResultsKeyMap {
	return ResultsKeyMap{
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "k", "j", "pgup", "pgdown"),
			key.WithHelp("↑/↓", "scroll"),
		),
		PrevMap: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("←", "prev map"),
		),
		NextMap: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("→/tab", "next map"),
		),
		Order: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "best/recent"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ResultsModel lists finished sessions per map.
type ResultsModel struct {
	store     *storage.Store
	maps      []config.MapInfo
	stats     map[string]*storage.MapStats
	mapCursor int
	order     resultOrder
	results   []storage.Result
	loadErr   error

	table table.Model
	help  help.Model
	keys  ResultsKeyMap

	width, height int
	quitting      bool
	goingBack     bool
}

// NewResultsModel creates a results board over every known map.
func NewResultsModel(store *storage.Store, width, height int) ResultsModel {
	m := ResultsModel{
		store:  store,
		maps:   config.ListMaps(),
		help:   help.New(),
		keys:   DefaultResultsKeyMap(),
		width:  width,
		height: height,
	}
	if store != nil {
		stats, err := store.AllMapStats()
		if err != nil {
			m.loadErr = err
		}
		m.stats = stats
	}
	m.table = m.newTable()
	m.reload()
	return m
}

func (m ResultsModel) wide() bool {
	return m.width >= resultsSidebarMinWidth
}

func (m *ResultsModel) newTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Score", Width: 9},
		{Title: "Stages", Width: 7},
		{Title: "Ending", Width: 15},
		{Title: "Lives", Width: 6},
		{Title: "Time", Width: 6},
		{Title: "Player", Width: 10},
		{Title: "When", Width: 12},
	}

	avail := m.width - 6
	if m.wide() {
		avail -= resultsSidebarWidth + 2
	}
	used := 0
	for _, c := range columns {
		used += c.Width + 2
	}
	if slack := avail - used; slack > 0 {
		columns[6].Width += min(slack, 12)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("16")).
		Background(lipgloss.Color("114"))
	t.SetStyles(s)
	return t
}

// reload fetches the sessions of the selected map in the current order.
func (m *ResultsModel) reload() {
	m.results = nil
	if m.store != nil && len(m.maps) > 0 {
		id := m.maps[m.mapCursor].ID
		var err error
		if m.order == orderRecent {
			m.results, err = m.store.RecentResults(id, resultsLimit)
		} else {
			m.results, err = m.store.TopResults(id, resultsLimit)
		}
		m.loadErr = err
	}

	rows := make([]table.Row, len(m.results))
	for i, r := range m.results {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%d/%d", r.Score, r.MaxScore),
			stagesCell(r),
			endingLabel(r.Outcome),
			livesCell(r.LivesLeft),
			timeCell(r),
			r.Player,
			r.CreatedAt.Local().Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *ResultsModel) selectMap(delta int) {
	if len(m.maps) == 0 {
		return
	}
	m.mapCursor = (m.mapCursor + delta + len(m.maps)) % len(m.maps)
	m.reload()
}

func stagesCell(r storage.Result) string {
	if r.Stages == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", r.Cleared, r.Stages)
}

func livesCell(left int) string {
	switch {
	case left == gamemap.Unlimited:
		return "∞"
	case left <= 0:
		return "-"
	default:
		return strings.Repeat("♥", min(left, 5))
	}
}

func timeCell(r storage.Result) string {
	if !r.Timed {
		return "-"
	}
	return formatDuration(r.TimeLeft)
}

// endingLabel turns a stored outcome into a short line for the board.
func endingLabel(outcome string) string {
	switch outcome {
	case gamemap.OutcomeFinished.String():
		return "⚑ finished"
	case gamemap.OutcomeLivesExhausted.String():
		return "✕ out of lives"
	case gamemap.OutcomeTimedOut.String():
		return "⌛ out of time"
	}
	return outcome
}

// Init implements tea.Model.
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.PrevMap):
			m.selectMap(-1)
			return m, nil
		case key.Matches(msg, m.keys.NextMap):
			m.selectMap(1)
			return m, nil
		case key.Matches(msg, m.keys.Order):
			m.order = 1 - m.order
			m.reload()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table = m.newTable()
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ResultsModel) mapTitle(i int) string {
	if t := m.maps[i].Title; t != "" {
		return t
	}
	return m.maps[i].ID
}

// summary describes every session of the selected map in one line.
func (m ResultsModel) summary() string {
	if len(m.maps) == 0 {
		return ""
	}
	st := m.stats[m.maps[m.mapCursor].ID]
	if st == nil || st.Sessions == 0 {
		return "no sessions yet"
	}
	return fmt.Sprintf("%d sessions · %d finished · best %d · avg %.1f · last %s",
		st.Sessions, st.Finished, st.HighScore, st.AvgScore, st.LastPlayed.Local().Format("Jan 02"))
}

// View implements tea.Model.
func (m ResultsModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	title := "RESULTS"
	if len(m.maps) > 0 {
		title = "RESULTS · " + m.mapTitle(m.mapCursor)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n")
	b.WriteString(dim.Render(centerText(m.summary()+" · "+m.order.String(), m.width)))
	b.WriteString("\n\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	if m.wide() {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			box.Width(resultsSidebarWidth).Render(m.mapList()), " ", box.Render(m.body())))
	} else {
		if len(m.maps) > 0 {
			b.WriteString(centerText(fmt.Sprintf("◀ %s ▶", m.mapTitle(m.mapCursor)), m.width))
			b.WriteString("\n")
		}
		b.WriteString(box.Render(m.body()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// mapList renders the sidebar: each map with its best score, flagged when
// someone has finished it.
func (m ResultsModel) mapList() string {
	var b strings.Builder
	b.WriteString("Maps\n")
	for i := range m.maps {
		flag, best := " ", ""
		if st := m.stats[m.maps[i].ID]; st != nil {
			best = strconv.Itoa(st.HighScore)
			if st.Finished > 0 {
				flag = "⚑"
			}
		}

		name := []rune(m.mapTitle(i))
		room := resultsSidebarWidth - 8 - len(best)
		if len(name) > room {
			name = append(name[:max(room-1, 0)], '…')
		}
		line := fmt.Sprintf("%s %-*s %s", flag, room, string(name), best)

		if i == m.mapCursor {
			line = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")).Render("▸" + line)
		} else {
			line = " " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// body renders the table or explains why it is empty.
func (m ResultsModel) body() string {
	empty := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(1, 2)

	switch {
	case m.store == nil:
		return empty.Render("Results are not being recorded:\nthe sessions database could not be opened.")
	case m.loadErr != nil:
		return empty.Render("Could not read results:\n" + m.loadErr.Error())
	case len(m.maps) == 0:
		return empty.Render("No maps found.")
	case len(m.results) == 0:
		return empty.Render(fmt.Sprintf("Nobody has ended a session on %s yet.\nPlay it from the map menu to post the first result.",
			m.mapTitle(m.mapCursor)))
	}
	return m.table.View()
}

// IsGoingBack reports whether the user asked to return to the menu.
func (m ResultsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting reports whether the user asked to quit.
func (m ResultsModel) IsQuitting() bool {
	return m.quitting
}

// RunResults shows the results board. goBack is true when the user pressed
// back rather than quit.
func RunResults(store *storage.Store, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(NewResultsModel(store, width, height), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ResultsModel)
	return ok && m.IsGoingBack(), nil
}
