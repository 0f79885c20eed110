package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/stagemap/internal/config"
)

// StartSelection holds the user's choice from the start menu.
type StartSelection struct {
	Resume     bool
	Difficulty config.DifficultyPreset
}

// presets lists the difficulties in menu order.
var presets = []struct {
	preset config.DifficultyPreset
	hint   string
}{
	{config.DifficultyEasy, "more lives, longer timers"},
	{config.DifficultyNormal, "as the map is written"},
	{config.DifficultyHard, "fewer lives, shorter timers"},
	{config.DifficultyFixed, "no adjustment"},
}

// StartModel lets users continue a saved session or start a new one on a map.
type StartModel struct {
	title          string
	options        []string
	canResume      bool
	cursor         int
	presetCursor   int
	inPresetSelect bool
	difficulty     config.DifficultyPreset
	width          int
	height         int
	keyMapper      *KeyMapper
	selection      StartSelection
	choosing       bool
	quitting       bool
	back           bool
}

// NewStartModel creates a start menu for a map.
func NewStartModel(title string, canResume bool, difficulty config.DifficultyPreset, width, height int) StartModel {
	options := []string{"New session", "Choose difficulty..."}
	if canResume {
		options = append([]string{"Continue saved session"}, options...)
	}
	if difficulty == "" {
		difficulty = config.DifficultyNormal
	}
	return StartModel{
		title:      title,
		options:    options,
		canResume:  canResume,
		difficulty: difficulty,
		width:      width,
		height:     height,
		keyMapper:  NewKeyMapper(),
		choosing:   true,
	}
}

// Init initializes the model.
func (m StartModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m StartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m StartModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keyMapper.MapKeyToMenuAction(msg)

	if m.inPresetSelect {
		return m.handlePresetKey(action)
	}
	return m.handleOptionKey(action)
}

func (m StartModel) handleOptionKey(action MenuAction) (tea.Model, tea.Cmd) {
	switch action {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case MenuActionSelect:
		switch m.options[m.cursor] {
		case "Continue saved session":
			m.choosing = false
			m.selection = StartSelection{Resume: true, Difficulty: m.difficulty}
			return m, tea.Quit
		case "New session":
			m.choosing = false
			m.selection = StartSelection{Difficulty: m.difficulty}
			return m, tea.Quit
		default:
			m.inPresetSelect = true
			m.presetCursor = 0
			for i, p := range presets {
				if p.preset == m.difficulty {
					m.presetCursor = i
				}
			}
		}
	case MenuActionBack:
		m.back = true
		return m, tea.Quit
	}

	return m, nil
}

func (m StartModel) handlePresetKey(action MenuAction) (tea.Model, tea.Cmd) {
	switch action {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.presetCursor > 0 {
			m.presetCursor--
		}
	case MenuActionDown:
		if m.presetCursor < len(presets)-1 {
			m.presetCursor++
		}
	case MenuActionSelect:
		m.difficulty = presets[m.presetCursor].preset
		m.inPresetSelect = false
	case MenuActionBack:
		m.inPresetSelect = false
	}

	return m, nil
}

// View renders the option or difficulty list.
func (m StartModel) View() string {
	if m.quitting {
		return ""
	}

	if m.inPresetSelect {
		return m.viewPresetSelect()
	}
	return m.viewOptions()
}

func (m StartModel) viewOptions() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(strings.ToUpper(m.title), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText(fmt.Sprintf("Difficulty: %s", m.difficulty), m.width))
	b.WriteString("\n\n")

	for i, opt := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(cursor+opt, m.width))
		b.WriteString("\n")
	}

	if m.canResume {
		b.WriteString("\n")
		b.WriteString(centerText("A new session discards the saved one when it ends.", m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Enter: Select  |  Esc: Back  |  Q: Quit", m.width))

	return b.String()
}

func (m StartModel) viewPresetSelect() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("SELECT DIFFICULTY", m.width))
	b.WriteString("\n\n")

	for i, p := range presets {
		cursor := "  "
		if i == m.presetCursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-7s %s", cursor, p.preset, p.hint)
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Enter: Select  |  Esc: Back  |  Q: Quit", m.width))

	return b.String()
}

// Selected returns the selection, or nil if still choosing.
func (m StartModel) Selected() *StartSelection {
	if m.choosing {
		return nil
	}
	return &m.selection
}

// IsChoosing returns true if still in selection mode.
func (m StartModel) IsChoosing() bool {
	return m.choosing
}

// IsQuitting returns true if user wants to quit.
func (m StartModel) IsQuitting() bool {
	return m.quitting
}

// WantsBack returns true if user pressed back.
func (m StartModel) WantsBack() bool {
	return m.back
}

// RunStartMenu asks how to start a map. It returns nil if the user backed out.
func RunStartMenu(title string, canResume bool, difficulty config.DifficultyPreset, width, height int) (*StartSelection, error) {
	model := NewStartModel(title, canResume, difficulty, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m, ok := finalModel.(StartModel)
	if !ok || m.IsQuitting() || m.WantsBack() {
		return nil, nil
	}

	return m.Selected(), nil
}
