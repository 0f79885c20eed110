// Package tui provides terminal UI components including SSH server support via Wish.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/stagemap/internal/config"
	"github.com/vovakirdan/stagemap/internal/core"
	"github.com/vovakirdan/stagemap/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.stagemap/host_key.
	HostKeyPath string

	// DBPath is the path to the sessions database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Difficulty is the preset offered first in the start menu.
	Difficulty config.DifficultyPreset

	// TickRate is the map session tick rate.
	TickRate int

	ReducedMotion bool
	LogLevel      log.Level
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      config.DefaultDBPath(),
		IdleTimeout: 30 * time.Minute,
		Difficulty:  config.DifficultyNormal,
		TickRate:    30,
		LogLevel:    log.InfoLevel,
	}
}

// SSHServer wraps a Wish SSH server for map sessions.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "stagemap-ssh",
		Level:           cfg.LogLevel,
	})

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open sessions database", "error", err)
		// Continue without storage
		store = nil
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".stagemap", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.config.TickRate,
		Seed:     time.Now().UnixNano(),
	}

	model := NewSessionModel(s.store, cfg, sshSession.User(), s.config, s.logger)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// sessionScreen is the screen a SessionModel is showing.
type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenStart
	screenResults
	screenMap
)

// SessionModel manages the full flow of a connection: menu -> map -> menu.
// This is the top-level model used for SSH sessions.
type SessionModel struct {
	store    *storage.Store
	config   core.RuntimeConfig
	server   SSHServerConfig
	player   string
	logger   *log.Logger
	screen   sessionScreen
	menu     MenuModel
	start    StartModel
	results  ResultsModel
	session  *Model
	mapID    string
	errMsg   string
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(store *storage.Store, cfg core.RuntimeConfig, player string, server SSHServerConfig, logger *log.Logger) SessionModel {
	if logger == nil {
		logger = log.Default()
	}
	return SessionModel{
		store:  store,
		config: cfg,
		server: server,
		player: player,
		logger: logger.With("player", player, "conn", uuid.NewString()),
		menu:   NewMenuModel(store, cfg, player),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenStart:
		return m.updateStart(msg)
	case screenResults:
		return m.updateResults(msg)
	case screenMap:
		return m.updateMap(msg)
	}
	return m.updateMenu(msg)
}

// toMenu rebuilds the menu so saved sessions and high scores are current.
func (m SessionModel) toMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.session = nil
	m.menu = NewMenuModel(m.store, m.config, m.player)
	return m, m.menu.Init()
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsResults() {
		m.screen = screenResults
		m.results = NewResultsModel(m.store, m.config.ScreenW, m.config.ScreenH)
		return m, m.results.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		m.mapID = selected.MapID
		m.errMsg = ""
		m.screen = screenStart
		m.start = NewStartModel(selected.Title, selected.Saved, m.server.Difficulty,
			m.config.ScreenW, m.config.ScreenH)
		return m, m.start.Init()
	}

	return m, cmd
}

// updateStart handles the continue/new/difficulty choice.
func (m SessionModel) updateStart(msg tea.Msg) (tea.Model, tea.Cmd) {
	newStart, cmd := m.start.Update(msg)
	if startModel, ok := newStart.(StartModel); ok {
		m.start = startModel
	}

	if m.start.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.start.WantsBack() {
		return m.toMenu()
	}

	sel := m.start.Selected()
	if sel == nil {
		return m, cmd
	}

	rt := m.config
	rt.Seed = time.Now().UnixNano()
	opts, err := PrepareSession(SessionRequest{
		MapID:         m.mapID,
		Player:        m.player,
		Difficulty:    sel.Difficulty,
		Resume:        sel.Resume,
		Runtime:       rt,
		ReducedMotion: m.server.ReducedMotion,
		Store:         m.store,
		Logger:        m.logger,
	})
	if err == nil {
		opts.CanGoBack = true
		var session Model
		session, err = NewModel(opts)
		if err == nil {
			m.session = &session
			m.screen = screenMap
			m.logger.Info("map started", "map", m.mapID, "difficulty", sel.Difficulty, "resume", sel.Resume)
			return m, m.session.Init()
		}
	}

	m.logger.Error("cannot start map", "map", m.mapID, "err", err)
	next, menuCmd := m.toMenu()
	sm := next.(SessionModel)
	sm.errMsg = err.Error()
	return sm, menuCmd
}

// updateResults handles the results board.
func (m SessionModel) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	newResults, cmd := m.results.Update(msg)
	if resultsModel, ok := newResults.(ResultsModel); ok {
		m.results = resultsModel
	}

	if m.results.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.results.IsGoingBack() {
		return m.toMenu()
	}
	return m, cmd
}

// updateMap handles updates while a map session runs.
func (m SessionModel) updateMap(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.session.Update(msg)
	if sessionModel, ok := newModel.(Model); ok {
		m.session = &sessionModel
	}

	if m.session.BackToMenu() {
		return m.toMenu()
	}

	if m.session.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenStart:
		return m.start.View()
	case screenResults:
		return m.results.View()
	case screenMap:
		if m.session != nil {
			return m.session.View()
		}
	}

	view := m.menu.View()
	if m.errMsg != "" {
		view += "\n" + warnStyle.Render(centerText(m.errMsg, m.config.ScreenW))
	}
	return view
}
