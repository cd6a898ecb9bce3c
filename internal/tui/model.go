package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-port-killer/internal/model"
	"github.com/randomizedcoder/go-port-killer/internal/stats"
)

// =============================================================================
// Messages
// =============================================================================

// queryMsg carries the result of a port or name query.
type queryMsg struct {
	processes []model.ProcessRecord
	err       string
}

// detailMsg carries a detail lookup result.
type detailMsg model.DetailResult

// killMsg carries a terminate result.
type killMsg struct {
	pid    string
	force  bool
	result model.KillResult
}

// =============================================================================
// Model
// =============================================================================

// Engine is the subset of the engine used by the TUI.
type Engine interface {
	CheckPort(ctx context.Context, port string) model.PortQueryResult
	SearchByName(ctx context.Context, name string) model.NameQueryResult
	Detail(ctx context.Context, pid string) model.DetailResult
	Kill(ctx context.Context, pid string, force bool) model.KillResult
	ToolLatency() []stats.ToolLatency
}

// SearchMode selects what the input box queries.
type SearchMode int

const (
	SearchPort SearchMode = iota
	SearchName
)

// String returns the input box label.
func (s SearchMode) String() string {
	if s == SearchName {
		return "Name"
	}
	return "Port"
}

// pendingKill is a terminate request awaiting confirmation.
type pendingKill struct {
	pid   string
	name  string
	force bool
}

// Model represents the TUI state.
type Model struct {
	engine Engine

	// Input
	mode    SearchMode
	input   string
	editing bool

	// Last submitted query, for refresh
	lastMode  SearchMode
	lastQuery string

	// Results
	processes []model.ProcessRecord
	cursor    int
	detail    *model.ProcessDetail
	confirm   *pendingKill
	loading   bool

	// Status line
	status    string
	statusErr bool

	// Display options
	width  int
	height int

	timeout  time.Duration
	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Engine Engine

	// Timeout bounds each engine call started from the UI.
	Timeout time.Duration

	// InitialPort, if set, is queried on startup.
	InitialPort string
}

// New creates a new TUI model.
func New(cfg Config) Model {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	m := Model{
		engine:  cfg.Engine,
		mode:    SearchPort,
		editing: true,
		width:   80,
		height:  24,
		timeout: timeout,
	}
	if cfg.InitialPort != "" {
		m.input = cfg.InitialPort
	}
	return m
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.input != "" {
		return m.queryCmd(m.mode, m.input)
	}
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case queryMsg:
		m.loading = false
		m.processes = msg.processes
		m.detail = nil
		if m.cursor >= len(m.processes) {
			m.cursor = 0
		}
		switch {
		case msg.err != "":
			m.setError(msg.err)
		case len(msg.processes) == 0:
			m.setStatus("No matching processes")
		default:
			m.setStatus("")
		}
		return m, nil

	case detailMsg:
		m.loading = false
		if msg.Error != "" {
			m.detail = nil
			m.setError(msg.Error)
			return m, nil
		}
		m.detail = msg.Detail
		m.setStatus("")
		return m, nil

	case killMsg:
		m.loading = false
		if msg.result.Error != "" {
			m.setError(msg.result.Error)
			return m, nil
		}
		m.setStatus(msg.result.Message)
		// Re-run the last query so the list reflects the kill.
		if m.lastQuery != "" {
			m.loading = true
			return m, m.queryCmd(m.lastMode, m.lastQuery)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(m.input)
		if query == "" {
			return m, nil
		}
		m.editing = false
		m.loading = true
		return m, m.queryCmd(m.mode, query)
	case tea.KeyTab:
		if m.mode == SearchPort {
			m.mode = SearchName
		} else {
			m.mode = SearchPort
		}
		return m, nil
	case tea.KeyEsc:
		m.editing = false
		return m, nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			r := []rune(m.input)
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "/", "i":
		m.editing = true
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.processes)-1 {
			m.cursor++
		}
		return m, nil
	case "r":
		if m.lastQuery == "" {
			return m, nil
		}
		m.loading = true
		return m, m.queryCmd(m.lastMode, m.lastQuery)
	case "enter", "d":
		p, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.loading = true
		return m, m.detailCmd(p.PID)
	case "t", "K":
		p, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.confirm = &pendingKill{pid: p.PID, name: p.Name, force: msg.String() == "K"}
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.confirm
	m.confirm = nil
	if msg.String() != "y" && msg.String() != "Y" {
		m.setStatus("Cancelled")
		return m, nil
	}
	m.loading = true
	return m, m.killCmd(pending.pid, pending.force)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// =============================================================================
// Commands
// =============================================================================

func (m *Model) queryCmd(mode SearchMode, query string) tea.Cmd {
	m.lastMode = mode
	m.lastQuery = query
	engine, timeout := m.engine, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if mode == SearchName {
			res := engine.SearchByName(ctx, query)
			return queryMsg{processes: res.Processes, err: res.Error}
		}
		res := engine.CheckPort(ctx, query)
		return queryMsg{processes: res.Processes, err: res.Error}
	}
}

func (m Model) detailCmd(pid string) tea.Cmd {
	engine, timeout := m.engine, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return detailMsg(engine.Detail(ctx, pid))
	}
}

func (m Model) killCmd(pid string, force bool) tea.Cmd {
	engine, timeout := m.engine, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return killMsg{pid: pid, force: force, result: engine.Kill(ctx, pid, force)}
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Selected returns the process under the cursor.
func (m Model) Selected() (model.ProcessRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.processes) {
		return model.ProcessRecord{}, false
	}
	return m.processes[m.cursor], true
}

// Processes returns the current result list.
func (m Model) Processes() []model.ProcessRecord {
	return m.processes
}

// Status returns the status line and whether it is an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}
