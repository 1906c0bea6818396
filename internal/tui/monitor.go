package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelder/breeze/internal/config"
	"github.com/kelder/breeze/internal/engine"
	"github.com/kelder/breeze/internal/protocol"
)

// refreshUI is how often the monitor re-reads the session table. Each
// read observes every device, which is what keeps the engine polling
// them; closing the monitor lets the devices go idle again.
const refreshUI = time.Second

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshUI, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Power   key.Binding
	Mode    key.Binding
	Warmer  key.Binding
	Cooler  key.Binding
	Rescan  key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Power, k.Mode, k.Warmer, k.Cooler, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Power, k.Mode},
		{k.Warmer, k.Cooler, k.Rescan, k.Quit},
	}
}

func newMonitorKeyMap() monitorKeyMap {
	return monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Power: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "power"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mode"),
		),
		Warmer: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "warmer"),
		),
		Cooler: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "cooler"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// deviceRow is one device's snapshot as rendered by the monitor.
type deviceRow struct {
	identity  engine.DeviceIdentity
	nickname  string
	bound     bool
	available bool
	status    map[string]int
}

// MonitorModel is the interactive device monitor. It rereads the
// session table once a second and sends commands for the selected
// device.
type MonitorModel struct {
	controller *engine.Controller
	registry   *config.Registry

	rows   []deviceRow
	cursor int
	hint   string

	Spinner spinner.Model
	Help    help.Model
	Keys    monitorKeyMap

	Width  int
	Height int
}

// NewMonitorModel creates the monitor over a started controller.
func NewMonitorModel(controller *engine.Controller, registry *config.Registry) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return MonitorModel{
		controller: controller,
		registry:   registry,
		Spinner:    s,
		Help:       help.New(),
		Keys:       newMonitorKeyMap(),
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, tick())
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tickMsg:
		m.refreshRows()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.Keys.Rescan):
		if err := m.controller.Scan(); err != nil {
			m.hint = "rescan failed: " + err.Error()
		} else {
			m.hint = "discovery broadcast sent"
		}

	case key.Matches(msg, m.Keys.Power):
		m.toggle("Pow")

	case key.Matches(msg, m.Keys.Mode):
		m.cycleMode()

	case key.Matches(msg, m.Keys.Warmer):
		m.nudgeSetpoint(1)

	case key.Matches(msg, m.Keys.Cooler):
		m.nudgeSetpoint(-1)
	}

	return m, nil
}

// selectedSession resolves the cursor row back to its live session.
func (m *MonitorModel) selectedSession() (*engine.Session, *deviceRow) {
	if m.cursor >= len(m.rows) {
		return nil, nil
	}
	row := &m.rows[m.cursor]
	s, ok := m.controller.Session(row.identity.MAC)
	if !ok {
		return nil, nil
	}
	return s, row
}

func (m *MonitorModel) sendCommand(fields []protocol.FieldValue) {
	s, row := m.selectedSession()
	if s == nil {
		return
	}
	if err := s.Command(fields); err != nil {
		if errors.Is(err, engine.ErrNotBound) {
			m.hint = row.identity.MAC + " is still binding"
		} else {
			m.hint = "command failed: " + err.Error()
		}
		return
	}
	m.hint = "command sent to " + m.registry.DisplayName(row.identity.MAC, row.identity.MAC)
}

// toggle flips a binary field based on its last cached value.
func (m *MonitorModel) toggle(code string) {
	_, row := m.selectedSession()
	if row == nil {
		return
	}
	next := 1 - row.status[code]
	m.sendCommand([]protocol.FieldValue{{Code: code, Value: next}})
}

// cycleMode steps the operating mode through its five values.
func (m *MonitorModel) cycleMode() {
	_, row := m.selectedSession()
	if row == nil {
		return
	}
	f, _ := protocol.Lookup("mode")
	next := (row.status["Mod"] + 1) % len(f.Values)
	m.sendCommand([]protocol.FieldValue{{Code: "Mod", Value: next}})
}

// nudgeSetpoint moves the temperature setpoint by one degree on the
// wire's native Celsius scale, whatever unit the device displays.
func (m *MonitorModel) nudgeSetpoint(delta int) {
	_, row := m.selectedSession()
	if row == nil {
		return
	}
	m.sendCommand([]protocol.FieldValue{{Code: "SetTem", Value: row.status["SetTem"] + delta}})
}

// refreshRows snapshots every session. The Status call doubles as the
// observation that keeps each device's refresh loop polling.
func (m *MonitorModel) refreshRows() {
	sessions := m.controller.Sessions()

	rows := make([]deviceRow, 0, len(sessions))
	for _, s := range sessions {
		id := s.Identity()
		status, err := s.Status()
		rows = append(rows, deviceRow{
			identity:  id,
			nickname:  m.registry.DisplayName(id.MAC, id.Name),
			bound:     s.Bound(),
			available: err == nil,
			status:    status,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].identity.MAC < rows[j].identity.MAC
	})

	m.rows = rows
	if m.cursor >= len(rows) && len(rows) > 0 {
		m.cursor = len(rows) - 1
	}
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("breeze monitor"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(fmt.Sprintf("  %s Scanning for devices...\n", m.Spinner.View()))
	} else {
		b.WriteString(BorderStyle.Render(m.renderTable()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.hint != "" {
		b.WriteString(HintStyle.Render("  " + m.hint))
		b.WriteString("\n")
	}
	b.WriteString(m.Help.View(m.Keys))

	return b.String()
}

func (m MonitorModel) renderTable() string {
	var lines []string
	for i, row := range m.rows {
		marker := "  "
		style := RowStyle
		if i == m.cursor {
			marker = "> "
			style = SelectedRowStyle
		}

		head := fmt.Sprintf("%s%-16s %-14s %s", marker, row.nickname, row.identity.MAC, m.renderState(row))
		lines = append(lines, style.Render(head))
		lines = append(lines, StatusLineStyle.Render(renderStatus(row)))
	}
	return strings.Join(lines, "\n")
}

func (m MonitorModel) renderState(row deviceRow) string {
	switch {
	case !row.bound:
		return BindingStyle.Render("binding")
	case !row.available:
		return UnavailableStyle.Render("unavailable")
	default:
		return AvailableStyle.Render("available")
	}
}

// renderStatus summarizes the cached capabilities of one device.
func renderStatus(row deviceRow) string {
	if len(row.status) == 0 {
		return "no status yet"
	}

	var parts []string
	for _, capability := range []string{"power", "mode", "temperature", "fanSpeed"} {
		f, _ := protocol.Lookup(capability)
		v, ok := row.status[f.Code]
		if !ok {
			continue
		}
		if name, ok := f.ValueName(v); ok {
			parts = append(parts, fmt.Sprintf("%s %s", capability, name))
		} else {
			parts = append(parts, fmt.Sprintf("%s %d", capability, v))
		}
	}
	return strings.Join(parts, "  ·  ")
}

// Run starts the monitor over a started controller and blocks until the
// user quits.
func Run(controller *engine.Controller, registry *config.Registry) error {
	p := tea.NewProgram(NewMonitorModel(controller, registry), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
