package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/battlecore/cli"
	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/types"
)

// playInterval is the delay between turns while auto-playing.
const playInterval = 600 * time.Millisecond

// rawLine is an unstyled log line and its kind, kept so the log can be
// re-wrapped when the terminal is resized.
type rawLine struct {
	text  string
	kind  lineKind
	color string // status color from content, if any
}

// Model is the Bubble Tea model for the battle viewer.
type Model struct {
	engine *engine.Engine

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width     int
	height    int
	ready     bool
	quitting  bool
	playing   bool
	lastCmd   string
	reportDir string
}

// battleStartMsg asks Update to fire BattleStart. The engine is only
// touched from Update.
type battleStartMsg struct{}

// playTickMsg advances one turn while auto-playing.
type playTickMsg struct{}

// New creates a viewer for the given engine. Reports are written to
// reportDir.
func New(eng *engine.Engine, reportDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 128
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:    eng,
		input:     ti,
		history:   NewHistory(100),
		reportDir: reportDir,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, reportDir string) error {
	p := tea.NewProgram(New(eng, reportDir), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init fires BattleStart and starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start())
}

func (m Model) start() tea.Cmd {
	return func() tea.Msg { return battleStartMsg{} }
}

func playTick() tea.Cmd {
	return tea.Tick(playInterval, func(time.Time) tea.Msg { return playTickMsg{} })
}

// Update handles key presses, resizes, and turn ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := max(m.height-2, 1) // status bar + input line
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil
		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case battleStartMsg:
		m.appendRoster()
		m.appendDisplay(m.engine.Start())
		m.refreshViewport()

	case playTickMsg:
		if !m.playing {
			return m, nil
		}
		if m.step() {
			m.playing = false
			m.refreshViewport()
			return m, nil
		}
		m.refreshViewport()
		return m, playTick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()
	m.appendLine(rawLine{text: "> " + input, kind: kindInput})

	if input == "again" || input == "g" {
		if m.lastCmd == "" {
			m.appendLine(rawLine{text: "Nothing to repeat.", kind: kindSystem})
			m.refreshViewport()
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	var cmd tea.Cmd
	if strings.HasPrefix(input, "/") {
		if m.handleMeta(input) {
			m.quitting = true
			return m, tea.Quit
		}
	} else {
		cmd = m.dispatch(input)
	}
	m.appendLine(rawLine{})
	m.refreshViewport()
	return m, cmd
}

func (m *Model) dispatch(input string) tea.Cmd {
	parts := strings.Fields(input)
	switch parts[0] {
	case "step", "s", "next", "n":
		n := 1
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				m.appendLine(rawLine{text: "Not a turn count: " + parts[1], kind: kindError})
				return nil
			}
			n = v
		}
		for i := 0; i < n; i++ {
			if m.step() {
				break
			}
		}
	case "run", "r":
		for !m.step() {
		}
	case "play", "p":
		m.playing = !m.playing
		if m.playing {
			return playTick()
		}
		m.appendLine(rawLine{text: "Paused.", kind: kindSystem})
	case "roster", "units", "u":
		m.appendRoster()
	default:
		m.appendLine(rawLine{text: fmt.Sprintf("Unknown command: %s. Type /help for commands.", parts[0]), kind: kindError})
	}
	return nil
}

// step plays one turn into the log and reports whether the battle is over.
func (m *Model) step() bool {
	before := m.engine.Turn
	r := m.engine.StepTurn()
	if r.Turn != before {
		m.appendLine(rawLine{text: fmt.Sprintf("-- Turn %d --", r.Turn), kind: kindTurn})
	}
	m.appendDisplay(r.Display)
	if r.Over {
		m.appendLine(rawLine{text: cli.OutcomeLine(r.Winner, r.Turn), kind: kindOutcome})
	}
	return r.Over
}

// handleMeta dispatches meta-commands. Returns true on quit.
func (m *Model) handleMeta(input string) bool {
	parts := strings.Fields(input)
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	var out []string
	switch parts[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		out = append(cli.HelpLines(), "  play (p)       toggle auto-play", "", "PgUp/PgDn scroll, Up/Down recall commands")
	case "/state":
		out = cli.StateLines(m.engine)
	case "/report":
		path, err := cli.WriteReport(m.engine, m.reportDir, arg)
		if err != nil {
			out = []string{fmt.Sprintf("Report failed: %v", err)}
		} else {
			out = []string{fmt.Sprintf("Report written to %s.", path)}
		}
	case "/trace":
		m.engine.Trace = !m.engine.Trace
		out = []string{"Trace output disabled."}
		if m.engine.Trace {
			out = []string{"Trace output enabled."}
		}
	default:
		out = []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0])}
	}
	for _, line := range out {
		m.appendLine(rawLine{text: line, kind: kindSystem})
	}
	return false
}

func (m *Model) appendRoster() {
	if t := m.engine.Defs.Battle.Title; t != "" {
		m.appendLine(rawLine{text: t, kind: kindTurn})
	}
	for _, line := range m.engine.Roster() {
		m.appendLine(rawLine{text: line, kind: kindSystem})
	}
}

func (m *Model) appendDisplay(ds []types.DisplayEvent) {
	for _, d := range ds {
		m.appendLine(rawLine{text: m.engine.Narrate(d), kind: kindOf(d.Kind), color: d.Color})
	}
}

func (m *Model) appendLine(rl rawLine) {
	m.rawLines = append(m.rawLines, rl)
}

// refreshViewport re-wraps and re-styles every line at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		styled = append(styled, render(wordWrap(rl.text, width), rl))
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries to fit width.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			lineLen = len(word)
		default:
			b.WriteString(" ")
			lineLen += 1 + len(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the log, the status bar and the input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap disables Up/Down on the viewport; those recall commands.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
