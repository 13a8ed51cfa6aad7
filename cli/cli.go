// Package cli is the plain-text battle runner: it steps a battle turn by
// turn from line commands and prints the narrated log.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/report"
	"github.com/nathoo/battlecore/types"
)

// CLI drives one engine from a line-oriented reader.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	ReportDir string
	EchoInput bool // echo each command after the prompt (script playback)
	lastCmd   string
}

// New creates a CLI over stdin and stdout.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Engine:    eng,
		In:        os.Stdin,
		Out:       os.Stdout,
		ReportDir: ".",
	}
}

// Run shows the lineup and battle start, then loops over commands until
// input ends or /quit.
func (c *CLI) Run() {
	if t := c.Engine.Defs.Battle.Title; t != "" {
		c.printLine(t)
		c.printLine("")
	}
	for _, line := range c.Engine.Roster() {
		c.printLine(line)
	}
	c.printDisplay(c.Engine.Start())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			lower = c.lastCmd
		} else {
			c.lastCmd = lower
		}
		c.dispatch(lower)
	}
}

func (c *CLI) dispatch(input string) {
	parts := strings.Fields(input)
	switch parts[0] {
	case "step", "s", "next", "n":
		n := 1
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				c.printLine(fmt.Sprintf("Not a turn count: %s", parts[1]))
				return
			}
			n = v
		}
		for i := 0; i < n; i++ {
			if c.step() {
				return
			}
		}
	case "run", "r":
		for !c.step() {
		}
	case "roster", "units", "u":
		for _, line := range c.Engine.Roster() {
			c.printLine(line)
		}
	default:
		c.printLine(fmt.Sprintf("Unknown command: %s. Type /help for commands.", parts[0]))
	}
}

// step plays one turn and reports whether the battle is over.
func (c *CLI) step() bool {
	before := c.Engine.Turn
	r := c.Engine.StepTurn()
	if r.Turn != before {
		c.printLine(fmt.Sprintf("-- Turn %d --", r.Turn))
	}
	c.printDisplay(r.Display)
	if r.Over {
		c.printLine(OutcomeLine(r.Winner, r.Turn))
	}
	return r.Over
}

// handleMeta dispatches meta-commands. Returns true if the runner should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch parts[0] {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true
	case "/help":
		c.cmdHelp()
	case "/state":
		for _, line := range StateLines(c.Engine) {
			c.printSystem(line)
		}
	case "/report":
		c.cmdReport(arg)
	case "/trace":
		c.Engine.Trace = !c.Engine.Trace
		if c.Engine.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}
	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", parts[0]))
	}
	return false
}

func (c *CLI) cmdReport(name string) {
	path, err := WriteReport(c.Engine, c.ReportDir, name)
	if err != nil {
		c.printSystem(fmt.Sprintf("Report failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Report written to %s.", path))
}

func (c *CLI) cmdHelp() {
	for _, line := range HelpLines() {
		c.printLine(line)
	}
}

// HelpLines lists the runner commands. The TUI shows the same list.
func HelpLines() []string {
	return []string{
		"Battle:",
		"  step [n] (s)   play n turns, default 1",
		"  run (r)        play until the battle ends",
		"  roster (u)     list living units",
		"  again (g)      repeat the last command",
		"",
		"System:",
		"  /report [name] write the battle report as JSON",
		"  /state         turn, seed and globals",
		"  /trace         toggle queue trace",
		"  /help          show this help",
		"  /quit          exit",
	}
}

// StateLines summarises the engine's counters for /state.
func StateLines(e *engine.Engine) []string {
	lines := []string{
		fmt.Sprintf("Turn: %d", e.Turn),
		fmt.Sprintf("Seed: %d (position %d)", e.RNG.Seed(), e.RNG.Position()),
		fmt.Sprintf("Alive: %d player, %d enemy", e.Battle.Count(types.FactionPlayer), e.Battle.Count(types.FactionEnemy)),
		fmt.Sprintf("Time: %g (%d delayed)", e.Timeline.Now(), e.Timeline.Len()),
	}
	globals := e.Battle.Globals()
	if len(globals) > 0 {
		names := make([]string, 0, len(globals))
		for k := range globals {
			names = append(names, k)
		}
		sort.Strings(names)
		pairs := make([]string, 0, len(names))
		for _, k := range names {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, globals[k]))
		}
		lines = append(lines, "Globals: "+strings.Join(pairs, " "))
	}
	return lines
}

// WriteReport marshals the engine's report into dir/name.json. The name
// defaults to "battle".
func WriteReport(e *engine.Engine, dir, name string) (string, error) {
	if name == "" {
		name = "battle"
	}
	data, err := report.Marshal(report.FromEngine(e))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// OutcomeLine is the closing line for a finished battle.
func OutcomeLine(w engine.Outcome, turn int) string {
	switch w {
	case engine.OutcomeDraw:
		return fmt.Sprintf("The battle is a draw after %d turns.", turn)
	case engine.OutcomePlayer, engine.OutcomeEnemy:
		return fmt.Sprintf("The %s side wins on turn %d.", w, turn)
	}
	return ""
}

func (c *CLI) printDisplay(ds []types.DisplayEvent) {
	for _, d := range ds {
		c.printLine(c.Engine.Narrate(d))
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
