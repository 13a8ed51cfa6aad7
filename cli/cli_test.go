package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/report"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// testDefs is a knight against a goblin. The knight wins on turn 2.
func testDefs() *state.Defs {
	return &state.Defs{
		Battle: types.BattleDef{Title: "Test Duel", Player: []string{"knight"}, Enemy: []string{"goblin"}},
		Units: map[string]types.UnitDef{
			"knight": {Name: "knight", Title: "Knight", HP: 10, Stats: map[string]int{"atk": 3}},
			"goblin": {Name: "goblin", Title: "Goblin", HP: 5, Stats: map[string]int{"atk": 1}},
		},
	}
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng, err := engine.New(testDefs(), engine.DefaultOptions())
	require.NoError(t, err)
	var out bytes.Buffer
	c := &CLI{
		Engine:    eng,
		In:        strings.NewReader(input),
		Out:       &out,
		ReportDir: t.TempDir(),
	}
	return c, &out
}

func TestCLI_TitleAndRoster(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "Test Duel")
	assert.Contains(t, output, "Knight #1")
	assert.Contains(t, output, "Goblin #2")
}

func TestCLI_Step(t *testing.T) {
	c, out := newTestCLI(t, "step\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "-- Turn 1 --")
	assert.Contains(t, output, "Goblin #2 takes 3 damage.")
	assert.NotContains(t, output, "wins", "battle should not be over after one turn")
}

func TestCLI_Run(t *testing.T) {
	c, out := newTestCLI(t, "run\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "Goblin #2 falls.")
	assert.Contains(t, output, "The player side wins on turn 2.")
}

func TestCLI_StepCountStopsAtEnd(t *testing.T) {
	c, out := newTestCLI(t, "step 5\n/quit\n")
	c.Run()

	output := out.String()
	assert.Equal(t, 1, strings.Count(output, "wins on turn"), "outcome printed once")
	assert.NotContains(t, output, "-- Turn 3 --", "finished battle should not advance")
}

func TestCLI_BadStepCount(t *testing.T) {
	c, out := newTestCLI(t, "step x\nstep 0\n/quit\n")
	c.Run()

	assert.Equal(t, 2, strings.Count(out.String(), "Not a turn count"))
	assert.Equal(t, 0, c.Engine.Turn)
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "step\nagain\n/quit\n")
	c.Run()

	assert.Contains(t, out.String(), "-- Turn 2 --", "again should play a second turn")
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "g\n/quit\n")
	c.Run()

	assert.Contains(t, out.String(), "Nothing to repeat")
}

func TestCLI_Roster(t *testing.T) {
	c, out := newTestCLI(t, "step\nroster\n/quit\n")
	c.Run()

	assert.Contains(t, out.String(), "Goblin #2  2/5 hp")
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run()

	output := out.String()
	for _, want := range []string{"step [n]", "/report", "/trace", "/quit"} {
		assert.Contains(t, output, want)
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "step\n/state\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "[Turn: 1]")
	assert.Contains(t, output, "[Seed: 1 ")
	assert.Contains(t, output, "[Alive: 1 player, 1 enemy]")
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nstep\n/trace\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "Trace output enabled")
	assert.Contains(t, output, "trace: Damage", "queue trace lines while tracing")
	assert.Contains(t, output, "Trace output disabled")
	assert.False(t, c.Engine.Trace, "trace should be off again")
}

func TestCLI_Report(t *testing.T) {
	c, out := newTestCLI(t, "run\n/report final\n/quit\n")
	c.Run()

	require.Contains(t, out.String(), "Report written to")
	data, err := os.ReadFile(filepath.Join(c.ReportDir, "final.json"))
	require.NoError(t, err)
	b, err := report.Load(data)
	require.NoError(t, err)
	assert.Equal(t, "player", b.Winner)
	assert.Equal(t, 2, b.Turn)
	assert.Equal(t, []string{"goblin"}, b.Fallen)
}

func TestCLI_ReportDefaultName(t *testing.T) {
	c, _ := newTestCLI(t, "/report\n/quit\n")
	c.Run()

	assert.FileExists(t, filepath.Join(c.ReportDir, "battle.json"))
}

func TestCLI_UnknownCommands(t *testing.T) {
	c, out := newTestCLI(t, "dance\n/bogus\n/quit\n")
	c.Run()

	assert.Equal(t, 2, strings.Count(out.String(), "Unknown command"))
}

func TestCLI_ScriptPlayback(t *testing.T) {
	c, out := newTestCLI(t, "# opening\n\nstep\n")
	c.EchoInput = true
	c.Run()

	output := out.String()
	assert.NotContains(t, output, "opening", "comment lines should be skipped")
	assert.Contains(t, output, "> step\n", "command echoed after the prompt")
}

func TestOutcomeLine(t *testing.T) {
	tests := []struct {
		w    engine.Outcome
		want string
	}{
		{engine.OutcomePlayer, "The player side wins on turn 4."},
		{engine.OutcomeEnemy, "The enemy side wins on turn 4."},
		{engine.OutcomeDraw, "The battle is a draw after 4 turns."},
		{engine.OutcomeNone, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutcomeLine(tt.w, 4), "OutcomeLine(%q)", tt.w)
	}
}
