package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

func testDefs() *state.Defs {
	return &state.Defs{
		Battle: types.BattleDef{Title: "Skirmish", Player: []string{"knight"}, Enemy: []string{"goblin", "goblin"}},
		Units: map[string]types.UnitDef{
			"knight": {Name: "knight", HP: 10, Stats: map[string]int{"atk": 3}},
			"goblin": {Name: "goblin", HP: 3, Stats: map[string]int{"atk": 1}},
		},
		Statuses: map[string]types.StatusDef{"guard": {Name: "guard"}},
	}
}

func TestFromEngine(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Seed = 9
	e, err := engine.New(testDefs(), opts)
	require.NoError(t, err)

	knight := scope.ForUnit(1)
	e.Run(&types.ChangeStat{Who: types.WhoOwner, Stat: "atk", Value: &types.Const{Value: 5}, Permanent: true}, knight)
	e.Run(&types.AttachStatus{Who: types.WhoOwner, Status: "guard", Charges: &types.Const{Value: 2}}, knight)
	e.Run(&types.AddGlobalVar{Name: "wave", Value: &types.Const{Value: 2}}, knight)
	e.StepTurn()

	b := FromEngine(e)
	assert.Equal(t, "Skirmish", b.Title)
	assert.Equal(t, int64(9), b.Seed)
	assert.Equal(t, 1, b.Turn)
	assert.Empty(t, b.Winner, "no winner yet")
	assert.Equal(t, []string{"goblin"}, b.Fallen)

	require.Len(t, b.Survivors, 2)
	k := b.Survivors[0]
	assert.Equal(t, "knight", k.Template)
	assert.Equal(t, "player", k.Faction)
	assert.Equal(t, 2, k.Statuses["guard"])

	assert.Equal(t, "2", b.Globals["wave"])
	require.Len(t, b.Roster, 1)
	assert.Equal(t, 5, b.Roster[0].Stats["atk"])
}

func TestMarshalLoadRoundTrip(t *testing.T) {
	e, err := engine.New(testDefs(), engine.DefaultOptions())
	require.NoError(t, err)
	e.StepTurn()

	data, err := Marshal(FromEngine(e))
	require.NoError(t, err)
	b, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Turn)
	assert.Len(t, b.Survivors, 2)
}

func TestLoadFillsNilCollections(t *testing.T) {
	b, err := Load([]byte(`{"version":"1","turn":3}`))
	require.NoError(t, err)
	assert.NotNil(t, b.Survivors)
	assert.NotNil(t, b.Fallen)
	assert.NotNil(t, b.Globals)
	assert.NotNil(t, b.Roster)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]byte("{not json"))
	assert.Error(t, err, "parse error")
	_, err = Load([]byte(`{"version":"0"}`))
	assert.Error(t, err, "version error")
}

func TestSummarize(t *testing.T) {
	s := Summarize([]*Battle{
		{Winner: "player", Turn: 4, Seed: 3},
		{Winner: "enemy", Turn: 10, Seed: 2},
		nil,
		{Winner: "player", Turn: 1, Seed: 1},
	})
	assert.Equal(t, 3, s.Runs)
	assert.Equal(t, map[string]int{"player": 2, "enemy": 1}, s.Wins)
	assert.Equal(t, 1, s.MinTurns)
	assert.Equal(t, 10, s.MaxTurns)
	assert.Equal(t, 5.0, s.AvgTurns)
	assert.Equal(t, []int64{1, 3}, s.Seeds["player"])

	data, err := Marshal(s)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw), "summary is not JSON")
	assert.Equal(t, 3.0, raw["runs"])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Runs)
	assert.Zero(t, s.AvgTurns)
}
