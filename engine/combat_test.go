package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/battlecore/types"
)

func TestStart_FiresOnce(t *testing.T) {
	e := newEngine(t, duel([]types.Reaction{on(&types.BattleStart{}, say("go"))}, nil))

	require.Equal(t, []string{"go"}, displayTexts(e.Start(), "text"))
	assert.Empty(t, e.Start(), "second Start")
	assert.Empty(t, displayTexts(e.StepTurn().Display, "text"), "StepTurn replayed BattleStart")
}

func TestWinner(t *testing.T) {
	e := newEngine(t, duel(nil, nil))
	require.Equal(t, OutcomeNone, e.Winner())

	e.Battle.Remove(1)
	assert.Equal(t, OutcomeEnemy, e.Winner())
	e.Battle.Remove(2)
	assert.Equal(t, OutcomeDraw, e.Winner())
}

func TestStrikeEvents(t *testing.T) {
	e := newEngine(t, duel(
		[]types.Reaction{
			on(&types.BeforeStrike{}, say("knight ready")),
			on(&types.AfterStrike{}, say("knight done")),
			on(&types.DamageDealt{}, say("knight hit")),
		},
		[]types.Reaction{
			on(&types.BeforeStrike{}, say("goblin ready")),
			on(&types.AfterStrike{}, say("goblin done")),
		},
	))

	got := displayTexts(e.StepTurn().Display, "text")
	assert.Equal(t, []string{"knight ready", "goblin ready", "knight hit", "knight done", "goblin done"}, got)
}

func TestStrikeUsesFrontUnits(t *testing.T) {
	defs := duel(nil, nil)
	defs.Battle.Enemy = []string{"goblin", "imp"}
	e := newEngine(t, defs)
	e.StepTurn()

	assert.Equal(t, 2, hp(t, e, 2), "front goblin")
	assert.Equal(t, 2, hp(t, e, 3), "imp behind it is untouched")
}

func TestTurnDurationDrivesDelays(t *testing.T) {
	e := newEngine(t, duel([]types.Reaction{
		on(&types.BattleStart{}, &types.Delayed{Delay: num(2), Effect: say("reinforcements")}),
	}, nil))

	var at []int
	for i := 0; i < 3; i++ {
		r := e.StepTurn()
		if len(displayTexts(r.Display, "text")) > 0 {
			at = append(at, r.Turn)
		}
	}
	assert.Equal(t, []int{2}, at)
}
