package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/types"
)

func TestFires(t *testing.T) {
	b := testBattle(t)
	owner := scope.ForUnit(1)

	tests := []struct {
		name string
		trig types.Trigger
		ev   types.Event
		want bool
	}{
		{"battle start", &types.BattleStart{}, types.Event{Kind: types.EventBattleStart}, true},
		{"battle start wrong kind", &types.BattleStart{}, types.Event{Kind: types.EventTurnStart}, false},
		{"turn end", &types.TurnEnd{}, types.Event{Kind: types.EventTurnEnd}, true},
		{"own strike", &types.BeforeStrike{}, types.Event{Kind: types.EventBeforeStrike, Unit: 1}, true},
		{"other strike", &types.BeforeStrike{}, types.Event{Kind: types.EventBeforeStrike, Unit: 3}, false},
		{"after strike", &types.AfterStrike{}, types.Event{Kind: types.EventAfterStrike, Unit: 1}, true},
		{"damage taken", &types.DamageTaken{}, types.Event{Kind: types.EventDamageTaken, Unit: 1}, true},
		{"damage dealt", &types.DamageDealt{}, types.Event{Kind: types.EventDamageDealt, Unit: 1}, true},
		{"pre death", &types.PreDeath{}, types.Event{Kind: types.EventPreDeath, Unit: 1}, true},
		{"kill", &types.AfterKill{}, types.Event{Kind: types.EventKill, Unit: 1, Other: 3}, true},
		{"stat changed", &types.StatChanged{Stat: "hp"}, types.Event{Kind: types.EventStatChanged, Unit: 1, Stat: "hp"}, true},
		{"stat changed other stat", &types.StatChanged{Stat: "hp"}, types.Event{Kind: types.EventStatChanged, Unit: 1, Stat: "atk"}, false},
		{"stat changed any", &types.StatChanged{}, types.Event{Kind: types.EventStatChanged, Unit: 1, Stat: "atk"}, true},
		{"ally death", &types.AllyDeath{}, types.Event{Kind: types.EventDeath, Unit: 2, Faction: types.FactionPlayer}, true},
		{"enemy death is not ally", &types.AllyDeath{}, types.Event{Kind: types.EventDeath, Unit: 3, Faction: types.FactionEnemy}, false},
		{"any death", &types.AnyDeath{}, types.Event{Kind: types.EventDeath, Unit: 3, Faction: types.FactionEnemy}, true},
		{"ally spawn", &types.AllySpawn{}, types.Event{Kind: types.EventSpawn, Unit: 9, Faction: types.FactionPlayer}, true},
		{"own spawn", &types.AllySpawn{}, types.Event{Kind: types.EventSpawn, Unit: 1, Faction: types.FactionPlayer}, false},
		{"custom", &types.Custom{Name: "rally"}, types.Event{Kind: types.EventCustom, Name: "rally"}, true},
		{"custom other", &types.Custom{Name: "rally"}, types.Event{Kind: types.EventCustom, Name: "flee"}, false},
		{"any of", &types.AnyOf{Triggers: []types.Trigger{&types.TurnStart{}, &types.TurnEnd{}}}, types.Event{Kind: types.EventTurnEnd}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fires(tt.trig, tt.ev, owner, b, Counters{}, "unit:1"))
		})
	}
}

func TestFires_Period(t *testing.T) {
	b := testBattle(t)
	trig := &types.Period{Every: 3, Inner: &types.TurnEnd{}}
	counters := Counters{}
	ev := types.Event{Kind: types.EventTurnEnd}

	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, Fires(trig, ev, scope.ForUnit(1), b, counters, "unit:1"))
	}
	assert.Equal(t, []bool{false, false, true, false, false, true}, got)
}

func TestFires_PeriodCountersPerOwner(t *testing.T) {
	b := testBattle(t)
	trig := &types.Period{Every: 2, Inner: &types.TurnEnd{}}
	counters := Counters{}
	ev := types.Event{Kind: types.EventTurnEnd}

	Fires(trig, ev, scope.ForUnit(1), b, counters, "unit:1")
	assert.False(t, Fires(trig, ev, scope.ForUnit(2), b, counters, "unit:2"), "second owner fired on its first turn")
	assert.True(t, Fires(trig, ev, scope.ForUnit(1), b, counters, "unit:1"), "first owner should fire on its second turn")
}

func TestFires_OnceAfter(t *testing.T) {
	b := testBattle(t)
	trig := &types.OnceAfter{Count: 2, Inner: &types.TurnStart{}}
	counters := Counters{}
	ev := types.Event{Kind: types.EventTurnStart}

	fired := 0
	firstAt := 0
	for i := 1; i <= 6; i++ {
		if Fires(trig, ev, scope.ForUnit(1), b, counters, "unit:1") {
			fired++
			if firstAt == 0 {
				firstAt = i
			}
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, 3, firstAt)
}

func TestKinds(t *testing.T) {
	trig := &types.AnyOf{Triggers: []types.Trigger{
		&types.Period{Every: 2, Inner: &types.TurnEnd{}},
		&types.AllyDeath{},
		&types.AnyDeath{},
	}}
	assert.Equal(t, []types.EventKind{types.EventTurnEnd, types.EventDeath}, Kinds(trig))
}
