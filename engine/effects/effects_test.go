package effects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/battlecore/engine/queue"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// fixedRand always picks the same index.
type fixedRand struct{ idx int }

func (r fixedRand) Pick(n int) int {
	if r.idx >= n {
		return n - 1
	}
	return r.idx
}

func (r fixedRand) WeightedSelect(weights []int) int { return r.Pick(len(weights)) }

type harness struct {
	battle  *state.Battle
	env     *Env
	events  []types.Event
	display []types.DisplayEvent
}

// testSetup places knight (1), archer (2), cleric (3) against goblin (4) and orc (5).
func testSetup(t *testing.T) *harness {
	t.Helper()
	defs := &state.Defs{
		Battle: types.BattleDef{
			Player: []string{"knight", "archer", "cleric"},
			Enemy:  []string{"goblin", "orc"},
		},
		Units: map[string]types.UnitDef{
			"knight": {Name: "knight", Title: "Knight", HP: 10, Stats: map[string]int{"atk": 2}},
			"archer": {Name: "archer", Title: "Archer", HP: 6, Stats: map[string]int{"atk": 3}},
			"cleric": {Name: "cleric", Title: "Cleric", HP: 5, Stats: map[string]int{"atk": 1}},
			"goblin": {Name: "goblin", Title: "Goblin", HP: 5, Stats: map[string]int{"atk": 1}},
			"orc":    {Name: "orc", Title: "Orc", HP: 8, Stats: map[string]int{"atk": 3}},
			"wolf":   {Name: "wolf", Title: "Wolf", HP: 3, Stats: map[string]int{"atk": 2}},
		},
		Statuses: map[string]types.StatusDef{
			"poison": {Name: "poison", Color: "#00ff00"},
		},
	}
	b, err := state.NewBattle(defs)
	require.NoError(t, err)
	h := &harness{battle: b}
	h.env = &Env{
		Model:    b,
		Queue:    queue.New(),
		Timeline: queue.NewTimeline(),
		RNG:      fixedRand{},
		Emit:     func(ev types.Event) { h.events = append(h.events, ev) },
		Display:  func(d types.DisplayEvent) { h.display = append(h.display, d) },
	}
	return h
}

// run queues e under c and processes items until the queue is empty.
func (h *harness) run(e types.Effect, c scope.Context) {
	h.env.Queue.PushBack(queue.Item{Effect: e, Context: c})
	for {
		it, ok := h.env.Queue.Pop()
		if !ok {
			return
		}
		Process(it, h.env)
	}
}

func (h *harness) hp(id types.UnitID) int {
	u, ok := h.battle.Unit(id)
	if !ok {
		return -1
	}
	return u.HP
}

func (h *harness) texts() []string {
	var out []string
	for _, d := range h.display {
		if d.Kind == "text" {
			out = append(out, d.Text)
		}
	}
	return out
}

func (h *harness) countEvents(kind types.EventKind) int {
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func num(f float64) types.Expr { return &types.Const{Value: f} }

func say(s string) types.Effect { return &types.Message{Text: &types.Text{Value: s}} }

func knightVsGoblin() scope.Context {
	return scope.Context{Owner: 1, Caster: 1, Target: 4}
}

func TestList_PreservesOrder(t *testing.T) {
	h := testSetup(t)
	tree := &types.List{Effects: []types.Effect{
		say("a"),
		&types.List{Effects: []types.Effect{say("b"), say("c")}},
		say("d"),
	}}
	h.run(tree, knightVsGoblin())

	assert.Equal(t, []string{"a", "b", "c", "d"}, h.texts())
}

func TestList_RunsBeforeQueuedWork(t *testing.T) {
	h := testSetup(t)
	h.env.Queue.PushBack(queue.Item{Effect: say("later"), Context: knightVsGoblin()})
	h.run(&types.List{Effects: []types.Effect{say("x"), say("y")}}, knightVsGoblin())
	assert.Equal(t, []string{"later", "x", "y"}, h.texts())

	h = testSetup(t)
	h.env.Queue.PushBack(queue.Item{Effect: &types.List{Effects: []types.Effect{say("x"), say("y")}}, Context: knightVsGoblin()})
	h.run(say("later"), knightVsGoblin())
	assert.Equal(t, []string{"x", "y", "later"}, h.texts())
}

func TestRepeat_RunsExactlyN(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Repeat{Times: num(3), Effect: &types.Damage{Value: num(1)}}, knightVsGoblin())
	assert.Equal(t, 2, h.hp(4))
}

func TestRepeat_CountEvaluatedOnce(t *testing.T) {
	h := testSetup(t)
	// The count reads the target's hp, which the repeated damage lowers.
	times := &types.Binary{Op: types.OpSub, A: &types.Stat{Who: types.WhoTarget, Name: "hp"}, B: num(3)}
	h.run(&types.Repeat{Times: times, Effect: &types.Damage{Value: num(1)}}, knightVsGoblin())
	assert.Equal(t, 3, h.hp(4))
}

func TestRepeat_NonPositive(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Repeat{Times: num(-2), Effect: &types.Damage{Value: num(1)}}, knightVsGoblin())
	assert.Equal(t, 5, h.hp(4))
}

func TestRepeat_NaNIsSkipped(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Repeat{Times: num(math.NaN()), Effect: say("x")}, knightVsGoblin())
	assert.Empty(t, h.texts())
}

func TestIf(t *testing.T) {
	h := testSetup(t)
	tree := &types.If{
		Condition: &types.IsInjured{Who: types.WhoTarget},
		Then:      say("injured"),
		Else:      say("healthy"),
	}
	h.run(tree, knightVsGoblin())
	h.battle.SetHP(4, 1)
	h.run(tree, knightVsGoblin())

	assert.Equal(t, []string{"healthy", "injured"}, h.texts())
}

func TestIf_NoElse(t *testing.T) {
	h := testSetup(t)
	h.run(&types.If{Condition: &types.IsInjured{Who: types.WhoTarget}, Then: say("x")}, knightVsGoblin())
	assert.Empty(t, h.texts())
}

func TestDamage(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Damage{Value: num(3)}, knightVsGoblin())

	assert.Equal(t, 2, h.hp(4))
	assert.Equal(t, 1, h.countEvents(types.EventDamageTaken))
	assert.Equal(t, 1, h.countEvents(types.EventDamageDealt))
	assert.Equal(t, 1, h.countEvents(types.EventStatChanged))
	goblin, _ := h.battle.Unit(4)
	assert.Equal(t, types.UnitID(1), goblin.LastHitBy)
}

func TestDamage_FloorsAtZero(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Damage{Value: num(50)}, knightVsGoblin())
	assert.Equal(t, 0, h.hp(4))
	_, ok := h.battle.Unit(4)
	assert.True(t, ok, "damage must not remove the unit; the driver finalises death")
}

func TestDamage_HugeValueKills(t *testing.T) {
	for _, v := range []float64{1e20, math.Inf(1)} {
		h := testSetup(t)
		h.run(&types.Damage{Value: num(v)}, knightVsGoblin())
		assert.Equal(t, 0, h.hp(4), "Damage(%g)", v)
	}
}

func TestDamage_OnInjureAndOnKill(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Damage{Value: num(2), OnInjure: say("ouch"), OnKill: say("dead")}, knightVsGoblin())
	h.run(&types.Damage{Value: num(9), OnInjure: say("ouch"), OnKill: say("dead")}, knightVsGoblin())

	assert.Equal(t, []string{"ouch", "dead"}, h.texts())
}

func TestDamage_MissingTargetIsNoop(t *testing.T) {
	h := testSetup(t)
	h.battle.Remove(4)
	tree := &types.List{Effects: []types.Effect{
		&types.Damage{Value: num(3)},
		say("still running"),
	}}
	h.run(tree, knightVsGoblin())

	assert.Empty(t, h.events)
	assert.Equal(t, []string{"still running"}, h.texts(), "queue keeps running")
}

func TestDamage_UnboundTargetIsNoop(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Damage{Value: num(3)}, scope.Context{Owner: 1})
	assert.Empty(t, h.events)
}

func TestHeal_ClampsToMax(t *testing.T) {
	h := testSetup(t)
	h.battle.SetHP(1, 8)
	h.run(&types.Heal{Who: types.WhoOwner, Value: num(5)}, knightVsGoblin())

	assert.Equal(t, 10, h.hp(1))
	require.Len(t, h.display, 1)
	assert.Equal(t, "+2", h.display[0].Text)
}

func TestHeal_FullHealthNoEvent(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Heal{Who: types.WhoOwner, Value: num(5)}, knightVsGoblin())
	assert.Empty(t, h.events)
	assert.Empty(t, h.display)
}

func TestKill(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Kill{}, knightVsGoblin())
	assert.Equal(t, 0, h.hp(4))
}

func TestChangeTarget_ExcludesSelfAndTarget(t *testing.T) {
	h := testSetup(t)
	// Owner knight, current target archer: the only other ally is the cleric.
	c := scope.Context{Owner: 1, Caster: 1, Target: 2}
	h.run(&types.ChangeTarget{Relation: types.RelationAlly, Effect: &types.Damage{Value: num(1)}}, c)

	assert.Equal(t, 4, h.hp(3), "cleric")
	assert.Equal(t, 10, h.hp(1), "knight")
	assert.Equal(t, 6, h.hp(2), "archer")
}

func TestChangeTarget_Condition(t *testing.T) {
	h := testSetup(t)
	h.battle.SetHP(5, 4)
	tree := &types.ChangeTarget{
		Relation:  types.RelationEnemy,
		Condition: &types.IsInjured{Who: types.WhoTarget},
		Effect:    &types.Damage{Value: num(1)},
	}
	h.run(tree, scope.Context{Owner: 1, Caster: 1, Target: 1})
	assert.Equal(t, 3, h.hp(5), "orc")
	assert.Equal(t, 5, h.hp(4), "goblin")
}

func TestChangeTarget_NoCandidateDrops(t *testing.T) {
	h := testSetup(t)
	tree := &types.ChangeTarget{
		Relation:  types.RelationEnemy,
		Condition: &types.HasStatus{Who: types.WhoTarget, Status: "poison"},
		Effect:    say("never"),
	}
	h.run(tree, knightVsGoblin())
	assert.Empty(t, h.texts())
}

func TestChangeTarget_DoesNotLeakToSiblings(t *testing.T) {
	h := testSetup(t)
	tree := &types.List{Effects: []types.Effect{
		&types.ChangeTarget{Relation: types.RelationEnemy, Effect: &types.Damage{Value: num(1)}},
		&types.Damage{Value: num(2)},
	}}
	h.run(tree, knightVsGoblin())

	// The retarget hit the orc; the sibling still hit the goblin.
	assert.Equal(t, 7, h.hp(5), "orc")
	assert.Equal(t, 3, h.hp(4), "goblin")
}

func TestChangeContext(t *testing.T) {
	h := testSetup(t)
	tree := &types.ChangeContext{
		Rebind: map[types.Who]types.Who{types.WhoTarget: types.WhoOwner, types.WhoOwner: types.WhoTarget},
		Queue:  "turn#1",
		Effect: &types.Damage{Value: num(1)},
	}
	h.run(tree, knightVsGoblin())
	assert.Equal(t, 9, h.hp(1))
	knight, _ := h.battle.Unit(1)
	assert.Equal(t, types.UnitID(4), knight.LastHitBy, "the goblin now owns the hit")
}

func TestWithVar(t *testing.T) {
	h := testSetup(t)
	tree := &types.WithVar{
		Name:   "bonus",
		Value:  num(4),
		Effect: &types.Damage{Value: &types.Var{Name: "bonus"}},
	}
	h.run(tree, knightVsGoblin())
	assert.Equal(t, 1, h.hp(4))
}

func TestAOE(t *testing.T) {
	h := testSetup(t)
	h.run(&types.AOE{Relation: types.RelationEnemy, Effect: &types.Damage{Value: num(2)}}, knightVsGoblin())
	assert.Equal(t, 3, h.hp(4), "goblin")
	assert.Equal(t, 6, h.hp(5), "orc")
	assert.Equal(t, 6, h.hp(2), "ally hit by enemy-only AOE")
}

func TestAddVar(t *testing.T) {
	h := testSetup(t)
	s, _ := h.battle.AttachStatus(1, "poison", 4, 1)
	c := knightVsGoblin().WithStatus(s.ID, s.Color)
	h.run(&types.AddVar{Name: "stacks", Value: num(3)}, c)
	assert.Equal(t, 3.0, s.Vars["stacks"].Num)
}

func TestAddVar_WithoutStatusIsNoop(t *testing.T) {
	h := testSetup(t)
	assert.NotPanics(t, func() {
		h.run(&types.AddVar{Name: "stacks", Value: num(3)}, knightVsGoblin())
	})
}

func TestAddGlobalVar(t *testing.T) {
	h := testSetup(t)
	h.run(&types.AddGlobalVar{Name: "rage", Value: num(2)}, knightVsGoblin())
	v, ok := h.battle.Global("rage")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.Num)
}

func TestChangeStat_Permanent(t *testing.T) {
	h := testSetup(t)
	tree := &types.ChangeStat{
		Who:       types.WhoOwner,
		Stat:      "atk",
		Value:     &types.Binary{Op: types.OpAdd, A: &types.Stat{Who: types.WhoOwner, Name: "atk"}, B: num(1)},
		Permanent: true,
	}
	h.run(tree, knightVsGoblin())
	knight, _ := h.battle.Unit(1)
	assert.Equal(t, 3, knight.Stats["atk"])
	assert.Equal(t, 3, knight.Base.Stats["atk"])
	assert.Equal(t, 1, h.countEvents(types.EventStatChanged))
}

func TestAttachAndRemoveStatus(t *testing.T) {
	h := testSetup(t)
	h.run(&types.AttachStatus{Status: "poison", Charges: num(2)}, knightVsGoblin())
	goblin, _ := h.battle.Unit(4)
	s, ok := goblin.FindStatus("poison")
	require.True(t, ok)
	assert.Equal(t, 2, s.Charges)
	assert.Equal(t, types.UnitID(1), s.Caster)

	h.run(&types.RemoveStatus{Status: "poison"}, knightVsGoblin())
	_, ok = goblin.FindStatus("poison")
	assert.False(t, ok, "poison should be removed")
}

func TestSpawn(t *testing.T) {
	h := testSetup(t)
	tree := &types.Spawn{
		Unit:   "wolf",
		Anchor: types.WhoOwner,
		Offset: 1,
		Then:   &types.Damage{Value: num(1)},
	}
	h.run(tree, knightVsGoblin())

	wolf, ok := h.battle.Unit(6)
	require.True(t, ok, "wolf should spawn as unit 6")
	assert.Equal(t, types.FactionPlayer, wolf.Faction)
	assert.Equal(t, 1, wolf.Slot)
	assert.Equal(t, 2, wolf.HP, "trailing effect targets the new unit")
	assert.Equal(t, 1, h.countEvents(types.EventSpawn))
}

func TestSpawn_Flip(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Spawn{Unit: "wolf", Anchor: types.WhoOwner, Flip: true}, knightVsGoblin())
	wolf, ok := h.battle.Unit(6)
	require.True(t, ok)
	assert.Equal(t, types.FactionEnemy, wolf.Faction)
	assert.Equal(t, 0, wolf.Slot)
}

func TestRandom_PicksOneBranch(t *testing.T) {
	h := testSetup(t)
	h.env.RNG = fixedRand{idx: 1}
	tree := &types.Random{Choices: []types.Choice{
		{Weight: 1, Effect: say("first")},
		{Weight: 0, Effect: say("never")},
		{Weight: 3, Effect: say("second")},
	}}
	h.run(tree, knightVsGoblin())
	assert.Equal(t, []string{"second"}, h.texts())
}

func TestDelayedAndTimeBomb_Schedule(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Delayed{Delay: num(2), Effect: say("later")}, knightVsGoblin())
	h.run(&types.TimeBomb{Delay: num(1), Effect: say("boom")}, knightVsGoblin())

	assert.Empty(t, h.texts(), "delayed effects ran immediately")
	due := h.env.Timeline.Advance(5)
	require.Len(t, due, 2)
	assert.Equal(t, types.UnitID(4), due[0].Anchor, "time bomb anchored to its target")
	assert.Equal(t, types.UnitID(0), due[1].Anchor)
}

func TestCustomTrigger(t *testing.T) {
	h := testSetup(t)
	h.run(&types.CustomTrigger{Name: "rally"}, knightVsGoblin())
	require.Len(t, h.events, 1)
	assert.Equal(t, "rally", h.events[0].Name)
	assert.Equal(t, types.UnitID(1), h.events[0].Unit)
}

func TestReap(t *testing.T) {
	h := testSetup(t)
	h.run(&types.Damage{Value: num(9)}, knightVsGoblin())
	h.events = nil
	h.run(&types.Reap{}, knightVsGoblin())

	_, ok := h.battle.Unit(4)
	assert.False(t, ok, "goblin should be removed")
	assert.Equal(t, 1, h.countEvents(types.EventDeath))
	assert.Equal(t, 1, h.countEvents(types.EventKill))
}

func TestReap_SurvivorStays(t *testing.T) {
	h := testSetup(t)
	goblin, _ := h.battle.Unit(4)
	goblin.Dying = true
	h.run(&types.Reap{}, knightVsGoblin())
	_, ok := h.battle.Unit(4)
	require.True(t, ok, "healthy unit was reaped")
	assert.False(t, goblin.Dying, "Dying should be cleared")
}
