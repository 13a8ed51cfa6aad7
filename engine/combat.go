package engine

import (
	"context"
	"fmt"

	"github.com/nathoo/battlecore/engine/queue"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/types"
)

// DefaultAttack returns a fresh copy of the attack units without one use:
// strike the target for the owner's atk.
func DefaultAttack() types.Effect {
	return &types.Damage{
		Who:   types.WhoTarget,
		Value: &types.Stat{Who: types.WhoOwner, Name: "atk"},
	}
}

var defaultAttack = DefaultAttack()

// Outcome names the winner of a finished battle.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePlayer Outcome = "player"
	OutcomeEnemy  Outcome = "enemy"
	OutcomeDraw   Outcome = "draw"
)

// Result is what one turn produced.
type Result struct {
	Turn    int
	Display []types.DisplayEvent
	Over    bool
	Winner  Outcome
}

// Start fires BattleStart. It runs once; StepTurn calls it if needed.
func (e *Engine) Start() []types.DisplayEvent {
	if e.started {
		return nil
	}
	e.started = true
	e.HandleEvent(types.Event{Kind: types.EventBattleStart})
	return e.TakeDisplay()
}

// StepTurn plays one turn: turn start, the front units strike each other,
// turn end, then the timeline advances.
func (e *Engine) StepTurn() Result {
	var result Result
	result.Display = append(result.Display, e.Start()...)

	// 0. Finished battles do not advance.
	if w := e.Winner(); w != OutcomeNone {
		result.Turn, result.Over, result.Winner = e.Turn, true, w
		return result
	}

	// 1. Turn start.
	e.Turn++
	result.Turn = e.Turn
	e.HandleEvent(types.Event{Kind: types.EventTurnStart, Value: e.Turn})

	// 2. Front units trade blows.
	p, okP := e.Battle.Front(types.FactionPlayer)
	en, okE := e.Battle.Front(types.FactionEnemy)
	if okP && okE {
		e.Emit(types.Event{Kind: types.EventBeforeStrike, Unit: p.ID, Other: en.ID, Faction: p.Faction})
		e.Emit(types.Event{Kind: types.EventBeforeStrike, Unit: en.ID, Other: p.ID, Faction: en.Faction})
		e.Drain()

		e.strike(p.ID, en.ID)
		e.strike(en.ID, p.ID)
		e.Drain()

		for _, pair := range [][2]types.UnitID{{p.ID, en.ID}, {en.ID, p.ID}} {
			if u, ok := e.Battle.Unit(pair[0]); ok {
				e.Emit(types.Event{Kind: types.EventAfterStrike, Unit: u.ID, Other: pair[1], Faction: u.Faction})
			}
		}
		e.Drain()
	}

	// 3. Turn end and delayed effects.
	e.HandleEvent(types.Event{Kind: types.EventTurnEnd, Value: e.Turn})
	e.Tick(e.Opts.TurnDuration)

	result.Display = append(result.Display, e.TakeDisplay()...)
	result.Winner = e.Winner()
	result.Over = result.Winner != OutcomeNone
	return result
}

// RunBattle plays turns until the battle ends or ctx is cancelled.
func (e *Engine) RunBattle(ctx context.Context) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return OutcomeNone, err
		}
		if r := e.StepTurn(); r.Over {
			return r.Winner, nil
		}
	}
}

// Winner reports the outcome, or OutcomeNone while the battle goes on.
func (e *Engine) Winner() Outcome {
	players := e.Battle.Count(types.FactionPlayer)
	enemies := e.Battle.Count(types.FactionEnemy)
	switch {
	case players == 0 && enemies == 0:
		return OutcomeDraw
	case enemies == 0:
		return OutcomePlayer
	case players == 0:
		return OutcomeEnemy
	case e.Opts.MaxTurns > 0 && e.Turn >= e.Opts.MaxTurns:
		return OutcomeDraw
	}
	return OutcomeNone
}

// strike queues the attacker's attack against the defender. Each unit's
// strikes share a queue partition so their delayed parts stay in order.
func (e *Engine) strike(attacker, defender types.UnitID) {
	u, ok := e.Battle.Unit(attacker)
	if !ok {
		return
	}
	attack := defaultAttack
	if def, ok := e.Defs.Units[u.Template]; ok && def.Attack != nil {
		attack = def.Attack
	}
	c := scope.Context{Owner: attacker, Caster: attacker, Target: defender}.WithQueue(fmt.Sprintf("turn#%d", attacker))
	e.Queue.PushBack(queue.Item{Effect: attack, Context: c})
}
