// Package engine is the interpreter driver: it turns battle events into
// queued reaction effects, drains the queue, finalises deaths, and promotes
// delayed effects as time advances.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathoo/battlecore/engine/effects"
	"github.com/nathoo/battlecore/engine/events"
	"github.com/nathoo/battlecore/engine/queue"
	"github.com/nathoo/battlecore/engine/rules"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// Options configure one battle.
type Options struct {
	Seed         int64
	Mode         events.Mode
	MaxTurns     int
	TurnDuration float64 // seconds of timeline per turn
	MaxSteps     int     // items processed per drain before it is abandoned
	Logger       *slog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Seed:         1,
		Mode:         events.ModeAll,
		MaxTurns:     50,
		TurnDuration: 1,
		MaxSteps:     10000,
	}
}

// Engine holds the definitions and one battle's mutable state. It is not
// safe for concurrent use; run independent battles on independent engines.
type Engine struct {
	Defs     *state.Defs
	Battle   *state.Battle
	Queue    *queue.Queue
	Timeline *queue.Timeline
	RNG      *RNG
	Opts     Options
	Log      *slog.Logger

	Turn  int
	Trace bool

	tables   *events.Tables
	counters rules.Counters
	env      *effects.Env
	display  []types.DisplayEvent
	started  bool
}

// New creates an engine with the lineup from defs placed on the field.
func New(defs *state.Defs, opts Options) (*Engine, error) {
	b, err := state.NewBattle(defs)
	if err != nil {
		return nil, fmt.Errorf("placing lineup: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultOptions().MaxSteps
	}
	e := &Engine{
		Defs:     defs,
		Battle:   b,
		Queue:    queue.New(),
		Timeline: queue.NewTimeline(),
		RNG:      NewRNG(opts.Seed),
		Opts:     opts,
		Log:      log,
		tables:   events.NewTables(defs),
		counters: rules.Counters{},
	}
	e.env = &effects.Env{
		Model:    b,
		Queue:    e.Queue,
		Timeline: e.Timeline,
		RNG:      e.RNG,
		Emit:     e.Emit,
		Display:  e.show,
		Log:      log,
	}
	return e, nil
}

// Emit queues the reactions ev triggers at the back of the queue.
func (e *Engine) Emit(ev types.Event) {
	for _, it := range events.Dispatch(ev, e.Battle, e.tables, e.counters, e.Opts.Mode) {
		e.Queue.PushBack(it)
	}
}

// HandleEvent queues the reactions ev triggers and drains the queue.
func (e *Engine) HandleEvent(ev types.Event) {
	e.Emit(ev)
	e.Drain()
}

// Run queues an effect under a context and drains the queue.
func (e *Engine) Run(eff types.Effect, c scope.Context) {
	e.Queue.PushBack(queue.Item{Effect: eff, Context: c})
	e.Drain()
}

// Drain processes items until the queue is empty and returns how many ran.
// Units left depleted by an abandoned drain are picked up again here.
func (e *Engine) Drain() int {
	e.observeDeaths()
	steps := 0
	for {
		it, ok := e.Queue.Pop()
		if !ok {
			return steps
		}
		steps++
		if steps > e.Opts.MaxSteps {
			e.Log.Error("drain exceeded step limit, dropping queue",
				"limit", e.Opts.MaxSteps, "pending", e.Queue.Len()+1, "turn", e.Turn)
			e.Queue.Clear()
			// The dropped queue may have held their Reap.
			for _, u := range e.Battle.Units() {
				u.Dying = false
			}
			return steps - 1
		}
		if e.Trace {
			e.show(types.DisplayEvent{Kind: "trace", Unit: it.Context.Owner, Text: describe(it)})
		}
		effects.Process(it, e.env)
		e.observeDeaths()
	}
}

// Tick advances the timeline, queues every delayed item that is now due,
// and drains.
func (e *Engine) Tick(dt float64) {
	for _, s := range e.Timeline.Advance(dt) {
		if s.Anchor != 0 {
			if _, ok := e.Battle.Unit(s.Anchor); !ok {
				e.Log.Debug("time bomb anchor gone", "anchor", s.Anchor)
				continue
			}
		}
		e.Queue.PushBack(s.Item)
	}
	e.Drain()
}

// observeDeaths gives every newly depleted unit its pre-death reactions,
// then a Reap, ahead of all other pending work.
func (e *Engine) observeDeaths() {
	var items []queue.Item
	for _, u := range e.Battle.Units() {
		if u.HP > 0 || u.Dying {
			continue
		}
		u.Dying = true
		ev := types.Event{Kind: types.EventPreDeath, Unit: u.ID, Other: u.LastHitBy, Faction: u.Faction}
		items = append(items, events.Dispatch(ev, e.Battle, e.tables, e.counters, e.Opts.Mode)...)
		items = append(items, queue.Item{Effect: &types.Reap{Who: types.WhoOwner}, Context: scope.ForUnit(u.ID)})
	}
	if len(items) > 0 {
		e.Queue.PushFrontMany(items)
	}
}

func (e *Engine) show(d types.DisplayEvent) {
	d.Time = e.Timeline.Now()
	e.display = append(e.display, d)
}

// TakeDisplay returns and clears the pending display events.
func (e *Engine) TakeDisplay() []types.DisplayEvent {
	out := e.display
	e.display = nil
	return out
}

func describe(it queue.Item) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", it.Effect), "*types.")
	c := it.Context
	return fmt.Sprintf("%s owner=%d caster=%d target=%d", name, c.Owner, c.Caster, c.Target)
}
