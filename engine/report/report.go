// Package report serializes battle outcomes to JSON.
package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/state"
)

// Version tags the report format.
const Version = "1"

// Battle is the JSON-serializable record of one finished (or interrupted)
// battle.
type Battle struct {
	Version     string            `json:"version"`
	Title       string            `json:"title"`
	Seed        int64             `json:"seed"`
	RNGPosition int64             `json:"rng_position"`
	Turn        int               `json:"turn"`
	Winner      string            `json:"winner"`
	Survivors   []Unit            `json:"survivors"`
	Fallen      []string          `json:"fallen"`
	Globals     map[string]string `json:"globals"`
	Roster      []Base            `json:"roster"`
}

// Unit is a surviving unit.
type Unit struct {
	ID       int            `json:"id"`
	Template string         `json:"template"`
	Faction  string         `json:"faction"`
	Slot     int            `json:"slot"`
	HP       int            `json:"hp"`
	MaxHP    int            `json:"max_hp"`
	Stats    map[string]int `json:"stats"`
	Statuses map[string]int `json:"statuses,omitempty"`
}

// Base is the persistent record of a player unit, including permanent
// stat changes made during the battle.
type Base struct {
	Template string         `json:"template"`
	MaxHP    int            `json:"max_hp"`
	Stats    map[string]int `json:"stats"`
}

// FromEngine captures the engine's current state.
func FromEngine(e *engine.Engine) *Battle {
	b := &Battle{
		Version:     Version,
		Title:       e.Defs.Battle.Title,
		Seed:        e.RNG.Seed(),
		RNGPosition: e.RNG.Position(),
		Turn:        e.Turn,
		Winner:      string(e.Winner()),
		Survivors:   []Unit{},
		Fallen:      []string{},
		Globals:     map[string]string{},
		Roster:      []Base{},
	}
	for _, u := range e.Battle.Units() {
		b.Survivors = append(b.Survivors, unitOf(u))
	}
	for _, u := range e.Battle.Fallen() {
		b.Fallen = append(b.Fallen, u.Template)
		if u.Base != nil {
			b.Roster = append(b.Roster, baseOf(u.Base))
		}
	}
	for _, u := range e.Battle.Units() {
		if u.Base != nil {
			b.Roster = append(b.Roster, baseOf(u.Base))
		}
	}
	for k, v := range e.Battle.Globals() {
		b.Globals[k] = v.String()
	}
	return b
}

func unitOf(u *state.Unit) Unit {
	out := Unit{
		ID:       int(u.ID),
		Template: u.Template,
		Faction:  u.Faction.String(),
		Slot:     u.Slot,
		HP:       u.HP,
		MaxHP:    u.MaxHP,
		Stats:    copyStats(u.Stats),
	}
	if len(u.Statuses) > 0 {
		out.Statuses = make(map[string]int, len(u.Statuses))
		for _, s := range u.Statuses {
			out.Statuses[s.Name] = s.Charges
		}
	}
	return out
}

func baseOf(b *state.Base) Base {
	return Base{Template: b.Template, MaxHP: b.MaxHP, Stats: copyStats(b.Stats)}
}

func copyStats(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Marshal renders a report as indented JSON.
func Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Load parses a battle report.
func Load(data []byte) (*Battle, error) {
	var b Battle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	if b.Version != Version {
		return nil, fmt.Errorf("unsupported report version %q", b.Version)
	}
	// Ensure collections are never nil after load.
	if b.Survivors == nil {
		b.Survivors = []Unit{}
	}
	if b.Fallen == nil {
		b.Fallen = []string{}
	}
	if b.Globals == nil {
		b.Globals = map[string]string{}
	}
	if b.Roster == nil {
		b.Roster = []Base{}
	}
	return &b, nil
}

// Summary aggregates many battles of the same lineup.
type Summary struct {
	Runs     int            `json:"runs"`
	Wins     map[string]int `json:"wins"`
	AvgTurns float64        `json:"avg_turns"`
	MinTurns int            `json:"min_turns"`
	MaxTurns int            `json:"max_turns"`
	// Seeds of the battles each side won, ascending.
	Seeds map[string][]int64 `json:"seeds"`
}

// Summarize folds battle reports into a Summary. Nil entries are skipped.
func Summarize(battles []*Battle) Summary {
	s := Summary{Wins: map[string]int{}, Seeds: map[string][]int64{}}
	total := 0
	for _, b := range battles {
		if b == nil {
			continue
		}
		if s.Runs == 0 || b.Turn < s.MinTurns {
			s.MinTurns = b.Turn
		}
		if b.Turn > s.MaxTurns {
			s.MaxTurns = b.Turn
		}
		s.Runs++
		total += b.Turn
		s.Wins[b.Winner]++
		s.Seeds[b.Winner] = append(s.Seeds[b.Winner], b.Seed)
	}
	if s.Runs > 0 {
		s.AvgTurns = float64(total) / float64(s.Runs)
	}
	for _, seeds := range s.Seeds {
		sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	}
	return s
}
