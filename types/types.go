// Package types defines the shared data structures for the battlecore engine.
// The effect, expression, condition, trigger and modifier families are closed:
// each is an interface with an unexported marker method, so every variant lives
// in this package and dispatch elsewhere is an exhaustive type switch.
package types

// UnitID identifies a unit for the lifetime of a battle. Zero means unbound.
type UnitID int

// StatusID identifies one status attachment. Zero means no status.
type StatusID int

// Faction is the side a unit fights for.
type Faction int

const (
	FactionPlayer Faction = iota
	FactionEnemy
)

func (f Faction) String() string {
	if f == FactionEnemy {
		return "enemy"
	}
	return "player"
}

// Opposite returns the other faction.
func (f Faction) Opposite() Faction {
	if f == FactionEnemy {
		return FactionPlayer
	}
	return FactionEnemy
}

// Who names a role an effect can refer to. The zero value is Target.
type Who int

const (
	WhoTarget Who = iota
	WhoOwner
	WhoCaster
)

func (w Who) String() string {
	switch w {
	case WhoOwner:
		return "owner"
	case WhoCaster:
		return "caster"
	case WhoTarget:
		return "target"
	}
	return "unknown"
}

// Relation filters units relative to a reference unit.
type Relation int

const (
	RelationAny Relation = iota
	RelationAlly
	RelationEnemy
)

// Reaction pairs a trigger with the ordered effect list it enqueues.
type Reaction struct {
	Trigger Trigger
	Effects []Effect
}

// EventKind enumerates the battle events reactions can listen to.
type EventKind int

const (
	EventBattleStart EventKind = iota + 1
	EventTurnStart
	EventTurnEnd
	EventBeforeStrike
	EventAfterStrike
	EventDamageTaken
	EventDamageDealt
	EventStatChanged
	EventPreDeath
	EventDeath
	EventKill
	EventSpawn
	EventCustom
)

var eventNames = map[EventKind]string{
	EventBattleStart:  "battle_start",
	EventTurnStart:    "turn_start",
	EventTurnEnd:      "turn_end",
	EventBeforeStrike: "before_strike",
	EventAfterStrike:  "after_strike",
	EventDamageTaken:  "damage_taken",
	EventDamageDealt:  "damage_dealt",
	EventStatChanged:  "stat_changed",
	EventPreDeath:     "pre_death",
	EventDeath:        "death",
	EventKill:         "kill",
	EventSpawn:        "spawn",
	EventCustom:       "custom",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "unknown"
}

// Event is a battle occurrence offered to every reaction table.
type Event struct {
	Kind    EventKind
	Unit    UnitID  // subject: the damaged, dying, striking or spawned unit
	Other   UnitID  // counterpart: attacker, strike target, killer's victim
	Faction Faction // faction of Unit, kept because Death outlives the unit
	Stat    string  // StatChanged
	Name    string  // Custom
	Value   int
}

// DisplayEvent is a presentation-only record. The engine never reads these back.
type DisplayEvent struct {
	Kind     string // "text", "damage", "heal", "status", "visual", "death", "spawn"
	Unit     UnitID
	Text     string
	Color    string
	Time     float64
	Duration float64
}

// UnitDef is a unit template loaded from content.
type UnitDef struct {
	Name      string
	Title     string
	HP        int
	Stats     map[string]int
	Houses    []string
	Attack    Effect // nil means the default strike
	Reactions []Reaction
}

// StatusDef is a status template. Its reactions fire for the unit carrying it.
type StatusDef struct {
	Name      string
	Color     string
	Reactions []Reaction
}

// HouseDef is an alliance whose modifiers are folded into member templates.
type HouseDef struct {
	Name      string
	Modifiers []Modifier
}

// BattleDef is the lineup to simulate.
type BattleDef struct {
	Title  string
	Player []string
	Enemy  []string
}
