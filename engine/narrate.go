package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/battlecore/types"
)

// Name returns a unit's display name, alive or fallen.
func (e *Engine) Name(id types.UnitID) string {
	if u, ok := e.Battle.Lookup(id); ok {
		return fmt.Sprintf("%s #%d", u.Title, u.ID)
	}
	return fmt.Sprintf("unit #%d", id)
}

// Narrate renders a display event as one line of battle log.
func (e *Engine) Narrate(d types.DisplayEvent) string {
	switch d.Kind {
	case "damage":
		return fmt.Sprintf("%s takes %s damage.", e.Name(d.Unit), strings.TrimPrefix(d.Text, "-"))
	case "heal":
		return fmt.Sprintf("%s heals %s.", e.Name(d.Unit), strings.TrimPrefix(d.Text, "+"))
	case "status":
		return fmt.Sprintf("%s: %s", e.Name(d.Unit), d.Text)
	case "death":
		return fmt.Sprintf("%s falls.", e.Name(d.Unit))
	case "spawn":
		return fmt.Sprintf("%s joins the fight.", e.Name(d.Unit))
	case "visual":
		return fmt.Sprintf("*%s*", d.Text)
	case "trace":
		return "trace: " + d.Text
	}
	return d.Text
}

// Roster describes every living unit, one line each.
func (e *Engine) Roster() []string {
	var lines []string
	for _, u := range e.Battle.Units() {
		line := fmt.Sprintf("[%s %d] %s  %d/%d hp", u.Faction, u.Slot, e.Name(u.ID), u.HP, u.MaxHP)
		if len(u.Statuses) > 0 {
			var names []string
			for _, s := range u.Statuses {
				names = append(names, fmt.Sprintf("%s x%d", s.Name, s.Charges))
			}
			line += "  (" + strings.Join(names, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
