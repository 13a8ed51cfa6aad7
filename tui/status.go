package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/battlecore/types"
)

// sideHP sums current and max hp over a faction's living units.
func (m Model) sideHP(f types.Faction) (hp, maxHP, alive int) {
	for _, u := range m.engine.Battle.Units() {
		if u.Faction != f {
			continue
		}
		hp += u.HP
		maxHP += u.MaxHP
		alive++
	}
	return hp, maxHP, alive
}

// renderStatusBar draws a full-width line with the turn on the left and
// each side's hit points on the right.
func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" T:%d", m.engine.Turn)
	if t := m.engine.Defs.Battle.Title; t != "" {
		left = " " + t + " |" + left
	}
	if m.playing {
		left += " | playing"
	}
	if w := m.engine.Winner(); w != "" {
		left += " | " + string(w)
	}

	php, pmax, pn := m.sideHP(types.FactionPlayer)
	ehp, emax, en := m.sideHP(types.FactionEnemy)
	player := stylePlayerSide.Render(fmt.Sprintf("Player %d/%d (%d)", php, pmax, pn))
	enemy := styleEnemySide.Render(fmt.Sprintf("Enemy %d/%d (%d)", ehp, emax, en))
	right := player + styleStatusBar.Render(" | ") + enemy + styleStatusBar.Render(" ")

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return styleStatusBar.Render(left+strings.Repeat(" ", gap)) + right
}
