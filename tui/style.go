package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleText    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	styleInput   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	styleDamage  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleHeal    = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	styleStatus  = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	styleDeath   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleSpawn   = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	styleVisual  = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Italic(true)
	styleTrace   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleSystem  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleTurn    = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	styleOutcome = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Underline(true)

	stylePlayerSide = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Background(lipgloss.Color("236")).Bold(true)
	styleEnemySide  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236")).Bold(true)
)

// lineKind identifies how a log line is styled.
type lineKind int

const (
	kindText lineKind = iota
	kindInput
	kindDamage
	kindHeal
	kindStatus
	kindDeath
	kindSpawn
	kindVisual
	kindTrace
	kindSystem
	kindError
	kindTurn
	kindOutcome
)

// kindOf maps a display event kind to its line kind.
func kindOf(display string) lineKind {
	switch display {
	case "damage":
		return kindDamage
	case "heal":
		return kindHeal
	case "status":
		return kindStatus
	case "death":
		return kindDeath
	case "spawn":
		return kindSpawn
	case "visual":
		return kindVisual
	case "trace":
		return kindTrace
	}
	return kindText
}

// render styles one wrapped line. Status lines take their content color
// when one is set.
func render(text string, rl rawLine) string {
	switch rl.kind {
	case kindInput:
		return styleInput.Render(text)
	case kindDamage:
		return styleDamage.Render(text)
	case kindHeal:
		return styleHeal.Render(text)
	case kindStatus:
		if rl.color != "" {
			return styleStatus.Foreground(lipgloss.Color(rl.color)).Render(text)
		}
		return styleStatus.Render(text)
	case kindDeath:
		return styleDeath.Render(text)
	case kindSpawn:
		return styleSpawn.Render(text)
	case kindVisual:
		return styleVisual.Render(text)
	case kindTrace:
		return styleTrace.Render(text)
	case kindSystem:
		return styleSystem.Render(text)
	case kindError:
		return styleError.Render(text)
	case kindTurn:
		return styleTurn.Render(text)
	case kindOutcome:
		return styleOutcome.Render(text)
	}
	return styleText.Render(text)
}
