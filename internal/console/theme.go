package console

import "github.com/charmbracelet/lipgloss"

// Theme holds the console palette. Colors are ANSI 256 codes so the exam
// renders the same in any terminal that supports color; lipgloss drops
// them on terminals that do not.
type Theme struct {
	Title    lipgloss.Style
	Text     lipgloss.Style
	Faint    lipgloss.Style
	Selected lipgloss.Style
	Warning  lipgloss.Style
	Alert    lipgloss.Style
	Success  lipgloss.Style
	Result   lipgloss.Style
}

// DefaultTheme targets dark-background terminals.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		Text:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Faint:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		Warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Alert:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Result: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// PlainTheme renders without any styling.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Title:    plain,
		Text:     plain,
		Faint:    plain,
		Selected: plain,
		Warning:  plain,
		Alert:    plain,
		Success:  plain,
		Result:   plain,
	}
}
