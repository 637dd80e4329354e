package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles used by the browser.
type Theme struct {
	TitleStyle        lipgloss.Style
	BorderStyle       lipgloss.Style
	PreviewStyle      lipgloss.Style
	DirectoryStyle    lipgloss.Style
	SecretStyle       lipgloss.Style
	SelectedItemStyle lipgloss.Style
	StatusBarStyle    lipgloss.Style
	ErrorStyle        lipgloss.Style
	PromptStyle       lipgloss.Style
	HelpStyle         lipgloss.Style
}

func DefaultTheme() *Theme {
	return &Theme{
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A3E9B")).
			Padding(0, 1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5A3E9B")).
			Padding(0, 1),
		PreviewStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD")),
		DirectoryStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7AA2F7")),
		SecretStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C0CAF5")),
		SelectedItemStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1B26")).
			Background(lipgloss.Color("#BB9AF7")),
		StatusBarStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A9B1D6")).
			Background(lipgloss.Color("#24283B")).
			Padding(0, 1),
		ErrorStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7768E")),
		PromptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0AF68")),
		HelpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565F89")),
	}
}
