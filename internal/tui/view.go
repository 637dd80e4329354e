package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maskedSecret = "••••••••"

// View renders the browser
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.mode == ModeHelp {
		return m.renderHelp()
	}

	sections := []string{
		m.renderTitle(),
		m.renderContent(),
		m.renderStatus(),
	}
	if m.mode == ModeConfirm {
		sections = append(sections, m.theme.PromptStyle.Render("> "+m.confirm.View()))
	}
	sections = append(sections, m.theme.HelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	return m.theme.TitleStyle.Render(fmt.Sprintf("slotvault - /%s", m.prefix))
}

func (m *Model) renderContent() string {
	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 4

	list := m.theme.BorderStyle.
		Width(leftWidth).
		Height(m.visibleLines() + 2).
		Render(m.renderList())

	preview := m.theme.BorderStyle.
		Width(rightWidth).
		Height(m.visibleLines() + 2).
		Render(m.renderPreview())

	return lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
}

func (m *Model) renderList() string {
	if len(m.entries) == 0 {
		return m.theme.SecretStyle.Render("(no secrets)")
	}

	end := min(m.offset+m.visibleLines(), len(m.entries))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		entry := m.entries[i]
		style := m.theme.SecretStyle
		switch {
		case i == m.cursor:
			style = m.theme.SelectedItemStyle
		case entry.IsDir:
			style = m.theme.DirectoryStyle
		}
		lines = append(lines, style.Render(entry.Name))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPreview() string {
	entry := m.currentEntry()
	switch {
	case entry == nil:
		return m.theme.PreviewStyle.Render("Nothing selected")
	case entry.IsDir:
		return m.theme.PreviewStyle.Render(fmt.Sprintf("Folder: %s\n\nPress enter to open", entry.Path))
	case m.secretErr != nil:
		return m.theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.secretErr))
	}

	value := maskedSecret
	if m.revealed {
		value = m.secret
		lines := strings.Split(value, "\n")
		if limit := m.visibleLines() - 3; len(lines) > limit {
			value = strings.Join(append(lines[:limit], "..."), "\n")
		}
	}
	return m.theme.PreviewStyle.Render(fmt.Sprintf("Secret: %s\n\n%s", entry.Path, value))
}

func (m *Model) renderStatus() string {
	left := "0 items"
	if len(m.entries) > 0 {
		left = fmt.Sprintf("%d/%d items", m.cursor+1, len(m.entries))
	}

	right := m.statusMsg
	if m.errorMsg != "" {
		right = m.theme.ErrorStyle.Render(m.errorMsg)
	}

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)
	return m.theme.StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", spacing) + right)
}

func (m *Model) renderHelp() string {
	sections := []string{
		m.theme.TitleStyle.Render("slotvault - Help"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		m.theme.HelpStyle.Render("Press ? or q to return"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
