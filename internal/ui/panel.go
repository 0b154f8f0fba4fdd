package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6")).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Title returns s in English title case ("project scope" → "Project Scope").
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Row is one label/value line of a panel.
type Row struct {
	Label string
	Value string
}

// Panel renders rows under a title. Without colors it falls back to plain
// aligned text so piped output stays readable.
func Panel(title string, rows []Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}

	var lines []string
	for _, r := range rows {
		label := fmt.Sprintf("%-*s", width, r.Label)
		if IsColorEnabled() {
			label = labelStyle.Render(label)
		}
		lines = append(lines, label+"  "+r.Value)
	}
	body := strings.Join(lines, "\n")

	if !IsColorEnabled() {
		if body == "" {
			return title + "\n"
		}
		return title + "\n" + body + "\n"
	}
	content := titleStyle.Render(title)
	if body != "" {
		content += "\n" + body
	}
	return panelStyle.Render(content) + "\n"
}
