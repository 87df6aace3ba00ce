// Package theme styles pathwise's terminal output.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(18)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Pending = lipgloss.NewStyle().
		Foreground(Accent)

	Active = lipgloss.NewStyle().
		Foreground(Secondary)
)

// Status renders a sprint, skill or review status in its state color.
func Status(s string) string {
	switch s {
	case "completed", "mastered", "passed", "increase", "improving":
		return Good.Render(s)
	case "failed", "decrease", "declining":
		return Bad.Render(s)
	case "in_progress", "proficient", "developing":
		return Active.Render(s)
	case "generated", "not_started":
		return Pending.Render(s)
	}
	return Body.Render(s)
}

// Mark renders a check or a cross.
func Mark(ok bool) string {
	if ok {
		return Good.Render("✓")
	}
	return Bad.Render("✗")
}

// Field renders one "label  value" line.
func Field(label string, value any) string {
	return Label.Render(label) + Body.Render(fmt.Sprint(value))
}

// Rule is a horizontal divider n cells wide.
func Rule(n int) string {
	return lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", n))
}
