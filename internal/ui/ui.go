// Package ui holds the lipgloss styles shared by progress lines, diff
// listings, and the final summary.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stationctl/stationctl/internal/resource"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// OutcomeSymbol renders the one-character status marker for an apply
// outcome.
func OutcomeSymbol(o resource.Outcome) string {
	switch o.Kind {
	case resource.OutcomeFailed:
		return failureStyle.Render("✗")
	case resource.OutcomeSkipped:
		return skippedStyle.Render("⊘")
	case resource.OutcomeNoChange:
		return mutedStyle.Render("○")
	default:
		return successStyle.Render("✓")
	}
}

// ResourceLabel renders "kind id" with the kind dimmed into a column.
func ResourceLabel(kind resource.Kind, id string) string {
	return fmt.Sprintf("%s %s", kindStyle.Render(string(kind)), id)
}

// Header renders a bold section header.
func Header(text string) string {
	return headerStyle.Render(text)
}

// Muted renders secondary text.
func Muted(text string) string {
	return mutedStyle.Render(text)
}

// Failure renders failure text.
func Failure(text string) string {
	return failureStyle.Render(text)
}

// RenderSummary renders the end-of-run counters on one line.
func RenderSummary(s resource.Summary) string {
	parts := []string{}
	if s.Created > 0 {
		parts = append(parts, successStyle.Render(fmt.Sprintf("%d created", s.Created)))
	}
	if s.Modified > 0 {
		parts = append(parts, successStyle.Render(fmt.Sprintf("%d modified", s.Modified)))
	}
	if s.Removed > 0 {
		parts = append(parts, successStyle.Render(fmt.Sprintf("%d removed", s.Removed)))
	}
	if s.Skipped > 0 {
		parts = append(parts, skippedStyle.Render(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.Failed > 0 {
		parts = append(parts, failureStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.NoChange > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d unchanged", s.NoChange)))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("nothing to do")
	}
	return strings.Join(parts, ", ")
}
