package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Terminal Rendering
// =============================================================================

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // grey
)

// styleFor picks the style for a status.
func styleFor(s Status) lipgloss.Style {
	switch s {
	case StatusRunning, StatusCopied, StatusRemoved, StatusStopped, StatusArchived, StatusDeleted, StatusDetached:
		return goodStyle
	case StatusUnhealthy, StatusFailed:
		return badStyle
	case StatusMissing, StatusSkipped:
		return warnStyle
	case StatusPreserved:
		return dimStyle
	}
	return dimStyle
}

// Render formats the report as a human-readable summary table. Pure function:
// no side effects beyond formatting. The caller decides where to print it.
func Render(r *RunReport) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("== %s summary ==", r.Operation)))
	b.WriteByte('\n')

	nameWidth := len("SERVICE")
	for _, name := range r.Names() {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("%-*s  %-10s  %s", nameWidth, "SERVICE", "STATUS", "DETAIL")))
	b.WriteByte('\n')

	for _, name := range r.Names() {
		o := r.entries[name]
		detail := o.Detail
		if o.Attempts > 0 {
			detail = strings.TrimSpace(fmt.Sprintf("%s (%d poll(s))", detail, o.Attempts))
		}
		line := fmt.Sprintf("%-*s  %-10s  %s", nameWidth, name, o.Status, detail)
		b.WriteString(styleFor(o.Status).Render(line))
		b.WriteByte('\n')
	}

	counts := r.Counts()
	var parts []string
	for _, s := range r.statuses() {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}

	if r.Degraded() {
		b.WriteString(warnStyle.Render(fmt.Sprintf("result: degraded (%s)", strings.Join(parts, ", "))))
	} else {
		b.WriteString(goodStyle.Render(fmt.Sprintf("result: all healthy (%s)", strings.Join(parts, ", "))))
	}
	b.WriteByte('\n')

	return b.String()
}
