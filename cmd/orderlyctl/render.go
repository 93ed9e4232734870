package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/orderlygame/orderly/internal/authoring"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // published puzzles
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // successful writes
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // countdown, version changes
	boldStyle   = lipgloss.NewStyle().Bold(true)
	hiddenStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	boxStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)

func renderDay(day int, countdown string) string {
	return boxStyle.Render(fmt.Sprintf("%s  next in %s",
		boldStyle.Render(fmt.Sprintf("Day %d", day)), yellowStyle.Render(countdown)))
}

func renderDone(what string, version int64) string {
	return greenStyle.Render(what) + dimStyle.Render(fmt.Sprintf(" (version %d)", version))
}

func renderChange(version int64) string {
	return yellowStyle.Render(fmt.Sprintf("%s version %d", time.Now().Format(time.TimeOnly), version))
}

// renderListing prints one line per day. Published days are dimmed, other
// authors' drafts show only their owner.
func renderListing(l authoring.Listing) string {
	var b strings.Builder
	b.WriteString(boldStyle.Render(fmt.Sprintf("today: day %d, version %d", l.Today, l.Version)))
	b.WriteByte('\n')
	for _, e := range l.Entries {
		day := fmt.Sprintf("%4d  %-10s ", e.Day, e.Author)
		switch {
		case e.Hidden:
			b.WriteString(day + hiddenStyle.Render("(hidden draft)"))
		case e.Locked:
			b.WriteString(dimStyle.Render(day + e.Question))
		default:
			b.WriteString(day + e.Question)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
