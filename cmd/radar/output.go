package main

import (
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/fentz26/radar/internal/models"
)

var (
	colorOut = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	detectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	missingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

// paint applies style only when stdout is a terminal so piped output stays plain.
func paint(style lipgloss.Style, s string) string {
	if !colorOut {
		return s
	}
	return style.Render(s)
}

func formatStatus(st models.ItemStatus) string {
	switch st {
	case models.ItemStatusDetected:
		return paint(detectedStyle, string(st))
	case models.ItemStatusMissing:
		return paint(missingStyle, string(st))
	default:
		return string(st)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
