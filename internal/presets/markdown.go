package presets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown formats a preset as a checklist document.
func Markdown(p Preset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", p.Icon, p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}

	var meta []string
	if p.EstimatedDuration != "" {
		meta = append(meta, "**Duration:** "+p.EstimatedDuration)
	}
	if p.Difficulty != "" {
		meta = append(meta, "**Difficulty:** "+string(p.Difficulty))
	}
	meta = append(meta, fmt.Sprintf("**Items:** %d (%d essential)", len(p.Items), p.EssentialCount()))
	b.WriteString(strings.Join(meta, " · "))
	b.WriteString("\n\n")

	b.WriteString("| Item | Category | Essential |\n|---|---|---|\n")
	for _, it := range p.Items {
		essential := ""
		if it.Essential {
			essential = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(it.Name), escapeCell(it.Category), essential)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Render renders a preset for the terminal.
func Render(p Preset, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(Markdown(p))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
