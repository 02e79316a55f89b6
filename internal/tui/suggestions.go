package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Suggestions provides autocomplete for command-bar input.
type Suggestions struct {
	items       []SuggestionItem
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
	header      string
	categories  []string
	presets     []SuggestionItem
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
}

var commandSuggestions = []SuggestionItem{
	{Text: "search", Description: "Filter by name or description"},
	{Text: "category", Description: "Toggle a category filter"},
	{Text: "status", Description: "Toggle detected or missing"},
	{Text: "essential", Description: "Toggle essential-only"},
	{Text: "seen", Description: "Last seen between two dates"},
	{Text: "sort", Description: "Sort by name, category, status, lastSeen, essential"},
	{Text: "preset", Description: "Apply a saved filter"},
	{Text: "clear", Description: "Remove every filter"},
	{Text: "page", Description: "Jump to a page"},
	{Text: "rm", Description: "Delete the selected item"},
	{Text: "reset-status", Description: "Mark every item missing"},
	{Text: "reset-order", Description: "Drop the manual order"},
	{Text: "refresh", Description: "Reload from the daemon"},
	{Text: "quit", Description: "Exit"},
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{items: commandSuggestions}
}

// SetCategories updates the category completions.
func (s *Suggestions) SetCategories(categories []string) {
	s.categories = categories
}

// SetPresets updates the preset completions.
func (s *Suggestions) SetPresets(ids, names []string) {
	s.presets = make([]SuggestionItem, len(ids))
	for i := range ids {
		s.presets[i] = SuggestionItem{Text: ids[i], Description: names[i]}
	}
}

// Update recomputes suggestions for a command-bar line.
func (s *Suggestions) Update(input string) {
	s.visible = false
	s.filtered = nil
	s.selectedIdx = 0
	if input == "" {
		return
	}

	name, rest, hasArg := strings.Cut(input, " ")
	switch {
	case !hasArg:
		s.header = "Commands"
		s.items = commandSuggestions
		s.filter(strings.ToLower(name))
	case name == "category":
		s.header = "Categories"
		s.items = make([]SuggestionItem, len(s.categories))
		for i, c := range s.categories {
			s.items[i] = SuggestionItem{Text: "category " + c}
		}
		s.filter("category " + strings.ToLower(rest))
	case name == "preset":
		s.header = "Presets"
		s.items = make([]SuggestionItem, len(s.presets))
		for i, p := range s.presets {
			s.items[i] = SuggestionItem{Text: "preset " + p.Text, Description: p.Description}
		}
		s.filter("preset " + strings.ToLower(rest))
	default:
		return
	}
	s.visible = true
}

func (s *Suggestions) filter(query string) {
	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.HasPrefix(strings.ToLower(item.Text), query) {
			s.filtered = append(s.filtered, item)
		}
	}
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Hide closes the dropdown until the next Update.
func (s *Suggestions) Hide() {
	s.visible = false
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	suggestionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(max(width-4, 20))

	selected := lipgloss.NewStyle().
		Background(primaryColor).
		Foreground(fgColor).
		Bold(true)

	itemStyle := lipgloss.NewStyle().Foreground(fgColor)
	descStyle := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(s.header))
	b.WriteString("\n")

	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = selected.Render("▶ " + item.Text)
			if item.Description != "" {
				line += " " + selected.Render(item.Description)
			}
		} else {
			line = itemStyle.Render("  " + item.Text)
			if item.Description != "" {
				line += " " + descStyle.Render(item.Description)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return suggestionStyle.Render(b.String())
}
