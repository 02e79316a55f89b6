// Package tui provides the interactive radar dashboard.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
	"github.com/fentz26/radar/internal/view"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	detectedStyle = lipgloss.NewStyle().Foreground(successColor)
	missingStyle  = lipgloss.NewStyle().Foreground(errorColor)
	essentialMark = lipgloss.NewStyle().Foreground(warningColor).Render("★")
)

// DefaultPollInterval is how often the dashboard reloads the snapshot.
const DefaultPollInterval = 5 * time.Second

// Options tunes the dashboard.
type Options struct {
	PageSize     int
	PollInterval time.Duration
}

// App is the main TUI application model.
type App struct {
	client       *Client
	view         *view.Model
	cmdbar       *CmdBarModel
	suggestions  *Suggestions
	presets      []models.FilterPreset
	presetIdx    int
	cursor       int
	width        int
	height       int
	message      string
	daemonOnline bool
	loaded       bool
	pollInterval time.Duration

	// orderSeq counts local order changes; pendingSaves counts unanswered saves.
	orderSeq     int
	pendingSaves int
}

// New creates a new TUI application.
func New(apiAddr, token string, opts Options) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	client := NewClient(apiAddr, token)
	return &App{
		client:       client,
		view:         view.New(client, opts.PageSize),
		cmdbar:       NewCmdBarModel(),
		suggestions:  NewSuggestions(),
		pollInterval: opts.PollInterval,
		width:        80,
		height:       24,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchSnapshot(),
		a.fetchPresets(),
		a.checkDaemon(),
		a.tickCmd(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.cmdbar.Focused() {
			return a, a.handleInputKey(msg)
		}
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case snapshotMsg:
		a.loaded = true
		a.daemonOnline = true
		order := msg.order
		if a.pendingSaves > 0 {
			// Keep the optimistic order until the daemon has it.
			order = a.view.Order()
		}
		a.view.SetData(msg.items, order)
		a.view.SetPage(a.view.Page().Number)
		a.clampCursor()
		a.suggestions.SetCategories(a.view.Categories())

	case presetsMsg:
		a.presets = msg.presets
		ids := make([]string, len(msg.presets))
		names := make([]string, len(msg.presets))
		for i, p := range msg.presets {
			ids[i], names[i] = p.ID, p.Name
		}
		a.suggestions.SetPresets(ids, names)

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case tickMsg:
		// Schedule the next tick only after this fetch is issued.
		return a, tea.Batch(a.fetchSnapshot(), a.tickCmd())

	case resultMsg:
		a.message = msg.message
		return a, a.fetchSnapshot()

	case orderSavedMsg:
		a.pendingSaves--
		if msg.message != "" {
			a.message = msg.message
		}

	case orderFailedMsg:
		a.pendingSaves--
		if msg.seq == a.orderSeq {
			a.view.RestoreOrder(msg.prev)
			if msg.id != "" {
				a.follow(msg.id)
			} else {
				a.clampCursor()
			}
		}
		a.message = "Error: " + msg.reason + ": " + msg.err.Error()
		return a, a.fetchSnapshot()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	a.message = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.view.Result().Items)-1 {
			a.cursor++
		}

	case "K", "shift+up":
		return a.moveSelected(-1)
	case "J", "shift+down":
		return a.moveSelected(1)
	case "o":
		return a.resetOrder()

	case "right", "n", "pgdown":
		a.view.NextPage()
		a.cursor = 0
	case "left", "p", "pgup":
		a.view.PrevPage()
		a.cursor = 0

	case "s":
		a.view.CycleSortKey()
		a.cursor = 0
	case "S":
		a.view.ToggleDirection()
		a.cursor = 0
	case "e":
		a.view.SetEssentialOnly(!a.view.Filter().EssentialOnly)
		a.cursor = 0
	case "m":
		a.view.ToggleStatus(models.ItemStatusMissing)
		a.cursor = 0
	case "c":
		a.cycleCategory()
		a.cursor = 0
	case "f":
		a.cyclePreset()
		a.cursor = 0
	case "x":
		a.view.ClearFilter()
		a.cursor = 0

	case "r":
		return a.fetchSnapshot()
	case "/":
		return a.cmdbar.Focus("/", a.view.Filter().SearchText)
	case ":":
		return a.cmdbar.Focus(":", "")
	}
	return nil
}

func (a *App) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit

	case "esc":
		a.cmdbar.Blur()
		a.suggestions.Hide()
		return nil

	case "up":
		if a.suggestions.IsVisible() {
			a.suggestions.Prev()
		}
		return nil
	case "down":
		if a.suggestions.IsVisible() {
			a.suggestions.Next()
		}
		return nil

	case "tab":
		a.acceptSuggestion()
		return nil

	case "enter":
		if a.cmdbar.Prompt() == ":" && a.acceptSuggestion() {
			return nil
		}
		prompt := a.cmdbar.Prompt()
		value := strings.TrimSpace(a.cmdbar.Submit())
		a.suggestions.Hide()
		if prompt == "/" {
			a.view.SetSearch(value)
			a.cursor = 0
			return nil
		}
		return a.runCommand(value)
	}

	cmd := a.cmdbar.Update(msg)
	if a.cmdbar.Prompt() == "/" {
		a.view.SetSearch(strings.TrimSpace(a.cmdbar.Value()))
		a.cursor = 0
	} else {
		a.suggestions.Update(a.cmdbar.Value())
	}
	return cmd
}

// acceptSuggestion completes the input from the selected suggestion. It
// reports false when nothing changed, so enter can submit instead.
func (a *App) acceptSuggestion() bool {
	sel := a.suggestions.Selected()
	if sel == nil || strings.TrimSpace(a.cmdbar.Value()) == sel.Text {
		return false
	}
	a.cmdbar.SetValue(sel.Text + " ")
	a.suggestions.Update(a.cmdbar.Value())
	return true
}

func (a *App) runCommand(input string) tea.Cmd {
	if input == "" {
		return nil
	}
	c, err := parseCommand(input)
	if err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	arg := strings.Join(c.args, " ")
	a.cursor = 0

	switch c.name {
	case "search":
		a.view.SetSearch(arg)
	case "category":
		if arg == "" {
			f := a.view.Filter()
			f.Categories = nil
			a.view.SetFilter(f)
		} else {
			a.view.ToggleCategory(arg)
		}
	case "status":
		st, err := models.ParseItemStatus(arg)
		if err != nil {
			a.message = "Error: " + err.Error()
			return nil
		}
		a.view.ToggleStatus(st)
	case "essential":
		a.view.SetEssentialOnly(!a.view.Filter().EssentialOnly)
	case "seen":
		from, to := "", ""
		if len(c.args) > 0 {
			from = c.args[0]
		}
		if len(c.args) > 1 {
			to = c.args[1]
		}
		if !query.ValidBound(from) || !query.ValidBound(to) {
			a.message = "Error: dates must look like 2025-01-31 or 2025-01-31T08:00"
			return nil
		}
		a.view.SetDateRange(from, to)
	case "sort":
		if err := a.sortCommand(c.args); err != nil {
			a.message = "Error: " + err.Error()
		}
	case "preset":
		p, ok := a.findPreset(arg)
		if !ok {
			a.message = "Error: unknown preset " + arg
			return nil
		}
		a.view.ApplyPreset(p)
		a.message = "Applied " + p.Name
	case "clear":
		a.view.ClearFilter()
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			a.message = "Error: page must be a number"
			return nil
		}
		a.view.SetPage(n)
	case "rm":
		return a.deleteSelected()
	case "reset-status":
		return a.resetStatuses()
	case "reset-order":
		return a.resetOrder()
	case "refresh":
		return a.fetchSnapshot()
	case "quit", "q":
		return tea.Quit
	}
	return nil
}

func (a *App) sortCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sort <key> [asc|desc]")
	}
	key, err := models.ParseSortKey(args[0])
	if err != nil {
		return err
	}
	dir := models.SortAsc
	if len(args) > 1 {
		if dir, err = models.ParseSortDirection(args[1]); err != nil {
			return err
		}
	}
	a.view.SetSort(models.SortSpec{Key: key, Direction: dir})
	return nil
}

func (a *App) findPreset(ref string) (models.FilterPreset, bool) {
	for _, p := range a.presets {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return models.FilterPreset{}, false
}

func (a *App) cycleCategory() {
	cats := a.view.Categories()
	if len(cats) == 0 {
		return
	}
	f := a.view.Filter()
	next := cats[0]
	if len(f.Categories) > 0 {
		i := slices.Index(cats, f.Categories[0])
		if i == len(cats)-1 {
			f.Categories = nil
			a.view.SetFilter(f)
			return
		}
		next = cats[i+1]
	}
	f.Categories = []string{next}
	a.view.SetFilter(f)
}

func (a *App) cyclePreset() {
	if len(a.presets) == 0 {
		a.message = "No filter presets"
		return
	}
	p := a.presets[a.presetIdx%len(a.presets)]
	a.presetIdx++
	a.view.ApplyPreset(p)
	a.message = "Applied " + p.Name
}

func (a *App) selected() (models.Item, bool) {
	items := a.view.Result().Items
	if a.cursor < 0 || a.cursor >= len(items) {
		return models.Item{}, false
	}
	return items[a.cursor], true
}

func (a *App) clampCursor() {
	n := len(a.view.Result().Items)
	a.cursor = max(0, min(a.cursor, n-1))
}

// moveSelected reorders the selected item locally, keeps the cursor on it
// across page boundaries and saves the new order in the background.
func (a *App) moveSelected(delta int) tea.Cmd {
	item, ok := a.selected()
	if !ok {
		return nil
	}
	prev, ok := a.view.ApplyMoveBy(item.ID, delta)
	if !ok {
		return nil
	}
	a.follow(item.ID)

	order := a.view.Order()
	return a.saveOrder(prev, item.ID, "reorder not saved", "", func(ctx context.Context) error {
		return a.client.SaveOrder(ctx, order)
	})
}

func (a *App) resetOrder() tea.Cmd {
	prev := a.view.ClearOrder()
	a.clampCursor()
	return a.saveOrder(prev, "", "order not reset", "✓ Manual order cleared", a.client.ResetOrder)
}

// saveOrder runs save off the update loop. A failure restores prev unless
// a later order change has superseded it.
func (a *App) saveOrder(prev query.ManualOrder, id, failure, success string, save func(context.Context) error) tea.Cmd {
	a.orderSeq++
	a.pendingSaves++
	seq := a.orderSeq
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		if err := save(ctx); err != nil {
			return orderFailedMsg{seq: seq, prev: prev, id: id, reason: failure, err: err}
		}
		return orderSavedMsg{message: success}
	}
}

// follow moves the page and cursor to wherever id now sits.
func (a *App) follow(id string) {
	pos := slices.Index(query.IDs(a.view.Ordered()), id)
	if pos < 0 {
		a.clampCursor()
		return
	}
	size := a.view.Page().Size
	if size <= 0 {
		a.cursor = pos
		return
	}
	a.view.SetPage(pos/size + 1)
	a.cursor = pos % size
}

// --- Commands ---

type snapshotMsg struct {
	items []models.Item
	order []string
}

type presetsMsg struct {
	presets []models.FilterPreset
}

type daemonStatusMsg struct {
	online bool
}

type resultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type orderSavedMsg struct {
	message string
}

type orderFailedMsg struct {
	seq    int
	prev   query.ManualOrder
	id     string
	reason string
	err    error
}

type tickMsg time.Time

func (a *App) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		items, order, err := a.client.Snapshot(ctx)
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{items, order}
	}
}

func (a *App) fetchPresets() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		presets, err := a.client.FilterPresets(ctx)
		if err != nil {
			return errMsg{err}
		}
		return presetsMsg{presets}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		ok, err := a.client.CheckHealth(ctx)
		return daemonStatusMsg{online: err == nil && ok}
	}
}

func (a *App) deleteSelected() tea.Cmd {
	item, ok := a.selected()
	if !ok {
		a.message = "No item selected"
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		if err := a.client.DeleteItem(ctx, item.ID); err != nil {
			return errMsg{err}
		}
		return resultMsg{"✓ Deleted " + item.Name}
	}
}

func (a *App) resetStatuses() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		n, err := a.client.ResetStatuses(ctx)
		if err != nil {
			return errMsg{err}
		}
		return resultMsg{fmt.Sprintf("✓ %d items marked missing", n)}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// --- Rendering ---

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ DAEMON")
	}
	b.WriteString(titleStyle.Render("Dark Horse Radar") + "  " + daemonStatus + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 1)) + "\n")

	b.WriteString(a.renderStats() + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(" "+a.view.Describe()) + "\n\n")

	contentHeight := max(a.height-12, 5)
	b.WriteString(a.renderItems(contentHeight))

	res := a.view.Result()
	b.WriteString("\n" + helpStyle.Render(fmt.Sprintf(" Page %d/%d · %d matched", res.Page, res.TotalPages, res.TotalMatched)))

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n" + a.cmdbar.View(a.width))
	if a.cmdbar.Focused() && a.suggestions.IsVisible() {
		b.WriteString("\n" + a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	status := " ↑↓:nav | J/K:reorder | o:reset order | ←→:page | s/S:sort | c:category | m:missing | e:essential | f:preset | x:clear | q:quit"
	b.WriteString(statusBarStyle.Width(a.width).Render(status))
	return b.String()
}

func (a *App) renderStats() string {
	st := a.view.Stats()
	complete := lipgloss.NewStyle().Foreground(successColor)
	if st.CompletionPercent < 100 {
		complete = lipgloss.NewStyle().Foreground(warningColor)
	}
	line := fmt.Sprintf(" %s detected  %s missing  %s essential missing  %s",
		detectedStyle.Render(strconv.Itoa(st.Detected)),
		missingStyle.Render(strconv.Itoa(st.Missing)),
		missingStyle.Render(strconv.Itoa(st.EssentialMissing)),
		complete.Render(fmt.Sprintf("%d%% ready", st.CompletionPercent)),
	)
	if len(st.Categories) > 0 {
		parts := make([]string, len(st.Categories))
		for i, c := range st.Categories {
			parts[i] = fmt.Sprintf("%s %d", c.Category, c.Count)
		}
		line += "\n " + lipgloss.NewStyle().Foreground(cyanColor).Render(strings.Join(parts, " · "))
	}
	return line
}

func (a *App) renderItems(height int) string {
	if !a.loaded {
		return "\n  Loading items...\n"
	}
	items := a.view.Result().Items
	if len(items) == 0 {
		if len(a.view.Items()) == 0 {
			return "\n  No items yet. Add one with: radar item add <name>\n"
		}
		return "\n  No items match the current filter.\n"
	}

	var lines []string
	for i, item := range items {
		if i == a.cursor {
			lines = append(lines, selectedStyle.Render("▶ "+formatItem(item, false)))
		} else {
			lines = append(lines, itemStyle.Render("  "+formatItem(item, true)))
		}
	}

	if len(lines) > height {
		start := max(0, a.cursor-height/2)
		end := min(start+height, len(lines))
		start = max(0, end-height)
		lines = lines[start:end]
	}
	return strings.Join(lines, "\n")
}

func formatItem(item models.Item, styled bool) string {
	status := formatStatus(item.Status, styled)
	mark := " "
	if item.IsEssential {
		mark = "★"
		if styled {
			mark = essentialMark
		}
	}
	seen := "never"
	if !item.LastSeen.IsZero() {
		seen = item.LastSeen.Local().Format("Jan 2 15:04")
	}
	line := fmt.Sprintf("%s %s %-24s %-14s %s", status, mark, truncate(item.Name, 24), truncate(item.Category, 14), seen)
	if item.Location != "" {
		line += " @ " + item.Location
	}
	return line
}

func formatStatus(status models.ItemStatus, styled bool) string {
	switch status {
	case models.ItemStatusDetected:
		if styled {
			return detectedStyle.Render("●")
		}
		return "●"
	case models.ItemStatusMissing:
		if styled {
			return missingStyle.Render("○")
		}
		return "○"
	default:
		return "?"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
