// Package logoverlay is the in-app log viewer: recent entries from the log
// buffer, filterable by level and category, without leaving the TUI.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/ui/overlay"
	"github.com/zjrosen/gridley/internal/ui/panes"
	"github.com/zjrosen/gridley/internal/ui/styles"
)

const (
	viewportMaxHeight = 25
	viewportMinHeight = 5
	boxMaxWidth       = 160
	boxMinWidth       = 40

	// bufferFetch is large enough to cover the whole log ring.
	bufferFetch = 10000
)

// categories the tab key cycles through; "" means all.
var categoryCycle = []log.Category{
	"",
	log.CatGrid,
	log.CatRender,
	log.CatScroll,
	log.CatData,
	log.CatMedia,
	log.CatDB,
	log.CatCache,
	log.CatConfig,
	log.CatWatcher,
	log.CatUI,
	log.CatTrace,
}

// CloseMsg is sent when the overlay should be closed.
type CloseMsg struct{}

// Model is the log overlay component state.
type Model struct {
	visible  bool
	minLevel log.Level
	category log.Category
	width    int
	height   int
	viewport viewport.Model
}

// New creates a hidden log overlay.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// NewWithSize creates a hidden log overlay with known dimensions.
func NewWithSize(width, height int) Model {
	return Model{
		minLevel: log.LevelDebug,
		width:    width,
		height:   height,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the log overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			log.ClearBuffer()
			m.refreshViewport()
			return m, nil

		case "d":
			m.minLevel = log.LevelDebug
			m.refreshViewport()
			return m, nil

		case "i":
			m.minLevel = log.LevelInfo
			m.refreshViewport()
			return m, nil

		case "w":
			m.minLevel = log.LevelWarn
			m.refreshViewport()
			return m, nil

		case "e":
			m.minLevel = log.LevelError
			m.refreshViewport()
			return m, nil

		case "tab":
			m.category = nextCategory(m.category)
			m.refreshViewport()
			return m, nil

		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil

		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil

		case "g":
			m.viewport.GotoTop()
			return m, nil

		case "G":
			m.viewport.GotoBottom()
			return m, nil

		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+l", "esc":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refreshViewport()
	}

	return m, nil
}

// View renders the log overlay box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	boxWidth := m.boxWidth()
	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", m.contentWidth()))

	content := m.viewport.View() + "\n" + divider + "\n" + m.buildFilterHint()

	return panes.BorderedPane(panes.BorderConfig{
		Content:     content,
		Width:       boxWidth,
		Height:      m.viewport.Height + 4,
		TopLeft:     "Logs",
		TopRight:    m.filterLabel(),
		TitleColor:  styles.OverlayTitleColor,
		BorderColor: styles.OverlayBorderColor,
	})
}

// Overlay renders the log overlay centered on the given background.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

// Visible returns whether the overlay is currently visible.
func (m Model) Visible() bool {
	return m.visible
}

// Toggle toggles the overlay visibility.
func (m *Model) Toggle() {
	m.visible = !m.visible
	if m.visible {
		m.refreshViewport()
	}
}

// Show makes the overlay visible.
func (m *Model) Show() {
	m.visible = true
	m.refreshViewport()
}

// Hide makes the overlay invisible.
func (m *Model) Hide() {
	m.visible = false
}

// SetSize updates the overlay's knowledge of viewport size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refreshViewport()
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, boxMaxWidth), boxMinWidth)
}

func (m Model) contentWidth() int {
	return m.boxWidth() - 2
}

// refreshViewport rebuilds the viewport with the current filters applied.
func (m *Model) refreshViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}

	contentWidth := m.contentWidth()

	// Borders, titles, divider, and hint take 6 lines of overhead.
	maxAllowed := m.height - 6
	viewportHeight := min(viewportMaxHeight, maxAllowed)
	viewportHeight = max(viewportHeight, viewportMinHeight)

	m.viewport = viewport.New(contentWidth, viewportHeight)
	m.viewport.SetContent(m.buildLogContent(contentWidth))
	m.viewport.GotoBottom()
}

// getFilteredLogs returns buffered entries matching the level and category
// filters, oldest first.
func (m Model) getFilteredLogs() []string {
	var filtered []string
	for _, entry := range log.GetRecentLogs(bufferFetch) {
		if m.matchesLevel(entry) && m.matchesCategory(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func (m Model) buildLogContent(contentWidth int) string {
	filtered := m.getFilteredLogs()

	if len(filtered) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			Italic(true).
			Render("No logs to display")
	}

	lines := make([]string, 0, len(filtered))
	for _, entry := range filtered {
		lines = append(lines, colorizeEntry(entry, contentWidth))
	}
	return strings.Join(lines, "\n")
}

// matchesLevel reports whether an entry's level passes the minimum filter.
// Entries without a recognizable level tag are always shown.
func (m Model) matchesLevel(entry string) bool {
	var entryLevel log.Level
	switch {
	case strings.Contains(entry, "[ERROR]"):
		entryLevel = log.LevelError
	case strings.Contains(entry, "[WARN]"):
		entryLevel = log.LevelWarn
	case strings.Contains(entry, "[INFO]"):
		entryLevel = log.LevelInfo
	case strings.Contains(entry, "[DEBUG]"):
		entryLevel = log.LevelDebug
	default:
		return true
	}
	return entryLevel >= m.minLevel
}

// matchesCategory reports whether an entry carries the active category tag.
func (m Model) matchesCategory(entry string) bool {
	if m.category == "" {
		return true
	}
	return strings.Contains(entry, "["+string(m.category)+"]")
}

// colorizeEntry applies level-based color, truncating ANSI-aware.
func colorizeEntry(entry string, maxWidth int) string {
	entry = strings.TrimSuffix(entry, "\n")

	if ansi.StringWidth(entry) > maxWidth {
		entry = ansi.Truncate(entry, maxWidth-3, "...")
	}

	var style lipgloss.Style
	switch {
	case strings.Contains(entry, "[ERROR]"):
		style = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	case strings.Contains(entry, "[WARN]"):
		style = lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	case strings.Contains(entry, "[INFO]"):
		style = lipgloss.NewStyle().Foreground(styles.StatusInfoColor)
	case strings.Contains(entry, "[DEBUG]"):
		style = lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	default:
		style = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)
	}

	return style.Render(entry)
}

// filterLabel summarizes the active filters for the title bar.
func (m Model) filterLabel() string {
	label := levelName(m.minLevel)
	if m.category != "" {
		label += " · " + string(m.category)
	}
	return label
}

func levelName(l log.Level) string {
	switch l {
	case log.LevelError:
		return "error"
	case log.LevelWarn:
		return "warn"
	case log.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

func nextCategory(current log.Category) log.Category {
	for i, c := range categoryCycle {
		if c == current {
			return categoryCycle[(i+1)%len(categoryCycle)]
		}
	}
	return ""
}

// buildFilterHint creates the footer hint; the active level is highlighted.
func (m Model) buildFilterHint() string {
	hintStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	activeStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimaryColor).
		Bold(true)

	levels := []struct {
		key   string
		label string
		level log.Level
	}{
		{"d", "Debug", log.LevelDebug},
		{"i", "Info", log.LevelInfo},
		{"w", "Warn", log.LevelWarn},
		{"e", "Error", log.LevelError},
	}

	hints := []string{hintStyle.Render("[c] Clear")}
	for _, l := range levels {
		hint := "[" + l.key + "] " + l.label
		if m.minLevel == l.level {
			hints = append(hints, activeStyle.Render(hint))
		} else {
			hints = append(hints, hintStyle.Render(hint))
		}
	}
	hints = append(hints, hintStyle.Render("[tab] Category"))

	return strings.Join(hints, "  ")
}
