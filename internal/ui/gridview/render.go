package gridview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/grid"
	"github.com/zjrosen/gridley/internal/ui/styles"
)

// Row highlight styles are cached because they run once per rendered line.
// Rebuilt after theme changes via the styles rebuilder hook.
var (
	selectionBgStyle  lipgloss.Style
	cursorBgStyle     lipgloss.Style
	selectionBgPrefix string
	cursorBgPrefix    string
)

func init() {
	RebuildStyles()
	styles.RegisterStyleRebuilder(RebuildStyles)
}

// RebuildStyles recreates the cached highlight styles from the current theme.
func RebuildStyles() {
	selectionBgStyle = lipgloss.NewStyle().Background(styles.SelectionBackgroundColor)
	cursorBgStyle = lipgloss.NewStyle().Background(styles.CursorBackgroundColor)
	selectionBgPrefix = ansiPrefix(selectionBgStyle)
	cursorBgPrefix = ansiPrefix(cursorBgStyle)
}

// ansiPrefix extracts the opening escape sequence a style emits.
func ansiPrefix(style lipgloss.Style) string {
	rendered := style.Render(" ")
	return strings.TrimSuffix(rendered, " \x1b[0m")
}

// renderHeaderLine renders the sticky header row. The sorted column carries a
// direction indicator inside its cell width.
func renderHeaderLine(cols []Column, widths []int, sort data.SortSpec) string {
	if len(cols) == 0 || len(widths) == 0 {
		return ""
	}

	var parts []string
	for i, col := range cols {
		w := widths[i]
		header := col.Header

		if sort.Key == col.Key {
			switch sort.Direction {
			case data.SortAscending:
				header += " ▲"
			case data.SortDescending:
				header += " ▼"
			}
		}

		if lipgloss.Width(header) > w {
			header = styles.TruncateString(header, w)
		}

		parts = append(parts, alignText(header, w, col.Align))
	}

	return styles.HeaderStyle.Render(strings.Join(parts, " "))
}

// renderRowLine renders one data row's cells. Selection and cursor
// backgrounds are applied afterwards by the overlay helpers so cached window
// content stays highlight-free.
func renderRowLine(row data.Row, cols []Column, widths []int) string {
	if len(cols) == 0 || len(widths) == 0 {
		return ""
	}

	var result strings.Builder
	for i, col := range cols {
		w := widths[i]
		if i > 0 {
			result.WriteString(" ")
		}

		content := safeRender(row, col, w)
		if lipgloss.Width(content) > w {
			content = styles.TruncateString(content, w)
		}
		result.WriteString(alignText(content, w, col.Align))
	}

	return result.String()
}

// safeRender invokes the column's Render callback with panic recovery. A
// panicking callback yields an error marker instead of crashing the frame.
func safeRender(row data.Row, col Column, width int) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = styles.TruncateString("!ERR", width)
		}
	}()

	if col.Render == nil {
		return ""
	}
	return col.Render(row, col.Key, width, false)
}

// mediaGlyph maps a media load state to its one-cell indicator.
func mediaGlyph(state grid.MediaState) string {
	switch state {
	case grid.MediaLoading:
		return styles.MediaLoadingStyle.Render("◌")
	case grid.MediaLoaded:
		return lipgloss.NewStyle().Foreground(styles.StatusSuccessColor).Render("●")
	case grid.MediaFailed:
		return styles.MediaFailedStyle.Render("✗")
	default:
		return " "
	}
}

// applyRowBackground paints a background over a line that may already carry
// foreground styling, padding to fullWidth so the highlight reaches the right
// edge. ANSI resets inside the content are rewritten to restore the
// background instead of dropping it.
func applyRowBackground(line string, fullWidth int, bgStyle lipgloss.Style, bgPrefix string) string {
	var content string
	if !strings.Contains(line, "\x1b[") {
		content = bgStyle.Render(line)
	} else {
		withBg := strings.ReplaceAll(line, "\x1b[0m", "\x1b[0m"+bgPrefix)
		content = bgPrefix + withBg + "\x1b[0m"
	}

	lineWidth := lipgloss.Width(line)
	if lineWidth < fullWidth {
		content += bgStyle.Render(strings.Repeat(" ", fullWidth-lineWidth))
	}
	return content
}

// applySelected paints the selected-row background.
func applySelected(line string, fullWidth int) string {
	return applyRowBackground(line, fullWidth, selectionBgStyle, selectionBgPrefix)
}

// applyCursor paints the cursor-row background.
func applyCursor(line string, fullWidth int) string {
	return applyRowBackground(line, fullWidth, cursorBgStyle, cursorBgPrefix)
}

// renderScrollbar builds a one-column scrollbar track of trackHeight cells.
// The thumb spans trackHeight*visible/total cells (minimum one) positioned
// proportionally to the scroll offset.
func renderScrollbar(trackHeight, totalRows, visibleRows, offsetRow int) []string {
	cells := make([]string, trackHeight)
	if trackHeight <= 0 {
		return cells
	}

	track := styles.ScrollbarTrackStyle.Render("░")
	thumb := styles.ScrollbarThumbStyle.Render("█")

	if totalRows <= visibleRows || totalRows == 0 {
		for i := range cells {
			cells[i] = track
		}
		return cells
	}

	thumbHeight := trackHeight * visibleRows / totalRows
	if thumbHeight < 1 {
		thumbHeight = 1
	}
	if thumbHeight > trackHeight {
		thumbHeight = trackHeight
	}

	maxOffset := totalRows - visibleRows
	if offsetRow > maxOffset {
		offsetRow = maxOffset
	}
	if offsetRow < 0 {
		offsetRow = 0
	}

	thumbStart := 0
	if maxOffset > 0 {
		thumbStart = offsetRow * (trackHeight - thumbHeight) / maxOffset
	}

	for i := range cells {
		if i >= thumbStart && i < thumbStart+thumbHeight {
			cells[i] = thumb
		} else {
			cells[i] = track
		}
	}
	return cells
}

// renderEmptyState renders the centered placeholder for an empty collection.
func renderEmptyState(msg string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if msg == "" {
		msg = "No rows"
	}

	styledMsg := lipgloss.NewStyle().
		Foreground(styles.TextMutedColor).
		Render(msg)

	msgWidth := lipgloss.Width(styledMsg)
	if msgWidth > width {
		styledMsg = styles.TruncateString(msg, width)
		msgWidth = lipgloss.Width(styledMsg)
	}

	leftPad := max((width-msgWidth)/2, 0)
	centeredLine := strings.Repeat(" ", leftPad) + styledMsg

	topPad := max((height-1)/2, 0)

	var lines []string
	for range topPad {
		lines = append(lines, "")
	}
	lines = append(lines, centeredLine)
	remaining := height - topPad - 1
	for range remaining {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// alignText aligns text within the given width according to position.
func alignText(text string, width int, align lipgloss.Position) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}

	padding := width - textWidth

	switch align {
	case lipgloss.Right:
		return strings.Repeat(" ", padding) + text
	case lipgloss.Center:
		leftPad := padding / 2
		rightPad := padding - leftPad
		return strings.Repeat(" ", leftPad) + text + strings.Repeat(" ", rightPad)
	default: // lipgloss.Left
		return text + strings.Repeat(" ", padding)
	}
}
