package gridview

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/gridley/internal/config"
	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/ui/styles"
)

// minFlexWidth is the floor for flex columns when space runs out.
const minFlexWidth = 3

// Column defines a single grid column.
//
// Width configuration:
//   - Width: fixed width in characters (0 = flex/auto)
//   - MinWidth: minimum width for flex columns (0 = no minimum beyond 3)
//   - MaxWidth: maximum width for flex columns (0 = no limit)
//
// The Render callback receives the row, the column key, the resolved cell
// width, and whether the row is selected. Rendering must not exceed width;
// the grid truncates as a safety net.
type Column struct {
	Key      string // Unique identifier for data extraction
	Header   string // Column header text
	Width    int    // Fixed width (0 = flex/auto)
	MinWidth int    // Minimum width for flex columns
	MaxWidth int    // Maximum width (0 = no limit)
	Align    lipgloss.Position

	// HideBelow hides this column when total grid width falls below this
	// threshold. Zero always shows the column.
	HideBelow int

	// Render provides cell content rendering.
	Render func(row data.Row, key string, width int, selected bool) string
}

// ValidateColumns rejects column sets the grid cannot render.
func ValidateColumns(cols []Column) error {
	if len(cols) == 0 {
		return errors.New("gridview: at least one column is required")
	}
	for _, col := range cols {
		if col.Key == "" {
			return errors.New("gridview: column key must not be empty")
		}
		if col.Render == nil {
			return fmt.Errorf("gridview: column %q has nil Render callback", col.Key)
		}
	}
	return nil
}

// ColumnsFromConfig builds grid columns from the user's column configuration.
// Cells render the row's raw cell value for the column key.
func ColumnsFromConfig(cols []config.ColumnConfig) []Column {
	out := make([]Column, 0, len(cols))
	for _, cc := range cols {
		align := lipgloss.Left
		if cc.Align == "right" {
			align = lipgloss.Right
		}
		header := cc.Header
		if header == "" {
			header = cc.Key
		}
		out = append(out, Column{
			Key:       cc.Key,
			Header:    header,
			Width:     cc.Width,
			Align:     align,
			HideBelow: cc.HideBelow,
			Render:    renderCell,
		})
	}
	return out
}

// renderCell is the default cell renderer: the raw cell value, truncated.
func renderCell(row data.Row, key string, width int, _ bool) string {
	return styles.TruncateString(row.Cell(key), width)
}

// filterVisibleColumns drops columns whose HideBelow threshold exceeds the
// current total width.
func filterVisibleColumns(cols []Column, totalWidth int) []Column {
	visible := make([]Column, 0, len(cols))
	for _, col := range cols {
		if col.HideBelow > 0 && totalWidth < col.HideBelow {
			continue
		}
		visible = append(visible, col)
	}
	return visible
}

// calculateColumnWidths resolves per-column widths for the given inner width.
// Fixed-width columns take their width; remaining space is split evenly among
// flex columns, honoring MinWidth and MaxWidth. A single-space separator sits
// between adjacent columns.
func calculateColumnWidths(cols []Column, innerWidth int) []int {
	if len(cols) == 0 {
		return nil
	}

	widths := make([]int, len(cols))
	separators := len(cols) - 1
	remaining := innerWidth - separators

	// First pass: fixed columns
	flexCount := 0
	for i, col := range cols {
		if col.Width > 0 {
			widths[i] = col.Width
			remaining -= col.Width
		} else {
			flexCount++
		}
	}

	if flexCount == 0 {
		return widths
	}

	// Second pass: split the remainder among flex columns
	share := remaining / flexCount
	if share < minFlexWidth {
		share = minFlexWidth
	}
	extra := 0
	if remaining > share*flexCount {
		extra = remaining - share*flexCount
	}

	for i, col := range cols {
		if col.Width > 0 {
			continue
		}
		w := share
		if extra > 0 {
			w++
			extra--
		}
		if col.MinWidth > 0 && w < col.MinWidth {
			w = col.MinWidth
		}
		if col.MaxWidth > 0 && w > col.MaxWidth {
			w = col.MaxWidth
		}
		if w < minFlexWidth {
			w = minFlexWidth
		}
		widths[i] = w
	}

	return widths
}
