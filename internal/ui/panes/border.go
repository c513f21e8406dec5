// Package panes contains reusable bordered pane UI components.
package panes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/gridley/internal/ui/styles"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// BorderConfig configures the appearance of a bordered panel.
type BorderConfig struct {
	// Required fields
	Content string // The content to render inside the border
	Width   int    // Total width including borders
	Height  int    // Total height including borders

	// Title placement (all optional)
	TopLeft     string // Title on top border, left-aligned
	TopRight    string // Title on top border, right-aligned
	BottomLeft  string // Title on bottom border, left-aligned
	BottomRight string // Title on bottom border, right-aligned

	// Styling
	Focused            bool                   // Whether the panel has focus
	TitleColor         lipgloss.TerminalColor // Color for title text
	BorderColor        lipgloss.TerminalColor // Border color when not focused
	FocusedBorderColor lipgloss.TerminalColor // Border color when focused
}

// BorderedPane renders content within a bordered panel with optional titles
// embedded in the top and bottom border lines.
//
// Nil color fallback rules:
//   - Both BorderColor and FocusedBorderColor nil: use BorderDefaultColor for both states
//   - BorderColor set, FocusedBorderColor nil: inherit BorderColor for focused state
//   - BorderColor nil, FocusedBorderColor set: unfocused uses BorderDefaultColor, focused uses specified
//   - Both set: use appropriately based on Focused flag
func BorderedPane(cfg BorderConfig) string {
	borderColor := resolveBorderColor(cfg.BorderColor, cfg.FocusedBorderColor, cfg.Focused)

	titleColor := cfg.TitleColor
	if titleColor == nil {
		titleColor = styles.BorderDefaultColor
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(titleColor)

	// Inner width excludes the two border characters.
	innerWidth := max(cfg.Width-2, 1)

	topBorder := buildTitledBorder(borderTopLeft, borderTopRight, cfg.TopLeft, cfg.TopRight, innerWidth, borderStyle, titleStyle)
	bottomBorder := buildTitledBorder(borderBottomLeft, borderBottomRight, cfg.BottomLeft, cfg.BottomRight, innerWidth, borderStyle, titleStyle)

	contentHeight := max(cfg.Height-2, 1)

	// Lipgloss constrains the content box (wrapping and truncation).
	contentStyle := lipgloss.NewStyle().Width(innerWidth).Height(contentHeight)
	constrainedContent := contentStyle.Render(cfg.Content)

	contentLines := strings.Split(constrainedContent, "\n")
	paddedLines := make([]string, contentHeight)

	for i := range contentHeight {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}

		// Pad line to innerWidth so the right border aligns
		lineWidth := lipgloss.Width(line)
		if lineWidth < innerWidth {
			line = line + strings.Repeat(" ", innerWidth-lineWidth)
		}

		paddedLines[i] = borderStyle.Render(borderVertical) + line + borderStyle.Render(borderVertical)
	}

	var result strings.Builder
	result.WriteString(topBorder)
	result.WriteString("\n")
	result.WriteString(strings.Join(paddedLines, "\n"))
	result.WriteString("\n")
	result.WriteString(bottomBorder)

	return result.String()
}

// resolveBorderColor implements the nil color fallback logic for border colors.
func resolveBorderColor(borderColor, focusedBorderColor lipgloss.TerminalColor, focused bool) lipgloss.TerminalColor {
	if borderColor == nil && focusedBorderColor == nil {
		return styles.BorderDefaultColor
	}
	if borderColor != nil && focusedBorderColor == nil {
		return borderColor
	}
	if borderColor == nil {
		if focused {
			return focusedBorderColor
		}
		return styles.BorderDefaultColor
	}
	if focused {
		return focusedBorderColor
	}
	return borderColor
}

// buildTitledBorder creates a horizontal border line with optional titles on
// the left and right. Format: ╭─ Left ─────────────── Right ─╮
// The same builder handles top and bottom lines; only the corners differ.
func buildTitledBorder(leftCorner, rightCorner, leftTitle, rightTitle string, innerWidth int, borderStyle, titleStyle lipgloss.Style) string {
	if innerWidth < 1 {
		return borderStyle.Render(leftCorner + rightCorner)
	}

	plain := func() string {
		return borderStyle.Render(leftCorner + strings.Repeat(borderHorizontal, innerWidth) + rightCorner)
	}

	if leftTitle == "" && rightTitle == "" {
		return plain()
	}

	leftWidth := lipgloss.Width(leftTitle)
	rightWidth := lipgloss.Width(rightTitle)

	// Space for "─ Left " and " Right ─" plus at least one middle dash.
	minRequired := 1
	if leftTitle != "" {
		minRequired += leftWidth + 3
	}
	if rightTitle != "" {
		minRequired += rightWidth + 3
	}

	if innerWidth < minRequired {
		// Too narrow for both; try the left title alone, then give up.
		if leftTitle != "" && rightTitle != "" {
			return buildTitledBorder(leftCorner, rightCorner, leftTitle, "", innerWidth, borderStyle, titleStyle)
		}
		if leftTitle != "" && innerWidth >= 4 {
			truncated := styles.TruncateString(leftTitle, innerWidth-4)
			dashes := max(innerWidth-lipgloss.Width(truncated)-3, 0)
			return borderStyle.Render(leftCorner+borderHorizontal+" ") +
				titleStyle.Render(truncated) +
				borderStyle.Render(" "+strings.Repeat(borderHorizontal, dashes)+rightCorner)
		}
		return plain()
	}

	var middleDashes int
	switch {
	case leftTitle != "" && rightTitle != "":
		middleDashes = innerWidth - leftWidth - rightWidth - 6
	case leftTitle != "":
		middleDashes = innerWidth - leftWidth - 3
	default:
		middleDashes = innerWidth - rightWidth - 3
	}
	middleDashes = max(middleDashes, 1)

	var result strings.Builder
	result.WriteString(borderStyle.Render(leftCorner))

	if leftTitle != "" {
		result.WriteString(borderStyle.Render(borderHorizontal + " "))
		result.WriteString(titleStyle.Render(leftTitle))
		result.WriteString(borderStyle.Render(" "))
	}

	result.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, middleDashes)))

	if rightTitle != "" {
		result.WriteString(borderStyle.Render(" "))
		result.WriteString(titleStyle.Render(rightTitle))
		result.WriteString(borderStyle.Render(" " + borderHorizontal))
	}

	result.WriteString(borderStyle.Render(rightCorner))

	return result.String()
}
