// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#BBBBBB"} // Row IDs, secondary info
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"} // Description/body text
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Semantic color names - Border
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused borders
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focused pane border

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"} // Success states
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"} // Warnings
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"} // Errors
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Informational

	// Grid header
	HeaderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	// Row highlight colors
	CursorBackgroundColor    = lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#333333"} // Row under the cursor
	SelectionIndicatorColor  = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"} // "▌" marker on selected rows
	SelectionBackgroundColor = lipgloss.AdaptiveColor{Light: "#B8D4F0", Dark: "#264F78"} // Selected row background

	// Scrollbar
	ScrollbarThumbColor = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#8C8C8C"}
	ScrollbarTrackColor = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2D2D2D"}

	// Media placeholders
	MediaLoadingColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	MediaFailedColor  = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Overlay colors
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#8C8C8C"}

	// Misc
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#FF79C6", Dark: "#FF79C6"}

	// Grid header row (sticky above the data rows)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(HeaderColor)

	// Row under the cursor
	CursorStyle = lipgloss.NewStyle().Background(CursorBackgroundColor)

	// Selection marker (prefix on selected rows)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	// Scrollbar glyph styles
	ScrollbarThumbStyle = lipgloss.NewStyle().Foreground(ScrollbarThumbColor)
	ScrollbarTrackStyle = lipgloss.NewStyle().Foreground(ScrollbarTrackColor)

	// Media placeholder styles
	MediaLoadingStyle = lipgloss.NewStyle().Foreground(MediaLoadingColor)
	MediaFailedStyle  = lipgloss.NewStyle().Foreground(MediaFailedColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Perf figures inside the status bar
	PerfStatsStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Overlay section headings
	OverlayTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(OverlayTitleColor)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)
)
