// Package styles contains Lip Gloss style definitions.
package styles

// ColorToken represents a named, themeable color.
type ColorToken string

// Color tokens organized by category.
// These are the keys users can override in their config.
const (
	// Text hierarchy
	TokenTextPrimary     ColorToken = "text.primary"
	TokenTextSecondary   ColorToken = "text.secondary"
	TokenTextMuted       ColorToken = "text.muted"
	TokenTextDescription ColorToken = "text.description"
	TokenTextPlaceholder ColorToken = "text.placeholder"

	// Borders
	TokenBorderDefault   ColorToken = "border.default"
	TokenBorderHighlight ColorToken = "border.highlight"

	// Status indicators
	TokenStatusSuccess ColorToken = "status.success"
	TokenStatusWarning ColorToken = "status.warning"
	TokenStatusError   ColorToken = "status.error"
	TokenStatusInfo    ColorToken = "status.info"

	// Grid
	TokenHeader              ColorToken = "grid.header"
	TokenRowCursor           ColorToken = "row.cursor"
	TokenRowSelected         ColorToken = "row.selected"
	TokenSelectionIndicator  ColorToken = "selection.indicator"
	TokenScrollbarThumb      ColorToken = "scrollbar.thumb"
	TokenScrollbarTrack      ColorToken = "scrollbar.track"

	// Media placeholders
	TokenMediaLoading ColorToken = "media.loading"
	TokenMediaFailed  ColorToken = "media.failed"

	// Overlays
	TokenOverlayTitle  ColorToken = "overlay.title"
	TokenOverlayBorder ColorToken = "overlay.border"

	// Misc
	TokenSpinner ColorToken = "spinner"
)

// AllTokens returns all valid color tokens for validation.
func AllTokens() []ColorToken {
	return []ColorToken{
		// Text hierarchy
		TokenTextPrimary,
		TokenTextSecondary,
		TokenTextMuted,
		TokenTextDescription,
		TokenTextPlaceholder,

		// Borders
		TokenBorderDefault,
		TokenBorderHighlight,

		// Status indicators
		TokenStatusSuccess,
		TokenStatusWarning,
		TokenStatusError,
		TokenStatusInfo,

		// Grid
		TokenHeader,
		TokenRowCursor,
		TokenRowSelected,
		TokenSelectionIndicator,
		TokenScrollbarThumb,
		TokenScrollbarTrack,

		// Media placeholders
		TokenMediaLoading,
		TokenMediaFailed,

		// Overlays
		TokenOverlayTitle,
		TokenOverlayBorder,

		// Misc
		TokenSpinner,
	}
}
