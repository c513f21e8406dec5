// Package styles contains Lip Gloss style definitions.
package styles

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styleRebuilders holds callbacks to rebuild styles in other packages.
// This avoids import cycles (styles can't import gridview, but gridview can register).
var styleRebuilders []func()

// RegisterStyleRebuilder adds a callback that will be called after ApplyTheme
// updates colors. Use this to rebuild styles in packages that depend on styles.
func RegisterStyleRebuilder(fn func()) {
	styleRebuilders = append(styleRebuilders, fn)
}

// ThemeConfig mirrors config.ThemeConfig to avoid circular imports.
type ThemeConfig struct {
	Mode   string
	Colors map[string]string
}

// ApplyTheme applies a complete theme configuration.
// Order of application:
// 1. Apply the background mode (dark/light/auto)
// 2. Apply individual color overrides
// 3. Rebuild all Style objects
func ApplyTheme(cfg ThemeConfig) error {
	switch cfg.Mode {
	case "", "auto":
		// lipgloss detects the terminal background
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		return fmt.Errorf("unknown theme mode: %s", cfg.Mode)
	}

	for key, value := range cfg.Colors {
		token := ColorToken(key)
		if !isValidToken(token) {
			return fmt.Errorf("unknown color token: %s", key)
		}
		if !isValidHexColor(value) {
			return fmt.Errorf("invalid hex color for %s: %s", key, value)
		}
		applyColor(token, value)
	}

	rebuildStyles()

	return nil
}

func applyColor(token ColorToken, hex string) {
	// Overrides use the same color for both background modes.
	c := lipgloss.AdaptiveColor{Light: hex, Dark: hex}

	switch token {
	// Text hierarchy
	case TokenTextPrimary:
		TextPrimaryColor = c
	case TokenTextSecondary:
		TextSecondaryColor = c
	case TokenTextMuted:
		TextMutedColor = c
	case TokenTextDescription:
		TextDescriptionColor = c
	case TokenTextPlaceholder:
		TextPlaceholderColor = c

	// Borders
	case TokenBorderDefault:
		BorderDefaultColor = c
	case TokenBorderHighlight:
		BorderHighlightFocusColor = c

	// Status
	case TokenStatusSuccess:
		StatusSuccessColor = c
	case TokenStatusWarning:
		StatusWarningColor = c
	case TokenStatusError:
		StatusErrorColor = c
	case TokenStatusInfo:
		StatusInfoColor = c

	// Grid
	case TokenHeader:
		HeaderColor = c
	case TokenRowCursor:
		CursorBackgroundColor = c
	case TokenRowSelected:
		SelectionBackgroundColor = c
	case TokenSelectionIndicator:
		SelectionIndicatorColor = c
	case TokenScrollbarThumb:
		ScrollbarThumbColor = c
	case TokenScrollbarTrack:
		ScrollbarTrackColor = c

	// Media
	case TokenMediaLoading:
		MediaLoadingColor = c
	case TokenMediaFailed:
		MediaFailedColor = c

	// Overlays
	case TokenOverlayTitle:
		OverlayTitleColor = c
	case TokenOverlayBorder:
		OverlayBorderColor = c

	// Misc
	case TokenSpinner:
		SpinnerColor = c
	}
}

// rebuildStyles recreates all Style objects with updated colors.
// This is necessary because lipgloss.Style objects capture colors at creation time.
func rebuildStyles() {
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(HeaderColor)
	CursorStyle = lipgloss.NewStyle().Background(CursorBackgroundColor)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	ScrollbarThumbStyle = lipgloss.NewStyle().Foreground(ScrollbarThumbColor)
	ScrollbarTrackStyle = lipgloss.NewStyle().Foreground(ScrollbarTrackColor)

	MediaLoadingStyle = lipgloss.NewStyle().Foreground(MediaLoadingColor)
	MediaFailedStyle = lipgloss.NewStyle().Foreground(MediaFailedColor)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(TextSecondaryColor).
		Padding(0, 1)

	PerfStatsStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	OverlayTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(OverlayTitleColor)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(StatusErrorColor).
		Bold(true).
		Padding(1, 2)

	// Call registered rebuilders (e.g., gridview.RebuildStyles)
	for _, fn := range styleRebuilders {
		fn()
	}
}

func isValidToken(token ColorToken) bool {
	return slices.Contains(AllTokens(), token)
}

func isValidHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	if len(hex) != 3 && len(hex) != 6 {
		return false
	}
	_, err := strconv.ParseUint(hex, 16, 64)
	return err == nil
}
