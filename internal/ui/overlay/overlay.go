// Package overlay composites modal content over a background view without
// clearing the screen, preserving ANSI styling on both sides.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the overlay content.
type Position int

const (
	// Center places the overlay in the center of the viewport.
	Center Position = iota
	// Top places the overlay at the top center of the viewport.
	Top
	// Bottom places the overlay at the bottom center of the viewport.
	Bottom
)

// Config controls overlay placement.
type Config struct {
	// Width and Height are the full viewport dimensions.
	Width  int
	Height int
	// Position selects the anchor.
	Position Position
	// PadY insets Top/Bottom placements from the edge.
	PadY int
}

// Place renders foreground content on top of background. Each foreground
// line replaces the background span it covers; the untouched left and right
// background segments are cut ANSI-aware so styling survives the splice.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	fgWidth := 0
	for _, line := range fgLines {
		if w := ansi.StringWidth(line); w > fgWidth {
			fgWidth = w
		}
	}

	startX, startY := anchor(cfg, fgWidth, len(fgLines))

	for i, fgLine := range fgLines {
		y := startY + i
		if y >= len(bgLines) {
			break
		}
		bgLines[y] = splice(bgLines[y], fgLine, startX)
	}

	return strings.Join(bgLines, "\n")
}

// splice replaces the span [startX, startX+width(fg)) of the background line
// with the foreground line.
func splice(bg, fg string, startX int) string {
	left := ansi.Truncate(bg, startX, "")
	if w := ansi.StringWidth(left); w < startX {
		left += strings.Repeat(" ", startX-w)
	}

	endX := startX + ansi.StringWidth(fg)
	var right string
	if endX < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, endX, "")
	}

	return left + fg + right
}

// anchor computes the top-left coordinate for the overlay.
func anchor(cfg Config, fgWidth, fgHeight int) (x, y int) {
	x = (cfg.Width - fgWidth) / 2
	switch cfg.Position {
	case Top:
		y = cfg.PadY
	case Bottom:
		y = cfg.Height - fgHeight - cfg.PadY
	default:
		y = (cfg.Height - fgHeight) / 2
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
