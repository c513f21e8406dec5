package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func background(width, height int) string {
	return strings.TrimSuffix(strings.Repeat(strings.Repeat(".", width)+"\n", height), "\n")
}

func TestPlace_Center(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Center}, "XX", bg)

	lines := strings.Split(out, "\n")
	require.Equal(t, "....XX....", lines[2])
	require.Equal(t, "..........", lines[0])
	require.Equal(t, "..........", lines[4])
}

func TestPlace_Top(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Top, PadY: 1}, "XX", bg)

	lines := strings.Split(out, "\n")
	require.Equal(t, "....XX....", lines[1])
}

func TestPlace_Bottom(t *testing.T) {
	bg := background(10, 5)
	out := Place(Config{Width: 10, Height: 5, Position: Bottom, PadY: 1}, "XX", bg)

	lines := strings.Split(out, "\n")
	require.Equal(t, "....XX....", lines[3])
}

func TestPlace_MultiLineForeground(t *testing.T) {
	bg := background(8, 4)
	out := Place(Config{Width: 8, Height: 4, Position: Center}, "AA\nBB", bg)

	lines := strings.Split(out, "\n")
	require.Equal(t, "...AA...", lines[1])
	require.Equal(t, "...BB...", lines[2])
}

func TestPlace_PadsShortBackground(t *testing.T) {
	out := Place(Config{Width: 6, Height: 4, Position: Center}, "XX", "ab")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "  XX  ", lines[1])
}

func TestPlace_ForegroundTallerThanViewport(t *testing.T) {
	bg := background(6, 2)
	out := Place(Config{Width: 6, Height: 2, Position: Center}, "A\nB\nC\nD", bg)

	require.Len(t, strings.Split(out, "\n"), 2)
}

func TestPlace_PreservesStyledBackground(t *testing.T) {
	styled := "\x1b[31m" + strings.Repeat("r", 10) + "\x1b[0m"
	bg := styled + "\n" + styled + "\n" + styled
	out := Place(Config{Width: 10, Height: 3, Position: Center}, "XX", bg)

	lines := strings.Split(out, "\n")
	require.Contains(t, lines[1], "XX")
	require.Contains(t, lines[0], "\x1b[31m")
}

func TestSplice_WiderForegroundCoversLine(t *testing.T) {
	require.Equal(t, "XXXXXX", splice("....", "XXXXXX", 0))
}
