package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Assignments(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name     string
		binding  key.Binding
		expected []string
	}{
		{"Up uses k and up", km.Up, []string{"k", "up"}},
		{"Down uses j and down", km.Down, []string{"j", "down"}},
		{"PageUp uses ctrl+u and pgup", km.PageUp, []string{"ctrl+u", "pgup"}},
		{"PageDown uses ctrl+d and pgdown", km.PageDown, []string{"ctrl+d", "pgdown"}},
		{"Home uses g and home", km.Home, []string{"g", "home"}},
		{"End uses G and end", km.End, []string{"G", "end"}},
		{"Filter uses slash", km.Filter, []string{"/"}},
		{"Sort uses s", km.Sort, []string{"s"}},
		{"Select uses space", km.Select, []string{" "}},
		{"Preview uses enter", km.Preview, []string{"enter"}},
		{"ToggleVirtual uses v", km.ToggleVirtual, []string{"v"}},
		{"Quit uses q and ctrl+c", km.Quit, []string{"q", "ctrl+c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.binding.Keys())
		})
	}
}

func TestDefaultKeyMap_HelpTextDefined(t *testing.T) {
	km := DefaultKeyMap()

	for _, row := range km.FullHelp() {
		for _, b := range row {
			help := b.Help()
			require.NotEmpty(t, help.Key, "key help should not be empty")
			require.NotEmpty(t, help.Desc, "description help should not be empty")
		}
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()
	help := km.ShortHelp()
	require.Len(t, help, 2)
	require.Equal(t, km.Help.Keys(), help[0].Keys())
	require.Equal(t, km.Quit.Keys(), help[1].Keys())
}

func TestFilterKeyMap_EscapeClears(t *testing.T) {
	fm := DefaultFilterKeyMap()
	require.Equal(t, []string{"esc"}, fm.Blur.Keys())
	require.Equal(t, []string{"enter"}, fm.Execute.Keys())
	require.Equal(t, []string{"ctrl+c"}, fm.Quit.Keys(), "q must stay typeable in the filter input")
}
