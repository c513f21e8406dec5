package data

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func baseCollection() *Collection {
	rows := []Row{
		{ID: "r1", Cells: map[string]string{"name": "Widget", "category": "tools", "amount": "10"}},
		{ID: "r2", Cells: map[string]string{"name": "gadget", "category": "tools", "amount": "2"}},
		{ID: "r3", Cells: map[string]string{"name": "Gizmo", "category": "toys", "amount": "2"}},
		{ID: "r4", Cells: map[string]string{"name": "doohickey", "category": "toys", "amount": "100"}},
	}
	return NewCollection(rows)
}

func ids(c *Collection) []string {
	out := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		out = append(out, c.At(i).ID)
	}
	return out
}

func TestPipelineSort(t *testing.T) {
	t.Run("ascending is case-insensitive", func(t *testing.T) {
		p := Pipeline{Sort: SortSpec{Key: "name", Direction: SortAscending}}
		c := p.Apply(baseCollection())
		require.Equal(t, []string{"r4", "r2", "r3", "r1"}, ids(c))
	})

	t.Run("descending reverses the order", func(t *testing.T) {
		p := Pipeline{Sort: SortSpec{Key: "name", Direction: SortDescending}}
		c := p.Apply(baseCollection())
		require.Equal(t, []string{"r1", "r3", "r2", "r4"}, ids(c))
	})

	t.Run("numeric cells sort numerically", func(t *testing.T) {
		p := Pipeline{Sort: SortSpec{Key: "amount", Direction: SortAscending}}
		c := p.Apply(baseCollection())
		require.Equal(t, []string{"r2", "r3", "r1", "r4"}, ids(c))
	})

	t.Run("stable on ties", func(t *testing.T) {
		p := Pipeline{Sort: SortSpec{Key: "category", Direction: SortAscending}}
		c := p.Apply(baseCollection())
		// r1/r2 tie on "tools", r3/r4 tie on "toys": base order preserved.
		require.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids(c))
	})

	t.Run("no sort preserves base order", func(t *testing.T) {
		c := Pipeline{}.Apply(baseCollection())
		require.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids(c))
	})
}

func TestPipelineFilter(t *testing.T) {
	t.Run("case-insensitive substring across all cells", func(t *testing.T) {
		p := Pipeline{Filter: "GIZ"}
		c := p.Apply(baseCollection())
		require.Equal(t, []string{"r3"}, ids(c))
	})

	t.Run("restricted to named keys", func(t *testing.T) {
		p := Pipeline{Filter: "toy", FilterKeys: []string{"name"}}
		require.Equal(t, 0, p.Apply(baseCollection()).Len())

		p.FilterKeys = []string{"category"}
		require.Equal(t, 2, p.Apply(baseCollection()).Len())
	})

	t.Run("blank filter matches everything", func(t *testing.T) {
		p := Pipeline{Filter: "   "}
		require.Equal(t, 4, p.Apply(baseCollection()).Len())
	})

	t.Run("result reports the base total", func(t *testing.T) {
		p := Pipeline{Filter: "tools"}
		c := p.Apply(baseCollection())
		require.Equal(t, 2, c.Len())
		require.Equal(t, 4, c.BaseTotal())
	})
}

func TestPipelinePagination(t *testing.T) {
	rows := make([]Row, 10)
	for i := range rows {
		rows[i] = Row{ID: fmt.Sprintf("r%d", i), Cells: map[string]string{}}
	}
	base := NewCollection(rows)

	t.Run("page slicing", func(t *testing.T) {
		p := Pipeline{PageSize: 3, Page: 1}
		require.Equal(t, []string{"r3", "r4", "r5"}, ids(p.Apply(base)))
	})

	t.Run("last partial page", func(t *testing.T) {
		p := Pipeline{PageSize: 3, Page: 3}
		require.Equal(t, []string{"r9"}, ids(p.Apply(base)))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		p := Pipeline{PageSize: 3, Page: 10}
		require.Equal(t, 0, p.Apply(base).Len())
	})

	t.Run("size zero disables pagination", func(t *testing.T) {
		p := Pipeline{PageSize: 0, Page: 5}
		require.Equal(t, 10, p.Apply(base).Len())
	})

	t.Run("negative page clamps to the first", func(t *testing.T) {
		p := Pipeline{PageSize: 3, Page: -2}
		require.Equal(t, []string{"r0", "r1", "r2"}, ids(p.Apply(base)))
	})

	t.Run("page count", func(t *testing.T) {
		p := Pipeline{PageSize: 3}
		require.Equal(t, 4, p.PageCount(10))
		require.Equal(t, 1, p.PageCount(0))
		require.Equal(t, 1, Pipeline{}.PageCount(10))
	})
}

func TestPipelineComposition(t *testing.T) {
	// Filter then sort then paginate, identity preserved throughout.
	p := Pipeline{
		Sort:     SortSpec{Key: "amount", Direction: SortDescending},
		Filter:   "tools",
		PageSize: 1,
		Page:     0,
	}
	c := p.Apply(baseCollection())
	require.Equal(t, []string{"r1"}, ids(c))
	require.Equal(t, 0, c.IndexOf("r1"))
	require.Equal(t, -1, c.IndexOf("r2")) // on page 2
	require.Equal(t, -1, c.IndexOf("r3")) // filtered out
}

func TestSortDirectionCycle(t *testing.T) {
	require.Equal(t, SortAscending, SortNone.Next())
	require.Equal(t, SortDescending, SortAscending.Next())
	require.Equal(t, SortNone, SortDescending.Next())
}

func TestRowIdentity(t *testing.T) {
	t.Run("named identity field wins", func(t *testing.T) {
		row := RowFromCells(map[string]string{"id": "abc", "name": "x"}, "")
		require.Equal(t, "abc", row.ID)
	})

	t.Run("configurable identity field", func(t *testing.T) {
		row := RowFromCells(map[string]string{"guid": "g-1", "id": "abc"}, "guid")
		require.Equal(t, "g-1", row.ID)
	})

	t.Run("missing identity generates a uuid", func(t *testing.T) {
		a := RowFromCells(map[string]string{"name": "x"}, "")
		b := RowFromCells(map[string]string{"name": "x"}, "")
		require.NotEmpty(t, a.ID)
		require.NotEqual(t, a.ID, b.ID)
	})
}

func TestCollectionLookups(t *testing.T) {
	c := baseCollection()
	require.Equal(t, 4, c.Len())
	require.Equal(t, 2, c.IndexOf("r3"))
	require.Equal(t, -1, c.IndexOf("missing"))
	require.Equal(t, "Widget", c.At(0).Cell("name"))
	require.Empty(t, c.At(0).Cell("nope"))

	var nilC *Collection
	require.Equal(t, 0, nilC.Len())
	require.Equal(t, -1, nilC.IndexOf("r1"))
}
