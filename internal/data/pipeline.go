package data

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zjrosen/gridley/internal/log"
)

// SortDirection orders a sorted column.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

// Next cycles none -> ascending -> descending -> none.
func (d SortDirection) Next() SortDirection {
	switch d {
	case SortNone:
		return SortAscending
	case SortAscending:
		return SortDescending
	default:
		return SortNone
	}
}

func (d SortDirection) String() string {
	switch d {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return "none"
	}
}

// SortSpec names the sorted column and direction.
type SortSpec struct {
	Key       string
	Direction SortDirection
}

// Pipeline derives the collection the grid renders: stable sort, then
// case-insensitive substring filter, then pagination. Each Apply produces a
// fresh Collection; the base set is never mutated.
type Pipeline struct {
	Sort   SortSpec
	Filter string

	// PageSize enables pagination when positive; Page is zero-based.
	PageSize int
	Page     int

	// FilterKeys are the column keys the filter matches against. Empty
	// matches every cell.
	FilterKeys []string
}

// Apply runs the pipeline over the base collection.
func (p Pipeline) Apply(base *Collection) *Collection {
	if base == nil {
		return NewCollection(nil)
	}

	rows := make([]Row, base.Len())
	for i := 0; i < base.Len(); i++ {
		rows[i] = base.At(i)
	}

	rows = p.filter(rows)
	p.sort(rows)
	rows = p.paginate(rows)

	out := NewCollection(rows).withBaseTotal(base.Len())
	log.Debug(log.CatData, "pipeline applied",
		"base", base.Len(), "result", out.Len(),
		"sort", p.Sort.Key, "dir", p.Sort.Direction.String(),
		"filter", p.Filter, "page", p.Page)
	return out
}

func (p Pipeline) filter(rows []Row) []Row {
	query := strings.ToLower(strings.TrimSpace(p.Filter))
	if query == "" {
		return rows
	}

	out := rows[:0:len(rows)]
	for _, row := range rows {
		if p.rowMatches(row, query) {
			out = append(out, row)
		}
	}
	return out
}

func (p Pipeline) rowMatches(row Row, query string) bool {
	if len(p.FilterKeys) == 0 {
		for _, value := range row.Cells {
			if strings.Contains(strings.ToLower(value), query) {
				return true
			}
		}
		return false
	}
	for _, key := range p.FilterKeys {
		if strings.Contains(strings.ToLower(row.Cell(key)), query) {
			return true
		}
	}
	return false
}

// sort orders rows by the configured key. Stable: rows comparing equal keep their base
// order, so toggling a sort never shuffles ties.
func (p Pipeline) sort(rows []Row) {
	if p.Sort.Key == "" || p.Sort.Direction == SortNone {
		return
	}
	key := p.Sort.Key
	desc := p.Sort.Direction == SortDescending

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Cell(key), rows[j].Cell(key)
		less := compareCells(a, b)
		if desc {
			return less > 0
		}
		return less < 0
	})
}

// compareCells orders numerically when both values parse as numbers,
// lexically (case-insensitive) otherwise.
func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (p Pipeline) paginate(rows []Row) []Row {
	if p.PageSize <= 0 {
		return rows
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	start := page * p.PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + p.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageCount returns the number of pages the pipeline would produce over n
// filtered rows. At least 1 so "page 1 of 1" reads sensibly when empty.
func (p Pipeline) PageCount(n int) int {
	if p.PageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + p.PageSize - 1) / p.PageSize
}
