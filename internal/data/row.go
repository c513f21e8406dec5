// Package data holds the row collection the grid renders and the pipeline
// that derives it: sort, filter, and pagination over a base set of records.
// The engine never sees this package's types directly; the gridview adapter
// exposes a Collection as a grid.Source.
package data

import (
	"github.com/google/uuid"
)

// DefaultIdentityField is the cell key carrying row identity when the
// configuration does not name one.
const DefaultIdentityField = "id"

// Row is one record: a stable identity plus cells addressed by column key.
// Identity survives sort, filter, and re-render; it is what selection and
// media loading key on.
type Row struct {
	ID    string
	Cells map[string]string

	// MediaRef is an external media reference for the row, "" when none.
	MediaRef string
}

// Cell returns the value under the column key, "" when absent.
func (r Row) Cell(key string) string {
	return r.Cells[key]
}

// NewRow creates a row with a generated UUID identity.
func NewRow(cells map[string]string) Row {
	if cells == nil {
		cells = make(map[string]string)
	}
	return Row{ID: uuid.NewString(), Cells: cells}
}

// RowFromCells creates a row whose identity comes from the named cell. A
// record without a usable identity value gets a generated UUID: every row
// must carry a stable ID, silently sharing the zero value would alias
// selection state across unrelated rows.
func RowFromCells(cells map[string]string, identityField string) Row {
	if identityField == "" {
		identityField = DefaultIdentityField
	}
	if id := cells[identityField]; id != "" {
		return Row{ID: id, Cells: cells}
	}
	return NewRow(cells)
}

// Collection is an immutable ordered snapshot of rows. The pipeline produces
// a new Collection on every change; consumers holding the old one keep a
// consistent view until they observe the replacement.
type Collection struct {
	rows  []Row
	byID  map[string]int
	total int // size of the base set this collection was derived from
}

// NewCollection creates a collection over the given rows. The slice is owned
// by the collection afterwards.
func NewCollection(rows []Row) *Collection {
	c := &Collection{
		rows:  rows,
		byID:  make(map[string]int, len(rows)),
		total: len(rows),
	}
	for i, row := range rows {
		c.byID[row.ID] = i
	}
	return c
}

// Len returns the number of rows.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// At returns the row at the index. Callers index within [0, Len()).
func (c *Collection) At(index int) Row {
	return c.rows[index]
}

// IndexOf returns the position of the row with the given identity, -1 when
// the collection does not contain it (filtered out or unknown).
func (c *Collection) IndexOf(id string) int {
	if c == nil {
		return -1
	}
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// BaseTotal returns the size of the underlying set before filter and
// pagination, for "n of m" status lines.
func (c *Collection) BaseTotal() int {
	if c == nil {
		return 0
	}
	return c.total
}

// withBaseTotal tags a derived collection with its base size.
func (c *Collection) withBaseTotal(total int) *Collection {
	c.total = total
	return c
}
