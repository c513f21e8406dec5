package gridview

import "github.com/zjrosen/gridley/internal/data"

// rowSource adapts a data.Collection to the engine's row source. Content is
// rendered with the column layout captured at bind time; the view rebinds
// whenever the layout changes, so a stale layout never survives a resize.
type rowSource struct {
	coll   *data.Collection
	cols   []Column
	widths []int
}

func (s *rowSource) Len() int {
	return s.coll.Len()
}

func (s *rowSource) ID(i int) string {
	return s.coll.At(i).ID
}

func (s *rowSource) Render(i int) string {
	return renderRowLine(s.coll.At(i), s.cols, s.widths)
}

func (s *rowSource) MediaRef(i int) string {
	return s.coll.At(i).MediaRef
}
