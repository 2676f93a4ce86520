package autopilot

import (
	"fmt"
	"math"

	"github.com/joonazan/vec2"
)

// Cell is a discrete (column, row) grid coordinate. Row 0 is the top row.
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

func (c Cell) Plus(o Cell) Cell {
	return Cell{Col: c.Col + o.Col, Row: c.Row + o.Row}
}

func (c Cell) Minus(o Cell) Cell {
	return Cell{Col: c.Col - o.Col, Row: c.Row - o.Row}
}

// Distance is the Manhattan distance between two cells.
func (c Cell) Distance(o Cell) int {
	return abs(c.Col-o.Col) + abs(c.Row-o.Row)
}

func (c Cell) Adjacent(o Cell) bool {
	return c.Distance(o) == 1
}

func (c Cell) Vec() vec2.Vector {
	return vec2.Vector{X: float64(c.Col), Y: float64(c.Row)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Bounds is the region of interest, in capture coordinates, that holds the
// playing field.
type Bounds struct {
	Origin vec2.Vector
	Size   vec2.Vector
}

// GridMapper maps capture coordinates onto a Cols x Rows grid.
type GridMapper struct {
	Cols int
	Rows int
}

// ToGrid returns the cell containing point. The result is always inside
// the grid, whatever the input; out-of-region points snap to the border.
func (m GridMapper) ToGrid(point vec2.Vector, bounds Bounds) Cell {
	cellW := bounds.Size.X / float64(m.Cols)
	cellH := bounds.Size.Y / float64(m.Rows)
	rel := point.Minus(bounds.Origin)
	return Cell{
		Col: clamp(rel.X/cellW, m.Cols),
		Row: clamp(rel.Y/cellH, m.Rows),
	}
}

// Identity is the region under which capture coordinates already are grid
// coordinates.
func (m GridMapper) Identity() Bounds {
	return Bounds{Size: vec2.Vector{X: float64(m.Cols), Y: float64(m.Rows)}}
}

func clamp(v float64, n int) int {
	if n <= 0 || math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(math.Floor(v))
}
