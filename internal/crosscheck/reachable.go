// Package crosscheck answers reachability questions with an independent
// A* implementation, to hold the planner's answers against. It serves as a
// test oracle; the binary does not import it.
package crosscheck

import (
	"github.com/nickdavies/go-astar/astar"

	"github.com/tonobo/autopilot"
)

const blocked = -1

// Reachable reports whether the food can be reached from the head when the
// whole body blocks.
func Reachable(b autopilot.BoardState) bool {
	if b.Terminal || len(b.Snake) == 0 {
		return false
	}
	a := astar.NewAStar(b.Height, b.Width)
	for _, c := range b.Snake[1:] {
		a.FillTile(point(c), blocked)
	}
	path := a.FindPath(astar.NewPointToPoint(),
		[]astar.Point{point(b.Head())},
		[]astar.Point{point(b.Food)})
	return path != nil
}

func point(c autopilot.Cell) astar.Point {
	return astar.Point{Row: c.Row, Col: c.Col}
}
