package autopilot

import (
	"container/heap"
)

// Path is a sequence of cells starting at the head.
type Path []Cell

// Next returns the cell the head should move to.
func (p Path) Next() (Cell, bool) {
	if len(p) < 2 {
		return Cell{}, false
	}
	return p[1], true
}

// Planner finds routes for the head. The zero value plans with no wall
// penalty and no survival bonus.
type Planner struct {
	WallRing     int
	WallPenalty  int
	SafetyBonus  int
	TailPassable bool
}

func NewPlanner(cfg Config) Planner {
	return Planner{
		WallRing:     cfg.WallRing,
		WallPenalty:  cfg.WallPenalty,
		SafetyBonus:  cfg.SafetyBonus,
		TailPassable: cfg.TailPassable,
	}
}

// searchNode lives in the per-call arena; parent is an index into it.
type searchNode struct {
	cell   Cell
	g      int
	h      int
	parent int
}

type openItem struct {
	f    int
	seq  int
	node int
}

// openSet orders by f, then by insertion.
type openSet []openItem

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x any)   { *s = append(*s, x.(openItem)) }
func (s *openSet) Pop() any {
	old := *s
	it := old[len(old)-1]
	*s = old[:len(old)-1]
	return it
}

func (p Planner) heuristic(b BoardState, c Cell) int {
	h := c.Distance(b.Food)
	if b.NearWall(c, p.WallRing) {
		h += p.WallPenalty
	}
	return h
}

// Plan runs A* from the head to the food. The whole body, tail included,
// blocks. It returns nil when the food cannot be reached, which is a normal
// outcome, and for boards that must not be planned on (terminal, empty
// snake, food off the grid or on the body).
func (p Planner) Plan(b BoardState) Path {
	if b.Terminal || len(b.Snake) == 0 || b.Outside(b.Head()) || b.Outside(b.Food) {
		return nil
	}
	vmap := b.VMap(false)
	if vmap.Blocked(b.Food) {
		return nil
	}

	head := b.Head()
	best := make([]int, b.Width*b.Height)
	for i := range best {
		best[i] = -1
	}
	best[b.index(head)] = 0

	nodes := []searchNode{{cell: head, h: p.heuristic(b, head), parent: -1}}
	open := &openSet{{f: nodes[0].h, node: 0}}
	seq := 1
	for open.Len() > 0 {
		it := heap.Pop(open).(openItem)
		n := nodes[it.node]
		if n.g > best[b.index(n.cell)] {
			continue
		}
		if n.cell == b.Food {
			return reconstruct(nodes, it.node)
		}
		for _, d := range Directions {
			next := n.cell.Plus(d.Offset())
			if vmap.Blocked(next) {
				continue
			}
			g := n.g + 1
			if prev := best[b.index(next)]; prev >= 0 && g >= prev {
				continue
			}
			best[b.index(next)] = g
			h := p.heuristic(b, next)
			nodes = append(nodes, searchNode{cell: next, g: g, h: h, parent: it.node})
			heap.Push(open, openItem{f: g + h, seq: seq, node: len(nodes) - 1})
			seq++
		}
	}
	return nil
}

func reconstruct(nodes []searchNode, i int) Path {
	var path Path
	for ; i >= 0; i = nodes[i].parent {
		path = append(path, nodes[i].cell)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
