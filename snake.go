package autopilot

// body maps the snapshot's body onto the grid, head first. It reports false
// when the points cannot form a snake: nothing captured, or cells that do
// not link up head to tail.
func (s PerceptionSnapshot) body(m GridMapper) ([]Cell, bool) {
	if len(s.Body) == 0 {
		return nil, false
	}
	bounds := m.Identity()
	if s.Region != nil {
		bounds = *s.Region
	}

	// Several samples of one segment can land in the same cell.
	cells := make([]Cell, 0, len(s.Body))
	for _, v := range s.Body {
		c := m.ToGrid(v, bounds)
		if n := len(cells); n > 0 && cells[n-1] == c {
			continue
		}
		cells = append(cells, c)
	}
	if s.Head != nil {
		return chain(m.ToGrid(*s.Head, bounds), cells)
	}
	return cells, linked(cells)
}

func (s PerceptionSnapshot) food(m GridMapper) (Cell, bool) {
	if s.Food == nil {
		return Cell{}, false
	}
	bounds := m.Identity()
	if s.Region != nil {
		bounds = *s.Region
	}
	return m.ToGrid(*s.Food, bounds), true
}

// linked reports whether cells are distinct and each touches the next.
func linked(cells []Cell) bool {
	seen := make(map[Cell]struct{}, len(cells))
	for i, c := range cells {
		if _, dup := seen[c]; dup {
			return false
		}
		seen[c] = struct{}{}
		if i > 0 && !cells[i-1].Adjacent(c) {
			return false
		}
	}
	return true
}

// chainBudget caps the number of cells chain tries before giving up on a
// body that cannot be ordered.
const chainBudget = 1 << 16

// chain orders an unordered set of body cells into a head-to-tail walk
// through every cell. Candidates are tried in input order and dead ends are
// backtracked, so the first complete ordering found wins.
func chain(head Cell, cells []Cell) ([]Cell, bool) {
	left := make(map[Cell]struct{}, len(cells))
	order := make([]Cell, 0, len(cells))
	for _, c := range cells {
		if _, dup := left[c]; !dup {
			left[c] = struct{}{}
			order = append(order, c)
		}
	}
	// The head may or may not be listed among the body points.
	delete(left, head)

	out := make([]Cell, 1, len(order)+1)
	out[0] = head
	budget := chainBudget
	var walk func(cur Cell) bool
	walk = func(cur Cell) bool {
		if len(left) == 0 {
			return true
		}
		for _, c := range order {
			if _, ok := left[c]; !ok || !cur.Adjacent(c) {
				continue
			}
			if budget--; budget < 0 {
				return false
			}
			delete(left, c)
			out = append(out, c)
			if walk(c) {
				return true
			}
			left[c] = struct{}{}
			out = out[:len(out)-1]
		}
		return false
	}
	if !walk(head) {
		return nil, false
	}
	return out, true
}
