package autopilot

// Fallback picks the safest free neighbour of the head when Plan found
// nothing. Cells outside the wall ring earn SafetyBonus; among equal scores
// the first in Directions order wins. It returns [head, cell], or nil when
// every neighbour is a wall or body, which ends the game.
func (p Planner) Fallback(b BoardState) Path {
	if b.Terminal || len(b.Snake) == 0 {
		return nil
	}
	vmap := b.VMap(p.TailPassable)
	head := b.Head()

	var (
		pick  Cell
		score = -1
	)
	for _, d := range Directions {
		next := head.Plus(d.Offset())
		if vmap.Blocked(next) {
			continue
		}
		s := 0
		if !b.NearWall(next, p.WallRing) {
			s += p.SafetyBonus
		}
		if s > score {
			pick, score = next, s
		}
	}
	if score < 0 {
		return nil
	}
	return Path{head, pick}
}

// Decide returns the path for this tick: the A* route when one exists,
// else the survival move. fellBack reports which one was used.
func (p Planner) Decide(b BoardState) (path Path, fellBack bool) {
	if path = p.Plan(b); path != nil {
		return path, false
	}
	return p.Fallback(b), true
}
