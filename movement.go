package autopilot

import (
	"fmt"
)

type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions is the fixed neighbour order used by the planner and the
// survival move. Changing it changes which of several equal paths is
// returned.
var Directions = [4]Direction{Up, Right, Down, Left}

var direction2Cell = [4]Cell{
	Up:    {Col: 0, Row: -1},
	Right: {Col: 1, Row: 0},
	Down:  {Col: 0, Row: 1},
	Left:  {Col: -1, Row: 0},
}

var directionNames = [4]string{"up", "right", "down", "left"}

func (d Direction) Valid() bool {
	return d >= Up && d <= Left
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// Offset is the cell delta of one step in direction d.
func (d Direction) Offset() Cell {
	return direction2Cell[d]
}

func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DirectionPolicy decides what Resolve does with a pair of cells that
// differ on both axes.
type DirectionPolicy string

const (
	// PolicyStrict rejects anything but a cardinal neighbour.
	PolicyStrict DirectionPolicy = "strict"
	// PolicyMajorAxis moves along the axis with the larger delta,
	// horizontally when both are equal.
	PolicyMajorAxis DirectionPolicy = "major_axis"
	// PolicyHorizontalFirst moves horizontally whenever the column differs.
	PolicyHorizontalFirst DirectionPolicy = "horizontal_first"
)

func (p DirectionPolicy) Valid() bool {
	switch p {
	case PolicyStrict, PolicyMajorAxis, PolicyHorizontalFirst:
		return true
	}
	return false
}

// Resolve returns the command that moves the head from one cell to the
// next. Identical cells are always an error; under PolicyStrict so is any
// pair that is not a cardinal neighbour.
func Resolve(from, to Cell, policy DirectionPolicy) (Direction, error) {
	d := to.Minus(from)
	if d.Col == 0 && d.Row == 0 {
		return 0, fmt.Errorf("%w: %s to itself", ErrMalformedAdjacency, from)
	}
	horizontal := d.Row == 0
	if abs(d.Col)+abs(d.Row) > 1 {
		switch policy {
		case PolicyMajorAxis:
			horizontal = abs(d.Col) >= abs(d.Row)
		case PolicyHorizontalFirst:
			horizontal = d.Col != 0
		default:
			return 0, fmt.Errorf("%w: %s to %s", ErrMalformedAdjacency, from, to)
		}
	}
	if horizontal {
		if d.Col > 0 {
			return Right, nil
		}
		return Left, nil
	}
	if d.Row > 0 {
		return Down, nil
	}
	return Up, nil
}
