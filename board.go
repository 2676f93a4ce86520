package autopilot

import (
	"fmt"
	"io"
)

// BoardState is the reconciled view of the game used for one decision.
// It is rebuilt from perception every tick and never patched in place.
type BoardState struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Snake    []Cell `json:"snake"`
	Food     Cell   `json:"food"`
	Score    int    `json:"score"`
	Terminal bool   `json:"terminal"`
}

func (b BoardState) Head() Cell {
	return b.Snake[0]
}

func (b BoardState) Tail() Cell {
	return b.Snake[len(b.Snake)-1]
}

func (b BoardState) Outside(c Cell) bool {
	return c.Col < 0 || c.Col >= b.Width || c.Row < 0 || c.Row >= b.Height
}

// NearWall reports whether c lies within ring cells of the border.
func (b BoardState) NearWall(c Cell, ring int) bool {
	return c.Col < ring || c.Col >= b.Width-ring ||
		c.Row < ring || c.Row >= b.Height-ring
}

func (b BoardState) index(c Cell) int {
	return c.Row*b.Width + c.Col
}

// Validate checks the structural invariants of a non-terminal board.
func (b BoardState) Validate() error {
	if b.Terminal {
		return nil
	}
	if b.Width < 1 || b.Height < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidSnapshot, b.Width, b.Height)
	}
	if len(b.Snake) == 0 {
		return fmt.Errorf("%w: empty snake", ErrInvalidSnapshot)
	}
	seen := make(map[Cell]struct{}, len(b.Snake))
	for i, c := range b.Snake {
		if b.Outside(c) {
			return fmt.Errorf("%w: body cell %s outside grid", ErrInvalidSnapshot, c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: body cell %s repeated", ErrInvalidSnapshot, c)
		}
		seen[c] = struct{}{}
		if i > 0 && !b.Snake[i-1].Adjacent(c) {
			return fmt.Errorf("%w: body cells %s and %s not adjacent", ErrInvalidSnapshot, b.Snake[i-1], c)
		}
	}
	if b.Outside(b.Food) {
		return fmt.Errorf("%w: food %s outside grid", ErrInvalidSnapshot, b.Food)
	}
	if _, on := seen[b.Food]; on {
		return fmt.Errorf("%w: food %s on body", ErrInvalidSnapshot, b.Food)
	}
	return nil
}

// Map is a per-tick occupancy grid indexed by row*width+col.
type Map struct {
	board   BoardState
	blocked []bool
}

// VMap marks every body cell as blocked. With tailFree the tail of a snake
// longer than one cell is left open.
func (b BoardState) VMap(tailFree bool) Map {
	m := Map{board: b, blocked: make([]bool, b.Width*b.Height)}
	body := b.Snake
	// A two-cell snake's tail is its neck; it never frees up.
	if tailFree && len(body) > 2 {
		body = body[:len(body)-1]
	}
	for _, c := range body {
		if !b.Outside(c) {
			m.blocked[b.index(c)] = true
		}
	}
	return m
}

func (m Map) Blocked(c Cell) bool {
	if m.board.Outside(c) {
		return true
	}
	return m.blocked[m.board.index(c)]
}

// PrintGrid writes the board as text, one row per line: M head, m body,
// F food, * path, - empty.
func PrintGrid(w io.Writer, b BoardState, path Path) {
	grid := make([][]byte, b.Height)
	for y := range grid {
		grid[y] = make([]byte, b.Width)
		for x := range grid[y] {
			grid[y][x] = '-'
		}
	}
	put := func(c Cell, ch byte) {
		if !b.Outside(c) {
			grid[c.Row][c.Col] = ch
		}
	}
	for _, c := range path {
		put(c, '*')
	}
	if !b.Terminal || len(b.Snake) > 0 {
		put(b.Food, 'F')
	}
	for i, c := range b.Snake {
		if i == 0 {
			put(c, 'M')
		} else {
			put(c, 'm')
		}
	}
	for _, row := range grid {
		fmt.Fprintf(w, "%s\n", row)
	}
	fmt.Fprint(w, "\n")
}
