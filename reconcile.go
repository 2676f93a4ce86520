package autopilot

// Reconciler turns the snapshots captured in one tick into a BoardState.
// It holds no state between ticks; whether a move has already been issued
// this session is passed in by the caller.
type Reconciler struct {
	Mapper GridMapper
	// Threshold is the largest plausible head displacement, in cells,
	// between the first sample of a tick and any later one.
	Threshold int
}

func NewReconciler(cfg Config) Reconciler {
	return Reconciler{Mapper: cfg.Mapper(), Threshold: cfg.MovementThreshold}
}

// Board converts a single snapshot. It reports false when the snapshot
// lacks a body or food, the body does not form a snake, or the food sits on
// the body.
func (r Reconciler) Board(s PerceptionSnapshot) (BoardState, bool) {
	body, ok := s.body(r.Mapper)
	if !ok {
		return BoardState{}, false
	}
	food, ok := s.food(r.Mapper)
	if !ok {
		return BoardState{}, false
	}
	b := BoardState{
		Width:  r.Mapper.Cols,
		Height: r.Mapper.Rows,
		Snake:  body,
		Food:   food,
		// Every food eaten grows the snake by one cell.
		Score: len(body) - 1,
	}
	if s.Score != nil {
		b.Score = *s.Score
	}
	if b.Validate() != nil {
		return BoardState{}, false
	}
	return b, true
}

func (r Reconciler) usable(snaps []PerceptionSnapshot) (boards []BoardState, gameOver bool) {
	for _, s := range snaps {
		if s.GameOver {
			gameOver = true
		}
		if b, ok := r.Board(s); ok {
			boards = append(boards, b)
		}
	}
	return boards, gameOver
}

// Reconcile merges the snapshots of one tick, oldest first. It fails with
// ErrNoUsableSnapshot when nothing usable was captured and no snapshot
// reported game over, and with ErrUnstableSeries when the head moved
// implausibly far; in that case capture one more snapshot and call Settle
// with the extended series.
func (r Reconciler) Reconcile(snaps []PerceptionSnapshot, moved bool) (BoardState, error) {
	boards, gameOver := r.usable(snaps)
	if len(boards) == 0 {
		return r.empty(gameOver)
	}
	first := boards[0].Head()
	for _, b := range boards[1:] {
		if first.Distance(b.Head()) > r.Threshold {
			return BoardState{}, ErrUnstableSeries
		}
	}
	return r.finish(boards, len(boards)-1, gameOver, moved), nil
}

// Settle finalizes a series that Reconcile found unstable, using the most
// recent observation that agrees with the one before it, or the newest one
// when none does.
func (r Reconciler) Settle(snaps []PerceptionSnapshot, moved bool) (BoardState, error) {
	boards, gameOver := r.usable(snaps)
	if len(boards) == 0 {
		return r.empty(gameOver)
	}
	pick := len(boards) - 1
	for i := len(boards) - 1; i > 0; i-- {
		if boards[i].Head().Distance(boards[i-1].Head()) <= r.Threshold {
			pick = i
			break
		}
	}
	return r.finish(boards, pick, gameOver, moved), nil
}

func (r Reconciler) empty(gameOver bool) (BoardState, error) {
	if !gameOver {
		return BoardState{}, ErrNoUsableSnapshot
	}
	return BoardState{Width: r.Mapper.Cols, Height: r.Mapper.Rows, Terminal: true}, nil
}

func (r Reconciler) finish(boards []BoardState, pick int, gameOver, moved bool) BoardState {
	b := boards[pick]
	b.Terminal = gameOver || moved && stalled(boards)
	return b
}

// stalled reports whether two consecutive samples saw the head in the same
// cell. Once the snake is moving that only happens when the game stopped.
func stalled(boards []BoardState) bool {
	for i := 1; i < len(boards); i++ {
		if boards[i].Head() == boards[i-1].Head() {
			return true
		}
	}
	return false
}
