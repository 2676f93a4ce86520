package autopilot

import "fmt"

// Decision is the outcome of planning a single snapshot.
type Decision struct {
	Board    BoardState `json:"board"`
	Path     Path       `json:"path"`
	Fallback bool       `json:"fallback"`
	Move     Direction  `json:"move"`
}

// TerminationError carries the reason a decision could not be made.
type TerminationError struct {
	Reason Reason
	Err    error
}

func (e *TerminationError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *TerminationError) Unwrap() error {
	return e.Err
}

// DecideOnce runs reconcile, plan and resolve on one snapshot, with no
// session behind it. The stalled-head check never fires because no move
// is known to have been issued.
func DecideOnce(cfg Config, s PerceptionSnapshot) (Decision, error) {
	board, err := NewReconciler(cfg).Reconcile([]PerceptionSnapshot{s}, false)
	if err != nil {
		return Decision{}, &TerminationError{Reason: ReasonPerceptionLost, Err: err}
	}
	if board.Terminal {
		return Decision{Board: board}, &TerminationError{Reason: ReasonGameOver}
	}
	path, fellBack := NewPlanner(cfg).Decide(board)
	if path == nil {
		return Decision{Board: board}, &TerminationError{Reason: ReasonNoSafeMove}
	}
	next, _ := path.Next()
	move, err := Resolve(board.Head(), next, cfg.DirectionPolicy)
	if err != nil {
		return Decision{Board: board, Path: path}, &TerminationError{Reason: ReasonInvariantViolation, Err: err}
	}
	return Decision{Board: board, Path: path, Fallback: fellBack, Move: move}, nil
}
