package autopilot

import "errors"

var (
	// ErrNoUsableSnapshot means none of the captured snapshots carried a
	// body and a food position that could be turned into a board.
	ErrNoUsableSnapshot = errors.New("no usable snapshot")
	// ErrUnstableSeries means the head jumped further than plausible between
	// samples of one tick. Capture one more snapshot and call Settle.
	ErrUnstableSeries = errors.New("unstable snapshot series")
	// ErrMalformedAdjacency means a move was requested between cells that
	// are not cardinal neighbours. Upstream state is corrupt.
	ErrMalformedAdjacency = errors.New("malformed adjacency")
	ErrInvalidConfig      = errors.New("invalid config")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
)
