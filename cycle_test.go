package autopilot

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

// simGame is a tiny snake game driven through the Perception and Actuator
// interfaces. Food appears at the listed cells in order; once the list is
// used up the game reports game over.
type simGame struct {
	w, h     int
	snake    []Cell
	foods    []Cell
	eaten    int
	dead     bool
	captures int
	sent     []Direction
}

func (g *simGame) Capture(ctx context.Context) (*PerceptionSnapshot, error) {
	g.captures++
	if g.dead || g.eaten == len(g.foods) {
		return &PerceptionSnapshot{GameOver: true}, nil
	}
	s := GridSnapshot(g.snake, g.foods[g.eaten], g.eaten)
	return &s, nil
}

func (g *simGame) Send(ctx context.Context, d Direction) error {
	g.sent = append(g.sent, d)
	next := g.snake[0].Plus(d.Offset())
	grow := next == g.foods[g.eaten]
	body := g.snake
	if !grow {
		body = body[:len(body)-1]
	}
	if next.Col < 0 || next.Col >= g.w || next.Row < 0 || next.Row >= g.h {
		g.dead = true
		return nil
	}
	for _, c := range body {
		if c == next {
			g.dead = true
			return nil
		}
	}
	g.snake = append([]Cell{next}, body...)
	if grow {
		g.eaten++
	}
	return nil
}

type perceptionFunc func(ctx context.Context) (*PerceptionSnapshot, error)

func (f perceptionFunc) Capture(ctx context.Context) (*PerceptionSnapshot, error) { return f(ctx) }

type actuatorFunc func(ctx context.Context, d Direction) error

func (f actuatorFunc) Send(ctx context.Context, d Direction) error { return f(ctx, d) }

type recorder struct {
	records []TickRecord
}

func (r *recorder) Record(rec TickRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func simConfig() Config {
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows = 10, 10
	cfg.SnapshotsPerTick = 1
	cfg.SampleInterval = 0
	return cfg
}

func newTestCycle(t *testing.T, cfg Config, p Perception, a Actuator) (*Cycle, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	c, err := NewCycle(cfg, p, a, log.New(&buf, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	return c, &buf
}

func fixedBoard(snake []Cell, food Cell) perceptionFunc {
	return func(ctx context.Context) (*PerceptionSnapshot, error) {
		s := GridSnapshot(snake, food, 0)
		return &s, nil
	}
}

func TestCycleEatsAllFood(t *testing.T) {
	g := &simGame{
		w: 10, h: 10,
		snake: []Cell{{5, 5}},
		foods: []Cell{{7, 5}, {7, 8}, {2, 8}, {2, 2}},
	}
	c, logs := newTestCycle(t, simConfig(), g, g)
	rec := &recorder{}
	c.Attach(rec)

	r := c.Run(context.Background())
	if r.Reason != ReasonGameOver {
		t.Fatalf("reason = %s (%v)\n%s", r.Reason, r.Err, logs)
	}
	if g.dead {
		t.Fatalf("snake died after %v", g.sent)
	}
	if g.eaten != len(g.foods) {
		t.Fatalf("ate %d of %d", g.eaten, len(g.foods))
	}
	if r.Score != len(g.foods)-1 {
		t.Fatalf("report score = %d", r.Score)
	}
	if r.Moves != len(g.sent) || len(rec.records) != r.Moves {
		t.Fatalf("moves = %d, sent = %d, records = %d", r.Moves, len(g.sent), len(rec.records))
	}
	if r.Session == "" || rec.records[0].Session != r.Session {
		t.Fatalf("session id not propagated: %q vs %q", r.Session, rec.records[0].Session)
	}
	if r.GainMean <= 0 {
		t.Fatalf("gain mean = %f", r.GainMean)
	}
	if c.State() != Terminated {
		t.Fatalf("state = %s", c.State())
	}
}

func TestCycleStalledHeadEndsSession(t *testing.T) {
	g := &simGame{w: 10, h: 10, snake: []Cell{{5, 5}}, foods: []Cell{{1, 1}}}
	cfg := simConfig()
	cfg.SnapshotsPerTick = 2
	c, logs := newTestCycle(t, cfg, g, g)

	// The simulator only moves when told to, so the second pair of samples
	// sees the same head.
	r := c.Run(context.Background())
	if r.Reason != ReasonGameOver || r.Moves != 1 {
		t.Fatalf("reason = %s, moves = %d\n%s", r.Reason, r.Moves, logs)
	}
}

func TestCyclePerceptionLost(t *testing.T) {
	calls := 0
	p := perceptionFunc(func(ctx context.Context) (*PerceptionSnapshot, error) {
		calls++
		if calls%2 == 0 {
			return nil, errors.New("capture timed out")
		}
		return nil, nil
	})
	cfg := simConfig()
	cfg.PerceptionRetries = 2
	c, _ := newTestCycle(t, cfg, p, actuatorFunc(func(context.Context, Direction) error { return nil }))

	r := c.Run(context.Background())
	if r.Reason != ReasonPerceptionLost || !errors.Is(r.Err, ErrNoUsableSnapshot) {
		t.Fatalf("reason = %s, err = %v", r.Reason, r.Err)
	}
	if calls != 3 {
		t.Fatalf("captures = %d, want 3", calls)
	}
	if r.Moves != 0 {
		t.Fatalf("moves = %d", r.Moves)
	}
}

func TestCycleNoSafeMove(t *testing.T) {
	p := fixedBoard([]Cell{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, Cell{3, 3})
	sent := 0
	c, _ := newTestCycle(t, simConfig(), p, actuatorFunc(func(context.Context, Direction) error {
		sent++
		return nil
	}))
	r := c.Run(context.Background())
	if r.Reason != ReasonNoSafeMove {
		t.Fatalf("reason = %s", r.Reason)
	}
	if sent != 0 {
		t.Fatalf("sent %d moves from a trapped position", sent)
	}
}

func TestCycleActuationFailed(t *testing.T) {
	sent := 0
	a := actuatorFunc(func(context.Context, Direction) error {
		sent++
		return errors.New("key press lost")
	})
	cfg := simConfig()
	cfg.ActuationRetries = 2
	c, _ := newTestCycle(t, cfg, fixedBoard([]Cell{{2, 2}}, Cell{4, 2}), a)

	r := c.Run(context.Background())
	if r.Reason != ReasonActuationFailed || r.Err == nil {
		t.Fatalf("reason = %s, err = %v", r.Reason, r.Err)
	}
	if sent != 3 {
		t.Fatalf("attempts = %d, want 3", sent)
	}
}

func TestCycleStagnation(t *testing.T) {
	g := &simGame{w: 10, h: 10, snake: []Cell{{1, 5}}, foods: []Cell{{8, 5}}}
	failOnce := true
	a := actuatorFunc(func(ctx context.Context, d Direction) error {
		if failOnce {
			failOnce = false
			return errors.New("transient")
		}
		return g.Send(ctx, d)
	})
	cfg := simConfig()
	cfg.StagnationCeiling = 3
	c, logs := newTestCycle(t, cfg, g, a)

	r := c.Run(context.Background())
	if r.Reason != ReasonStagnation {
		t.Fatalf("reason = %s (%v)\n%s", r.Reason, r.Err, logs)
	}
	if r.Moves != 4 || len(g.sent) != 4 {
		t.Fatalf("moves = %d, actuated = %d", r.Moves, len(g.sent))
	}
	for _, d := range g.sent {
		if d != Right {
			t.Fatalf("moves = %v, want all right", g.sent)
		}
	}
}

func TestCycleFrozenGameSingleSample(t *testing.T) {
	sent := 0
	a := actuatorFunc(func(context.Context, Direction) error {
		sent++
		return nil
	})
	// One sample per tick, and the head never leaves (2,2).
	c, logs := newTestCycle(t, simConfig(), fixedBoard([]Cell{{2, 2}}, Cell{4, 2}), a)

	r := c.Run(context.Background())
	if r.Reason != ReasonGameOver || r.Moves != 1 || sent != 1 {
		t.Fatalf("reason = %s, moves = %d, sent = %d\n%s", r.Reason, r.Moves, sent, logs)
	}
}

func TestCycleVerifyAndDebug(t *testing.T) {
	cfg := simConfig()
	cfg.VerifyMoves = true
	cfg.Debug = true
	p := fixedBoard([]Cell{{2, 2}}, Cell{4, 2})
	c, logs := newTestCycle(t, cfg, p, actuatorFunc(func(context.Context, Direction) error { return nil }))

	r := c.Run(context.Background())
	if r.Reason != ReasonGameOver || r.Moves != 1 {
		t.Fatalf("reason = %s, moves = %d\n%s", r.Reason, r.Moves, logs)
	}
	out := logs.String()
	if !strings.Contains(out, "move right not registered yet") {
		t.Fatalf("missing verification line:\n%s", out)
	}
	if !strings.Contains(out, "--M*F-----\n") {
		t.Fatalf("missing debug grid:\n%s", out)
	}
}

func TestCycleStopped(t *testing.T) {
	g := &simGame{w: 10, h: 10, snake: []Cell{{5, 5}}, foods: []Cell{{1, 1}}}
	c, _ := newTestCycle(t, simConfig(), g, g)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := c.Run(ctx)
	if r.Reason != ReasonStopped || !errors.Is(r.Err, context.Canceled) {
		t.Fatalf("reason = %s, err = %v", r.Reason, r.Err)
	}
	if g.captures != 0 {
		t.Fatalf("captured %d times after stop", g.captures)
	}
}

func TestCycleStopBetweenStates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := actuatorFunc(func(context.Context, Direction) error {
		cancel()
		return nil
	})
	c, _ := newTestCycle(t, simConfig(), fixedBoard([]Cell{{2, 2}}, Cell{4, 2}), a)

	r := c.Run(ctx)
	if r.Reason != ReasonStopped || r.Moves != 1 {
		t.Fatalf("reason = %s, moves = %d", r.Reason, r.Moves)
	}
}

func TestCycleRunsAgain(t *testing.T) {
	g := &simGame{w: 10, h: 10, snake: []Cell{{5, 5}}, foods: []Cell{{7, 5}}}
	c, _ := newTestCycle(t, simConfig(), g, g)
	first := c.Run(context.Background())

	g.snake, g.eaten, g.dead = []Cell{{1, 1}}, 0, false
	second := c.Run(context.Background())
	if first.Session == second.Session {
		t.Fatal("sessions share an id")
	}
	if second.Reason != ReasonGameOver || second.Moves == 0 || second.Ticks != second.Moves {
		t.Fatalf("second session: %+v", second)
	}
}

func TestNewCycleRejectsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cols = 0
	if _, err := NewCycle(cfg, nil, nil, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestDecideOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows = 5, 5

	d, err := DecideOnce(cfg, GridSnapshot([]Cell{{2, 2}}, Cell{4, 2}, 0))
	if err != nil {
		t.Fatal(err)
	}
	if d.Move != Right || d.Fallback {
		t.Fatalf("decision = %+v", d)
	}

	_, err = DecideOnce(cfg, GridSnapshot([]Cell{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, Cell{3, 3}, 0))
	var te *TerminationError
	if !errors.As(err, &te) || te.Reason != ReasonNoSafeMove {
		t.Fatalf("err = %v", err)
	}

	_, err = DecideOnce(cfg, PerceptionSnapshot{})
	if !errors.As(err, &te) || te.Reason != ReasonPerceptionLost || !errors.Is(err, ErrNoUsableSnapshot) {
		t.Fatalf("err = %v", err)
	}

	_, err = DecideOnce(cfg, PerceptionSnapshot{GameOver: true})
	if !errors.As(err, &te) || te.Reason != ReasonGameOver {
		t.Fatalf("err = %v", err)
	}
}
