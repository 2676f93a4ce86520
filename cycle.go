package autopilot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Perception captures the game. A nil snapshot or an error is a transient
// failure; the cycle retries within its budget.
type Perception interface {
	Capture(ctx context.Context) (*PerceptionSnapshot, error)
}

// Actuator delivers one move command per tick.
type Actuator interface {
	Send(ctx context.Context, d Direction) error
}

// TraceSink receives a record for every dispatched move.
type TraceSink interface {
	Record(TickRecord) error
}

type TickRecord struct {
	Session  string     `json:"session"`
	Tick     int        `json:"tick"`
	At       time.Time  `json:"at"`
	Board    BoardState `json:"board"`
	Path     Path       `json:"path"`
	Fallback bool       `json:"fallback"`
	Move     Direction  `json:"move"`
}

type State int

const (
	Idle State = iota
	AwaitingPerception
	Planning
	Acting
	Verifying
	Terminated
)

var stateNames = [...]string{"idle", "awaiting_perception", "planning", "acting", "verifying", "terminated"}

func (s State) String() string {
	if s < Idle || s > Terminated {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Reason tells why a session ended.
type Reason string

const (
	ReasonGameOver           Reason = "game_over"
	ReasonPerceptionLost     Reason = "perception_lost"
	ReasonNoSafeMove         Reason = "no_safe_move"
	ReasonActuationFailed    Reason = "actuation_failed"
	ReasonStagnation         Reason = "stagnation"
	ReasonStopped            Reason = "stopped"
	ReasonInvariantViolation Reason = "invariant_violation"
)

// sessionPhase separates the opening, before any move went out, from the
// rest of the session. A motionless head only means death once underway.
type sessionPhase int

const (
	phaseOpening sessionPhase = iota
	phaseUnderway
)

// Report summarizes a finished session.
type Report struct {
	Session string
	Reason  Reason
	Err     error
	Ticks   int
	Moves   int
	Score   int
	// GainMean and GainStdDev describe the number of ticks between score
	// increases.
	GainMean   float64
	GainStdDev float64
}

// Cycle runs one game session: perceive, plan, act, verify, until a
// termination reason comes up. A Cycle may run several sessions in a row
// but never two at once.
type Cycle struct {
	cfg        Config
	perception Perception
	actuator   Actuator
	planner    Planner
	reconciler Reconciler
	log        *log.Logger
	sinks      []TraceSink

	session  string
	state    State
	phase    sessionPhase
	board    BoardState
	path     Path
	fellBack bool
	move     Direction

	// movedFrom is the head cell the last dispatched move started from.
	movedFrom Cell

	ticks     int
	moves     int
	score     int
	best      int
	stale     int
	lastGain  int
	gains     []float64
	reason    Reason
	reasonErr error
}

func NewCycle(cfg Config, p Perception, a Actuator, logger *log.Logger) (*Cycle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Cycle{
		cfg:        cfg,
		perception: p,
		actuator:   a,
		planner:    NewPlanner(cfg),
		reconciler: NewReconciler(cfg),
		log:        logger,
	}, nil
}

// Attach adds a sink that sees every dispatched move.
func (c *Cycle) Attach(s TraceSink) {
	c.sinks = append(c.sinks, s)
}

func (c *Cycle) State() State {
	return c.state
}

// Run plays one session to its end. Stopping ctx ends the session at the
// next state boundary with ReasonStopped.
func (c *Cycle) Run(ctx context.Context) Report {
	c.reset()
	c.log.Printf("session %s: start %dx%d", c.session, c.cfg.Cols, c.cfg.Rows)
	for c.state != Terminated {
		if err := ctx.Err(); err != nil {
			c.terminate(ReasonStopped, err)
			break
		}
		switch c.state {
		case Idle:
			c.state = AwaitingPerception
		case AwaitingPerception:
			c.perceive(ctx)
		case Planning:
			c.plan()
		case Acting:
			c.act(ctx)
		case Verifying:
			c.verify(ctx)
		}
	}
	return c.report()
}

func (c *Cycle) reset() {
	*c = Cycle{
		cfg:        c.cfg,
		perception: c.perception,
		actuator:   c.actuator,
		planner:    c.planner,
		reconciler: c.reconciler,
		log:        c.log,
		sinks:      c.sinks,
		session:    uuid.NewString(),
		state:      Idle,
		phase:      phaseOpening,
	}
}

func (c *Cycle) perceive(ctx context.Context) {
	var err error
	for attempt := 0; attempt <= c.cfg.PerceptionRetries; attempt++ {
		if attempt > 0 && !c.wait(ctx) {
			return
		}
		var b BoardState
		b, err = c.observe(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			c.board = b
			if len(b.Snake) > 0 {
				c.score = b.Score
			}
			if b.Terminal {
				c.terminate(ReasonGameOver, nil)
				return
			}
			c.state = Planning
			return
		}
		c.log.Printf("session %s tick %d: perception attempt %d: %v", c.session, c.ticks, attempt+1, err)
	}
	c.terminate(ReasonPerceptionLost, fmt.Errorf("%d attempts: %w", c.cfg.PerceptionRetries+1, err))
}

// observe reconciles this tick's samples. Once underway, a head still on
// the cell the last move was sent from means the game stopped, even when
// the tick took a single sample.
func (c *Cycle) observe(ctx context.Context) (BoardState, error) {
	b, err := c.sample(ctx)
	if err == nil && c.phase == phaseUnderway && !b.Terminal && b.Head() == c.movedFrom {
		b.Terminal = true
	}
	return b, err
}

// sample takes the configured number of samples and reconciles them,
// resampling once when the series is unstable.
func (c *Cycle) sample(ctx context.Context) (BoardState, error) {
	moved := c.phase == phaseUnderway
	snaps := make([]PerceptionSnapshot, 0, c.cfg.SnapshotsPerTick+1)
	for i := 0; i < c.cfg.SnapshotsPerTick; i++ {
		if i > 0 && !c.wait(ctx) {
			return BoardState{}, ctx.Err()
		}
		if s := c.capture(ctx); s != nil {
			snaps = append(snaps, *s)
		}
	}
	b, err := c.reconciler.Reconcile(snaps, moved)
	if !errors.Is(err, ErrUnstableSeries) {
		return b, err
	}
	c.log.Printf("session %s tick %d: unstable head series, resampling", c.session, c.ticks)
	if !c.wait(ctx) {
		return BoardState{}, ctx.Err()
	}
	if s := c.capture(ctx); s != nil {
		snaps = append(snaps, *s)
	}
	return c.reconciler.Settle(snaps, moved)
}

func (c *Cycle) capture(ctx context.Context) *PerceptionSnapshot {
	s, err := c.perception.Capture(ctx)
	if err != nil {
		c.log.Printf("session %s tick %d: capture: %v", c.session, c.ticks, err)
		return nil
	}
	return s
}

func (c *Cycle) plan() {
	c.path, c.fellBack = c.planner.Decide(c.board)
	if c.path == nil {
		c.terminate(ReasonNoSafeMove, nil)
		return
	}
	if c.fellBack {
		c.log.Printf("session %s tick %d: food %s unreachable, survival move", c.session, c.ticks, c.board.Food)
	}
	if c.cfg.Debug {
		PrintGrid(c.log.Writer(), c.board, c.path)
	}
	c.state = Acting
}

func (c *Cycle) act(ctx context.Context) {
	next, _ := c.path.Next()
	move, err := Resolve(c.board.Head(), next, c.cfg.DirectionPolicy)
	if err != nil {
		c.terminate(ReasonInvariantViolation, err)
		return
	}
	c.move = move
	for attempt := 0; attempt <= c.cfg.ActuationRetries; attempt++ {
		if attempt > 0 && !c.wait(ctx) {
			return
		}
		if err = c.actuator.Send(ctx, move); err == nil {
			c.phase = phaseUnderway
			c.movedFrom = c.board.Head()
			c.moves++
			c.record()
			c.state = Verifying
			return
		}
		c.log.Printf("session %s tick %d: send %s attempt %d: %v", c.session, c.ticks, move, attempt+1, err)
	}
	c.terminate(ReasonActuationFailed, fmt.Errorf("send %s: %w", move, err))
}

func (c *Cycle) verify(ctx context.Context) {
	if c.cfg.VerifyMoves {
		if s := c.capture(ctx); s != nil {
			if b, ok := c.reconciler.Board(*s); ok && b.Head() == c.board.Head() {
				c.log.Printf("session %s tick %d: move %s not registered yet", c.session, c.ticks, c.move)
			}
		}
	}

	if c.ticks == 0 {
		c.best = c.board.Score
	}
	c.ticks++
	if c.board.Score > c.best {
		c.gains = append(c.gains, float64(c.ticks-c.lastGain))
		c.best, c.lastGain, c.stale = c.board.Score, c.ticks, 0
	} else {
		c.stale++
	}
	if c.stale > c.cfg.StagnationCeiling {
		c.terminate(ReasonStagnation, fmt.Errorf("score %d unchanged for %d ticks", c.best, c.stale))
		return
	}
	c.state = AwaitingPerception
}

func (c *Cycle) record() {
	rec := TickRecord{
		Session:  c.session,
		Tick:     c.ticks,
		At:       time.Now(),
		Board:    c.board,
		Path:     c.path,
		Fallback: c.fellBack,
		Move:     c.move,
	}
	for _, s := range c.sinks {
		if err := s.Record(rec); err != nil {
			c.log.Printf("session %s tick %d: trace: %v", c.session, c.ticks, err)
		}
	}
}

// wait sleeps for the sample interval unless ctx ends first.
func (c *Cycle) wait(ctx context.Context) bool {
	if c.cfg.SampleInterval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.cfg.SampleInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Cycle) terminate(reason Reason, err error) {
	c.state = Terminated
	c.reason, c.reasonErr = reason, err
	c.board, c.path = BoardState{}, nil
	if err != nil {
		c.log.Printf("session %s: terminated after %d ticks: %s: %v", c.session, c.ticks, reason, err)
		return
	}
	c.log.Printf("session %s: terminated after %d ticks: %s", c.session, c.ticks, reason)
}

func (c *Cycle) report() Report {
	r := Report{
		Session: c.session,
		Reason:  c.reason,
		Err:     c.reasonErr,
		Ticks:   c.ticks,
		Moves:   c.moves,
		Score:   c.score,
	}
	switch len(c.gains) {
	case 0:
	case 1:
		r.GainMean = c.gains[0]
	default:
		r.GainMean, r.GainStdDev = stat.MeanStdDev(c.gains, nil)
	}
	return r
}
