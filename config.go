package autopilot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the navigator. Nothing is read from package
// state; DefaultConfig documents the values used when a file leaves a key
// out.
type Config struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`

	// WallRing is how many cells from the border count as "near the wall".
	WallRing int `yaml:"wall_ring"`
	// WallPenalty is added to the A* heuristic of near-wall cells.
	WallPenalty int `yaml:"wall_penalty"`
	// SafetyBonus scores survival candidates outside the wall ring.
	SafetyBonus int `yaml:"safety_bonus"`

	MovementThreshold int           `yaml:"movement_threshold"`
	SnapshotsPerTick  int           `yaml:"snapshots_per_tick"`
	SampleInterval    time.Duration `yaml:"sample_interval"`

	StagnationCeiling int `yaml:"stagnation_ceiling"`
	PerceptionRetries int `yaml:"perception_retries"`
	ActuationRetries  int `yaml:"actuation_retries"`

	// TailPassable lets the survival move step onto the current tail cell,
	// assuming it vacates this tick. The A* search never does.
	TailPassable    bool            `yaml:"tail_passable"`
	DirectionPolicy DirectionPolicy `yaml:"direction_policy"`

	VerifyMoves bool `yaml:"verify_moves"`
	Debug       bool `yaml:"debug"`
}

// DefaultConfig returns the 15x15 layout with the +5 near-wall penalty.
func DefaultConfig() Config {
	return Config{
		Cols:              15,
		Rows:              15,
		WallRing:          1,
		WallPenalty:       5,
		SafetyBonus:       3,
		MovementThreshold: 2,
		SnapshotsPerTick:  2,
		SampleInterval:    60 * time.Millisecond,
		StagnationCeiling: 400,
		PerceptionRetries: 5,
		ActuationRetries:  2,
		TailPassable:      false,
		DirectionPolicy:   PolicyStrict,
		VerifyMoves:       false,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Cols < 1 || c.Rows < 1:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidConfig, c.Cols, c.Rows)
	case c.WallRing < 0 || c.WallPenalty < 0 || c.SafetyBonus < 0:
		return fmt.Errorf("%w: negative wall ring, penalty or bonus", ErrInvalidConfig)
	case c.MovementThreshold < 0:
		return fmt.Errorf("%w: movement_threshold %d", ErrInvalidConfig, c.MovementThreshold)
	case c.SnapshotsPerTick < 1:
		return fmt.Errorf("%w: snapshots_per_tick %d", ErrInvalidConfig, c.SnapshotsPerTick)
	case c.SampleInterval < 0:
		return fmt.Errorf("%w: sample_interval %s", ErrInvalidConfig, c.SampleInterval)
	case c.StagnationCeiling < 1:
		return fmt.Errorf("%w: stagnation_ceiling %d", ErrInvalidConfig, c.StagnationCeiling)
	case c.PerceptionRetries < 0 || c.ActuationRetries < 0:
		return fmt.Errorf("%w: negative retry budget", ErrInvalidConfig)
	}
	if !c.DirectionPolicy.Valid() {
		return fmt.Errorf("%w: direction_policy %q", ErrInvalidConfig, c.DirectionPolicy)
	}
	return nil
}

// Mapper returns the grid mapper for the configured dimensions.
func (c Config) Mapper() GridMapper {
	return GridMapper{Cols: c.Cols, Rows: c.Rows}
}
