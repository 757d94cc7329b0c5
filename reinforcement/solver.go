package reinforcement

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	. "gridmdp/grid_world"

	"github.com/google/uuid"
)

// Mode selects the dynamic programming method.
type Mode int

const (
	PolicyIteration Mode = iota
	ValueIteration
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "policy", "policy-iteration":
		return PolicyIteration, nil
	case "value", "value-iteration":
		return ValueIteration, nil
	}
	return PolicyIteration, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

func (mode Mode) String() string {
	switch mode {
	case PolicyIteration:
		return "policy"
	case ValueIteration:
		return "value"
	}
	return fmt.Sprintf("Mode(%d)", int(mode))
}

// Phase is the solver's state.
type Phase int

const (
	Evaluating Phase = iota
	Improving
	Converged
)

func (phase Phase) String() string {
	switch phase {
	case Evaluating:
		return "evaluating"
	case Improving:
		return "improving"
	case Converged:
		return "converged"
	}
	return fmt.Sprintf("Phase(%d)", int(phase))
}

// SolverConfig holds the parameters of a solve.
type SolverConfig struct {
	Mode    Mode
	Gamma   float64
	Theta   float64
	Rewards RewardSource
	// Workers is the number of goroutines sharing the rows of one sweep; 0 or 1 sweeps serially.
	Workers int
}

// Validate rejects configurations the solver cannot run with.
func (cfg SolverConfig) Validate() error {
	if cfg.Mode != PolicyIteration && cfg.Mode != ValueIteration {
		return fmt.Errorf("%w: unknown mode %v", ErrConfiguration, cfg.Mode)
	}
	if math.IsNaN(cfg.Gamma) || math.IsInf(cfg.Gamma, 0) || cfg.Gamma < 0 {
		return fmt.Errorf("%w: gamma must be finite and non-negative, got %v", ErrConfiguration, cfg.Gamma)
	}
	if math.IsNaN(cfg.Theta) || math.IsInf(cfg.Theta, 0) || cfg.Theta <= 0 {
		return fmt.Errorf("%w: theta must be finite and positive, got %v", ErrConfiguration, cfg.Theta)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrConfiguration, cfg.Workers)
	}
	return cfg.Rewards.validate()
}

// Snapshot is the observable state of a solver after a step. Its Values and Policy are shared
// with the solver but are never mutated, so readers need no copy.
type Snapshot struct {
	RunID string
	Grid  *Grid
	Mode  Mode
	Phase Phase
	// Iteration counts adopted policy changes under policy iteration and sweeps under value iteration.
	Iteration int
	// Sweeps counts every sweep performed.
	Sweeps int
	// Delta is the max change of the last sweep, +Inf before the first.
	Delta  float64
	Values *Values
	// Policy is nil under value iteration until the greedy policy is extracted.
	Policy Policy
	// Anomalies is the number of cells holding non-finite values.
	Anomalies int
	Final     bool
}

// Solver runs policy iteration or value iteration over a grid, one step per call.
// A Solver is not safe for concurrent use; snapshots may be read from any goroutine.
type Solver struct {
	id     string
	grid   *Grid
	cfg    SolverConfig
	phase  Phase
	values *Values
	policy Policy

	iteration int
	sweeps    int
	delta     float64
	anomalies int
}

// NewSolver validates the configuration and returns a solver in the Evaluating phase with zero
// values. Policy iteration starts from the uniform random policy.
func NewSolver(grid *Grid, cfg SolverConfig) (*Solver, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Gamma >= 1 {
		log.Printf("[SOLVER] [WARN] gamma %v >= 1: convergence requires every policy to reach a goal", cfg.Gamma)
	}
	if len(grid.Goals()) == 0 {
		if cfg.Gamma >= 1 {
			log.Printf("[SOLVER] [WARN] no goal cells and gamma %v: values will not converge", cfg.Gamma)
		} else if cfg.Mode == PolicyIteration {
			log.Printf("[SOLVER] [WARN] no goal cells: policy iteration may alternate between tied policies until the sweep limit")
		}
	}

	solver := &Solver{
		id:     uuid.NewString(),
		grid:   grid,
		cfg:    cfg,
		phase:  Evaluating,
		values: NewValues(grid),
		delta:  math.Inf(1),
	}
	if cfg.Mode == PolicyIteration {
		solver.policy = UniformPolicy(grid)
	}
	return solver, nil
}

func (solver *Solver) ID() string {
	return solver.id
}

func (solver *Solver) Phase() Phase {
	return solver.phase
}

func (solver *Solver) Snapshot() Snapshot {
	return Snapshot{
		RunID:     solver.id,
		Grid:      solver.grid,
		Mode:      solver.cfg.Mode,
		Phase:     solver.phase,
		Iteration: solver.iteration,
		Sweeps:    solver.sweeps,
		Delta:     solver.delta,
		Values:    solver.values,
		Policy:    solver.policy,
		Anomalies: solver.anomalies,
		Final:     solver.phase == Converged,
	}
}

// Step advances the solver by one transition: a sweep while Evaluating, an improvement while
// Improving, nothing once Converged. Errors leave the solver unchanged.
func (solver *Solver) Step() (Snapshot, error) {
	var err error
	switch solver.phase {
	case Evaluating:
		err = solver.evaluate()
	case Improving:
		err = solver.improve()
	}
	return solver.Snapshot(), err
}

func (solver *Solver) evaluate() error {
	var (
		values *Values
		delta  float64
		err    error
	)
	cfg := solver.cfg
	if cfg.Mode == PolicyIteration {
		values, delta, err = EvaluatePolicy(solver.grid, solver.values, solver.policy, cfg.Gamma, cfg.Rewards, cfg.Workers)
	} else {
		values, delta, err = IterateValues(solver.grid, solver.values, cfg.Gamma, cfg.Rewards, cfg.Workers)
	}
	if err != nil {
		return err
	}

	solver.values = values
	solver.delta = delta
	solver.sweeps++
	if cfg.Mode == ValueIteration {
		solver.iteration++
	}

	if n := values.NonFinite(solver.grid); n > 0 {
		if n != solver.anomalies {
			log.Printf("[SOLVER] [WARN] run %s sweep %d: %v in %d cells", solver.id, solver.sweeps, ErrNumericAnomaly, n)
		}
		solver.anomalies = n
	} else {
		solver.anomalies = 0
	}

	if delta < cfg.Theta {
		solver.phase = Improving
	}
	return nil
}

func (solver *Solver) improve() error {
	cfg := solver.cfg
	candidate, err := Improve(solver.grid, solver.values, cfg.Gamma, cfg.Rewards)
	if err != nil {
		return err
	}

	if cfg.Mode == ValueIteration {
		solver.policy = candidate
		solver.phase = Converged
		return nil
	}

	if candidate.Equal(solver.policy) {
		solver.phase = Converged
		return nil
	}

	solver.policy = candidate
	solver.values = NewValues(solver.grid)
	solver.delta = math.Inf(1)
	solver.iteration++
	solver.phase = Evaluating
	return nil
}

// Solve steps until convergence or until ctx is done. It imposes no sweep ceiling; see Train.
func (solver *Solver) Solve(ctx context.Context) (Snapshot, error) {
	for solver.phase != Converged {
		select {
		case <-ctx.Done():
			return solver.Snapshot(), ctx.Err()
		default:
		}
		if _, err := solver.Step(); err != nil {
			return solver.Snapshot(), err
		}
	}
	return solver.Snapshot(), nil
}
