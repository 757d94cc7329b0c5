package reinforcement

import (
	"fmt"
	"math"

	"gridmdp/atomic_float"
	. "gridmdp/grid_world"

	"golang.org/x/sync/errgroup"
)

// cellUpdate computes the new value of one updatable cell from the frozen old values.
type cellUpdate func(pos Position) float64

// Lookahead is the one-step return of taking action from pos: the transition reward plus
// the discounted value of the successor. Off-grid and blocked moves are self-loops.
func Lookahead(
	grid *Grid,
	values *Values,
	gamma float64,
	rewards RewardSource,
	pos Position,
	action Action,
) float64 {
	succ := grid.Successor(pos, action)
	return rewards.Reward(grid, pos, succ) + gamma*values.At(succ)
}

// EvaluatePolicy performs one synchronous sweep of iterative policy evaluation, where every
// cell's actions are taken with equal probability. It returns the new values and the max
// absolute change over updated cells.
func EvaluatePolicy(
	grid *Grid,
	values *Values,
	policy Policy,
	gamma float64,
	rewards RewardSource,
	workers int,
) (*Values, float64, error) {
	if err := checkInputs(grid, values); err != nil {
		return nil, 0, err
	}
	if err := policy.CheckDims(grid); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	var emptyErr error
	grid.Visit(func(pos Position, _ CellKind) {
		if emptyErr == nil && grid.IsUpdatable(pos) && policy.At(pos).IsEmpty() {
			emptyErr = fmt.Errorf("%w: empty action set at non-terminal cell %v", ErrConfiguration, pos)
		}
	})
	if emptyErr != nil {
		return nil, 0, emptyErr
	}

	return sweep(grid, values, workers, func(pos Position) float64 {
		actions := policy.At(pos).Members()
		p := 1.0 / float64(len(actions))
		expected := 0.0
		for _, action := range actions {
			expected += p * Lookahead(grid, values, gamma, rewards, pos, action)
		}
		return expected
	})
}

// IterateValues performs one synchronous sweep of value iteration: every cell takes the max
// lookahead over all four actions.
func IterateValues(
	grid *Grid,
	values *Values,
	gamma float64,
	rewards RewardSource,
	workers int,
) (*Values, float64, error) {
	if err := checkInputs(grid, values); err != nil {
		return nil, 0, err
	}

	return sweep(grid, values, workers, func(pos Position) float64 {
		best := math.Inf(-1)
		for _, action := range Actions {
			best = math.Max(best, Lookahead(grid, values, gamma, rewards, pos, action))
		}
		return best
	})
}

func checkInputs(grid *Grid, values *Values) error {
	if grid == nil || values == nil {
		return fmt.Errorf("%w: nil grid or values", ErrConfiguration)
	}
	if err := values.CheckDims(grid); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// sweep applies update to every updatable cell, reading only the old values and writing a new
// array. Goal and blocked cells carry their old value over. With more than one worker rows are
// partitioned across goroutines; each writes a disjoint row of the output.
func sweep(
	grid *Grid,
	values *Values,
	workers int,
	update cellUpdate,
) (*Values, float64, error) {
	rows, cols := grid.Dims()
	data := make([]float64, rows*cols)

	sweepRow := func(r int) (rowDelta float64) {
		for c := 0; c < cols; c++ {
			pos := Position{Row: r, Col: c}
			old := values.At(pos)
			if !grid.IsUpdatable(pos) {
				data[r*cols+c] = old
				continue
			}
			next := update(pos)
			data[r*cols+c] = next
			rowDelta = math.Max(rowDelta, change(old, next))
		}
		return
	}

	var delta float64
	if workers <= 1 || rows == 1 {
		for r := 0; r < rows; r++ {
			delta = math.Max(delta, sweepRow(r))
		}
	} else {
		maxDelta := atomic_float.NewAtomicFloat64(0)
		group := errgroup.Group{}
		group.SetLimit(workers)
		for r := 0; r < rows; r++ {
			r := r
			group.Go(func() error {
				maxDelta.AtomicMax(sweepRow(r))
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, 0, err
		}
		delta = maxDelta.AtomicRead()
	}

	next, err := ValuesFromSlice(rows, cols, data)
	if err != nil {
		return nil, 0, err
	}
	return next, delta, nil
}

// change is the absolute difference of two values. A change that is not a number, such as
// between two infinities, counts as infinite so that diverging values never look converged.
func change(old, next float64) float64 {
	if old == next {
		return 0
	}
	d := math.Abs(next - old)
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
