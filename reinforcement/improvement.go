package reinforcement

import (
	"fmt"
	"math"

	. "gridmdp/grid_world"
)

// Improve returns the greedy policy for values: on every updatable cell, the set of all actions
// whose lookahead equals the best lookahead exactly. Ties are kept; there is no tolerance.
// Goal and blocked cells get the empty set. If every lookahead of a cell is NaN no action can
// be chosen and ErrNumericAnomaly is returned.
func Improve(
	grid *Grid,
	values *Values,
	gamma float64,
	rewards RewardSource,
) (Policy, error) {
	if err := checkInputs(grid, values); err != nil {
		return nil, err
	}

	policy := NewPolicy(grid.Dims())
	var anomaly error
	grid.Visit(func(pos Position, _ CellKind) {
		if !grid.IsUpdatable(pos) || anomaly != nil {
			return
		}

		var lookaheads [NUM_ACTIONS]float64
		best := math.NaN()
		for _, action := range Actions {
			lookaheads[action] = Lookahead(grid, values, gamma, rewards, pos, action)
			if math.IsNaN(best) || lookaheads[action] > best {
				best = lookaheads[action]
			}
		}
		if math.IsNaN(best) {
			anomaly = fmt.Errorf("%w: no comparable action at %v", ErrNumericAnomaly, pos)
			return
		}

		set := EmptySet
		for _, action := range Actions {
			if lookaheads[action] == best {
				set = set.With(action)
			}
		}
		policy[pos.Row][pos.Col] = set
	})
	if anomaly != nil {
		return nil, anomaly
	}
	return policy, nil
}
