package reinforcement

import (
	"fmt"
	"math"
	"strings"

	"gridmdp/grid_world"
)

// RewardMode selects where a transition's reward comes from.
type RewardMode int

const (
	// ScalarReward gives the same reward to every transition out of a non-terminal cell.
	ScalarReward RewardMode = iota
	// DestinationReward reads the reward of the cell entered. A self-loop enters its own cell.
	DestinationReward
	// SourceReward reads the reward of the cell being left.
	SourceReward
)

func (mode RewardMode) String() string {
	switch mode {
	case ScalarReward:
		return "scalar"
	case DestinationReward:
		return "destination"
	case SourceReward:
		return "source"
	}
	return fmt.Sprintf("RewardMode(%d)", int(mode))
}

// RewardSource computes transition rewards.
type RewardSource struct {
	Mode   RewardMode
	Scalar float64
}

// Scalar returns a reward source giving r on every transition.
func Scalar(r float64) RewardSource {
	return RewardSource{Mode: ScalarReward, Scalar: r}
}

// ParseRewardSource parses a reward convention name. The empty name picks the default for
// the grid encoding: scalar rewards for symbol grids, destination rewards for reward grids.
func ParseRewardSource(name string, enc grid_world.Encoding, scalar float64) (RewardSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		if enc == grid_world.RewardEncoding {
			return RewardSource{Mode: DestinationReward}, nil
		}
		return Scalar(scalar), nil
	case "scalar":
		return Scalar(scalar), nil
	case "destination":
		return RewardSource{Mode: DestinationReward}, nil
	case "source":
		return RewardSource{Mode: SourceReward}, nil
	}
	return RewardSource{}, fmt.Errorf("%w: unknown reward source %q", ErrConfiguration, name)
}

// Reward returns the reward for moving from one cell to another.
func (rs RewardSource) Reward(grid *grid_world.Grid, from, to grid_world.Position) float64 {
	switch rs.Mode {
	case DestinationReward:
		return grid.Reward(to)
	case SourceReward:
		return grid.Reward(from)
	}
	return rs.Scalar
}

func (rs RewardSource) validate() error {
	switch rs.Mode {
	case ScalarReward:
		if math.IsNaN(rs.Scalar) || math.IsInf(rs.Scalar, 0) {
			return fmt.Errorf("%w: non-finite reward %v", ErrConfiguration, rs.Scalar)
		}
	case DestinationReward, SourceReward:
	default:
		return fmt.Errorf("%w: unknown reward mode %v", ErrConfiguration, rs.Mode)
	}
	return nil
}

func (rs RewardSource) String() string {
	if rs.Mode == ScalarReward {
		return fmt.Sprintf("scalar(%g)", rs.Scalar)
	}
	return rs.Mode.String()
}
