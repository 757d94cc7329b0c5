package reinforcement

import (
	"errors"
	"math"
	"strings"
	"testing"

	. "gridmdp/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func mustGrid(text string, opts LoadOptions) *Grid {
	grid, err := Load(strings.NewReader(text), opts)
	if err != nil {
		panic(err)
	}
	return grid
}

func mustValues(rows [][]float64) *Values {
	values, err := ValuesFromRows(rows)
	if err != nil {
		panic(err)
	}
	return values
}

func singleAction(grid *Grid, pos Position, action Action) Policy {
	policy := UniformPolicy(grid)
	policy[pos.Row][pos.Col] = NewActionSet(action)
	return policy
}

func TestEvaluatePolicy(t *testing.T) {
	Convey("Given a 1x2 grid whose right cell is a goal", t, func() {
		symbols := mustGrid("o,G", LoadOptions{DefaultReward: -1})
		start := mustValues([][]float64{{4, 0}})
		left := Position{Row: 0, Col: 0}

		Convey("Moving off the grid evaluates with the cell's own value", func() {
			values, delta, err := EvaluatePolicy(symbols, start, singleAction(symbols, left, Left), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldEqual, 1.0)
			So(delta, ShouldEqual, 3.0)

			values, _, err = EvaluatePolicy(symbols, start, singleAction(symbols, left, Up), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldEqual, 1.0)
		})

		Convey("Goal cells keep their value rather than being zeroed", func() {
			withGoalValue := mustValues([][]float64{{4, 5}})
			values, _, err := EvaluatePolicy(symbols, withGoalValue, UniformPolicy(symbols), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(values.At(Position{Row: 0, Col: 1}), ShouldEqual, 5.0)
		})

		Convey("Actions are weighted uniformly", func() {
			// Three self-loops of -1 + 0.5*4 = 1, and one move into the goal of -1 + 0.
			values, _, err := EvaluatePolicy(symbols, start, UniformPolicy(symbols), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("The input values are left untouched", func() {
			_, _, err := EvaluatePolicy(symbols, start, UniformPolicy(symbols), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(start.Rows(), ShouldResemble, [][]float64{{4, 0}})
		})
	})

	Convey("Given a reward grid", t, func() {
		grid := mustGrid("2,7", LoadOptions{Encoding: RewardEncoding})
		grid, _ = grid.WithGoals(Position{Row: 0, Col: 1})
		start := mustValues([][]float64{{4, 0}})
		left := Position{Row: 0, Col: 0}

		Convey("Destination rewards read the entered cell, which is the cell itself on a self-loop", func() {
			values, _, err := EvaluatePolicy(grid, start, singleAction(grid, left, Left), 0.5, RewardSource{Mode: DestinationReward}, 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldEqual, 4.0)

			values, _, err = EvaluatePolicy(grid, start, singleAction(grid, left, Right), 0.5, RewardSource{Mode: DestinationReward}, 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldEqual, 7.0)
		})

		Convey("Source rewards read the cell being left", func() {
			values, _, err := EvaluatePolicy(grid, start, singleAction(grid, left, Right), 0.5, RewardSource{Mode: SourceReward}, 1)
			So(err, ShouldBeNil)
			So(values.At(left), ShouldEqual, 2.0)
		})
	})

	Convey("Sweeps are synchronous", t, func() {
		grid := mustGrid("G,o,o", LoadOptions{DefaultReward: -1})
		policy := UniformPolicy(grid)
		policy[0][1] = NewActionSet(Left)
		policy[0][2] = NewActionSet(Left)

		values, delta, err := EvaluatePolicy(grid, NewValues(grid), policy, 1, Scalar(-1), 1)
		So(err, ShouldBeNil)
		So(values.Rows(), ShouldResemble, [][]float64{{0, -1, -1}})
		So(delta, ShouldEqual, 1.0)
	})

	Convey("Malformed input fails loudly", t, func() {
		grid := mustGrid("o,o\no,G", LoadOptions{DefaultReward: -1})
		values := NewValues(grid)

		Convey("An empty action set on a non-terminal cell", func() {
			policy := UniformPolicy(grid)
			policy[0][1] = EmptySet
			_, _, err := EvaluatePolicy(grid, values, policy, 0.9, Scalar(-1), 1)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "(0,1)")
		})

		Convey("A policy of the wrong shape", func() {
			_, _, err := EvaluatePolicy(grid, values, NewPolicy(3, 2), 0.9, Scalar(-1), 1)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})

		Convey("Values of the wrong shape", func() {
			wrong := mustValues([][]float64{{0, 0, 0}})
			_, _, err := EvaluatePolicy(grid, wrong, UniformPolicy(grid), 0.9, Scalar(-1), 1)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			_, _, err = IterateValues(grid, wrong, 0.9, Scalar(-1), 1)
			So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
		})
	})
}

func TestIterateValues(t *testing.T) {
	Convey("Given a 3x3 grid with a blocked center", t, func() {
		grid := mustGrid("G,o,o\no,X,o\no,o,o", LoadOptions{DefaultReward: -1})
		center := Position{Row: 1, Col: 1}

		Convey("Blocked cells stay NaN and are never read as successors", func() {
			values := NewValues(grid)
			var delta float64
			var err error
			for i := 0; i < 50; i++ {
				values, delta, err = IterateValues(grid, values, 0.9, Scalar(-1), 1)
				So(err, ShouldBeNil)
			}
			So(math.IsNaN(values.At(center)), ShouldBeTrue)
			So(values.NonFinite(grid), ShouldEqual, 0)
			So(math.IsNaN(delta), ShouldBeFalse)
		})

		Convey("A move into the blocked cell is a self-loop", func() {
			values := mustValues([][]float64{
				{0, 2, 0},
				{0, math.NaN(), 0},
				{0, 0, 0},
			})
			next, _, err := EvaluatePolicy(grid, values, singleAction(grid, Position{Row: 0, Col: 1}, Down), 0.5, Scalar(-1), 1)
			So(err, ShouldBeNil)
			So(next.At(Position{Row: 0, Col: 1}), ShouldEqual, 0.0)
		})
	})

	Convey("Parallel sweeps match serial sweeps", t, func() {
		grid := mustGrid(
			"o,o,o,o,o\n"+
				"o,o,o,o,o\n"+
				"o,o,G,o,o\n"+
				"o,o,o,o,o\n"+
				"o,o,o,o,o\n"+
				"o,o,o,o,o",
			LoadOptions{DefaultReward: -1})
		serial, parallel := NewValues(grid), NewValues(grid)
		for i := 0; i < 20; i++ {
			var serialDelta, parallelDelta float64
			serial, serialDelta, _ = IterateValues(grid, serial, 0.9, Scalar(-1), 1)
			parallel, parallelDelta, _ = IterateValues(grid, parallel, 0.9, Scalar(-1), 4)
			So(parallelDelta, ShouldEqual, serialDelta)
		}
		So(parallel.Rows(), ShouldResemble, serial.Rows())

		evalSerial, deltaSerial, err := EvaluatePolicy(grid, serial, UniformPolicy(grid), 0.9, Scalar(-1), 1)
		So(err, ShouldBeNil)
		evalParallel, deltaParallel, err := EvaluatePolicy(grid, serial, UniformPolicy(grid), 0.9, Scalar(-1), 3)
		So(err, ShouldBeNil)
		So(deltaParallel, ShouldEqual, deltaSerial)
		So(evalParallel.Rows(), ShouldResemble, evalSerial.Rows())
	})

	Convey("Diverging values are never treated as converged", t, func() {
		So(change(math.Inf(-1), math.Inf(1)), ShouldEqual, math.Inf(1))
		So(change(math.NaN(), math.NaN()), ShouldEqual, math.Inf(1))
		So(change(-3, -1), ShouldEqual, 2.0)
	})
}
