package reinforcement

import (
	"errors"
	"math"
	"testing"

	. "gridmdp/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func TestImprove(t *testing.T) {
	Convey("Given a symmetric 3x3 grid with a center goal", t, func() {
		grid := mustGrid("o,o,o\no,G,o\no,o,o", LoadOptions{DefaultReward: -1})
		values := mustValues([][]float64{
			{-1.9, -1, -1.9},
			{-1, 0, -1},
			{-1.9, -1, -1.9},
		})

		policy, err := Improve(grid, values, 0.9, Scalar(-1))
		So(err, ShouldBeNil)

		Convey("Corner cells keep every tied action", func() {
			So(policy.At(Position{Row: 0, Col: 0}), ShouldEqual, NewActionSet(Down, Right))
			So(policy.At(Position{Row: 0, Col: 2}), ShouldEqual, NewActionSet(Down, Left))
			So(policy.At(Position{Row: 2, Col: 0}), ShouldEqual, NewActionSet(Up, Right))
			So(policy.At(Position{Row: 2, Col: 2}), ShouldEqual, NewActionSet(Up, Left))
		})

		Convey("Edge cells move straight into the goal", func() {
			So(policy.At(Position{Row: 0, Col: 1}).String(), ShouldEqual, "D")
			So(policy.At(Position{Row: 1, Col: 0}).String(), ShouldEqual, "R")
		})

		Convey("The goal gets the empty set", func() {
			So(policy.At(Position{Row: 1, Col: 1}).IsEmpty(), ShouldBeTrue)
		})
	})

	Convey("Ties are exact, with no tolerance", t, func() {
		grid := mustGrid("o,o,o", LoadOptions{DefaultReward: -1})
		values := mustValues([][]float64{{1.0, 0, 1.0 + 1e-12}})

		policy, err := Improve(grid, values, 1, Scalar(-1))
		So(err, ShouldBeNil)
		So(policy.At(Position{Row: 0, Col: 1}), ShouldEqual, NewActionSet(Right))
	})

	Convey("Blocked cells get the empty set and are never successors", t, func() {
		grid := mustGrid("o,X\nG,o", LoadOptions{DefaultReward: -1})
		values := NewValues(grid)

		policy, err := Improve(grid, values, 0.9, Scalar(-1))
		So(err, ShouldBeNil)
		So(policy.At(Position{Row: 0, Col: 1}).IsEmpty(), ShouldBeTrue)
		// Every move, including the blocked one, is worth -1 + 0.9*0.
		So(policy.At(Position{Row: 0, Col: 0}), ShouldEqual, AllActions)
	})

	Convey("A cell whose lookaheads are all NaN is a numeric anomaly", t, func() {
		grid := mustGrid("o", LoadOptions{DefaultReward: -1})
		values := mustValues([][]float64{{math.NaN()}})

		_, err := Improve(grid, values, 0.9, Scalar(-1))
		So(errors.Is(err, ErrNumericAnomaly), ShouldBeTrue)
	})

	Convey("Improvement does not modify its input", t, func() {
		grid := mustGrid("G,o", LoadOptions{DefaultReward: -1})
		values := mustValues([][]float64{{0, -3}})
		_, err := Improve(grid, values, 0.9, Scalar(-1))
		So(err, ShouldBeNil)
		So(values.Rows(), ShouldResemble, [][]float64{{0, -3}})
	})
}
