package grid_world

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("When loading symbol grids", t, func() {
		opts := LoadOptions{Encoding: SymbolEncoding, DefaultReward: -1}

		Convey("Symbols are classified and other tokens are normal cells", func() {
			grid, err := Load(strings.NewReader("S,o,X\no, 5 ,G\n"), opts)
			So(err, ShouldBeNil)
			rows, cols := grid.Dims()
			So(rows, ShouldEqual, 2)
			So(cols, ShouldEqual, 3)
			So(grid.Kind(Position{0, 0}), ShouldEqual, Start)
			So(grid.Kind(Position{0, 1}), ShouldEqual, Normal)
			So(grid.Kind(Position{0, 2}), ShouldEqual, Blocked)
			So(grid.Kind(Position{1, 2}), ShouldEqual, Goal)
			So(grid.Reward(Position{0, 1}), ShouldEqual, -1.0)
			So(grid.Reward(Position{1, 1}), ShouldEqual, 5.0)
			So(grid.Goals(), ShouldResemble, []Position{{1, 2}})
			So(grid.Starts(), ShouldResemble, []Position{{0, 0}})
		})

		Convey("Blank lines and comments are skipped", func() {
			grid, err := Load(strings.NewReader("# a comment\no,o\n\nG,o\n"), opts)
			So(err, ShouldBeNil)
			rows, _ := grid.Dims()
			So(rows, ShouldEqual, 2)
		})

		Convey("Ragged rows are a format error", func() {
			_, err := Load(strings.NewReader("o,o,o\no,o\n"), opts)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 2")
		})

		Convey("Empty input is a format error", func() {
			_, err := Load(strings.NewReader(""), opts)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
		})

		Convey("Empty cells are a format error", func() {
			_, err := Load(strings.NewReader("o,,o\n"), opts)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
		})
	})

	Convey("When loading reward grids", t, func() {
		opts := LoadOptions{Encoding: RewardEncoding}

		Convey("Every token is an integer reward of a normal cell", func() {
			grid, err := Load(strings.NewReader("-1,-1,10\n-1,-5,-1\n"), opts)
			So(err, ShouldBeNil)
			So(grid.Reward(Position{0, 2}), ShouldEqual, 10.0)
			So(grid.Reward(Position{1, 1}), ShouldEqual, -5.0)
			So(grid.Kind(Position{1, 1}), ShouldEqual, Normal)
			So(grid.Goals(), ShouldBeEmpty)
		})

		Convey("A non-integer token is a format error", func() {
			_, err := Load(strings.NewReader("-1,abc\n"), opts)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "column 2")

			_, err = Load(strings.NewReader("-1,0.5\n"), opts)
			So(errors.Is(err, ErrFormat), ShouldBeTrue)
		})
	})

	Convey("When loading from a file", t, func() {
		path := filepath.Join(t.TempDir(), "grid.txt")
		So(os.WriteFile(path, []byte("-1,-1\n-1,-1\n"), 0o644), ShouldBeNil)

		grid, err := LoadFile(path, LoadOptions{Encoding: RewardEncoding})
		So(err, ShouldBeNil)
		rows, cols := grid.Dims()
		So(rows*cols, ShouldEqual, 4)
		So(grid.Reward(Position{1, 1}), ShouldEqual, -1.0)

		grid, err = LoadFile(path, LoadOptions{Encoding: SymbolEncoding})
		So(err, ShouldBeNil)
		So(grid.Kind(Position{0, 0}), ShouldEqual, Normal)

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"), LoadOptions{})
		So(err, ShouldNotBeNil)
	})
}

func TestGrid(t *testing.T) {
	Convey("Given a 3x3 grid with a blocked center", t, func() {
		grid, err := Load(strings.NewReader("o,o,o\no,X,o\no,o,o\n"), LoadOptions{DefaultReward: -1})
		So(err, ShouldBeNil)

		Convey("Moves off the grid are self-loops", func() {
			corner := Position{0, 0}
			So(grid.Successor(corner, Up), ShouldResemble, corner)
			So(grid.Successor(corner, Left), ShouldResemble, corner)
			So(grid.Successor(corner, Down), ShouldResemble, Position{1, 0})
			So(grid.Successor(corner, Right), ShouldResemble, Position{0, 1})
		})

		Convey("Moves into a blocked cell are self-loops", func() {
			edge := Position{0, 1}
			So(grid.Successor(edge, Down), ShouldResemble, edge)
			So(grid.Successor(Position{1, 0}, Right), ShouldResemble, Position{1, 0})
		})

		Convey("Goals are marked on a copy", func() {
			withGoals, err := grid.WithGoals(Position{0, 0}, Position{2, 2})
			So(err, ShouldBeNil)
			So(withGoals.Goals(), ShouldResemble, []Position{{0, 0}, {2, 2}})
			So(grid.Goals(), ShouldBeEmpty)
			So(withGoals.IsTerminal(Position{2, 2}), ShouldBeTrue)
			So(withGoals.IsUpdatable(Position{2, 2}), ShouldBeFalse)
		})

		Convey("Goals outside the grid or on blocked cells are rejected", func() {
			_, err := grid.WithGoals(Position{3, 0})
			So(errors.Is(err, ErrInvalidGoal), ShouldBeTrue)
			_, err = grid.WithGoals(Position{1, 1})
			So(errors.Is(err, ErrInvalidGoal), ShouldBeTrue)
		})
	})

	Convey("Grids must be rectangular and non-empty", t, func() {
		_, err := NewGrid(nil, nil)
		So(errors.Is(err, ErrDimensions), ShouldBeTrue)
		_, err = NewGrid([][]CellKind{{Normal, Normal}, {Normal}}, [][]float64{{0, 0}, {0}})
		So(errors.Is(err, ErrDimensions), ShouldBeTrue)
		_, err = Uniform(0, 3, -1)
		So(errors.Is(err, ErrDimensions), ShouldBeTrue)
	})
}

func TestActionSets(t *testing.T) {
	Convey("Action sets", t, func() {
		Convey("Render in canonical order regardless of insertion order", func() {
			So(NewActionSet(Right, Up, Left).String(), ShouldEqual, "ULR")
			So(NewActionSet(Right, Down), ShouldEqual, NewActionSet(Down, Right))
			So(AllActions.String(), ShouldEqual, "UDLR")
			So(EmptySet.String(), ShouldEqual, "")
		})

		Convey("Have no duplicates", func() {
			So(NewActionSet(Up, Up, Up).Len(), ShouldEqual, 1)
		})

		Convey("Parse from action letters", func() {
			set, err := ParseActionSet("lu")
			So(err, ShouldBeNil)
			So(set, ShouldEqual, NewActionSet(Up, Left))
			_, err = ParseActionSet("UX")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("The uniform policy", t, func() {
		grid, _ := Uniform(2, 2, -1)
		grid, _ = grid.WithGoals(Position{0, 0})
		policy := UniformPolicy(grid)

		So(policy.At(Position{0, 0}).IsEmpty(), ShouldBeTrue)
		So(policy.At(Position{1, 1}), ShouldEqual, AllActions)
		So(policy.CheckDims(grid), ShouldBeNil)
		So(policy.Equal(UniformPolicy(grid)), ShouldBeTrue)
		So(policy.Equal(NewPolicy(2, 2)), ShouldBeFalse)
		So(policy.Strings(), ShouldResemble, [][]string{{"", "UDLR"}, {"UDLR", "UDLR"}})
		So(errors.Is(NewPolicy(2, 3).CheckDims(grid), ErrDimensions), ShouldBeTrue)
	})
}

func TestValues(t *testing.T) {
	Convey("Initial values are zero with NaN at blocked cells", t, func() {
		grid, _ := Load(strings.NewReader("o,X\nG,o\n"), LoadOptions{})
		values := NewValues(grid)

		So(values.At(Position{0, 0}), ShouldEqual, 0.0)
		So(math.IsNaN(values.At(Position{0, 1})), ShouldBeTrue)
		So(values.CheckDims(grid), ShouldBeNil)
		So(values.NonFinite(grid), ShouldEqual, 0)

		min, max := values.Range()
		So(min, ShouldEqual, 0.0)
		So(max, ShouldEqual, 0.0)
	})

	Convey("Values built from rows", t, func() {
		values, err := ValuesFromRows([][]float64{{1, 2}, {3, math.Inf(-1)}})
		So(err, ShouldBeNil)
		So(values.Rows(), ShouldResemble, [][]float64{{1, 2}, {3, math.Inf(-1)}})

		grid, _ := Uniform(2, 2, 0)
		So(values.NonFinite(grid), ShouldEqual, 1)

		min, max := values.Range()
		So(min, ShouldEqual, 1.0)
		So(max, ShouldEqual, 3.0)

		unset, _ := ValuesFromRows([][]float64{{math.NaN(), math.Inf(1)}})
		min, max = unset.Range()
		So(math.IsNaN(min), ShouldBeTrue)
		So(math.IsNaN(max), ShouldBeTrue)

		_, err = ValuesFromRows([][]float64{{1, 2}, {3}})
		So(errors.Is(err, ErrDimensions), ShouldBeTrue)

		small, _ := Uniform(1, 2, 0)
		So(errors.Is(values.CheckDims(small), ErrDimensions), ShouldBeTrue)
	})
}

func TestPrinter(t *testing.T) {
	Convey("Console renderings without colors", t, func() {
		grid, _ := Load(strings.NewReader("o,X\nG,S\n"), LoadOptions{})
		var buf bytes.Buffer
		printer := NewPrinter(&buf, false)

		printer.ShowGrid(grid)
		So(buf.String(), ShouldEqual, "o X \nG S \n")

		buf.Reset()
		printer.ShowValues(grid, NewValues(grid))
		So(buf.String(), ShouldContainSubstring, "0.00")
		So(buf.String(), ShouldContainSubstring, "X")

		buf.Reset()
		policy := NewPolicy(2, 2)
		policy[0][0] = NewActionSet(Down, Right)
		policy[1][1] = NewActionSet(Up)
		printer.ShowPolicy(grid, policy)
		So(buf.String(), ShouldContainSubstring, "↓→")
		So(buf.String(), ShouldContainSubstring, "↑")
	})
}
