package grid_world

import (
	"errors"
	"fmt"
)

// CellKind classifies a grid cell. The set is closed: every cell is exactly one of these.
type CellKind int

const (
	Normal CellKind = iota
	Blocked
	Goal
	Start
)

// Cell symbols in grid text files. Any other token is a Normal cell.
const (
	BLOCK_SYMBOL = "X"
	GOAL_SYMBOL  = "G"
	START_SYMBOL = "S"
)

func (kind CellKind) String() string {
	switch kind {
	case Normal:
		return "normal"
	case Blocked:
		return "blocked"
	case Goal:
		return "goal"
	case Start:
		return "start"
	}
	return fmt.Sprintf("CellKind(%d)", int(kind))
}

// Symbol returns the rune used when printing the grid in a console.
func (kind CellKind) Symbol() rune {
	switch kind {
	case Blocked:
		return 'X'
	case Goal:
		return 'G'
	case Start:
		return 'S'
	}
	return 'o'
}

// Position is a (row, col) cell coordinate; row 0 is the top row as printed.
type Position struct {
	Row, Col int
}

func (pos Position) String() string {
	return fmt.Sprintf("(%d,%d)", pos.Row, pos.Col)
}

// ErrDimensions indicates a matrix whose shape does not match the grid it is used with.
var ErrDimensions = errors.New("grid_world: dimension mismatch")

// Grid is the immutable classification of every cell plus its reward. Once constructed
// nothing mutates it; derived grids (see WithGoals) are copies.
type Grid struct {
	rows, cols int
	kinds      [][]CellKind
	rewards    [][]float64
}

// NewGrid copies the passed kinds and rewards into a grid. Both must be non-empty and rectangular
// with the same shape.
func NewGrid(kinds [][]CellKind, rewards [][]float64) (*Grid, error) {
	if len(kinds) == 0 || len(kinds[0]) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one row and column", ErrDimensions)
	}
	rows, cols := len(kinds), len(kinds[0])
	if len(rewards) != rows {
		return nil, fmt.Errorf("%w: %d reward rows for %d grid rows", ErrDimensions, len(rewards), rows)
	}

	grid := &Grid{
		rows:    rows,
		cols:    cols,
		kinds:   make([][]CellKind, rows),
		rewards: make([][]float64, rows),
	}
	for r := 0; r < rows; r++ {
		if len(kinds[r]) != cols || len(rewards[r]) != cols {
			return nil, fmt.Errorf("%w: row %d has %d kinds and %d rewards, expected %d",
				ErrDimensions, r, len(kinds[r]), len(rewards[r]), cols)
		}
		grid.kinds[r] = append([]CellKind(nil), kinds[r]...)
		grid.rewards[r] = append([]float64(nil), rewards[r]...)
	}
	return grid, nil
}

// Uniform returns a rows x cols grid of Normal cells which all carry the same reward.
func Uniform(rows, cols int, reward float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, rows, cols)
	}
	kinds := make([][]CellKind, rows)
	rewards := make([][]float64, rows)
	for r := range kinds {
		kinds[r] = make([]CellKind, cols)
		rewards[r] = make([]float64, cols)
		for c := range rewards[r] {
			rewards[r][c] = reward
		}
	}
	return NewGrid(kinds, rewards)
}

func (grid *Grid) Dims() (rows, cols int) {
	return grid.rows, grid.cols
}

func (grid *Grid) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < grid.rows && pos.Col >= 0 && pos.Col < grid.cols
}

func (grid *Grid) Kind(pos Position) CellKind {
	return grid.kinds[pos.Row][pos.Col]
}

func (grid *Grid) Reward(pos Position) float64 {
	return grid.rewards[pos.Row][pos.Col]
}

// IsTerminal reports whether the cell is an absorbing goal.
func (grid *Grid) IsTerminal(pos Position) bool {
	return grid.kinds[pos.Row][pos.Col] == Goal
}

func (grid *Grid) IsBlocked(pos Position) bool {
	return grid.kinds[pos.Row][pos.Col] == Blocked
}

// IsUpdatable reports whether the cell takes part in sweeps: neither a goal nor blocked.
func (grid *Grid) IsUpdatable(pos Position) bool {
	kind := grid.kinds[pos.Row][pos.Col]
	return kind != Goal && kind != Blocked
}

// Successor returns the cell reached by taking action from pos. Moves that leave the grid
// or enter a blocked cell leave the agent where it is.
func (grid *Grid) Successor(pos Position, action Action) Position {
	next := action.Apply(pos)
	if !grid.InBounds(next) || grid.IsBlocked(next) {
		return pos
	}
	return next
}

// Visit calls fn for every cell in row-major order.
func (grid *Grid) Visit(fn func(pos Position, kind CellKind)) {
	for r := 0; r < grid.rows; r++ {
		for c := 0; c < grid.cols; c++ {
			fn(Position{Row: r, Col: c}, grid.kinds[r][c])
		}
	}
}

func (grid *Grid) cellsOf(kind CellKind) (cells []Position) {
	grid.Visit(func(pos Position, k CellKind) {
		if k == kind {
			cells = append(cells, pos)
		}
	})
	return
}

func (grid *Grid) Goals() []Position {
	return grid.cellsOf(Goal)
}

func (grid *Grid) Starts() []Position {
	return grid.cellsOf(Start)
}

// ErrInvalidGoal is returned for a goal coordinate outside the grid or on a blocked cell.
var ErrInvalidGoal = errors.New("grid_world: invalid goal")

// WithGoals returns a copy of the grid with the passed cells marked as goals.
func (grid *Grid) WithGoals(goals ...Position) (*Grid, error) {
	marked, err := NewGrid(grid.kinds, grid.rewards)
	if err != nil {
		return nil, err
	}
	for _, goal := range goals {
		if !grid.InBounds(goal) {
			return nil, fmt.Errorf("%w: %v outside %dx%d grid", ErrInvalidGoal, goal, grid.rows, grid.cols)
		}
		if grid.IsBlocked(goal) {
			return nil, fmt.Errorf("%w: %v is blocked", ErrInvalidGoal, goal)
		}
		marked.kinds[goal.Row][goal.Col] = Goal
	}
	return marked, nil
}
