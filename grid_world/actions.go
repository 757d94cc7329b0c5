package grid_world

import (
	"fmt"
	"strings"
)

// Action is one of the four compass moves.
type Action int

const (
	Up Action = iota
	Down
	Left
	Right
	NUM_ACTIONS = 4
)

// Actions is the canonical action order used for iteration and display.
var Actions = [NUM_ACTIONS]Action{Up, Down, Left, Right}

// Row and column deltas per action, indexed by Action.
var actionDeltas = [NUM_ACTIONS]Position{
	Up:    {Row: -1, Col: 0},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
	Right: {Row: 0, Col: 1},
}

var actionLetters = [NUM_ACTIONS]byte{'U', 'D', 'L', 'R'}

// Apply returns pos shifted by the action's delta, without any bounds checking.
func (action Action) Apply(pos Position) Position {
	delta := actionDeltas[action]
	return Position{Row: pos.Row + delta.Row, Col: pos.Col + delta.Col}
}

func (action Action) String() string {
	if action < 0 || action >= NUM_ACTIONS {
		return fmt.Sprintf("Action(%d)", int(action))
	}
	return string(actionLetters[action])
}

// Arrow returns the console glyph for the action.
func (action Action) Arrow() rune {
	return [NUM_ACTIONS]rune{'↑', '↓', '←', '→'}[action]
}

// ActionSet is an unordered set of actions, stored as a bitmask so that equality
// ignores insertion order.
type ActionSet uint8

const (
	EmptySet   ActionSet = 0
	AllActions ActionSet = 1<<NUM_ACTIONS - 1
)

func NewActionSet(actions ...Action) (set ActionSet) {
	for _, action := range actions {
		set = set.With(action)
	}
	return
}

// ParseActionSet parses a string of action letters such as "UL". The empty string is the empty set.
func ParseActionSet(s string) (set ActionSet, err error) {
	for _, ch := range strings.ToUpper(s) {
		idx := strings.IndexRune("UDLR", ch)
		if idx < 0 {
			return EmptySet, fmt.Errorf("invalid action %q in %q", ch, s)
		}
		set = set.With(Action(idx))
	}
	return
}

func (set ActionSet) With(action Action) ActionSet {
	return set | 1<<uint(action)
}

func (set ActionSet) Contains(action Action) bool {
	return set&(1<<uint(action)) != 0
}

func (set ActionSet) IsEmpty() bool {
	return set == EmptySet
}

func (set ActionSet) Len() (n int) {
	for _, action := range Actions {
		if set.Contains(action) {
			n++
		}
	}
	return
}

// Members returns the actions of the set in canonical order.
func (set ActionSet) Members() (actions []Action) {
	for _, action := range Actions {
		if set.Contains(action) {
			actions = append(actions, action)
		}
	}
	return
}

// String renders the set in canonical order, e.g. "DR"; the empty set is "".
func (set ActionSet) String() string {
	var sb strings.Builder
	for _, action := range set.Members() {
		sb.WriteByte(actionLetters[action])
	}
	return sb.String()
}

// Policy holds the action set of every cell. Goal and blocked cells hold the empty set.
type Policy [][]ActionSet

// NewPolicy returns a rows x cols policy of empty sets.
func NewPolicy(rows, cols int) Policy {
	policy := make(Policy, rows)
	for r := range policy {
		policy[r] = make([]ActionSet, cols)
	}
	return policy
}

// UniformPolicy returns the equiprobable random policy: all four actions on every
// updatable cell, the empty set elsewhere.
func UniformPolicy(grid *Grid) Policy {
	policy := NewPolicy(grid.Dims())
	grid.Visit(func(pos Position, _ CellKind) {
		if grid.IsUpdatable(pos) {
			policy[pos.Row][pos.Col] = AllActions
		}
	})
	return policy
}

func (policy Policy) Dims() (rows, cols int) {
	if len(policy) == 0 {
		return 0, 0
	}
	return len(policy), len(policy[0])
}

func (policy Policy) At(pos Position) ActionSet {
	return policy[pos.Row][pos.Col]
}

// Equal reports whether both policies have the same shape and the same set in every cell.
func (policy Policy) Equal(other Policy) bool {
	if len(policy) != len(other) {
		return false
	}
	for r := range policy {
		if len(policy[r]) != len(other[r]) {
			return false
		}
		for c := range policy[r] {
			if policy[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Strings returns the canonical strings of every cell's set, e.g. for serialization.
func (policy Policy) Strings() [][]string {
	out := make([][]string, len(policy))
	for r := range policy {
		out[r] = make([]string, len(policy[r]))
		for c, set := range policy[r] {
			out[r][c] = set.String()
		}
	}
	return out
}

// CheckDims returns ErrDimensions if the policy shape differs from the grid.
func (policy Policy) CheckDims(grid *Grid) error {
	rows, cols := grid.Dims()
	if len(policy) != rows {
		return fmt.Errorf("%w: policy has %d rows, grid has %d", ErrDimensions, len(policy), rows)
	}
	for r := range policy {
		if len(policy[r]) != cols {
			return fmt.Errorf("%w: policy row %d has %d cols, grid has %d", ErrDimensions, r, len(policy[r]), cols)
		}
	}
	return nil
}
