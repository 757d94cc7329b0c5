package grid_world

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Encoding selects how grid text tokens are read.
type Encoding int

const (
	// SymbolEncoding reads X, G and S as blocked, goal and start cells. Any other token is a
	// normal cell whose reward is the token if it is numeric, the default reward otherwise.
	SymbolEncoding Encoding = iota
	// RewardEncoding reads every token as an integer reward of a normal cell.
	RewardEncoding
)

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "symbols", "symbol":
		return SymbolEncoding, nil
	case "rewards", "reward":
		return RewardEncoding, nil
	}
	return SymbolEncoding, fmt.Errorf("unknown grid encoding %q", s)
}

func (enc Encoding) String() string {
	if enc == RewardEncoding {
		return "rewards"
	}
	return "symbols"
}

// ErrFormat indicates malformed grid text: ragged rows, bad tokens, or no rows at all.
var ErrFormat = errors.New("grid_world: malformed grid")

// LoadOptions configures Load.
type LoadOptions struct {
	Encoding Encoding
	// DefaultReward is given to symbol cells and non-numeric normal tokens.
	DefaultReward float64
}

// Load reads a grid with one comma-separated row per line. Blank lines are ignored.
func Load(r io.Reader, opts LoadOptions) (*Grid, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var kinds [][]CellKind
	var rewards [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("%w: line %d has %d cells, expected %d",
					ErrFormat, parseErr.Line, len(record), len(kinds[0]))
			}
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}

		line, _ := reader.FieldPos(0)
		rowKinds := make([]CellKind, len(record))
		rowRewards := make([]float64, len(record))
		for c, token := range record {
			if rowKinds[c], rowRewards[c], err = parseToken(strings.TrimSpace(token), opts); err != nil {
				return nil, fmt.Errorf("%w: line %d, column %d: %v", ErrFormat, line, c+1, err)
			}
		}
		kinds = append(kinds, rowKinds)
		rewards = append(rewards, rowRewards)
	}

	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrFormat)
	}
	return NewGrid(kinds, rewards)
}

// LoadFile opens and loads a grid file.
func LoadFile(path string, opts LoadOptions) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	grid, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grid, nil
}

func parseToken(token string, opts LoadOptions) (CellKind, float64, error) {
	if opts.Encoding == RewardEncoding {
		reward, err := strconv.Atoi(token)
		if err != nil {
			return Normal, 0, fmt.Errorf("reward %q is not an integer", token)
		}
		return Normal, float64(reward), nil
	}

	switch strings.ToUpper(token) {
	case BLOCK_SYMBOL:
		return Blocked, opts.DefaultReward, nil
	case GOAL_SYMBOL:
		return Goal, opts.DefaultReward, nil
	case START_SYMBOL:
		return Start, opts.DefaultReward, nil
	case "":
		return Normal, 0, errors.New("empty cell")
	}
	if reward, err := strconv.ParseFloat(token, 64); err == nil {
		return Normal, reward, nil
	}
	return Normal, opts.DefaultReward, nil
}
