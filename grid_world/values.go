package grid_world

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Values is the state-value estimate of every cell, stored densely in row-major order.
// Blocked cells hold NaN. A Values is never mutated after construction: a sweep builds
// a new one, so a *Values may be shared freely between the solver and its readers.
type Values struct {
	m *mat.Dense
}

// NewValues returns the initial estimate for a grid: zero everywhere except NaN at blocked cells.
func NewValues(grid *Grid) *Values {
	rows, cols := grid.Dims()
	data := make([]float64, rows*cols)
	grid.Visit(func(pos Position, kind CellKind) {
		if kind == Blocked {
			data[pos.Row*cols+pos.Col] = math.NaN()
		}
	})
	return &Values{m: mat.NewDense(rows, cols, data)}
}

// ValuesFromSlice wraps a row-major slice of rows*cols values. The slice is owned by the
// result and must not be modified by the caller afterward.
func ValuesFromSlice(rows, cols int, data []float64) (*Values, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d grid", ErrDimensions, len(data), rows, cols)
	}
	return &Values{m: mat.NewDense(rows, cols, data)}, nil
}

// ValuesFromRows copies a rectangular [][]float64 into a Values.
func ValuesFromRows(rows [][]float64) (*Values, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDimensions)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimensions, r, len(row), cols)
		}
		data = append(data, row...)
	}
	return ValuesFromSlice(len(rows), cols, data)
}

func (values *Values) Dims() (rows, cols int) {
	return values.m.Dims()
}

func (values *Values) At(pos Position) float64 {
	return values.m.At(pos.Row, pos.Col)
}

// Rows returns a copy of the values as a [][]float64.
func (values *Values) Rows() [][]float64 {
	rows, cols := values.m.Dims()
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
		mat.Row(out[r], r, values.m)
	}
	return out
}

// CheckDims returns ErrDimensions if the values shape differs from the grid.
func (values *Values) CheckDims(grid *Grid) error {
	vr, vc := values.Dims()
	gr, gc := grid.Dims()
	if vr != gr || vc != gc {
		return fmt.Errorf("%w: values are %dx%d, grid is %dx%d", ErrDimensions, vr, vc, gr, gc)
	}
	return nil
}

// NonFinite counts the updatable cells whose value is NaN or infinite.
func (values *Values) NonFinite(grid *Grid) (n int) {
	grid.Visit(func(pos Position, _ CellKind) {
		if !grid.IsUpdatable(pos) {
			return
		}
		v := values.At(pos)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			n++
		}
	})
	return
}

// Range returns the min and max over finite values. Both are NaN if there are none.
func (values *Values) Range() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	rows, cols := values.m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := values.m.At(r, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	if min > max {
		return math.NaN(), math.NaN()
	}
	return
}

func (values *Values) String() string {
	return fmt.Sprintf("%.3f", mat.Formatted(values.m, mat.Squeeze()))
}
