package grid_world

import (
	"fmt"
	"io"
	"math"

	"github.com/logrusorgru/aurora"
)

// Printer writes console renderings of grids, values and policies.
type Printer struct {
	w  io.Writer
	au aurora.Aurora
}

// NewPrinter returns a printer writing to w, with ANSI colors if colors is set.
func NewPrinter(w io.Writer, colors bool) *Printer {
	return &Printer{
		w:  w,
		au: aurora.NewAurora(colors),
	}
}

// ShowGrid prints the cell kinds, for visual reference.
func (p *Printer) ShowGrid(grid *Grid) {
	rows, cols := grid.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			kind := grid.Kind(Position{Row: r, Col: c})
			fmt.Fprint(p.w, p.colorize(kind, fmt.Sprintf("%c ", kind.Symbol())))
		}
		fmt.Fprintln(p.w)
	}
}

// ShowValues prints the values table. Blocked cells print as "X".
func (p *Printer) ShowValues(grid *Grid, values *Values) {
	rows, cols := grid.Dims()
	for r := 0; r < rows; r++ {
		fmt.Fprint(p.w, p.au.White("|"))
		for c := 0; c < cols; c++ {
			pos := Position{Row: r, Col: c}
			v := values.At(pos)
			cell := fmt.Sprintf("%8.2f ", v)
			if math.IsNaN(v) {
				cell = fmt.Sprintf("%8s ", "X")
			}
			fmt.Fprint(p.w, p.colorize(grid.Kind(pos), cell))
			fmt.Fprint(p.w, p.au.White("|"))
		}
		fmt.Fprintln(p.w)
	}
}

// ShowPolicy prints every cell's action set as arrows in canonical order; goals print as "G",
// blocked cells as "X".
func (p *Printer) ShowPolicy(grid *Grid, policy Policy) {
	rows, cols := grid.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos := Position{Row: r, Col: c}
			kind := grid.Kind(pos)
			var arrows string
			switch {
			case kind == Goal || kind == Blocked:
				arrows = string(kind.Symbol())
			case policy == nil:
				arrows = "?"
			default:
				for _, action := range policy.At(pos).Members() {
					arrows += string(action.Arrow())
				}
			}
			fmt.Fprint(p.w, p.colorize(kind, fmt.Sprintf("%-5s", arrows)))
		}
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) colorize(kind CellKind, s string) aurora.Value {
	switch kind {
	case Goal:
		return p.au.Green(s)
	case Blocked:
		return p.au.Red(s)
	case Start:
		return p.au.Cyan(s)
	}
	return p.au.Blue(s)
}
