// cell_views contains views derived from the Frame view-model.
package cell_views

import (
	"fmt"
	"math"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"
)

// Cell is the view-model of one grid cell, oriented in the svg coordinate system so that
// X is the column and Y the row, with (0,0) at the top left as printed in a console.
// As a rule of thumb, Cell fields should be immediately usable as view parameters.
type Cell struct {
	X, Y   int
	Value  float64
	Text   string
	Fill   string
	Arrows [grid_world.NUM_ACTIONS]Arrow
}

// Arrow is the policy indicator for one action of a cell. Every cell has all four arrows;
// those not in the cell's action set are hidden.
type Arrow struct {
	Id         string
	Dx, Dy     int // offset from the cell center, in units of a quarter cell
	Rotation   int // degrees clockwise from up
	Visibility string
}

// Status describes solver progress for the status line.
type Status struct {
	RunID     string
	Mode      string
	Phase     string
	Iteration int
	Sweeps    int
	Delta     string
	Anomalies int
}

// Frame is everything the views need from one solver snapshot.
type Frame struct {
	Cells  [][]Cell
	Status Status
	// Min and Max bound the finite values, for shading.
	Min, Max float64
}

// Convert transforms a solver snapshot into a Frame for consumption by the views.
func Convert(snapshot reinforcement.Snapshot) Frame {
	grid := snapshot.Grid
	rows, cols := grid.Dims()
	min, max := finiteRange(snapshot.Values)

	frame := Frame{
		Cells: make([][]Cell, rows),
		Min:   min,
		Max:   max,
		Status: Status{
			RunID:     snapshot.RunID,
			Mode:      snapshot.Mode.String(),
			Phase:     snapshot.Phase.String(),
			Iteration: snapshot.Iteration,
			Sweeps:    snapshot.Sweeps,
			Delta:     formatDelta(snapshot.Delta),
			Anomalies: snapshot.Anomalies,
		},
	}

	for r := 0; r < rows; r++ {
		frame.Cells[r] = make([]Cell, cols)
		for c := 0; c < cols; c++ {
			pos := grid_world.Position{Row: r, Col: c}
			kind := grid.Kind(pos)
			value := snapshot.Values.At(pos)

			var actions grid_world.ActionSet
			if snapshot.Policy != nil {
				actions = snapshot.Policy.At(pos)
			}

			frame.Cells[r][c] = Cell{
				X:      c,
				Y:      r,
				Value:  value,
				Text:   valueText(kind, value),
				Fill:   getFill(kind, value, min, max),
				Arrows: arrows(pos, actions),
			}
		}
	}
	return frame
}

func arrows(pos grid_world.Position, actions grid_world.ActionSet) (out [grid_world.NUM_ACTIONS]Arrow) {
	for _, action := range grid_world.Actions {
		step := action.Apply(grid_world.Position{})
		visibility := "hidden"
		if actions.Contains(action) {
			visibility = "visible"
		}
		out[action] = Arrow{
			Id:         arrowId(pos, action),
			Dx:         step.Col,
			Dy:         step.Row,
			Rotation:   [grid_world.NUM_ACTIONS]int{0, 180, 270, 90}[action],
			Visibility: visibility,
		}
	}
	return
}

func arrowId(pos grid_world.Position, action grid_world.Action) string {
	return fmt.Sprintf("%d-%d-arrow-%s", pos.Row, pos.Col, action)
}

func valueTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-text", cell.Y, cell.X)
}

func rectId(cell Cell) string {
	return fmt.Sprintf("%d-%d-rect", cell.Y, cell.X)
}

func valueText(kind grid_world.CellKind, value float64) string {
	switch {
	case kind == grid_world.Blocked:
		return ""
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "+Inf"
	case math.IsInf(value, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.2f", value)
}

func formatDelta(delta float64) string {
	if math.IsInf(delta, 1) {
		return "-"
	}
	return fmt.Sprintf("%.3g", delta)
}

// finiteRange returns the bounds of the finite values, or (0, 0) if there are none.
func finiteRange(values *grid_world.Values) (min, max float64) {
	min, max = values.Range()
	if math.IsNaN(min) {
		return 0, 0
	}
	return
}

func getFill(kind grid_world.CellKind, value, min, max float64) (fill string) {
	switch kind {
	case grid_world.Blocked:
		fill = "dimgray"
	case grid_world.Goal:
		fill = "gold"
	default:
		fill = heatFill(value, min, max)
	}
	return
}

// heatFill shades value by its position between min and max, from red (low) to green (high).
func heatFill(value, min, max float64) string {
	t := 1.0
	switch {
	case math.IsNaN(value) || math.IsInf(value, -1):
		t = 0
	case max > min && !math.IsInf(value, 1):
		t = math.Max(0, math.Min(1, (value-min)/(max-min)))
	}
	return fmt.Sprintf("hsl(%d,70%%,75%%)", int(120*t))
}
