package cell_views

import (
	"fmt"
	"html/template"
	"math"

	"gridmdp/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

const (
	// Cell height/width size in pixels before projection.
	surfaceCellDim = 80.0
	// Height in cells of the span between the lowest and highest value.
	surfaceRelief = 3.0
)

// angle of the x and y axes (30°)
var sinAng, cosAng = math.Sin(math.Pi / 6), math.Cos(math.Pi / 6)

// ValueFunction shows the current value function as an isometric projection of the
// surface (col, row, value).
type ValueFunction struct {
	id            string
	width, height float64 // canvas size in pixels
	updates       <-chan []fastview.EleUpdate
}

// NewValueFunction sizes the canvas from the initial frame; the grid shape never changes.
func NewValueFunction(
	done <-chan struct{},
	initial Frame,
	frames <-chan Frame,
) (vf *ValueFunction) {
	rows, cols := len(initial.Cells), 0
	if rows > 0 {
		cols = len(initial.Cells[0])
	}
	vf = &ValueFunction{
		id:     "valuefunction",
		width:  float64(rows+cols) * surfaceCellDim,
		height: float64(rows+cols) * surfaceCellDim,
	}
	vf.updates = channerics.Convert(done, frames, vf.onUpdate)
	return
}

func (vf *ValueFunction) Updates() <-chan []fastview.EleUpdate {
	return vf.updates
}

// project applies an isometric projection to the passed point, where z is already in cell units.
func project(x, y, z float64) (float64, float64) {
	sx := (x - y) * cosAng * surfaceCellDim
	sy := (x+y)*sinAng*surfaceCellDim - z*surfaceCellDim
	return sx, sy
}

// funcPolygon is the projected quad spanning four adjacent cells.
type funcPolygon struct {
	Id     string
	Fill   string
	ax, ay float64
	bx, by float64
	cx, cy float64
	dx, dy float64
}

// Points returns a string suitable for the svg-polygon 'points' attribute.
// The values are truncated to ints, which is a bit of premature svg-optimization.
func (fp *funcPolygon) Points() string {
	return fmt.Sprintf("%d,%d %d,%d %d,%d %d,%d",
		int(fp.ax), int(fp.ay),
		int(fp.bx), int(fp.by),
		int(fp.cx), int(fp.cy),
		int(fp.dx), int(fp.dy),
	)
}

func (fp *funcPolygon) bounds() (minX, minY, maxX, maxY float64) {
	minX = math.Min(math.Min(fp.ax, fp.bx), math.Min(fp.cx, fp.dx))
	maxX = math.Max(math.Max(fp.ax, fp.bx), math.Max(fp.cx, fp.dx))
	minY = math.Min(math.Min(fp.ay, fp.by), math.Min(fp.cy, fp.dy))
	maxY = math.Max(math.Max(fp.ay, fp.by), math.Max(fp.cy, fp.dy))
	return
}

// height maps a cell value into [0, surfaceRelief]. Blocked and non-finite cells sit at the floor.
func height(cell Cell, min, max float64) float64 {
	v := cell.Value
	if math.IsNaN(v) || math.IsInf(v, 0) || max <= min {
		return 0
	}
	return surfaceRelief * (v - min) / (max - min)
}

// surface returns the polygons of the value surface in painter's order (far to near), plus
// the transform that fits them on the canvas. Grids with a single row or column have no surface.
func (vf *ValueFunction) surface(frame Frame) (polygons []*funcPolygon, transform string) {
	cells := frame.Cells
	xmin, ymin := math.MaxFloat64, math.MaxFloat64
	xmax, ymax := -math.MaxFloat64, -math.MaxFloat64

	for ri := 0; ri < len(cells)-1; ri++ {
		row := cells[ri]
		for ci := len(row) - 2; ci >= 0; ci-- {
			// A is bottom left, B top left, C top right and D bottom right.
			quad := [4]Cell{cells[ri+1][ci], cells[ri][ci], cells[ri][ci+1], cells[ri+1][ci+1]}
			fp := &funcPolygon{Id: fmt.Sprintf("%d-%d-value-polygon", ri, ci)}
			var xs, ys [4]float64
			var zsum float64
			for i, cell := range quad {
				z := height(cell, frame.Min, frame.Max)
				zsum += z
				xs[i], ys[i] = project(float64(cell.X), float64(cell.Y), z)
			}
			fp.ax, fp.ay = xs[0], ys[0]
			fp.bx, fp.by = xs[1], ys[1]
			fp.cx, fp.cy = xs[2], ys[2]
			fp.dx, fp.dy = xs[3], ys[3]
			fp.Fill = heatFill(frame.Min+(zsum/4/surfaceRelief)*(frame.Max-frame.Min), frame.Min, frame.Max)

			minX, minY, maxX, maxY := fp.bounds()
			xmin, ymin = math.Min(xmin, minX), math.Min(ymin, minY)
			xmax, ymax = math.Max(xmax, maxX), math.Max(ymax, maxY)
			polygons = append(polygons, fp)
		}
	}

	if len(polygons) == 0 {
		return nil, "translate(0 0)"
	}
	// Scale down only when the plot does not fit.
	scaler := math.Min(
		math.Min(vf.width/(xmax-xmin), vf.height/(ymax-ymin)),
		1.0,
	)
	transform = fmt.Sprintf("scale(%f) translate(%d %d)", scaler, int(-xmin), int(-ymin))
	return
}

// Returns the set of view updates needed for the view to reflect current values.
func (vf *ValueFunction) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	polygons, transform := vf.surface(frame)
	for _, fp := range polygons {
		ops = append(ops, fastview.SetAttrs(fp.Id, "points", fp.Points(), "fill", fp.Fill))
	}
	ops = append(ops, fastview.SetAttrs(vf.id+"-group", "transform", transform))
	return
}

// Parse returns an svg of polygons plotting the value function surface as a 2D projection.
func (vf *ValueFunction) Parse(
	t *template.Template,
) (name string, err error) {
	name = vf.id
	surfaceFn := func(frame Frame) map[string]interface{} {
		polygons, transform := vf.surface(frame)
		return map[string]interface{}{"Polygons": polygons, "Transform": transform}
	}
	// The order of polygon creation forms a visual surface by obscuring prior polygons.
	_, err = t.Funcs(template.FuncMap{"valueSurface": surfaceFn}).Parse(
		`{{ define "` + name + `" }}
		<div style="display:inline-block; vertical-align:top; padding:10px;">
			{{ $surface := valueSurface . }}
			<svg id="` + vf.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprintf("%d", int(vf.width)) + `px"
				height="` + fmt.Sprintf("%d", int(vf.height)) + `px"
				style="shape-rendering: crispEdges; stroke: lightgrey; stroke-opacity: 1.0; stroke-width: 2;">
				<g id="` + vf.id + `-group" transform="{{ $surface.Transform }}">
				{{ range $polygon := $surface.Polygons }}
					<polygon id="{{ $polygon.Id }}" fill="{{ $polygon.Fill }}" fill-opacity="1.0"
						points="{{ $polygon.Points }}" />
				{{ end }}
				</g>
			</svg>
		</div>
		{{ end }}`)
	return
}
