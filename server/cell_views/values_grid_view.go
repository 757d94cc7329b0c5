package cell_views

import (
	"html/template"
	"strconv"

	"gridmdp/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// CELL_SIZE is the pixel width and height of a grid cell.
const CELL_SIZE = 100

// ValuesGrid shows each cell's value and the arrows of every action in its policy set.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	frames <-chan Frame,
) (vg *ValuesGrid) {
	vg = &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, frames, vg.onUpdate)
	return
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

// Returns the set of view updates needed for the view to reflect the current values and policy.
func (vg *ValuesGrid) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, row := range frame.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.SetText(valueTextId(cell), cell.Text),
				fastview.SetAttrs(rectId(cell), "fill", cell.Fill),
			)
			for _, arrow := range cell.Arrows {
				ops = append(ops, fastview.SetAttrs(arrow.Id, "visibility", arrow.Visibility))
			}
		}
	}
	return
}

// Parse adds the grid's svg template to t.
func (vg *ValuesGrid) Parse(
	t *template.Template,
) (name string, err error) {
	name = vg.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + vg.id + `" style="display:inline-block; vertical-align:top; padding:10px;">
			{{ $cell_size := ` + strconv.Itoa(CELL_SIZE) + ` }}
			{{ $half := div $cell_size 2 }}
			{{ $quarter := div $cell_size 4 }}
			{{ $rows := len .Cells }}
			{{ $cols := len (index .Cells 0) }}
			<svg width="{{ add (mult $cols $cell_size) 1 }}px" height="{{ add (mult $rows $cell_size) 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					{{ $cx := add (mult $cell.X $cell_size) $half }}
					{{ $cy := add (mult $cell.Y $cell_size) $half }}
					<g>
						<rect id="{{$cell.Y}}-{{$cell.X}}-rect"
							x="{{ mult $cell.X $cell_size }}"
							y="{{ mult $cell.Y $cell_size }}"
							width="{{ $cell_size }}"
							height="{{ $cell_size }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{$cell.Y}}-{{$cell.X}}-value-text"
							x="{{ $cx }}" y="{{ $cy }}"
							dominant-baseline="central" text-anchor="middle"
							>{{ $cell.Text }}</text>
						{{ range $arrow := $cell.Arrows }}
						<text id="{{ $arrow.Id }}"
							visibility="{{ $arrow.Visibility }}"
							dominant-baseline="central" text-anchor="middle"
							transform="translate({{ add $cx (mult $arrow.Dx $quarter) }}, {{ add $cy (mult $arrow.Dy $quarter) }}) rotate({{ $arrow.Rotation }})"
							>&uarr;</text>
						{{ end }}
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
