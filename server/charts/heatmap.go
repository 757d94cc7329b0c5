// charts renders solver snapshots as standalone echarts pages.
package charts

import (
	"fmt"
	"io"
	"math"

	"gridmdp/grid_world"
	"gridmdp/reinforcement"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// NewValueHeatMap plots the snapshot's values by cell, with row 0 at the top as printed in a
// console. Blocked and non-finite cells are left out.
func NewValueHeatMap(snapshot reinforcement.Snapshot) *charts.HeatMap {
	grid := snapshot.Grid
	rows, cols := grid.Dims()

	xLabels := make([]string, cols)
	for c := range xLabels {
		xLabels[c] = fmt.Sprintf("%d", c)
	}
	yLabels := make([]string, rows)
	for r := range yLabels {
		// Category axes run bottom up.
		yLabels[r] = fmt.Sprintf("%d", rows-1-r)
	}

	min, max := math.Inf(1), math.Inf(-1)
	data := make([]opts.HeatMapData, 0, rows*cols)
	grid.Visit(func(pos grid_world.Position, kind grid_world.CellKind) {
		v := snapshot.Values.At(pos)
		if kind == grid_world.Blocked || math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		min, max = math.Min(min, v), math.Max(max, v)
		data = append(data, opts.HeatMapData{
			Name:  pos.String(),
			Value: [3]interface{}{pos.Col, rows - 1 - pos.Row, math.Round(v*100) / 100},
		})
	})
	if min > max {
		min, max = 0, 0
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%v iteration values", snapshot.Mode),
			Subtitle: fmt.Sprintf("run %s: %v after %d sweeps", snapshot.RunID, snapshot.Phase, snapshot.Sweeps),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category",
			Data: yLabels,
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min: float32(min),
			Max: float32(max),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#d73027", "#fee08b", "#1a9850"},
			},
		}),
	)
	hm.SetXAxis(xLabels).AddSeries("values", data)
	return hm
}

// Render writes a page holding the snapshot's heat map to w.
func Render(w io.Writer, snapshot reinforcement.Snapshot) error {
	page := components.NewPage()
	page.AddCharts(NewValueHeatMap(snapshot))
	return page.Render(w)
}
