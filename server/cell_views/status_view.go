package cell_views

import (
	"html/template"
	"strconv"

	"gridmdp/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatusBar shows the solver's run id, mode, phase and progress counters.
type StatusBar struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewStatusBar(
	done <-chan struct{},
	frames <-chan Frame,
) (sb *StatusBar) {
	sb = &StatusBar{id: "status"}
	sb.updates = channerics.Convert(done, frames, sb.onUpdate)
	return
}

func (sb *StatusBar) Updates() <-chan []fastview.EleUpdate {
	return sb.updates
}

func (sb *StatusBar) fieldId(field string) string {
	return sb.id + "-" + field
}

func (sb *StatusBar) onUpdate(frame Frame) []fastview.EleUpdate {
	status := frame.Status
	return []fastview.EleUpdate{
		fastview.SetText(sb.fieldId("phase"), status.Phase),
		fastview.SetText(sb.fieldId("iteration"), strconv.Itoa(status.Iteration)),
		fastview.SetText(sb.fieldId("sweeps"), strconv.Itoa(status.Sweeps)),
		fastview.SetText(sb.fieldId("delta"), status.Delta),
		fastview.SetText(sb.fieldId("anomalies"), strconv.Itoa(status.Anomalies)),
	}
}

// Parse adds the status bar template to t. RunID and Mode are fixed for the lifetime of a run.
func (sb *StatusBar) Parse(
	t *template.Template,
) (name string, err error) {
	name = sb.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + sb.id + `" style="font-family: monospace; padding:10px;">
			run <span id="` + sb.fieldId("runid") + `">{{ .Status.RunID }}</span>
			| mode <span id="` + sb.fieldId("mode") + `">{{ .Status.Mode }}</span>
			| phase <span id="` + sb.fieldId("phase") + `">{{ .Status.Phase }}</span>
			| iteration <span id="` + sb.fieldId("iteration") + `">{{ .Status.Iteration }}</span>
			| sweeps <span id="` + sb.fieldId("sweeps") + `">{{ .Status.Sweeps }}</span>
			| delta <span id="` + sb.fieldId("delta") + `">{{ .Status.Delta }}</span>
			| anomalies <span id="` + sb.fieldId("anomalies") + `">{{ .Status.Anomalies }}</span>
		</div>
		{{ end }}`)
	return
}
