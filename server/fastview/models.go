// fastview implements a builder pattern for simple server-side views: given an input data
// model, convert it to a view-model and multiplex it to one or more views, whose element
// updates are pushed to the browser over a websocket.
package fastview

import (
	"fmt"
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute keys or 'textContent', values are the strings to which these are set.
	// ('textContent','abc') means 'set ele.textContent to abc'.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// TEXT_CONTENT is the reserved op key that sets an element's text.
const TEXT_CONTENT = "textContent"

// SetText returns an update setting the text of element id.
func SetText(id, text string) EleUpdate {
	return EleUpdate{EleId: id, Ops: []Op{{Key: TEXT_CONTENT, Value: text}}}
}

// SetAttrs returns an update setting attributes of element id from alternating key/value pairs.
func SetAttrs(id string, kvs ...string) EleUpdate {
	if len(kvs)%2 != 0 {
		panic(fmt.Sprintf("fastview: odd number of attribute arguments for %q", id))
	}
	update := EleUpdate{EleId: id}
	for i := 0; i < len(kvs); i += 2 {
		update.Ops = append(update.Ops, Op{Key: kvs[i], Value: kvs[i+1]})
	}
	return update
}

// ViewComponent implements server side views: Parse to add their initial form to a page
// template and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view-component's template to the passed parent, inheriting its func-map,
	// and returns the name of the defined template.
	Parse(*template.Template) (string, error)
}
