// Package surface defines the map surface a layer control drives: the set of
// active layers, the current zoom, and an event emitter.
package surface

import "layerctl/pkg/layer"

// Event names fired by a surface or by a control attached to it.
const (
	EventLayerAdd        = "layeradd"
	EventLayerRemove     = "layerremove"
	EventZoomEnd         = "zoomend"
	EventMoveEnd         = "moveend"
	EventClick           = "click"
	EventOverlayAdd      = "overlayadd"
	EventOverlayRemove   = "overlayremove"
	EventBaseLayerChange = "baselayerchange"
)

// Surface is the capability set required of a map provider.
type Surface interface {
	AddLayer(l layer.Layer)
	RemoveLayer(l layer.Layer)
	HasLayer(l layer.Layer) bool
	Zoom() float64

	On(name string, h Handler) ListenerID
	Off(name string, id ListenerID)
	Fire(name string, ev Event)
}

// Event is delivered to handlers registered with On.
type Event struct {
	Type  string
	Layer layer.Layer // layer concerned, if any
	Data  any         // event-specific payload
}

// Handler receives events.
type Handler func(Event)

// ListenerID identifies a handler registration for Off.
type ListenerID uint64
