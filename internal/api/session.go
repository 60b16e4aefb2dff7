package api

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"

	"layerctl/pkg/control"
	"layerctl/pkg/layer"
	"layerctl/pkg/logging"
	"layerctl/pkg/registry"
	"layerctl/pkg/surface"
	"layerctl/pkg/surface/memsurface"
	"layerctl/pkg/tracker"
)

var (
	// ErrUnknownLayer is returned for a layer id the control does not know.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrUnknownCommand is returned for a command type Apply cannot dispatch.
	ErrUnknownCommand = errors.New("unknown command")
)

// Command types accepted by Session.Apply.
const (
	CmdToggle       = "toggle"
	CmdGroup        = "group"
	CmdFilter       = "filter"
	CmdFilterOpen   = "filter_open"
	CmdFilterCancel = "filter_cancel"
	CmdExpand       = "expand"
	CmdCollapse     = "collapse"
)

// Command is a user interaction with the control, as received over HTTP or
// the websocket.
type Command struct {
	Type    string      `json:"type"`
	ID      registry.ID `json:"id,omitempty"`
	Group   int         `json:"group,omitempty"`
	Checked bool        `json:"checked,omitempty"`
	Value   string      `json:"value,omitempty"`
}

// MapView is the viewport of the map surface.
type MapView struct {
	Center orb.Point
	Zoom   float64
}

// Session owns one control and the map surface it is attached to. The control
// is single-threaded, so every access goes through the session mutex.
type Session struct {
	mu      sync.Mutex
	ctl     *control.Control
	m       *memsurface.Map
	tracker *tracker.Tracker
}

// NewSession attaches ctl to m and records the control events it emits in tr
// and the event log. The layers in active are shown on the map first.
func NewSession(ctl *control.Control, m *memsurface.Map, tr *tracker.Tracker, active ...layer.Layer) *Session {
	s := &Session{ctl: ctl, m: m, tracker: tr}
	for _, l := range active {
		m.AddLayer(l)
	}

	record := func(ev surface.Event) {
		le, ok := ev.Data.(control.LayerEvent)
		if !ok {
			return
		}
		var group string
		if le.Group != nil {
			group = le.Group.Name
		}
		tr.Track(ev.Type, le.Name)
		logging.LogEvent(logging.Event{Type: ev.Type, Layer: le.Name, Group: group})
		slog.Info("Layer selection changed", "event", ev.Type, "layer", le.Name, "group", group)
	}
	m.On(surface.EventOverlayAdd, record)
	m.On(surface.EventOverlayRemove, record)
	m.On(surface.EventBaseLayerChange, record)

	ctl.Attach(m)
	return s
}

// View returns the current control view.
func (s *Session) View() control.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.View()
}

// Apply dispatches a command to the control.
func (s *Session) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CmdToggle:
		s.ctl.Toggle(cmd.ID, cmd.Checked)
	case CmdGroup:
		s.ctl.ToggleGroup(cmd.Group, cmd.Checked)
	case CmdFilter:
		if err := s.ctl.SelectFilter(cmd.ID, cmd.Value); err != nil {
			return err
		}
		s.trackFilter(cmd.ID)
	case CmdFilterOpen:
		return s.ctl.OpenFilter(cmd.ID)
	case CmdFilterCancel:
		if err := s.ctl.CancelFilter(cmd.ID); err != nil {
			return err
		}
		s.trackFilter(cmd.ID)
	case CmdExpand:
		s.ctl.Expand()
	case CmdCollapse:
		s.ctl.Collapse()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

func (s *Session) trackFilter(id registry.ID) {
	if e, ok := s.ctl.Registry().Lookup(id); ok && e.Filter != nil {
		s.tracker.TrackFilterChange(e.Name)
	}
}

// MapView returns the current viewport.
func (s *Session) MapView() MapView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MapView{Center: s.m.Center(), Zoom: s.m.Zoom()}
}

// SetView moves the map viewport.
func (s *Session) SetView(center orb.Point, zoom float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.SetView(center, zoom)
}

// SetLayerActive adds or removes a registered layer directly on the map,
// bypassing the control.
func (s *Session) SetLayerActive(id registry.ID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ctl.Registry().Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, id)
	}
	if active {
		s.m.AddLayer(e.Layer)
	} else {
		s.m.RemoveLayer(e.Layer)
	}
	return nil
}

// ActiveLayers returns the names of the registered layers shown on the map.
func (s *Session) ActiveLayers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, l := range s.m.Layers() {
		if e, ok := s.ctl.Registry().EntryFor(l); ok {
			names = append(names, e.Name)
		}
	}
	return names
}
