package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layerctl/pkg/catalog"
	"layerctl/pkg/config"
	"layerctl/pkg/control"
	"layerctl/pkg/registry"
	"layerctl/pkg/surface/memsurface"
	"layerctl/pkg/tracker"
)

type testEnv struct {
	session *Session
	hub     *Hub
	tracker *tracker.Tracker
	handler http.Handler
	ids     map[string]registry.ID
}

// newTestEnv wires the default catalog: Streets (active) and Topography as
// base layers, an exclusive Hydrography group (Rivers from zoom 6, Lakes) and
// Infrastructure with the filterable Roads WMS layer (zoom 8 to 18).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cat, err := catalog.Build(cfg.Layers)
	require.NoError(t, err)

	hub := NewHub(time.Second)
	tr := tracker.New()
	m := memsurface.New(orb.Point{cfg.Map.CenterLon, cfg.Map.CenterLat}, cfg.Map.Zoom)
	ctl := control.New(control.Config{
		Collapsed:       cfg.Control.Collapsed,
		AutoZIndex:      cfg.Control.AutoZIndex,
		ExclusiveGroups: cfg.Control.ExclusiveGroups,
		GroupCheckboxes: true,
	}, cat.Base, cat.Overlays, control.WithRenderer(hub))
	s := NewSession(ctl, m, tr, cat.Active...)

	env := &testEnv{
		session: s,
		hub:     hub,
		tracker: tr,
		handler: NewServer(cfg.Server, NewControlHandler(s, hub), NewMapHandler(s), NewStatsHandler(tr, hub), func() {}).Handler,
		ids:     make(map[string]registry.ID),
	}
	for _, e := range ctl.Registry().Entries() {
		env.ids[e.Name] = e.ID
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) control.View {
	t.Helper()
	var v control.View
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func findItem(v control.View, name string) (control.ItemView, bool) {
	for _, it := range v.Base {
		if it.Name == name {
			return it, true
		}
	}
	for _, g := range v.Groups {
		if g == nil {
			continue
		}
		for _, it := range g.Items {
			if it.Name == name {
				return it, true
			}
		}
	}
	return control.ItemView{}, false
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = env.do(t, "GET", "/api/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version"`)
}

func TestControlHandler_Commands(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           func(env *testEnv) any
		expectedStatus int
		validate       func(t *testing.T, env *testEnv, v control.View)
	}{
		{
			name: "ToggleBase",
			path: "/api/control/toggle",
			body: func(env *testEnv) any {
				return map[string]any{"id": env.ids["Topography"], "checked": true}
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env *testEnv, v control.View) {
				streets, _ := findItem(v, "Streets")
				topo, _ := findItem(v, "Topography")
				assert.False(t, streets.Checked)
				assert.True(t, topo.Checked)
				assert.Equal(t, int64(1), env.tracker.Snapshot()["Topography"].BaseLayerChange)
			},
		},
		{
			name:           "ToggleUnknownLayer",
			path:           "/api/control/toggle",
			body:           func(*testEnv) any { return map[string]any{"id": "nope", "checked": true} },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "GroupCheckbox",
			path:           "/api/control/group",
			body:           func(*testEnv) any { return map[string]any{"group": 1, "checked": true} },
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env *testEnv, v control.View) {
				require.NotNil(t, v.Groups[1])
				assert.True(t, v.Groups[1].Checked)
				roads, _ := findItem(v, "Roads")
				assert.True(t, roads.Checked)
			},
		},
		{
			name: "SelectFilter",
			path: "/api/control/filter",
			body: func(env *testEnv) any {
				return map[string]any{"id": env.ids["Roads"], "value": "primary"}
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env *testEnv, v control.View) {
				roads, _ := findItem(v, "Roads")
				require.NotNil(t, roads.Filter)
				assert.Equal(t, "primary", roads.Filter.Selected)
				assert.True(t, roads.Filter.Applied)
				assert.Equal(t, int64(1), env.tracker.Snapshot()["Roads"].FilterChanges)
			},
		},
		{
			name: "SelectUnknownFilterValue",
			path: "/api/control/filter",
			body: func(env *testEnv) any {
				return map[string]any{"id": env.ids["Roads"], "value": "gravel"}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "OpenAndCancelFilter",
			path: "/api/control/filter/open",
			body: func(env *testEnv) any {
				return map[string]any{"id": env.ids["Roads"]}
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env *testEnv, v control.View) {
				roads, _ := findItem(v, "Roads")
				assert.True(t, roads.Filter.Open)

				w := env.do(t, "POST", "/api/control/filter/cancel", map[string]any{"id": env.ids["Roads"]})
				require.Equal(t, http.StatusOK, w.Code)
				roads, _ = findItem(decodeView(t, w), "Roads")
				assert.False(t, roads.Filter.Open)
			},
		},
		{
			name:           "ExpandWithoutBody",
			path:           "/api/control/expand",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, env *testEnv, v control.View) {
				assert.True(t, v.Expanded)
			},
		},
		{
			name:           "InvalidBody",
			path:           "/api/control/toggle",
			body:           func(*testEnv) any { return "{not json" },
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			var body any
			if tt.body != nil {
				body = tt.body(env)
			}

			w := env.do(t, "POST", tt.path, body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.validate != nil {
				tt.validate(t, env, decodeView(t, w))
			}
		})
	}
}

func TestControlHandler_GetView(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/control", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)

	assert.False(t, v.Expanded)
	assert.True(t, v.Separator)
	require.Len(t, v.Base, 2)
	assert.True(t, v.Base[0].Checked)
	require.Len(t, v.Groups, 2)
	assert.Equal(t, "Hydrography", v.Groups[0].Name)
	assert.False(t, v.Groups[0].HasCheckbox, "exclusive groups have no group checkbox")
	assert.True(t, v.Groups[1].HasCheckbox)
}

func TestMapHandler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/map/view", ViewRequest{Lat: 48.85, Lon: 2.35, Zoom: 4})
	require.Equal(t, http.StatusOK, w.Code)

	f, err := geojson.UnmarshalFeature(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, orb.Point{2.35, 48.85}, f.Geometry)
	assert.Equal(t, 4.0, f.Properties.MustFloat64("zoom"))

	v := env.session.View()
	rivers, _ := findItem(v, "Rivers")
	lakes, _ := findItem(v, "Lakes")
	roads, _ := findItem(v, "Roads")
	assert.True(t, rivers.Disabled)
	assert.False(t, lakes.Disabled)
	assert.True(t, roads.Disabled)

	w = env.do(t, "POST", "/api/map/layers", LayerRequest{ID: env.ids["Lakes"], Active: true})
	require.Equal(t, http.StatusOK, w.Code)
	lakes, _ = findItem(env.session.View(), "Lakes")
	assert.True(t, lakes.Checked, "control follows layers added outside of it")
	assert.Equal(t, int64(1), env.tracker.Snapshot()["Lakes"].OverlayAdds)
	assert.ElementsMatch(t, []string{"Streets", "Lakes"}, env.session.ActiveLayers())

	w = env.do(t, "POST", "/api/map/layers", LayerRequest{ID: "missing", Active: true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/api/map/view", ViewRequest{Lat: 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "GET", "/api/map/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"Point"`)
}

func TestStatsHandler(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.session.Apply(Command{Type: CmdToggle, ID: env.ids["Rivers"], Checked: true}))
	require.NoError(t, env.session.Apply(Command{Type: CmdToggle, ID: env.ids["Lakes"], Checked: true}))

	w := env.do(t, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, tracker.LayerStats{OverlayAdds: 1, OverlayRemoves: 1}, resp.Layers["Rivers"])
	assert.Equal(t, tracker.LayerStats{OverlayAdds: 1}, resp.Layers["Lakes"])
	assert.Equal(t, 0, resp.Diagnostics.WSClients)

	w = env.do(t, "POST", "/api/stats/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = StatsResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, tracker.LayerStats{}, resp.Layers["Rivers"])
	assert.Equal(t, tracker.LayerStats{}, resp.Layers["Lakes"])
}

func TestSession_UnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	err := env.session.Apply(Command{Type: "zoom"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestWebsocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	readView := func() control.View {
		t.Helper()
		var msg ViewMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "view", msg.Type)
		return msg.View
	}

	// The latest view is sent on connect.
	v := readView()
	streets, _ := findItem(v, "Streets")
	assert.True(t, streets.Checked)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdToggle, ID: env.ids["Topography"], Checked: true}))
	v = readView()
	topo, _ := findItem(v, "Topography")
	assert.True(t, topo.Checked)

	require.NoError(t, conn.WriteJSON(Command{Type: CmdFilter, ID: env.ids["Roads"], Value: "gravel"}))
	var errMsg ErrorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)
	assert.Contains(t, errMsg.Error, "gravel")

	// Renders triggered over HTTP reach websocket clients too.
	w := env.do(t, "POST", "/api/control/expand", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, readView().Expanded)
}
