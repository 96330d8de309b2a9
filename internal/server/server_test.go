package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/config"
	"github.com/bimflow/bimviewer/internal/events"
)

func newTestServer(t *testing.T) (*Server, *events.Recorder) {
	t.Helper()
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 160, 90
	rec := &events.Recorder{}
	s := New(Options{Config: cfg, Publisher: rec})
	t.Cleanup(s.Sessions().Close)
	return s, rec
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func do[T any](t *testing.T, s *Server, method, path string, body interface{}) (int, envelope[T]) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope[T]
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func createViewer(t *testing.T, s *Server, req CreateViewerRequest) string {
	t.Helper()
	code, res := do[CreateViewerResponse](t, s, http.MethodPost, "/api/viewers", req)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, res.Data.ID)
	return res.Data.ID
}

func command(t *testing.T, s *Server, id string, req CommandRequest) CommandResponse {
	t.Helper()
	code, res := do[CommandResponse](t, s, http.MethodPost, "/api/viewers/"+id+"/commands", req)
	require.Equal(t, http.StatusOK, code, res.Message)
	return res.Data
}

func intPtr(i int) *int { return &i }

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestArchetypes(t *testing.T) {
	s, _ := newTestServer(t)

	code, res := do[[]ArchetypeResponse](t, s, http.MethodGet, "/api/archetypes", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, res.Data, 4)
	stops := map[string]int{}
	for _, a := range res.Data {
		stops[a.ID] = a.Stops
	}
	assert.Equal(t, map[string]int{"mansion": 9, "hospital": 6, "office": 6, "bridge": 0}, stops)

	code, tourRes := do[[]StopResponse](t, s, http.MethodGet, "/api/archetypes/office/tour", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, tourRes.Data, 6)
	assert.Equal(t, 5, tourRes.Data[5].Index)
	assert.NotEmpty(t, tourRes.Data[0].Detail.Materials)

	code, _ = do[any](t, s, http.MethodGet, "/api/archetypes/castle/tour", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestViewerLifecycle(t *testing.T) {
	s, rec := newTestServer(t)

	id := createViewer(t, s, CreateViewerRequest{Archetype: "office"})
	assert.Equal(t, 1, s.Sessions().Len())

	code, view := do[bimviewer.ViewJSON](t, s, http.MethodGet, "/api/viewers/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "office", view.Data.Archetype.ID)
	assert.Equal(t, "exterior", view.Data.Mode)
	assert.Equal(t, 160, view.Data.Viewport.Width)

	res := command(t, s, id, CommandRequest{Command: "start_tour"})
	assert.True(t, res.Applied)
	assert.True(t, res.View.Tour.Active)
	assert.Equal(t, "interior", res.View.Mode)

	for i := 0; i < 6; i++ {
		command(t, s, id, CommandRequest{Command: "next_stop"})
	}
	res = command(t, s, id, CommandRequest{Command: "next_stop"})
	assert.Equal(t, 1, res.View.Tour.Index, "wraps after the last stop")

	res = command(t, s, id, CommandRequest{Command: "go_to_stop", Index: intPtr(99)})
	assert.False(t, res.Applied)
	assert.Equal(t, 1, res.View.Tour.Index)

	res = command(t, s, id, CommandRequest{Command: "toggle_view_mode"})
	assert.False(t, res.View.Tour.Active)
	assert.Equal(t, "exterior", res.View.Mode)

	var types []string
	for _, e := range rec.Events() {
		assert.Equal(t, id, e.Payload()["session"])
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, "tour_started")
	assert.Contains(t, types, "tour_stopped")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodDelete, "/api/viewers/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, s.Sessions().Len())

	code, _ = do[any](t, s, http.MethodGet, "/api/viewers/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreateViewerValidation(t *testing.T) {
	s, _ := newTestServer(t)

	code, res := do[any](t, s, http.MethodPost, "/api/viewers", CreateViewerRequest{Width: 8, Height: 8})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "width")

	code, _ = do[any](t, s, http.MethodPost, "/api/viewers", CreateViewerRequest{Archetype: "castle"})
	assert.Equal(t, http.StatusNotFound, code)

	code, created := do[CreateViewerResponse](t, s, http.MethodPost, "/api/viewers", nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Empty(t, created.Data.View.Archetype.ID)
}

func TestCommandValidation(t *testing.T) {
	s, _ := newTestServer(t)
	id := createViewer(t, s, CreateViewerRequest{})

	cases := map[string]CommandRequest{
		"unknown command":    {Command: "fly"},
		"missing archetype":  {Command: "select_archetype"},
		"missing stop index": {Command: "go_to_stop"},
		"oversized viewport": {Command: "resize", Width: 10000, Height: 100},
		"empty command":      {},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			code, _ := do[any](t, s, http.MethodPost, "/api/viewers/"+id+"/commands", req)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}

	code, _ := do[any](t, s, http.MethodPost, "/api/viewers/nope/commands", CommandRequest{Command: "next_stop"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFramePNG(t *testing.T) {
	s, _ := newTestServer(t)
	id := createViewer(t, s, CreateViewerRequest{Archetype: "hospital", Width: 120, Height: 80})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/viewers/"+id+"/frame.png", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)
	id := createViewer(t, s, CreateViewerRequest{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/ws/viewers/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestSessionExpiry(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 64, 48
	cfg.Server.SessionTTL = time.Second
	s := New(Options{Config: cfg})
	defer s.Sessions().Close()

	sess, err := s.Sessions().Create(t.Context(), "bridge", 0, 0)
	require.NoError(t, err)
	require.True(t, sess.Viewer.Running())

	require.Eventually(t, func() bool { return s.Sessions().Len() == 0 }, 5*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool { return !sess.Viewer.Running() }, time.Second, 10*time.Millisecond)

	_, err = s.Sessions().Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWebsocketActivityKeepsSession(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 64, 48
	cfg.Server.SessionTTL = time.Second
	s := New(Options{Config: cfg})
	defer s.Sessions().Close()

	sess, err := s.Sessions().Create(t.Context(), "office", 0, 0)
	require.NoError(t, err)

	t.Run("commands", func(t *testing.T) {
		deadline := time.Now().Add(2500 * time.Millisecond)
		for time.Now().Before(deadline) {
			reply := s.applyMessage(sess, []byte(`{"command":"zoom","steps":1}`))
			require.Empty(t, reply.Error)
			require.Equal(t, 1, s.Sessions().Len())
			time.Sleep(200 * time.Millisecond)
		}
		assert.True(t, sess.Viewer.Running())
	})

	t.Run("rejected commands still count", func(t *testing.T) {
		reply := s.applyMessage(sess, []byte(`{"command":"fly"}`))
		assert.NotEmpty(t, reply.Error)
		assert.False(t, reply.Applied)
		assert.Equal(t, 1, s.Sessions().Len())
	})

	t.Run("pongs", func(t *testing.T) {
		deadline := time.Now().Add(2500 * time.Millisecond)
		for time.Now().Before(deadline) {
			require.True(t, s.Sessions().Touch(sess.ID))
			time.Sleep(200 * time.Millisecond)
		}
		assert.Equal(t, 1, s.Sessions().Len())
	})

	t.Run("idle", func(t *testing.T) {
		require.Eventually(t, func() bool { return s.Sessions().Len() == 0 }, 5*time.Second, 50*time.Millisecond)
		assert.False(t, s.Sessions().Touch(sess.ID))
	})
}
