package mcp

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/bimviewer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(bimviewer.New(), nil, bimviewer.NewSceneRenderer(96, 64), "test")
}

func TestListArchetypes(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleListArchetypes(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	require.Len(t, output.Archetypes, 4)
	assert.Equal(t, "mansion", output.Archetypes[0].ID)
	assert.Equal(t, 9, output.Archetypes[0].Stops)
}

func TestGetTour(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, output, err := server.handleGetTour(ctx, nil, ArchetypeInput{Archetype: "hospital"})
	require.NoError(t, err)
	require.Len(t, output.Stops, 6)
	assert.Equal(t, 3, output.Stops[3].Index)
	assert.NotEmpty(t, output.Stops[0].Description)

	_, _, err = server.handleGetTour(ctx, nil, ArchetypeInput{})
	assert.Error(t, err)
	_, _, err = server.handleGetTour(ctx, nil, ArchetypeInput{Archetype: "castle"})
	assert.Error(t, err)
}

func TestTourTools(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleSelectArchetype(ctx, nil, ArchetypeInput{Archetype: "office"})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "exterior", out.View.Mode)

	_, out, err = server.handleNextStop(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.False(t, out.Applied, "no tour yet")

	_, out, err = server.handleStartTour(ctx, nil, StartTourInput{})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, "interior", out.View.Mode)
	assert.True(t, out.View.Navigator.Visible)

	_, out, _ = server.handlePrevStop(ctx, nil, EmptyInput{})
	assert.Equal(t, 0, out.View.Tour.Index, "stays at the first stop")

	_, out, _ = server.handleGoToStop(ctx, nil, GoToStopInput{Index: 5})
	assert.True(t, out.Applied)
	_, out, _ = server.handleNextStop(ctx, nil, EmptyInput{})
	assert.Equal(t, 0, out.View.Tour.Index)

	_, out, _ = server.handleGoToStop(ctx, nil, GoToStopInput{Index: 6})
	assert.False(t, out.Applied)

	_, out, _ = server.handleToggleViewMode(ctx, nil, EmptyInput{})
	assert.False(t, out.View.Tour.Active)
	assert.Equal(t, "exterior", out.View.Mode)

	_, out, _ = server.handleStopTour(ctx, nil, EmptyInput{})
	assert.False(t, out.Applied)
}

func TestCameraTools(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, out, _ := server.handleOrbitCamera(ctx, nil, OrbitInput{Azimuth: 0.3})
	assert.True(t, out.Applied)

	_, out, _ = server.handleOrbitCamera(ctx, nil, OrbitInput{})
	assert.False(t, out.Applied)

	_, out, _ = server.handleResetCamera(ctx, nil, EmptyInput{})
	assert.True(t, out.Applied)
}

func TestSnapshot(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	_, _, err := server.handleSelectArchetype(ctx, nil, ArchetypeInput{Archetype: "bridge"})
	require.NoError(t, err)

	result, out, err := server.handleSnapshot(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, "bridge", out.View.Archetype.ID)
	require.Len(t, result.Content, 1)

	img, ok := result.Content[0].(*sdk.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 96, decoded.Bounds().Dx())
}
