package mcp

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/tour"
)

type EmptyInput struct{}

type ArchetypeInput struct {
	Archetype string `json:"archetype" jsonschema:"archetype id, e.g. mansion, hospital, office or bridge"`
}

type StartTourInput struct {
	Archetype string `json:"archetype,omitempty" jsonschema:"archetype to tour; the selected one when empty"`
}

type GoToStopInput struct {
	Index int `json:"index" jsonschema:"zero-based stop index"`
}

type OrbitInput struct {
	Azimuth float64 `json:"azimuth" jsonschema:"horizontal rotation in radians"`
	Polar   float64 `json:"polar,omitempty" jsonschema:"vertical rotation in radians"`
	Zoom    float64 `json:"zoom,omitempty" jsonschema:"zoom steps, positive moves closer"`
}

type ArchetypeOutput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Stops   int    `json:"stops"`
}

type ListArchetypesOutput struct {
	Archetypes []ArchetypeOutput `json:"archetypes"`
}

type StopOutput struct {
	Index       int         `json:"index"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Detail      tour.Detail `json:"detail"`
}

type GetTourOutput struct {
	Archetype string       `json:"archetype"`
	Stops     []StopOutput `json:"stops"`
}

// ViewOutput reports whether a command changed the view, and the view
// after it.
type ViewOutput struct {
	Applied bool               `json:"applied"`
	View    bimviewer.ViewJSON `json:"view"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_archetypes",
		Description: "List the building archetypes and how many tour stops each has",
	}, s.handleListArchetypes)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_tour",
		Description: "Return the ordered tour stops of an archetype with their BIM detail",
	}, s.handleGetTour)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_archetype",
		Description: "Show an archetype; ends any tour and resets the camera",
	}, s.handleSelectArchetype)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "start_tour",
		Description: "Start the guided interior tour at its first stop",
	}, s.handleStartTour)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "stop_tour",
		Description: "End the running tour",
	}, s.handleStopTour)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "next_stop",
		Description: "Advance to the next stop, wrapping to the first after the last",
	}, s.handleNextStop)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "prev_stop",
		Description: "Go back one stop, staying at the first",
	}, s.handlePrevStop)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "go_to_stop",
		Description: "Jump to a stop of the running tour",
	}, s.handleGoToStop)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "toggle_view_mode",
		Description: "Switch between exterior and interior view; ends any tour",
	}, s.handleToggleViewMode)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "orbit_camera",
		Description: "Rotate and zoom the camera around its target",
	}, s.handleOrbitCamera)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "reset_camera",
		Description: "Return the camera to the default pose, or resume a paused tour",
	}, s.handleResetCamera)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_view",
		Description: "Return the current view: archetype, mode, camera, tour and navigator",
	}, s.handleGetView)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "snapshot",
		Description: "Render the current view as a PNG image",
	}, s.handleSnapshot)
}

func (s *Server) view(applied bool) ViewOutput {
	return ViewOutput{Applied: applied, View: bimviewer.ViewStateToJSON(s.viewer.Snapshot())}
}

func (s *Server) handleListArchetypes(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ListArchetypesOutput, error) {
	archetypes := s.catalogue.Archetypes()
	output := make([]ArchetypeOutput, 0, len(archetypes))
	for _, a := range archetypes {
		output = append(output, ArchetypeOutput{ID: a.ID, Title: a.Title, Summary: a.Summary, Stops: len(a.Stops)})
	}
	return nil, ListArchetypesOutput{Archetypes: output}, nil
}

func (s *Server) handleGetTour(ctx context.Context, req *sdk.CallToolRequest, input ArchetypeInput) (*sdk.CallToolResult, GetTourOutput, error) {
	if input.Archetype == "" {
		return nil, GetTourOutput{}, fmt.Errorf("archetype is required")
	}
	a, ok := s.catalogue.Archetype(input.Archetype)
	if !ok {
		return nil, GetTourOutput{}, fmt.Errorf("unknown archetype %q", input.Archetype)
	}
	output := GetTourOutput{Archetype: a.ID, Stops: make([]StopOutput, 0, len(a.Stops))}
	for i, st := range a.Stops {
		output.Stops = append(output.Stops, StopOutput{Index: i, Name: st.Name, Description: st.Description, Detail: st.Detail})
	}
	return nil, output, nil
}

func (s *Server) handleSelectArchetype(ctx context.Context, req *sdk.CallToolRequest, input ArchetypeInput) (*sdk.CallToolResult, ViewOutput, error) {
	if input.Archetype == "" {
		return nil, ViewOutput{}, fmt.Errorf("archetype is required")
	}
	return nil, s.view(s.viewer.SelectArchetype(input.Archetype)), nil
}

func (s *Server) handleStartTour(ctx context.Context, req *sdk.CallToolRequest, input StartTourInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(s.viewer.StartTour(input.Archetype)), nil
}

func (s *Server) handleStopTour(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(s.viewer.StopTour()), nil
}

func (s *Server) handleNextStop(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(s.viewer.NextStop()), nil
}

func (s *Server) handlePrevStop(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(s.viewer.PrevStop()), nil
}

func (s *Server) handleGoToStop(ctx context.Context, req *sdk.CallToolRequest, input GoToStopInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(s.viewer.GoToStop(input.Index)), nil
}

func (s *Server) handleToggleViewMode(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	s.viewer.ToggleViewMode()
	return nil, s.view(true), nil
}

func (s *Server) handleOrbitCamera(ctx context.Context, req *sdk.CallToolRequest, input OrbitInput) (*sdk.CallToolResult, ViewOutput, error) {
	applied := false
	if input.Azimuth != 0 || input.Polar != 0 {
		applied = s.viewer.Orbit(input.Azimuth, input.Polar)
	}
	if input.Zoom != 0 {
		applied = s.viewer.Zoom(input.Zoom) || applied
	}
	return nil, s.view(applied), nil
}

func (s *Server) handleResetCamera(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	s.viewer.ResetCamera()
	return nil, s.view(true), nil
}

func (s *Server) handleGetView(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	return nil, s.view(false), nil
}

func (s *Server) handleSnapshot(ctx context.Context, req *sdk.CallToolRequest, input EmptyInput) (*sdk.CallToolResult, ViewOutput, error) {
	img, err := s.frames.Render(s.viewer.Snapshot())
	if err != nil {
		return nil, ViewOutput{}, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, ViewOutput{}, fmt.Errorf("encode png: %w", err)
	}
	result := &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.ImageContent{Data: buf.Bytes(), MIMEType: "image/png"}},
	}
	return result, s.view(false), nil
}
