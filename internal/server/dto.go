package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/tour"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

type CreateViewerRequest struct {
	Archetype string `json:"archetype" validate:"omitempty,max=64"`
	Width     int    `json:"width" validate:"omitempty,gte=16,lte=4096"`
	Height    int    `json:"height" validate:"omitempty,gte=16,lte=4096"`
}

type CreateViewerResponse struct {
	ID   string             `json:"id"`
	View bimviewer.ViewJSON `json:"view"`
}

// CommandRequest is one viewer command, sent over HTTP or the websocket.
type CommandRequest struct {
	Command   string  `json:"command" validate:"required,oneof=select_archetype start_tour stop_tour next_stop prev_stop go_to_stop toggle_view_mode orbit pan zoom reset_camera resize"`
	Archetype string  `json:"archetype,omitempty" validate:"required_if=Command select_archetype"`
	Index     *int    `json:"index,omitempty" validate:"required_if=Command go_to_stop"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	Steps     float64 `json:"steps,omitempty"`
	Width     int     `json:"width,omitempty" validate:"omitempty,gte=16,lte=4096"`
	Height    int     `json:"height,omitempty" validate:"omitempty,gte=16,lte=4096"`
}

// CommandResponse reports whether the command changed anything. Commands
// that are not valid in the current state are accepted and ignored.
type CommandResponse struct {
	Applied bool               `json:"applied"`
	View    bimviewer.ViewJSON `json:"view"`
}

type ArchetypeResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Stops   int    `json:"stops"`
}

type StopResponse struct {
	Index       int         `json:"index"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Position    [3]float64  `json:"position"`
	Target      [3]float64  `json:"target"`
	Detail      tour.Detail `json:"detail"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks req against its validate tags and reports every
// failing field as a 400.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, ", "))
}

// Apply runs req against v.
func Apply(v *bimviewer.Viewer, req CommandRequest) bool {
	switch req.Command {
	case "select_archetype":
		return v.SelectArchetype(req.Archetype)
	case "start_tour":
		return v.StartTour(req.Archetype)
	case "stop_tour":
		return v.StopTour()
	case "next_stop":
		return v.NextStop()
	case "prev_stop":
		return v.PrevStop()
	case "go_to_stop":
		return req.Index != nil && v.GoToStop(*req.Index)
	case "toggle_view_mode":
		v.ToggleViewMode()
		return true
	case "orbit":
		return v.Orbit(req.DX, req.DY)
	case "pan":
		return v.Pan(req.DX, req.DY)
	case "zoom":
		return v.Zoom(req.Steps)
	case "reset_camera":
		v.ResetCamera()
		return true
	case "resize":
		return v.Resize(req.Width, req.Height)
	}
	return false
}

func archetypeResponse(a tour.Archetype) ArchetypeResponse {
	return ArchetypeResponse{ID: a.ID, Title: a.Title, Summary: a.Summary, Stops: len(a.Stops)}
}

func stopResponse(i int, s tour.Stop) StopResponse {
	return StopResponse{
		Index:       i,
		Name:        s.Name,
		Description: s.Description,
		Position:    s.Position,
		Target:      s.Target,
		Detail:      s.Detail,
	}
}
