package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bimflow/bimviewer"
)

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) listArchetypes(c *fiber.Ctx) error {
	archetypes := s.catalogue.Archetypes()
	res := make([]ArchetypeResponse, len(archetypes))
	for i, a := range archetypes {
		res[i] = archetypeResponse(a)
	}
	return c.JSON(SuccessResponse("Success list archetypes", res))
}

func (s *Server) showTour(c *fiber.Ctx) error {
	a, ok := s.catalogue.Archetype(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown archetype "+c.Params("id"))
	}
	res := make([]StopResponse, len(a.Stops))
	for i, st := range a.Stops {
		res[i] = stopResponse(i, st)
	}
	return c.JSON(SuccessResponse("Success show tour", res))
}

func (s *Server) createViewer(c *fiber.Ctx) error {
	var req CreateViewerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}
	if req.Archetype != "" && !s.hasArchetype(req.Archetype) {
		return fiber.NewError(fiber.StatusNotFound, "unknown archetype "+req.Archetype)
	}

	sess, err := s.sessions.Create(c.UserContext(), req.Archetype, req.Width, req.Height)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse("Success create viewer", CreateViewerResponse{
		ID:   sess.ID,
		View: bimviewer.ViewStateToJSON(sess.Viewer.Snapshot()),
	}))
}

// hasArchetype accepts archetypes with a tour or a scene.
func (s *Server) hasArchetype(id string) bool {
	if _, ok := s.catalogue.Archetype(id); ok {
		return true
	}
	return s.builder.Has(id)
}

func (s *Server) showViewer(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(SuccessResponse("Success show viewer", bimviewer.ViewStateToJSON(sess.Viewer.Snapshot())))
}

func (s *Server) deleteViewer(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) command(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}

	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := ValidateRequest(req); err != nil {
		return err
	}

	applied := Apply(sess.Viewer, req)
	return c.JSON(SuccessResponse("Success apply "+req.Command, CommandResponse{
		Applied: applied,
		View:    bimviewer.ViewStateToJSON(sess.Viewer.Snapshot()),
	}))
}

func (s *Server) frame(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}
	if err := sess.Frames.Update(c.UserContext(), sess.Viewer.Snapshot()); err != nil {
		return err
	}
	data, err := sess.Frames.PNG()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(data)
}
