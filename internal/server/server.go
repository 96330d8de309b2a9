package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/config"
	"github.com/bimflow/bimviewer/internal/events"
	"github.com/bimflow/bimviewer/internal/logger"
	"github.com/bimflow/bimviewer/scene"
	"github.com/bimflow/bimviewer/tour"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	sessions  *Sessions
	catalogue *tour.Catalogue
	builder   *scene.Builder
	logger    logger.ILogger
}

type Options struct {
	Config    *config.Config
	Catalogue *tour.Catalogue
	Builder   *scene.Builder
	Publisher events.Publisher
	Logger    logger.ILogger

	// RequestLog enables the access log middleware.
	RequestLog bool
}

func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Catalogue == nil {
		opts.Catalogue = tour.Default()
	}
	if opts.Builder == nil {
		opts.Builder = scene.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(otelfiber.Middleware())

	settings := SessionSettings{
		Options: []bimviewer.Option{
			bimviewer.WithCatalogue(opts.Catalogue),
			bimviewer.WithBuilder(opts.Builder),
			bimviewer.WithFrameRate(cfg.Viewer.FPS),
			bimviewer.WithBlend(cfg.Viewer.Blend),
			bimviewer.WithCameraPolicy(cfg.Viewer.CameraPolicy),
			bimviewer.WithFOV(cfg.Render.FOV),
			bimviewer.WithLogger(opts.Logger.Zap()),
		},
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
	}
	if cfg.Viewer.Archetype != "" {
		settings.Options = append(settings.Options, bimviewer.WithArchetype(cfg.Viewer.Archetype))
	}

	s := &Server{
		app:       app,
		cfg:       cfg,
		sessions:  NewSessions(cfg.Server.SessionTTL, settings, opts.Publisher, opts.Logger),
		catalogue: opts.Catalogue,
		builder:   opts.Builder,
		logger:    opts.Logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Run serves until ctx is cancelled, then shuts down and closes every
// session.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server", "Listening", map[string]interface{}{"addr": s.cfg.Server.Addr})
		return s.app.Listen(s.cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.app.ShutdownWithContext(shutdownCtx)
		s.sessions.Close()
		s.logger.Info("Server", "Stopped", nil)
		return err
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api")
	api.Get("/archetypes", s.listArchetypes)
	api.Get("/archetypes/:id/tour", s.showTour)

	viewers := api.Group("/viewers")
	viewers.Post("", s.createViewer)
	viewers.Get("/:id", s.showViewer)
	viewers.Delete("/:id", s.deleteViewer)
	viewers.Post("/:id/commands", s.command)
	viewers.Get("/:id/frame.png", s.frame)

	s.app.Get("/ws/viewers/:id", s.upgrade, websocket.New(s.streamView))
}

func errorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case errors.Is(err, ErrSessionNotFound):
			code = fiber.StatusNotFound
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Server", "Request failed", map[string]interface{}{
				"path":  c.Path(),
				"error": err.Error(),
			})
		}
		return c.Status(code).JSON(Response{Success: false, Message: err.Error()})
	}
}
