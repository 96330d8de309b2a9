package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/config"
	"github.com/bimflow/bimviewer/internal/events"
	"github.com/bimflow/bimviewer/internal/logger"
	"github.com/bimflow/bimviewer/scene"
	"github.com/bimflow/bimviewer/tour"
)

// app holds what every command needs: the validated config, a logger and
// the tour catalogue.
type app struct {
	cfg       *config.Config
	log       *logger.ZapLogger
	catalogue *tour.Catalogue
	builder   *scene.Builder
}

func loadApp() (*app, error) {
	return loadAppWith(func(cfg *config.Config) *logger.ZapLogger {
		return logger.NewZapLogger(cfg.Log.File, cfg.Log.Production)
	})
}

// loadAppWith lets a command choose its logger. The MCP server owns stdout,
// so it only logs to a file.
func loadAppWith(newLogger func(*config.Config) *logger.ZapLogger) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	catalogue := tour.Default()
	if cfg.Catalogue != "" {
		catalogue, err = tour.Load(cfg.Catalogue)
		if err != nil {
			return nil, err
		}
	}
	return &app{
		cfg:       cfg,
		log:       newLogger(cfg),
		catalogue: catalogue,
		builder:   scene.Default(),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// stateConfig is the session configuration for archetype.
func (a *app) stateConfig(archetype string) bimviewer.StateConfig {
	return bimviewer.StateConfig{
		Catalogue: a.catalogue,
		Builder:   a.builder,
		Policy:    a.cfg.Viewer.CameraPolicy,
		Blend:     a.cfg.Viewer.Blend,
		FPS:       a.cfg.Viewer.FPS,
		Width:     a.cfg.Render.Width,
		Height:    a.cfg.Render.Height,
		FOV:       a.cfg.Render.FOV,
		Archetype: archetype,
	}
}

func (a *app) viewerOptions(archetype string) []bimviewer.Option {
	return []bimviewer.Option{
		bimviewer.WithCatalogue(a.catalogue),
		bimviewer.WithBuilder(a.builder),
		bimviewer.WithFrameRate(a.cfg.Viewer.FPS),
		bimviewer.WithBlend(a.cfg.Viewer.Blend),
		bimviewer.WithCameraPolicy(a.cfg.Viewer.CameraPolicy),
		bimviewer.WithViewport(a.cfg.Render.Width, a.cfg.Render.Height),
		bimviewer.WithFOV(a.cfg.Render.FOV),
		bimviewer.WithLogger(a.log.Zap()),
		bimviewer.WithArchetype(archetype),
	}
}

// publisher connects to NATS JetStream when configured. Events are queued
// so that a slow bus never stalls a viewer.
func (a *app) publisher() events.Publisher {
	ev := a.cfg.Events
	if ev.NatsURL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewNATSPublisher(ev.NatsURL, ev.Stream, ev.Prefix, a.log)
	if err != nil {
		a.log.Warn("Events", "NATS unavailable, viewer events are not published", map[string]interface{}{
			"url":   ev.NatsURL,
			"error": err.Error(),
		})
		return events.NopPublisher{}
	}
	return events.NewAsyncPublisher(pub, 0, a.log)
}

// archetypeOr returns id, or the configured default archetype.
func (a *app) archetypeOr(id string) string {
	if id != "" {
		return id
	}
	return a.cfg.Viewer.Archetype
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
