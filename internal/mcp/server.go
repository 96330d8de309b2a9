package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/tour"
)

// Server exposes one viewer session to MCP clients.
type Server struct {
	viewer    *bimviewer.Viewer
	catalogue *tour.Catalogue
	frames    *bimviewer.SceneRenderer
	mcp       *sdk.Server
}

func NewServer(viewer *bimviewer.Viewer, catalogue *tour.Catalogue, frames *bimviewer.SceneRenderer, version string) *Server {
	if catalogue == nil {
		catalogue = tour.Default()
	}
	if frames == nil {
		frames = bimviewer.NewSceneRenderer(960, 540)
	}
	s := &Server{
		viewer:    viewer,
		catalogue: catalogue,
		frames:    frames,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "bimviewer",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
