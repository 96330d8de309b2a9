package main

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/internal/config"
	"github.com/bimflow/bimviewer/internal/logger"
	"github.com/bimflow/bimviewer/internal/mcp"
)

func mcpCmd() *cobra.Command {
	var archetype string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Drive one viewer session from an MCP client over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(archetype)
		},
	}
	cmd.Flags().StringVar(&archetype, "archetype", "", "Archetype selected on start")
	return cmd
}

func runMCP(archetype string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := loadAppWith(func(cfg *config.Config) *logger.ZapLogger {
		return logger.NewFileLogger(cfg.Log.File)
	})
	if err != nil {
		return err
	}
	defer a.close()

	v := bimviewer.New(a.viewerOptions(a.archetypeOr(archetype))...)
	if err := v.Start(ctx); err != nil {
		return err
	}
	defer v.Close()

	frames := bimviewer.NewSceneRenderer(a.cfg.Render.Width, a.cfg.Render.Height)
	server := mcp.NewServer(v, a.catalogue, frames, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
