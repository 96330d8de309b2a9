package main

import (
	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/window"
)

func windowCmd() *cobra.Command {
	var archetype string
	var tour bool
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open the viewer in a desktop window",
		Long: "Open the viewer in a desktop window.\n\n" +
			"Keys: Tab archetype, T tour, Left/Right or P/N stops, 1-9 jump to stop,\n" +
			"V exterior/interior, Esc end tour, R reset camera, +/- zoom, Q quit.\n" +
			"Drag to orbit, right-drag to pan, scroll to zoom.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(archetype, tour)
		},
	}
	cmd.Flags().StringVar(&archetype, "archetype", "", "Archetype shown on start")
	cmd.Flags().BoolVar(&tour, "tour", false, "Start the guided tour right away")
	return cmd
}

func runWindow(archetype string, tour bool) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	v := bimviewer.New(a.viewerOptions(a.archetypeOr(archetype))...)
	defer v.Close()
	if tour {
		v.StartTour("")
	}

	w := window.New(v, a.cfg.Render.Width, a.cfg.Render.Height, a.catalogue.IDs())
	return w.Run(ctx)
}
