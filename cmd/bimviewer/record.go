package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer"
	"github.com/bimflow/bimviewer/camera"
)

type recordOptions struct {
	archetype string
	dwell     time.Duration
	fps       int
	output    string
}

func recordCmd() *cobra.Command {
	var opts recordOptions
	cmd := &cobra.Command{
		Use:   "record <archetype>",
		Short: "Record a guided tour to an MP4 file or a directory of PNG frames",
		Long: "Record a guided tour. An output ending in .mp4 is encoded with ffmpeg;\n" +
			"any other output is a directory that receives one PNG per frame.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.archetype = args[0]
			return runRecord(opts)
		},
	}
	cmd.Flags().DurationVar(&opts.dwell, "dwell", 4*time.Second, "Time spent on each stop")
	cmd.Flags().IntVar(&opts.fps, "fps", 24, "Frames per second")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "tour.mp4", "Output file or directory")
	return cmd
}

func runRecord(opts recordOptions) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	if strings.EqualFold(filepath.Ext(opts.output), ".mp4") {
		return recordVideo(ctx, a, opts)
	}

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}
	cfg := a.stateConfig("")
	cfg.FPS = opts.fps
	cfg.Blend = camera.BlendAt(a.cfg.Viewer.Blend, opts.fps)
	frames := bimviewer.NewSceneRenderer(a.cfg.Render.Width, a.cfg.Render.Height)
	dwell := int(opts.dwell.Seconds() * float64(opts.fps))

	n, err := bimviewer.RecordTour(ctx, cfg, opts.archetype, dwell, func(s *bimviewer.ViewState) error {
		img, err := frames.Render(s)
		if err != nil {
			return err
		}
		return writePNG(filepath.Join(opts.output, fmt.Sprintf("frame_%05d.png", s.Frame)), img)
	})
	if err != nil {
		return err
	}
	a.log.Info("Record", "Tour recorded", map[string]interface{}{
		"archetype": opts.archetype,
		"frames":    n,
		"output":    opts.output,
	})
	fmt.Fprintf(os.Stdout, "Wrote %d frames to %s\n", n, opts.output)
	return nil
}

func recordVideo(ctx context.Context, a *app, opts recordOptions) error {
	video, err := bimviewer.NewVideoTarget(nil,
		bimviewer.WithVideoFPS(opts.fps),
		bimviewer.WithVideoDwell(opts.dwell),
		bimviewer.WithVideoSize(a.cfg.Render.Width, a.cfg.Render.Height),
		bimviewer.WithVideoState(a.stateConfig("")),
	)
	if err != nil {
		return err
	}
	defer video.Close()

	tmp, err := video.Record(ctx, opts.archetype)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	if err := moveFile(tmp, opts.output); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", opts.output)
	return nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
