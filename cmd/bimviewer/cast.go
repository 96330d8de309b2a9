package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	smarttv "github.com/nimsforest/nimsforestsmarttv"
	sprites "github.com/nimsforest/nimsforestsprites"
	"github.com/spf13/cobra"

	"github.com/bimflow/bimviewer"
)

type castOptions struct {
	archetype string
	tv        string
	discover  time.Duration
	dwell     time.Duration
	video     bool
	plan      bool
	jfif      bool
}

func castCmd() *cobra.Command {
	var opts castOptions
	cmd := &cobra.Command{
		Use:   "cast <archetype>",
		Short: "Play a guided tour on a Smart TV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.archetype = args[0]
			return runCast(opts)
		},
	}
	cmd.Flags().StringVar(&opts.tv, "tv", "", "Name of the TV to use; the first one found when empty")
	cmd.Flags().DurationVar(&opts.discover, "discover", 5*time.Second, "How long to search for TVs")
	cmd.Flags().DurationVar(&opts.dwell, "dwell", 8*time.Second, "Time spent on each stop")
	cmd.Flags().BoolVar(&opts.video, "video", false, "Stream a recorded video instead of still frames")
	cmd.Flags().BoolVar(&opts.plan, "plan", false, "Show the top-down tour plan instead of the 3D view")
	cmd.Flags().BoolVar(&opts.jfif, "jfif", true, "Convert frames to JFIF for older TVs")
	return cmd
}

func runCast(opts castOptions) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.catalogue.StopCount(opts.archetype) == 0 {
		return fmt.Errorf("%w: %q", bimviewer.ErrNoTour, opts.archetype)
	}

	fmt.Fprintln(os.Stdout, "Discovering Smart TVs...")
	tv, err := findTV(ctx, opts.tv, opts.discover)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Found: %s\n", tv.String())

	if opts.video {
		return castVideo(ctx, a, tv, opts)
	}
	return castFrames(ctx, a, tv, opts)
}

func findTV(ctx context.Context, name string, timeout time.Duration) (*smarttv.TV, error) {
	tvs, err := smarttv.Discover(ctx, timeout)
	if err != nil {
		return nil, fmt.Errorf("discover TVs: %w", err)
	}
	for i := range tvs {
		if name == "" || strings.Contains(strings.ToLower(tvs[i].Name), strings.ToLower(name)) {
			return &tvs[i], nil
		}
	}
	if name != "" {
		return nil, fmt.Errorf("no TV named %q found", name)
	}
	return nil, fmt.Errorf("no TVs found on the network")
}

// castFrames sends still frames while the tour advances one stop per dwell.
func castFrames(ctx context.Context, a *app, tv *smarttv.TV, opts castOptions) error {
	tvOpts := []bimviewer.TVOption{bimviewer.WithJFIF(opts.jfif)}
	if opts.plan {
		plan, err := bimviewer.NewPlanRenderer(sprites.Options{
			Width:     1920,
			Height:    1080,
			FrameRate: a.cfg.Viewer.FPS,
		})
		if err != nil {
			return err
		}
		tvOpts = append(tvOpts, bimviewer.WithFrameRenderer(plan))
	}
	target, err := bimviewer.NewSmartTVTarget(tv, tvOpts...)
	if err != nil {
		return err
	}

	v := bimviewer.New(a.viewerOptions(opts.archetype)...)
	if err := v.AddTarget(target); err != nil {
		return err
	}
	v.StartTour(opts.archetype)
	if err := v.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = target.Stop(context.Background())
		_ = v.Close()
	}()

	fmt.Fprintln(os.Stdout, "Touring... press Ctrl+C to stop")
	ticker := time.NewTicker(opts.dwell)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v.NextStop()
			st := v.Snapshot().Tour
			if st.Stop != nil {
				fmt.Fprintf(os.Stdout, "%d/%d %s\n", st.Index+1, st.Count, st.Stop.Name)
			}
		}
	}
}

func castVideo(ctx context.Context, a *app, tv *smarttv.TV, opts castOptions) error {
	video, err := bimviewer.NewVideoTarget(tv,
		bimviewer.WithVideoDwell(opts.dwell),
		bimviewer.WithVideoState(a.stateConfig("")),
	)
	if err != nil {
		return err
	}
	defer video.Close()

	state := bimviewer.NewViewerState(a.stateConfig(opts.archetype)).Snapshot()
	if err := video.Update(ctx, state); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Recording tour...")
	if err := video.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Streaming to TV, press Ctrl+C to stop")
	<-ctx.Done()
	return video.Stop(context.Background())
}
