package bimviewer

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	smarttv "github.com/nimsforest/nimsforestsmarttv"
	"golang.org/x/sync/errgroup"

	"github.com/bimflow/bimviewer/camera"
)

// VideoTarget records a complete guided tour to H.264 and streams the file
// to a Smart TV. The tour recorded is the one of the archetype selected in
// the last frame it received.
type VideoTarget struct {
	tv         *smarttv.TV
	tvRenderer *smarttv.Renderer
	frames     *SceneRenderer
	cfg        StateConfig
	fps        int
	dwell      time.Duration
	port       int
	localIP    string

	mu         sync.Mutex
	httpServer *http.Server
	videoFile  string
	state      *ViewState
}

// VideoOption configures a VideoTarget.
type VideoOption func(*VideoTarget)

// WithVideoFPS sets the video frame rate.
func WithVideoFPS(fps int) VideoOption {
	return func(t *VideoTarget) {
		if fps > 0 {
			t.fps = fps
		}
	}
}

// WithVideoDwell sets how long the recording stays on each stop.
func WithVideoDwell(d time.Duration) VideoOption {
	return func(t *VideoTarget) {
		if d > 0 {
			t.dwell = d
		}
	}
}

// WithVideoSize sets the video resolution.
func WithVideoSize(width, height int) VideoOption {
	return func(t *VideoTarget) {
		t.frames = NewSceneRenderer(width, height)
	}
}

// WithVideoPort sets the port the video file is served on.
func WithVideoPort(port int) VideoOption {
	return func(t *VideoTarget) {
		t.port = port
	}
}

// WithVideoState sets the catalogue, scene builder and camera settings
// used for the recording.
func WithVideoState(cfg StateConfig) VideoOption {
	return func(t *VideoTarget) {
		t.cfg = cfg
	}
}

// NewVideoTarget creates a target that streams tour recordings to a Smart TV.
func NewVideoTarget(tv *smarttv.TV, opts ...VideoOption) (*VideoTarget, error) {
	target := &VideoTarget{
		tv:     tv,
		fps:    24,
		dwell:  4 * time.Second,
		port:   8889,
		frames: NewSceneRenderer(1280, 720),
	}

	for _, opt := range opts {
		opt(target)
	}

	renderer, err := smarttv.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create smarttv renderer: %w", err)
	}
	target.tvRenderer = renderer
	target.localIP = getLocalIP()

	return target, nil
}

// Name implements Target.
func (t *VideoTarget) Name() string {
	if t.tv != nil {
		return fmt.Sprintf("VideoTarget(%s)", t.tv.Name)
	}
	return "VideoTarget"
}

// Update implements Target. It only remembers the frame; use Start to
// record and stream.
func (t *VideoTarget) Update(ctx context.Context, state *ViewState) error {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	return nil
}

// Start records the tour of the selected archetype and streams it to the TV.
func (t *VideoTarget) Start(ctx context.Context) error {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if state == nil || !state.Archetype.Selected() {
		return fmt.Errorf("no archetype selected - call Update first")
	}

	videoFile, err := t.Record(ctx, state.Archetype.ID)
	if err != nil {
		return fmt.Errorf("generate video: %w", err)
	}
	t.mu.Lock()
	t.videoFile = videoFile
	t.mu.Unlock()

	if err := t.startHTTPServer(); err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	videoURL := fmt.Sprintf("http://%s:%d/stream.mp4", t.localIP, t.port)
	title := state.Archetype.Title
	if title == "" {
		title = state.Archetype.ID
	}
	if err := t.tvRenderer.StreamVideo(ctx, t.tv, videoURL, title); err != nil {
		return fmt.Errorf("stream to TV: %w", err)
	}
	return nil
}

// Record renders the tour of archetype into a temporary MP4 file and
// returns its path.
func (t *VideoTarget) Record(ctx context.Context, archetype string) (string, error) {
	width, height := t.frames.Size()
	f, err := os.CreateTemp("", "bimviewer-tour-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create video file: %w", err)
	}
	videoFile := f.Name()
	f.Close()

	ffmpeg := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%d", t.fps),
		"-i", "pipe:0",
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-profile:v", "baseline",
		"-level", "3.0",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		videoFile,
	)
	ffmpegIn, err := ffmpeg.StdinPipe()
	if err != nil {
		os.Remove(videoFile)
		return "", fmt.Errorf("create pipe: %w", err)
	}
	ffmpeg.Stderr = io.Discard
	if err := ffmpeg.Start(); err != nil {
		os.Remove(videoFile)
		return "", fmt.Errorf("start ffmpeg: %w", err)
	}

	cfg := t.cfg
	cfg.Width, cfg.Height = width, height
	cfg.FPS = t.fps
	base := cfg.Blend
	if base <= 0 {
		base = camera.DefaultBlend
	}
	cfg.Blend = camera.BlendAt(base, t.fps)
	dwell := int(t.dwell.Seconds() * float64(t.fps))

	// Rendering and encoding overlap: one goroutine draws frames, the
	// other feeds them to ffmpeg.
	g, gctx := errgroup.WithContext(ctx)
	pixels := make(chan []byte, t.fps)
	g.Go(func() error {
		defer close(pixels)
		_, err := RecordTour(gctx, cfg, archetype, dwell, func(s *ViewState) error {
			img, err := t.frames.Render(s)
			if err != nil {
				return err
			}
			select {
			case pixels <- img.Pix:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		return err
	})
	g.Go(func() error {
		defer ffmpegIn.Close()
		for pix := range pixels {
			if _, err := ffmpegIn.Write(pix); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
		return nil
	})

	recErr := g.Wait()
	waitErr := ffmpeg.Wait()
	if recErr != nil {
		os.Remove(videoFile)
		return "", recErr
	}
	if waitErr != nil {
		os.Remove(videoFile)
		return "", fmt.Errorf("ffmpeg encode: %w", waitErr)
	}
	return videoFile, nil
}

func (t *VideoTarget) startHTTPServer() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.httpServer != nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream.mp4", func(w http.ResponseWriter, r *http.Request) {
		t.mu.Lock()
		file := t.videoFile
		t.mu.Unlock()
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, file)
	})

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return err
	}
	t.httpServer = &http.Server{Handler: mux}
	go t.httpServer.Serve(ln)
	return nil
}

// Close implements Target.
func (t *VideoTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.httpServer != nil {
		t.httpServer.Shutdown(context.Background())
		t.httpServer = nil
	}
	if t.tvRenderer != nil {
		t.tvRenderer.Close()
	}
	if t.videoFile != "" {
		os.Remove(t.videoFile)
		t.videoFile = ""
	}
	return nil
}

// Stop stops video playback on the TV.
func (t *VideoTarget) Stop(ctx context.Context) error {
	return t.tvRenderer.Stop(ctx, t.tv)
}

// getLocalIP returns the local IP address.
func getLocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "localhost"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
