package bimviewer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	smarttv "github.com/nimsforest/nimsforestsmarttv"
)

// SmartTVTarget shows frames on a Smart TV via DLNA. TVs take seconds to
// swap a still image, so frames arriving faster than the minimum interval
// are dropped, as are frames identical to the one on screen.
type SmartTVTarget struct {
	tv          *smarttv.TV
	renderer    *smarttv.Renderer
	frames      FrameRenderer
	useJFIF     bool // Convert to JFIF format for better TV compatibility
	minInterval time.Duration

	mu             sync.Mutex
	lastImageBytes []byte // Cache to avoid redundant updates
	lastSent       time.Time
}

// TVOption configures a SmartTVTarget.
type TVOption func(*SmartTVTarget)

// WithJFIF enables JFIF conversion for better TV compatibility.
// Requires ffmpeg and imagemagick to be installed.
func WithJFIF(enable bool) TVOption {
	return func(t *SmartTVTarget) {
		t.useJFIF = enable
	}
}

// WithFrameRenderer sets what is drawn on the TV. The default is the 3D
// scene at 1920x1080.
func WithFrameRenderer(r FrameRenderer) TVOption {
	return func(t *SmartTVTarget) {
		t.frames = r
	}
}

// WithMinInterval sets the shortest time between two images sent to the
// TV.
func WithMinInterval(d time.Duration) TVOption {
	return func(t *SmartTVTarget) {
		t.minInterval = d
	}
}

// NewSmartTVTarget creates a target that displays frames on a Smart TV.
func NewSmartTVTarget(tv *smarttv.TV, opts ...TVOption) (*SmartTVTarget, error) {
	target := &SmartTVTarget{
		tv:          tv,
		useJFIF:     true, // Default to JFIF for better compatibility
		minInterval: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(target)
	}
	if target.frames == nil {
		target.frames = NewSceneRenderer(1920, 1080)
	}

	renderer, err := smarttv.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create smarttv renderer: %w", err)
	}
	target.renderer = renderer

	return target, nil
}

// Name implements Target.
func (t *SmartTVTarget) Name() string {
	if t.tv != nil {
		return fmt.Sprintf("SmartTV(%s)", t.tv.Name)
	}
	return "SmartTV"
}

// Update implements Target.
func (t *SmartTVTarget) Update(ctx context.Context, state *ViewState) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastSent.IsZero() && time.Since(t.lastSent) < t.minInterval {
		return nil
	}

	frame, err := t.frames.RenderFrame(state)
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}

	var jpegData []byte
	if t.useJFIF {
		jpegData, err = convertToJFIF(ctx, frame)
	} else {
		jpegData, err = encodeJPEG(frame)
	}
	if err != nil {
		return fmt.Errorf("convert to JPEG: %w", err)
	}

	if bytes.Equal(jpegData, t.lastImageBytes) {
		return nil
	}

	if err := t.renderer.DisplayImageJPEG(ctx, t.tv, jpegData); err != nil {
		return fmt.Errorf("display on TV: %w", err)
	}
	t.lastImageBytes = jpegData
	t.lastSent = time.Now()
	return nil
}

// Close implements Target.
func (t *SmartTVTarget) Close() error {
	if c, ok := t.frames.(interface{ Close() error }); ok {
		c.Close()
	}
	if t.renderer != nil {
		t.renderer.Close()
	}
	return nil
}

// Stop stops playback on the TV.
func (t *SmartTVTarget) Stop(ctx context.Context) error {
	return t.renderer.Stop(ctx, t.tv)
}

// convertToJFIF converts an image to JFIF-compliant JPEG using ffmpeg + magick.
// This produces JPEG files that are compatible with more TVs (especially JVC).
func convertToJFIF(ctx context.Context, img image.Image) ([]byte, error) {
	rgba := ensureRGBA(img)
	bounds := rgba.Bounds()

	dir, err := os.MkdirTemp("", "bimviewer-frame-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	tmpFile := filepath.Join(dir, "frame.jpg")
	jfifFile := filepath.Join(dir, "frame_jfif.jpg")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"-i", "pipe:0",
		"-vframes", "1",
		"-pix_fmt", "yuvj420p",
		"-q:v", "2",
		tmpFile,
	)
	cmd.Stdin = bytes.NewReader(rgba.Pix)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	if err := exec.CommandContext(ctx, "magick", tmpFile, jfifFile).Run(); err != nil {
		// Fallback to ffmpeg output if magick not available
		return os.ReadFile(tmpFile)
	}
	return os.ReadFile(jfifFile)
}

// encodeJPEG encodes an image as standard JPEG (may not work on all TVs).
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, ensureRGBA(img), &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
