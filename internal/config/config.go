package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bimflow/bimviewer/camera"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server    ServerConfig  `yaml:"server"`
	Viewer    ViewerConfig  `yaml:"viewer"`
	Render    RenderConfig  `yaml:"render"`
	Log       LogConfig     `yaml:"log"`
	Events    EventsConfig  `yaml:"events"`
	Tracing   TracingConfig `yaml:"tracing"`
	Catalogue string        `yaml:"catalogue"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	AllowedOrigins string        `yaml:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gte=1s"`
	BodyLimit      int           `yaml:"body_limit" validate:"gt=0"`
}

type ViewerConfig struct {
	FPS          int           `yaml:"fps" validate:"gte=1,lte=240"`
	Blend        float64       `yaml:"blend" validate:"gt=0,lt=1"`
	CameraPolicy camera.Policy `yaml:"camera_policy" validate:"oneof=override pause ignore"`
	Archetype    string        `yaml:"archetype"`
}

type RenderConfig struct {
	Width  int     `yaml:"width" validate:"gte=16,lte=8192"`
	Height int     `yaml:"height" validate:"gte=16,lte=8192"`
	FOV    float64 `yaml:"fov" validate:"gt=0,lt=180"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Production bool   `yaml:"production"`
}

type EventsConfig struct {
	NatsURL string `yaml:"nats_url" validate:"omitempty,url"`
	Stream  string `yaml:"stream" validate:"required_with=NatsURL"`
	Prefix  string `yaml:"prefix" validate:"required_with=NatsURL"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `yaml:"service_name" validate:"required_if=Enabled true"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8090",
			AllowedOrigins: "*",
			SessionTTL:     30 * time.Minute,
			BodyLimit:      1024 * 1024,
		},
		Viewer: ViewerConfig{
			FPS:          60,
			Blend:        camera.DefaultBlend,
			CameraPolicy: camera.PolicyPause,
		},
		Render: RenderConfig{
			Width:  960,
			Height: 540,
			FOV:    75,
		},
		Events: EventsConfig{
			Stream: "BIMVIEWER",
			Prefix: "bimviewer",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "bimviewer",
		},
	}
}

// Load reads .env (when present), then the YAML file at path (when not
// empty), then BIMVIEWER_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "BIMVIEWER_ADDR")
	setString(&cfg.Server.AllowedOrigins, "BIMVIEWER_ALLOWED_ORIGINS")
	setString(&cfg.Viewer.Archetype, "BIMVIEWER_ARCHETYPE")
	setString(&cfg.Log.File, "BIMVIEWER_LOG_FILE")
	setString(&cfg.Events.NatsURL, "BIMVIEWER_NATS_URL")
	setString(&cfg.Tracing.Endpoint, "BIMVIEWER_OTLP_ENDPOINT")
	setString(&cfg.Catalogue, "BIMVIEWER_CATALOGUE")

	if v := os.Getenv("BIMVIEWER_CAMERA_POLICY"); v != "" {
		p, err := camera.ParsePolicy(v)
		if err != nil {
			return err
		}
		cfg.Viewer.CameraPolicy = p
	}
	if v := os.Getenv("BIMVIEWER_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIMVIEWER_SESSION_TTL: %w", err)
		}
		cfg.Server.SessionTTL = d
	}

	ints := map[string]*int{
		"BIMVIEWER_FPS":    &cfg.Viewer.FPS,
		"BIMVIEWER_WIDTH":  &cfg.Render.Width,
		"BIMVIEWER_HEIGHT": &cfg.Render.Height,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"BIMVIEWER_BLEND": &cfg.Viewer.Blend,
		"BIMVIEWER_FOV":   &cfg.Render.FOV,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"BIMVIEWER_LOG_PRODUCTION": &cfg.Log.Production,
		"BIMVIEWER_TRACING":        &cfg.Tracing.Enabled,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
