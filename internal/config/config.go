// Package config loads garland's runtime settings.
package config

// Renderer names.
const (
	RendererTerminal  = "terminal"
	RendererWebSocket = "websocket"
	RendererNone      = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFile, when set, receives a rotated copy of the log.
	LogFile string `koanf:"log_file"`

	// Addr is the HTTP listen address. Empty disables the server.
	Addr      string `koanf:"addr" validate:"required_if=Renderer websocket"`
	StaticDir string `koanf:"static_dir"`

	CameraID int `koanf:"camera_id" validate:"gte=0"`
	// DetectFPS is the detection rate while the hand is moving.
	DetectFPS int `koanf:"detect_fps" validate:"gte=1,lte=60"`
	// IdleFPS is the detection rate after two seconds without motion.
	IdleFPS         int     `koanf:"idle_fps" validate:"gte=1,ltefield=DetectFPS"`
	MotionGate      bool    `koanf:"motion_gate"`
	MotionThreshold float64 `koanf:"motion_threshold" validate:"gt=0,lte=100"`

	RenderFPS int `koanf:"render_fps" validate:"gte=1,lte=240"`
	// Renderer selects the frame sink: terminal, websocket or none.
	Renderer      string `koanf:"renderer" validate:"oneof=terminal websocket none"`
	ParticleCount int    `koanf:"particle_count" validate:"gte=1,lte=100000"`
	Seed          uint64 `koanf:"seed"`

	Chime bool `koanf:"chime"`
	Tray  bool `koanf:"tray"`

	MediaPipeScript string `koanf:"mediapipe_script"`
	Python          string `koanf:"python"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		CameraID:        0,
		DetectFPS:       15,
		IdleFPS:         5,
		MotionGate:      false,
		MotionThreshold: 1.0,
		RenderFPS:       30,
		Renderer:        RendererTerminal,
		ParticleCount:   2500,
		Seed:            1,
		Chime:           false,
		Tray:            false,
	}
}
