// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Assets   AssetsConfig   `yaml:"assets" toml:"assets"`
	Import   ImportConfig   `yaml:"import" toml:"import"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Fullscreen bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool `yaml:"vsync" toml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit" toml:"fps_limit"`
	MSAA       int  `yaml:"msaa" toml:"msaa"`

	ScreenshotDir string `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// AssetsConfig holds file locations and hot reload settings.
type AssetsConfig struct {
	Roots      []string `yaml:"roots" toml:"roots"` // Search directories, last wins
	Model      string   `yaml:"model" toml:"model"` // Model shown at startup
	Watch      bool     `yaml:"watch" toml:"watch"`
	DebounceMs int      `yaml:"debounce_ms" toml:"debounce_ms"`
}

// ImportConfig holds mesh import settings.
type ImportConfig struct {
	TextureDir            string  `yaml:"texture_dir" toml:"texture_dir"`
	FlipV                 bool    `yaml:"flip_v" toml:"flip_v"`
	SmoothAcrossSubmeshes bool    `yaml:"smooth_across_submeshes" toml:"smooth_across_submeshes"`
	UseSourceNormals      bool    `yaml:"use_source_normals" toml:"use_source_normals"`
	AnimTimeMs            float32 `yaml:"anim_time_ms" toml:"anim_time_ms"`
	MagentaKey            bool    `yaml:"magenta_key" toml:"magenta_key"`
}

// CameraConfig holds camera and controller settings.
type CameraConfig struct {
	FovDegrees  float32 `yaml:"fov_degrees" toml:"fov_degrees"`
	Speed       float32 `yaml:"speed" toml:"speed"`
	Sensitivity float32 `yaml:"sensitivity" toml:"sensitivity"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			MSAA:       4,

			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			Roots:      []string{"."},
			Model:      "",
			Watch:      true,
			DebounceMs: 150,
		},
		Import: ImportConfig{
			TextureDir:            "assets/models/textures/",
			FlipV:                 true,
			SmoothAcrossSubmeshes: true,
			MagentaKey:            true,
		},
		Camera: CameraConfig{
			FovDegrees:  60,
			Speed:       5,
			Sensitivity: 0.003,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
