package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fullstage/internal/logx"
	"github.com/san-kum/fullstage/internal/stage"
)

const (
	DefaultTitle        = "fullstage"
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultScreenWidth  = 1920
	DefaultScreenHeight = 1080
	DefaultBackground   = "#111111"
	DefaultBackend      = "auto"
	DefaultFPS          = 60
	DefaultLogLevel     = "info"

	DefaultParticleCount = 200
	DefaultGravity       = 240.0
	DefaultSpeed         = 180.0
	DefaultParticleSize  = 3.0
	DefaultIntegrator    = "verlet"
	DefaultParticleColor = "#f0f0f0"
)

type Config struct {
	Title        string         `yaml:"title"`
	Width        int            `yaml:"width"`
	Height       int            `yaml:"height"`
	ScreenWidth  int            `yaml:"screen_width"`
	ScreenHeight int            `yaml:"screen_height"`
	Background   string         `yaml:"background"`
	Transparent  bool           `yaml:"transparent"`
	Antialias    bool           `yaml:"antialias"`
	Backend      string         `yaml:"backend"`
	FPS          int            `yaml:"fps"`
	FollowWindow bool           `yaml:"follow_window"`
	LogLevel     string         `yaml:"log_level"`
	Particles    ParticleConfig `yaml:"particles"`
}

type ParticleConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Count      int     `yaml:"count"`
	Gravity    float64 `yaml:"gravity"`
	Speed      float64 `yaml:"speed"`
	Size       float64 `yaml:"size"`
	Integrator string  `yaml:"integrator"`
	Color      string  `yaml:"color"`
	Seed       int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Title:        DefaultTitle,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		ScreenWidth:  DefaultScreenWidth,
		ScreenHeight: DefaultScreenHeight,
		Background:   DefaultBackground,
		Backend:      DefaultBackend,
		FPS:          DefaultFPS,
		LogLevel:     DefaultLogLevel,
		Particles: ParticleConfig{
			Enabled:    true,
			Count:      DefaultParticleCount,
			Gravity:    DefaultGravity,
			Speed:      DefaultSpeed,
			Size:       DefaultParticleSize,
			Integrator: DefaultIntegrator,
			Color:      DefaultParticleColor,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base, so keys missing from the
// file keep base's values. base is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	*cfg = *base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("window size must be non-negative, got %dx%d", c.Width, c.Height)
	}
	if c.ScreenWidth < 0 || c.ScreenHeight < 0 {
		return fmt.Errorf("screen size must be non-negative, got %dx%d", c.ScreenWidth, c.ScreenHeight)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must be non-negative, got %d", c.FPS)
	}
	if _, err := stage.ParseColor(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Particles.Enabled {
		if c.Particles.Count < 0 {
			return fmt.Errorf("particle count must be non-negative, got %d", c.Particles.Count)
		}
		if _, err := stage.ParseColor(c.Particles.Color); err != nil {
			return fmt.Errorf("particle color: %w", err)
		}
		switch c.Particles.Integrator {
		case "euler", "verlet":
		default:
			return fmt.Errorf("unknown integrator %q", c.Particles.Integrator)
		}
	}
	return nil
}

// BackgroundColor returns the parsed background, falling back to the default.
func (c *Config) BackgroundColor() stage.Color {
	col, err := stage.ParseColor(c.Background)
	if err != nil {
		return stage.DefaultBackground
	}
	return col
}

func (c *Config) ParticleColor() stage.Color {
	col, err := stage.ParseColor(c.Particles.Color)
	if err != nil {
		return 0xf0f0f0
	}
	return col
}
