package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/backend/headless"
	"github.com/san-kum/fullstage/internal/config"
	"github.com/san-kum/fullstage/internal/logx"
	"github.com/san-kum/fullstage/internal/metrics"
	"github.com/san-kum/fullstage/internal/particles"
	"github.com/san-kum/fullstage/internal/storage"
	"github.com/san-kum/fullstage/internal/viewport"
)

// liveStatsWindow bounds frame-time memory for open-ended runs.
const liveStatsWindow = 600

type session struct {
	log      *slog.Logger
	platform viewport.Platform
	ctrl     *viewport.Controller
	stats    *metrics.FrameStats
}

// loadConfig layers defaults, the preset, the config file and changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		apply, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		apply(cfg)
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = backendName
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("follow-window") {
		cfg.FollowWindow = followWindow
	}
	if noParticles {
		cfg.Particles.Enabled = false
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func viewOptions(cfg *config.Config, log *slog.Logger, frames int) backend.Options {
	return backend.Options{
		Title:  cfg.Title,
		Window: viewport.Size{Width: cfg.Width, Height: cfg.Height},
		Screen: viewport.Size{Width: cfg.ScreenWidth, Height: cfg.ScreenHeight},
		FPS:    cfg.FPS,
		Frames: frames,
		Logger: log,
	}
}

func openSession(cfg *config.Config, name string, frames int) (*session, error) {
	log, err := logx.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}
	p, err := backend.Open(name, viewOptions(cfg, log, frames))
	if err != nil {
		if errors.Is(err, backend.ErrNoBackend) {
			return nil, fmt.Errorf("%w (see `fullstage backends`)", err)
		}
		return nil, err
	}
	return newSession(cfg, log, p, 0, liveStatsWindow)
}

// openHeadless renders unpaced on a fixed simulation step so runs repeat.
func openHeadless(cfg *config.Config, frames int) (*session, *headless.Platform, error) {
	if frames <= 0 {
		return nil, nil, fmt.Errorf("frames must be positive, got %d", frames)
	}
	log, err := logx.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	opts := viewOptions(cfg, log, frames)
	opts.FPS = 0
	hp := headless.New(opts)

	step := time.Second / time.Duration(max(cfg.FPS, 1))
	s, err := newSession(cfg, log, hp, step, frames)
	if err != nil {
		return nil, nil, err
	}
	return s, hp, nil
}

func newSession(cfg *config.Config, log *slog.Logger, p viewport.Platform, step time.Duration, keep int) (*session, error) {
	stats := metrics.NewFrameStats(keep)
	ctrl := viewport.New(p, viewport.Options{
		Background:    cfg.BackgroundColor(),
		Transparent:   cfg.Transparent,
		Antialias:     cfg.Antialias,
		FollowWindow:  cfg.FollowWindow,
		Logger:        log,
		FrameObserver: stats.Observe,
	})
	if err := ctrl.Init(); err != nil {
		return nil, err
	}

	if cfg.Particles.Enabled {
		em, err := particles.New(particles.Options{
			Count:      cfg.Particles.Count,
			Gravity:    cfg.Particles.Gravity,
			Speed:      cfg.Particles.Speed,
			Size:       cfg.Particles.Size,
			Color:      cfg.ParticleColor(),
			Integrator: cfg.Particles.Integrator,
			Seed:       cfg.Particles.Seed,
			FixedStep:  step,
		})
		if err != nil {
			ctrl.Close()
			return nil, err
		}
		if err := ctrl.Attach(em); err != nil {
			ctrl.Close()
			return nil, err
		}
	}

	return &session{log: log, platform: p, ctrl: ctrl, stats: stats}, nil
}

func (s *session) capture(cfg *config.Config, hp *headless.Platform) storage.Capture {
	size := s.ctrl.Size()
	return storage.Capture{
		Backend:    hp.Name(),
		Width:      size.Width,
		Height:     size.Height,
		Fullscreen: hp.IsFullscreen(),
		Background: cfg.BackgroundColor().Hex(),
		Preset:     preset,
		Image:      hp.Renderer().Image(),
		Timings:    s.stats.Samples(),
		Stats:      s.stats.Summary(),
	}
}

// watchConfig applies the live-changeable part of a reloaded config.
func (s *session) watchConfig(ctx context.Context, path string) {
	base := config.DefaultConfig()
	if p := config.GetPreset(preset); p != nil {
		base = p
	}
	st := s.ctrl.Context().Stage
	err := config.Watch(ctx, path, base, func(cfg *config.Config) {
		st.SetBackground(cfg.BackgroundColor())
		s.log.Info("config reloaded", "path", path, "background", cfg.Background)
	}, func(err error) {
		s.log.Warn("config reload failed", "path", path, "err", err)
	})
	if err != nil {
		s.log.Warn("config watch stopped", "err", err)
	}
}
