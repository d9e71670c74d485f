// Package backend registers host platforms and picks one at startup, the way
// a graphics library auto-detects the best renderer the environment offers.
package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/san-kum/fullstage/internal/viewport"
)

// Auto asks Open to pick the highest-priority available backend.
const Auto = "auto"

var (
	ErrUnknownBackend = errors.New("unknown backend")
	ErrNoBackend      = errors.New("no backend available")
	ErrUnavailable    = errors.New("backend not available in this environment")
)

// Options carry everything a platform needs to open.
type Options struct {
	Title  string
	Window viewport.Size
	// Screen is only used by platforms that cannot query a real display.
	Screen viewport.Size
	FPS    int
	// Frames stops the platform after this many frames; zero runs until closed.
	Frames int
	Logger *slog.Logger
	Output io.Writer
	Input  io.Reader
}

// Log returns the configured logger or one that discards.
func (o Options) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type Backend struct {
	Name        string
	Description string
	// Priority orders auto-detection; higher wins.
	Priority  int
	Available func() bool
	Open      func(opts Options) (viewport.Platform, error)
}

type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

func (r *Registry) Register(b Backend) {
	if b.Name == "" || b.Open == nil {
		panic("backend: Register requires a name and an Open func")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.backends[b.Name]; dup {
		panic("backend: Register called twice for " + b.Name)
	}
	r.backends[b.Name] = b
}

func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return b, nil
}

// List returns backends by descending priority, then name.
func (r *Registry) List() []Backend {
	r.mu.RLock()
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Detect returns the highest-priority available backend.
func (r *Registry) Detect() (Backend, error) {
	for _, b := range r.List() {
		if b.IsAvailable() {
			return b, nil
		}
	}
	return Backend{}, ErrNoBackend
}

// Open opens the named backend, or auto-detects one when name is Auto or empty.
func (r *Registry) Open(name string, opts Options) (viewport.Platform, error) {
	var (
		b   Backend
		err error
	)
	if name == "" || name == Auto {
		b, err = r.Detect()
	} else {
		b, err = r.Lookup(name)
		if err == nil && !b.IsAvailable() {
			err = fmt.Errorf("%s: %w", name, ErrUnavailable)
		}
	}
	if err != nil {
		return nil, err
	}

	opts.Log().Debug("opening backend", "backend", b.Name)
	p, err := b.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.Name, err)
	}
	return p, nil
}

func (b Backend) IsAvailable() bool {
	return b.Available == nil || b.Available()
}

var Default = NewRegistry()

func Register(b Backend) { Default.Register(b) }

func Lookup(name string) (Backend, error) { return Default.Lookup(name) }

func List() []Backend { return Default.List() }

func Open(name string, opts Options) (viewport.Platform, error) { return Default.Open(name, opts) }

// HasDisplay reports whether a windowing system is reachable.
func HasDisplay() bool {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
	}
	return true
}
