package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fullstage/internal/metrics"
)

var ErrCaptureNotFound = errors.New("capture not found")

const (
	metadataFile = "metadata.json"
	frameFile    = "frame.png"
	timingsFile  = "frames.csv"
)

// Store keeps headless captures, one directory per capture.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type CaptureMetadata struct {
	ID         string          `json:"id"`
	Backend    string          `json:"backend"`
	Timestamp  time.Time       `json:"timestamp"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Fullscreen bool            `json:"fullscreen"`
	Frames     int             `json:"frames"`
	Background string          `json:"background"`
	Preset     string          `json:"preset,omitempty"`
	Stats      metrics.Summary `json:"stats"`
}

// Capture is what a headless run hands to the store.
type Capture struct {
	Backend    string
	Width      int
	Height     int
	Fullscreen bool
	Background string
	Preset     string
	Image      image.Image
	Timings    []time.Duration
	Stats      metrics.Summary
}

func (s *Store) Save(c Capture) (string, error) {
	ts := s.now()
	id := fmt.Sprintf("%s_%d", c.Backend, ts.UnixNano())
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := CaptureMetadata{
		ID:         id,
		Backend:    c.Backend,
		Timestamp:  ts,
		Width:      c.Width,
		Height:     c.Height,
		Fullscreen: c.Fullscreen,
		Frames:     len(c.Timings),
		Background: c.Background,
		Preset:     c.Preset,
		Stats:      c.Stats,
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}

	if c.Image != nil {
		if err := writePNG(filepath.Join(dir, frameFile), c.Image); err != nil {
			return "", err
		}
	}

	if err := writeTimings(filepath.Join(dir, timingsFile), c.Timings); err != nil {
		return "", err
	}
	return id, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeTimings(path string, timings []time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "render_ms"}); err != nil {
		return err
	}
	for i, ms := range metrics.Milliseconds(timings) {
		row := []string{strconv.Itoa(i), strconv.FormatFloat(ms, 'f', 6, 64)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns captures newest first.
func (s *Store) List() ([]CaptureMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []CaptureMetadata{}, nil
		}
		return nil, err
	}

	caps := make([]CaptureMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		caps = append(caps, *meta)
	}
	sort.Slice(caps, func(i, j int) bool {
		return caps[i].Timestamp.After(caps[j].Timestamp)
	})
	return caps, nil
}

func (s *Store) Load(id string) (*CaptureMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrCaptureNotFound)
		}
		return nil, err
	}
	var meta CaptureMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &meta, nil
}

// LoadTimings reads back the per-frame render times in milliseconds.
func (s *Store) LoadTimings(id string) ([]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, timingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrCaptureNotFound)
		}
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return []float64{}, nil
	}
	out := make([]float64, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse timing %q: %w", row[1], err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FramePath is where a capture's PNG lives.
func (s *Store) FramePath(id string) string {
	return filepath.Join(s.baseDir, id, frameFile)
}
