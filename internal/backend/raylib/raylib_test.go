//go:build !js

package raylib

import (
	"context"
	"testing"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/stage"
	"github.com/san-kum/fullstage/internal/viewport"
)

func TestToColor(t *testing.T) {
	got := toColor(stage.Color(0x112233).NRGBA(0x80))
	if got.R != 0x11 || got.G != 0x22 || got.B != 0x33 || got.A != 0x80 {
		t.Errorf("toColor = %+v", got)
	}
}

func TestClosedPlatformFallsBackToOptions(t *testing.T) {
	p := New(backend.Options{
		Window: viewport.Size{Width: 640, Height: 480},
		Screen: viewport.Size{Width: 1920, Height: 1080},
	})
	if got := p.WindowSize(); got != (viewport.Size{Width: 640, Height: 480}) {
		t.Errorf("WindowSize = %v", got)
	}
	if got := p.ScreenSize(); got != (viewport.Size{Width: 1920, Height: 1080}) {
		t.Errorf("ScreenSize = %v", got)
	}
	if p.IsFullscreen() {
		t.Error("closed window cannot be fullscreen")
	}
	if err := p.RequestFullscreen(nil); err != viewport.ErrForeignSurface {
		t.Errorf("RequestFullscreen = %v", err)
	}
	if err := p.Run(context.Background()); err != errNoWindow {
		t.Errorf("Run = %v, want errNoWindow", err)
	}
}

func TestWindowMemoRestoresOnce(t *testing.T) {
	var m windowMemo
	if _, ok := m.take(); ok {
		t.Fatal("empty memo should have nothing to restore")
	}

	m.remember(viewport.Size{})
	if _, ok := m.take(); ok {
		t.Error("an empty size is not worth restoring")
	}

	m.remember(viewport.Size{Width: 1280, Height: 720})
	got, ok := m.take()
	if !ok || got != (viewport.Size{Width: 1280, Height: 720}) {
		t.Errorf("take = %v, %v; want 1280x720", got, ok)
	}
	if _, ok := m.take(); ok {
		t.Error("a size is restored only once")
	}
}

func TestRegistered(t *testing.T) {
	b, err := backend.Lookup(Name)
	if err != nil {
		t.Fatal(err)
	}
	if b.Priority <= 10 {
		t.Errorf("priority %d should beat headless", b.Priority)
	}
}
