package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path over base whenever it is written and hands the result
// to fn. A nil base means DefaultConfig. Files that fail to load go to onErr
// and are otherwise ignored. Watch returns when ctx is done.
func Watch(ctx context.Context, path string, base *Config, fn func(*Config), onErr func(error)) error {
	if base == nil {
		base = DefaultConfig()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Editors often save by renaming over the file, which drops a file watch.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadOver(path, base)
			if err != nil {
				report(err)
				continue
			}
			fn(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			report(err)
		}
	}
}
