// Package presets ships the built-in calendar definitions and overlays
// them with operator-provided YAML files from a local directory. Built-in
// presets are compiled into the binary; the overlay directory may add new
// presets or shadow built-in ones by file name.
package presets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/keyxmakerx/almanac/internal/plugins/calendars"
)

//go:embed data/*.yaml
var builtins embed.FS

// reloadDelay coalesces the burst of filesystem events an editor save
// produces into a single reload.
const reloadDelay = 250 * time.Millisecond

// Catalog resolves preset names to calendar definitions. Lookups and
// reloads may run concurrently.
type Catalog struct {
	dir string

	mu       sync.RWMutex
	embedded map[string]calendars.Definition
	local    map[string]calendars.Definition
}

// NewCatalog loads the built-in presets and, when dir is non-empty, the
// overlay directory. A broken built-in file is a packaging defect and
// fails construction; broken overlay files are skipped with a warning.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{
		dir:      dir,
		embedded: make(map[string]calendars.Definition),
		local:    make(map[string]calendars.Definition),
	}

	entries, err := fs.ReadDir(builtins, "data")
	if err != nil {
		return nil, fmt.Errorf("read built-in presets: %w", err)
	}
	for _, entry := range entries {
		raw, err := fs.ReadFile(builtins, "data/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read built-in preset %s: %w", entry.Name(), err)
		}
		def, err := parsePreset(raw)
		if err != nil {
			return nil, fmt.Errorf("built-in preset %s: %w", entry.Name(), err)
		}
		c.embedded[presetName(entry.Name())] = def
	}

	if err := c.LoadDir(); err != nil {
		return nil, err
	}
	return c, nil
}

// Definition returns the named preset. Overlay presets shadow built-in
// ones of the same name.
func (c *Catalog) Definition(name string) (calendars.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if def, ok := c.local[name]; ok {
		return def, true
	}
	def, ok := c.embedded[name]
	return def, ok
}

// Names lists all available preset names sorted alphabetically.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.embedded)+len(c.local))
	names := make([]string, 0, len(c.embedded)+len(c.local))
	for name := range c.embedded {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range c.local {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadDir re-reads the overlay directory from scratch. Files that fail to
// parse or validate are skipped so one bad file cannot take down the rest
// of the overlay. A missing directory means no overlay.
func (c *Catalog) LoadDir() error {
	if c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read preset dir %s: %w", c.dir, err)
	}

	local := make(map[string]calendars.Definition)
	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("preset file unreadable", "path", path, "error", err)
			continue
		}
		def, err := parsePreset(raw)
		if err != nil {
			slog.Warn("preset file skipped", "path", path, "error", err)
			continue
		}
		local[presetName(entry.Name())] = def
	}

	c.mu.Lock()
	c.local = local
	c.mu.Unlock()

	slog.Info("preset overlay loaded", "dir", c.dir, "count", len(local))
	return nil
}

// Watch reloads the overlay directory whenever preset files change. It
// blocks until ctx is cancelled and is meant to run in its own goroutine.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create preset watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not individual files: editors replace files on
	// save, which would silently detach a per-file watch.
	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch preset dir %s: %w", c.dir, err)
	}
	slog.Info("watching preset directory", "dir", c.dir)

	var reload *time.Timer
	defer func() {
		if reload != nil {
			reload.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isPresetFile(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if reload != nil {
				reload.Stop()
			}
			reload = time.AfterFunc(reloadDelay, func() {
				if err := c.LoadDir(); err != nil {
					slog.Warn("preset reload failed", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("preset watcher error", "error", err)
		}
	}
}

// parsePreset decodes and validates one preset document. Presets are
// curated files and must describe a complete calendar; no defaults are
// filled in.
func parsePreset(raw []byte) (calendars.Definition, error) {
	var def calendars.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return calendars.Definition{}, fmt.Errorf("parse preset: %w", err)
	}
	if strings.TrimSpace(def.Settings.Name) == "" {
		return calendars.Definition{}, errors.New("preset has no calendar name")
	}
	if err := def.EngineSchema().Validate(); err != nil {
		return calendars.Definition{}, fmt.Errorf("validate preset: %w", err)
	}
	return def, nil
}

// presetName derives the catalog key from a file name.
func presetName(file string) string {
	return strings.TrimSuffix(strings.TrimSuffix(file, ".yaml"), ".yml")
}

func isPresetFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
