// Package watch reports debounced changes to the JSON files of a config root.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// ErrNoDirs is returned when none of the configured directories can be watched
var ErrNoDirs = errors.New("no directories to watch")

// Config holds the parameters for a Watcher
type Config struct {
	// Dirs are watched non-recursively. Missing directories are skipped.
	Dirs []string

	// Debounce is the quiet period after the last event. Zero uses the default.
	Debounce time.Duration

	// OnChange receives the sorted, deduplicated set of changed .json files.
	OnChange func(ctx context.Context, changed []string)

	Logger *log.Logger
}

// Watcher fires a debounced callback when package or preset files change
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	logger   *log.Logger
	debounce time.Duration
	dirs     []string
	started  atomic.Bool
}

// New registers every existing directory in cfg.Dirs
func New(cfg Config) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{cfg: cfg, fsw: fsw, logger: logger, debounce: debounce}
	for _, dir := range cfg.Dirs {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			logger.Debug("skipping watch directory", "dir", dir)
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs = append(w.dirs, dir)
	}
	if len(w.dirs) == 0 {
		fsw.Close()
		return nil, ErrNoDirs
	}
	return w, nil
}

// Dirs returns the directories actually being watched
func (w *Watcher) Dirs() []string {
	return slices.Clone(w.dirs)
}

// Run blocks until ctx is cancelled. It must be called once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher already running")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Collect(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		sort.Strings(changed)
		w.logger.Debug("config files changed", "files", changed)
		if w.cfg.OnChange != nil {
			w.cfg.OnChange(ctx, changed)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("failed to close file watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("file watcher event channel closed")
			}
			if filepath.Ext(evt.Name) != ".json" || evt.Op == fsnotify.Chmod {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("file watcher error channel closed")
			}
			w.logger.Warn("file watcher error", "err", err)
		}
	}
}
