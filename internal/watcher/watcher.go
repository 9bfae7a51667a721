// Package watcher watches spec files and directories with fsnotify and
// triggers a debounced corpus reload when they change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goel7054/swagger-bot/internal/specdoc"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches spec paths and invokes onChange once per burst of changes.
// Paths may be files or directories. A file is watched through its parent
// directory so editors that replace files on save are still seen.
type Watcher struct {
	paths      []string
	extensions []string
	recursive  bool
	onChange   func(changed []string)
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	files   map[string]bool // watched spec files
	dirs    map[string]bool // watched spec directories
	pending map[string]struct{}
	timer   *time.Timer
	done    chan struct{}
	started bool
	stopped sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions limits directory events to files with these extensions.
func WithExtensions(exts []string) WatcherOption {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithRecursive controls whether subdirectories of watched directories are watched.
func WithRecursive(recursive bool) WatcherOption {
	return func(w *Watcher) { w.recursive = recursive }
}

// NewWatcher creates a watcher for paths. onChange receives the sorted set of
// paths that changed since the last call.
func NewWatcher(paths []string, onChange func(changed []string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		paths:      append([]string(nil), paths...),
		extensions: specdoc.DefaultExtensions,
		recursive:  true,
		onChange:   onChange,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		files:      make(map[string]bool),
		dirs:       make(map[string]bool),
		pending:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
// Missing paths are skipped with a warning; they are picked up when their
// parent directory is watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	for _, p := range w.paths {
		if err := w.addPathLocked(p); err != nil {
			_ = fw.Close()
			w.watcher = nil
			return err
		}
	}
	w.done = make(chan struct{})
	w.started = true
	w.logger.Debug("watcher starting",
		zap.Strings("paths", w.paths),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))

	w.stopped.Add(1)
	go w.run(ctx, fw, w.done)
	return nil
}

func (w *Watcher) addPathLocked(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Warn("watch path does not exist", zap.String("path", abs))
			return nil
		}
		return err
	}
	if !info.IsDir() {
		w.files[abs] = true
		return w.watcher.Add(filepath.Dir(abs))
	}
	w.dirs[abs] = true
	return w.addDirLocked(abs)
}

func (w *Watcher) addDirLocked(root string) error {
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer w.stopped.Done()
	for {
		select {
		case <-ctx.Done():
			go w.Stop()
			return
		case <-done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if ev.Op == fsnotify.Chmod {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}

	if w.files[path] {
		w.scheduleLocked(path, ev.Op)
		return
	}
	root, ok := w.rootOfLocked(path)
	if !ok {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive {
				if err := w.addDirLocked(path); err != nil {
					w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
				w.scheduleLocked(path, ev.Op)
			}
			return
		}
	}
	if !w.recursive && filepath.Dir(path) != root {
		return
	}
	if specdoc.MatchExtension(path, w.extensions) {
		w.scheduleLocked(path, ev.Op)
	}
}

// rootOfLocked returns the watched directory containing path.
func (w *Watcher) rootOfLocked(path string) (string, bool) {
	for dir := range w.dirs {
		if inDir(dir, path) {
			return dir, true
		}
	}
	return "", false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) scheduleLocked(path string, op fsnotify.Op) {
	w.logger.Debug("watcher event", zap.String("op", op.String()), zap.String("path", path))
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.started || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	w.stopped.Add(1)
	defer w.stopped.Done()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	onChange := w.onChange
	w.mu.Unlock()

	sort.Strings(changed)
	w.logger.Debug("watcher change settled", zap.Strings("paths", changed))
	if onChange != nil {
		onChange(changed)
	}
}

// Paths returns the configured watch paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// Stop stops the watcher, drops pending changes and waits for the event
// loop and any running onChange call to return. onChange must not call Stop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
	close(w.done)
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopped.Wait()
}
