// Package watch implements the debounced file-system watcher (spec
// §4.8): it subscribes to a set of root directories and, after a quiet
// period, emits the accumulated set of changed paths exactly once.
//
// Grounded on the pack's stojg-playlist-sorter/view.go, which
// watches a single playlist file via fsnotify and debounces a burst of
// writes with a short sleep before reacting. Generalized here from one
// file to a recursive tree of roots, and from a fixed sleep to a
// resettable timer accumulating a batch across many paths.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period spec §4.8 names.
const DefaultDebounce = 2 * time.Second

// tempExtensions are dropped regardless of the caller's extension
// whitelist, since they represent in-progress writes.
var tempExtensions = map[string]bool{
	".tmp": true, ".part": true, ".download": true, ".crdownload": true,
}

// Options configures a Watcher.
type Options struct {
	Roots          []string
	Extensions     map[string]bool // nil means "accept any extension"
	IgnorePatterns []string        // substring match against the full path
	Debounce       time.Duration
}

// Watcher is a debounced fsnotify subscriber over Options.Roots.
type Watcher struct {
	opts Options
	log  zerolog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	pending map[string]bool
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New returns a Watcher; call Start to begin watching.
func New(opts Options, log zerolog.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{opts: opts, log: log.With().Str("component", "watcher").Logger(), pending: make(map[string]bool)}
}

// Start begins watching. onBatch is invoked with the accumulated set of
// changed paths once per debounce window. Start is idempotent: calling
// it again while already running is a no-op.
func (w *Watcher) Start(onBatch func([]string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, root := range w.opts.Roots {
		if _, err := os.Stat(root); err != nil {
			w.log.Warn().Str("root", root).Err(err).Msg("watch root does not exist, skipping")
			continue
		}
		if err := addRecursive(fsw, root); err != nil {
			w.log.Warn().Str("root", root).Err(err).Msg("failed to watch root")
		}
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.started = true

	w.wg.Add(1)
	go w.loop(onBatch)
	return nil
}

// Stop halts watching. Any pending batch is flushed synchronously
// before Stop returns. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	close(w.done)
	w.fsw.Close()
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Watcher) loop(onBatch func([]string)) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			w.flush(onBatch)
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.flush(onBatch)
				return
			}
			w.handleEvent(ev, onBatch)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				continue
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, onBatch func([]string)) {
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		if ev.Op&fsnotify.Create == fsnotify.Create {
			addRecursive(w.fsw, ev.Name)
		}
		return
	}
	if !w.accept(ev.Name) {
		return
	}

	w.mu.Lock()
	w.pending[ev.Name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.flush(onBatch) })
	w.mu.Unlock()
}

func (w *Watcher) accept(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if tempExtensions[ext] {
		return false
	}
	if w.opts.Extensions != nil && !w.opts.Extensions[ext] {
		return false
	}
	for _, pat := range w.opts.IgnorePatterns {
		if strings.Contains(path, pat) {
			return false
		}
	}
	return true
}

func (w *Watcher) flush(onBatch func([]string)) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]bool)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	onBatch(batch)
}

// addRecursive walks root and registers every directory with fsw, since
// fsnotify watches are non-recursive by design.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if fi.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
