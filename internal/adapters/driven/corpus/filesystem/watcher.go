package filesystem

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

const (
	// debounceWindow is how long a burst of file events must settle
	// before one rebuild is triggered for the whole burst.
	debounceWindow = 500 * time.Millisecond

	// sweepInterval is how often pending events are checked for
	// settlement.
	sweepInterval = 100 * time.Millisecond
)

// Watcher triggers an index rebuild when corpus files change. Editor
// saves and bulk copies produce bursts of events; the watcher coalesces
// a burst into a single rebuild.
type Watcher struct {
	watcher *fsnotify.Watcher
	indexer driving.IndexService
	dir     string

	mu          sync.Mutex
	pending     map[string]time.Time
	debounceDur time.Duration
	running     bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher creates a corpus watcher for the given directory.
func NewWatcher(dir string, indexer driving.IndexService) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create corpus watcher: %w", err)
	}

	return &Watcher{
		watcher:     fsw,
		indexer:     indexer,
		dir:         dir,
		pending:     make(map[string]time.Time),
		debounceDur: debounceWindow,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the corpus directory. Non-blocking; events are
// handled until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch corpus dir %s: %w", w.dir, err)
	}
	w.running = true

	logger.Info("Watching corpus directory: %s", w.dir)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logger.Warn("Corpus watcher close: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Corpus watcher: %v", err)

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// handleEvent records a corpus file event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isCorpusFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		// Ignore chmod and other noise.
		return
	}

	logger.Debug("Corpus change: %s %s", event.Op, event.Name)
	w.markDirty(event.Name)
}

func (w *Watcher) markDirty(path string) {
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// sweep triggers one rebuild once every pending event has settled past
// the debounce window. Rebuilding in a goroutine keeps the event loop
// responsive while the index builds.
func (w *Watcher) sweep(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	changed := len(w.pending)
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	logger.Info("Corpus changed (%d files), rebuilding index", changed)
	go w.rebuild(ctx)
}

func (w *Watcher) rebuild(ctx context.Context) {
	report, err := w.indexer.Rebuild(ctx)
	switch {
	case errors.Is(err, domain.ErrRebuildInProgress):
		// Retry after the running rebuild finishes; the marker settles
		// through the normal debounce window.
		logger.Debug("Rebuild already running, queueing retry")
		w.markDirty(w.dir)
	case err != nil:
		logger.Warn("Auto-rebuild failed: %v", err)
	default:
		logger.Info("Auto-rebuild complete: generation %d, %d chunks", report.Generation, report.Chunks)
	}
}
