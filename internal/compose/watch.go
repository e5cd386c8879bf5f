package compose

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher recomposes the shell whenever the host-marker manifest changes,
// the way a page reload re-initializes the bridge context. An in-flight
// composition is torn down before the next one starts, and only the newest
// composition's shell is ever delivered.
type Watcher struct {
	path     string
	build    func() *Composer
	onShell  func(*Shell)
	logger   *zap.Logger
	debounce time.Duration

	watcher   *fsnotify.Watcher
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}

	mu         sync.Mutex
	running    bool
	generation uint64
}

// NewWatcher creates a Watcher for the manifest at path. build is called for
// every composition so each one gets a fresh host lifetime (and detector).
// onShell must not call Stop.
func NewWatcher(path string, build func() *Composer, onShell func(*Shell), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		build:    build,
		onShell:  onShell,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start composes once and then watches for changes. It does not block.
// The manifest's directory is watched so that atomic replacements are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.closeWatcher()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops watching and waits for any in-flight composition to finish.
// It releases the underlying watcher even if Start was never called.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.closeWatcher()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.closeWatcher()
}

func (w *Watcher) closeWatcher() {
	w.closeOnce.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("Failed to close manifest watcher", zap.Error(err))
		}
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc = func() {}
	)
	defer func() {
		cancel()
		wg.Wait()
	}()

	recompose := func() {
		cancel()
		var compCtx context.Context
		compCtx, cancel = context.WithCancel(ctx)

		w.mu.Lock()
		w.generation++
		gen := w.generation
		w.mu.Unlock()

		composer := w.build()
		wg.Add(1)
		go func() {
			defer wg.Done()
			shell, err := composer.Compose(compCtx)
			if err != nil {
				if !errors.Is(err, ErrTornDown) {
					w.logger.Warn("Recomposition failed", zap.Error(err))
				}
				return
			}
			w.deliver(gen, shell)
		}()
	}

	recompose()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

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
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debug("Host markers changed", zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Manifest watcher error", zap.Error(err))
		case <-timer.C:
			recompose()
		}
	}
}

// deliver hands shell to onShell unless a newer composition has started.
func (w *Watcher) deliver(gen uint64, shell *Shell) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.generation {
		return
	}
	w.onShell(shell)
}
