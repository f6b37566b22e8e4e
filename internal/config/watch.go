package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration when config.json changes on disk and
// hands the fresh Config to a callback. Its main consumer is the classifier,
// whose indicator lists can be tuned without a restart.
type Watcher struct {
	manager  *Manager
	watcher  *fsnotify.Watcher
	onReload func(*Config)

	debounceTime time.Duration
	mu           sync.Mutex
	pending      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the manager's config file. onReload is
// called with every successfully parsed new configuration.
func NewWatcher(m *Manager, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		manager:      m,
		watcher:      fsw,
		onReload:     onReload,
		debounceTime: 500 * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins watching. The config directory must exist; editors replace
// the file on save, so the directory is watched rather than the file itself.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.manager.configDir); err != nil {
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	configPath := w.manager.GetConfigPath()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			pending := w.pending
			w.pending = false
			w.mu.Unlock()
			if !pending {
				continue
			}

			cfg, err := w.manager.Load()
			if err != nil {
				// A half-written file parses next tick; keep the old config.
				log.Printf("config reload skipped: %v", err)
				continue
			}
			w.onReload(cfg)
		}
	}
}
