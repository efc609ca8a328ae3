// Package watcher watches an input tree and batches header changes.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch is delivered.
const DefaultDebounce = 500 * time.Millisecond

type headerWatcher struct {
	fs       *fsnotify.Watcher
	root     string
	match    Matcher
	debounce time.Duration
	callback func(files []string)

	cancel context.CancelFunc
	doneCh chan struct{}

	mu      sync.Mutex
	paused  bool
	pending map[string]struct{}
	timer   *time.Timer

	stopOnce sync.Once
}

// New watches root recursively. Only events on paths accepted by match are
// reported; a nil match accepts everything.
func New(root string, match Matcher) (FileWatcher, error) {
	return NewWithDebounce(root, match, DefaultDebounce)
}

// NewWithDebounce is New with a custom quiet period.
func NewWithDebounce(root string, match Matcher, debounce time.Duration) (FileWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	hw := &headerWatcher{
		fs:       fs,
		root:     root,
		match:    match,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		doneCh:   make(chan struct{}),
	}
	if err := hw.addTree(root); err != nil {
		fs.Close()
		return nil, err
	}
	return hw, nil
}

func (hw *headerWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}
	hw.callback = callback

	ctx, hw.cancel = context.WithCancel(ctx)
	go hw.loop(ctx)
	return nil
}

func (hw *headerWatcher) Stop() error {
	var err error
	hw.stopOnce.Do(func() {
		if hw.cancel != nil {
			hw.cancel()
			<-hw.doneCh
		} else {
			close(hw.doneCh)
		}
		err = hw.fs.Close()
	})
	return err
}

func (hw *headerWatcher) Pause() {
	hw.mu.Lock()
	hw.paused = true
	hw.mu.Unlock()
}

func (hw *headerWatcher) Resume() {
	hw.mu.Lock()
	wasPaused := hw.paused
	hw.paused = false
	hw.mu.Unlock()

	if wasPaused {
		hw.flush()
	}
}

func (hw *headerWatcher) loop(ctx context.Context) {
	defer close(hw.doneCh)

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			hw.stopTimer()
			return

		case event, ok := <-hw.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := hw.addTree(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !hw.relevant(event) {
				continue
			}

			hw.mu.Lock()
			hw.pending[event.Name] = struct{}{}
			hw.mu.Unlock()
			hw.resetTimer(fire)

		case <-fire:
			hw.mu.Lock()
			paused := hw.paused
			hw.mu.Unlock()
			if !paused {
				hw.flush()
			}

		case err, ok := <-hw.fs.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: file watcher error: %v", err)
		}
	}
}

// flush delivers the pending batch in lexical order.
func (hw *headerWatcher) flush() {
	hw.mu.Lock()
	if len(hw.pending) == 0 {
		hw.mu.Unlock()
		return
	}
	files := make([]string, 0, len(hw.pending))
	for f := range hw.pending {
		files = append(files, f)
	}
	hw.pending = make(map[string]struct{})
	hw.mu.Unlock()

	sort.Strings(files)
	if hw.callback != nil {
		hw.callback(files)
	}
}

func (hw *headerWatcher) resetTimer(fire chan struct{}) {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	if hw.timer != nil {
		hw.timer.Stop()
	}
	hw.timer = time.AfterFunc(hw.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (hw *headerWatcher) stopTimer() {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if hw.timer != nil {
		hw.timer.Stop()
		hw.timer = nil
	}
}

func (hw *headerWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return hw.match == nil || hw.match.MatchAbs(event.Name)
}

func (hw *headerWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := hw.fs.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
