package watcher

import "context"

// FileWatcher reports debounced batches of changed headers.
type FileWatcher interface {
	// Start begins watching, calling callback with each batch of changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the watcher and releases the fsnotify handle.
	Stop() error

	// Pause holds callbacks while events keep accumulating.
	Pause()

	// Resume fires any batch held during the pause.
	Resume()
}

// Matcher decides whether an absolute path is a candidate header.
// *discovery.HeaderDiscovery satisfies it.
type Matcher interface {
	MatchAbs(path string) bool
}
