package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirSource tracks the newest image a camera helper writes into a directory
// and serves it on Capture. The helper owns the device; this process only
// reads finished files.
type DirSource struct {
	dir       string
	maxAge    time.Duration
	now       func() time.Time
	logger    *slog.Logger
	fsWatcher *fsnotify.Watcher

	mu      sync.RWMutex
	latest  string
	modTime time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

type DirOption func(*DirSource)

// WithMaxAge rejects frames older than d. Zero disables the check.
func WithMaxAge(d time.Duration) DirOption {
	return func(s *DirSource) {
		s.maxAge = d
	}
}

func WithDirLogger(logger *slog.Logger) DirOption {
	return func(s *DirSource) {
		s.logger = logger
	}
}

func withDirClock(now func() time.Time) DirOption {
	return func(s *DirSource) {
		s.now = now
	}
}

// NewDirSource starts watching dir. Call Close to stop.
func NewDirSource(dir string, opts ...DirOption) (*DirSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve frame dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("frame dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame dir %s is not a directory", abs)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsWatcher.Add(abs); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watch frame dir: %w", err)
	}

	s := &DirSource{
		dir:       abs,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
		fsWatcher: fsWatcher,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rescan()

	s.wg.Add(1)
	go s.eventLoop()
	return s, nil
}

func (s *DirSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.mu.RLock()
	path := s.latest
	s.mu.RUnlock()
	if path == "" {
		return Frame{}, fmt.Errorf("%w: no image in %s", ErrNoFrame, s.dir)
	}

	frame, err := readFrame(path)
	if err != nil {
		return Frame{}, err
	}
	if s.maxAge > 0 && s.now().Sub(frame.CapturedAt) > s.maxAge {
		return Frame{}, fmt.Errorf("%w: %s captured at %s", ErrStaleFrame, frame.Name, frame.CapturedAt.Format(time.RFC3339))
	}
	return frame, nil
}

// Latest returns the path currently served, empty when none.
func (s *DirSource) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *DirSource) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	s.wg.Wait()
	return s.fsWatcher.Close()
}

func (s *DirSource) eventLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("frame watcher error", "dir", s.dir, "error", err)
		}
	}
}

func (s *DirSource) handle(event fsnotify.Event) {
	if !isImage(event.Name) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		s.track(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		s.mu.RLock()
		gone := event.Name == s.latest
		s.mu.RUnlock()
		if gone {
			s.rescan()
		}
	}
}

// track promotes path to latest if it is at least as new as the current one.
func (s *DirSource) track(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == "" || !info.ModTime().Before(s.modTime) {
		s.latest = path
		s.modTime = info.ModTime()
	}
}

func (s *DirSource) rescan() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("frame dir scan failed", "dir", s.dir, "error", err)
		return
	}
	var (
		newest  string
		newestT time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest = filepath.Join(s.dir, entry.Name())
			newestT = info.ModTime()
		}
	}
	s.mu.Lock()
	s.latest = newest
	s.modTime = newestT
	s.mu.Unlock()
}
