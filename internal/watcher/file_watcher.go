package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gotick/internal/config"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDelay is how long the watcher waits for changes to settle.
const DefaultDelay = 500 * time.Millisecond

type FileWatcher struct {
	watcher     *fsnotify.Watcher
	config      *config.Config
	watchedDirs map[string]bool
	debouncer   *debouncer
	log         zerolog.Logger
}

type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

// FileChangeHandler receives the Go sources changed during one debounce
// window.
type FileChangeHandler func([]string) error

func NewFileWatcher(cfg *config.Config, delay time.Duration, log zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	fw := &FileWatcher{
		watcher:     watcher,
		config:      cfg,
		watchedDirs: make(map[string]bool),
		debouncer:   newDebouncer(delay, log),
		log:         log,
	}
	return fw, nil
}

func (fw *FileWatcher) Watch(paths []string, handler FileChangeHandler) error {
	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}
	go fw.eventLoop(handler)
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if walkPath != path && fw.shouldSkipDir(walkPath) {
			return filepath.SkipDir
		}
		if !fw.watchedDirs[walkPath] {
			if err := fw.watcher.Add(walkPath); err != nil {
				return fmt.Errorf("failed to add directory %s to watcher: %w", walkPath, err)
			}
			fw.watchedDirs[walkPath] = true
			fw.log.Debug().Str("dir", walkPath).Msg("watching")
		}
		return nil
	})
}

func (fw *FileWatcher) eventLoop(handler FileChangeHandler) {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event, handler)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error().Err(err).Msg("file watcher error")
		case <-fw.debouncer.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event, handler FileChangeHandler) {
	// removed files cannot be instrumented
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !fw.isSource(event.Name) {
		return
	}
	changeEvent := FileChangeEvent{
		Path:      event.Name,
		Operation: eventOpToString(event.Op),
		Timestamp: time.Now(),
	}
	fw.log.Debug().Str("file", event.Name).Str("op", changeEvent.Operation).Msg("change")
	fw.debouncer.add(changeEvent, handler)
}

// isSource reports whether path is a Go source the run should instrument.
// Files written by the run itself are ignored so that a write does not
// trigger another run.
func (fw *FileWatcher) isSource(path string) bool {
	if !strings.HasSuffix(path, ".go") || shouldSkipFile(path) {
		return false
	}
	if fw.config == nil {
		return !strings.HasSuffix(path, "_test.go")
	}
	if strings.HasSuffix(path, "_test.go") && !fw.config.Files.IncludeTests {
		return false
	}
	if fw.config.InPlace() || fw.config.IsOutput(path) {
		return false
	}
	return !fw.config.IsExcluded(path)
}

func (fw *FileWatcher) shouldSkipDir(path string) bool {
	defaultExclusions := []string{
		"vendor", ".git", "node_modules", ".vscode", ".idea", "build", "dist", "tmp", "temp",
	}
	dirName := filepath.Base(path)
	for _, excluded := range defaultExclusions {
		if dirName == excluded {
			return true
		}
	}
	if fw.config != nil {
		return fw.config.IsExcluded(path) || fw.config.IsOutput(path)
	}
	return false
}

func shouldSkipFile(path string) bool {
	filename := filepath.Base(path)
	if strings.HasPrefix(filename, ".") {
		return true
	}
	if strings.HasSuffix(filename, ".tmp") || strings.HasSuffix(filename, "~") {
		return true
	}
	if strings.HasSuffix(filename, ".swp") || strings.HasSuffix(filename, ".swo") {
		return true
	}
	return false
}

func eventOpToString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return "CREATE"
	case op&fsnotify.Write == fsnotify.Write:
		return "WRITE"
	case op&fsnotify.Remove == fsnotify.Remove:
		return "REMOVE"
	case op&fsnotify.Rename == fsnotify.Rename:
		return "RENAME"
	case op&fsnotify.Chmod == fsnotify.Chmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

func (fw *FileWatcher) Close() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) GetWatchedPaths() []string {
	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}
