package watcher

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type debouncer struct {
	delay    time.Duration
	events   map[string]FileChangeEvent
	timer    *time.Timer
	mutex    sync.Mutex
	stopChan chan struct{}
	stopped  bool
	log      zerolog.Logger
}

func newDebouncer(delay time.Duration, log zerolog.Logger) *debouncer {
	return &debouncer{
		delay:    delay,
		events:   make(map[string]FileChangeEvent),
		stopChan: make(chan struct{}),
		log:      log,
	}
}

func (d *debouncer) add(event FileChangeEvent, handler FileChangeHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}
	d.events[event.Path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.flush(handler)
	})
}

// flush hands the collected paths to handler in sorted order. The handler
// runs under the lock, so batches never overlap.
func (d *debouncer) flush(handler FileChangeHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if len(d.events) == 0 || d.stopped {
		return
	}
	changedFiles := make([]string, 0, len(d.events))
	for path := range d.events {
		changedFiles = append(changedFiles, path)
	}
	sort.Strings(changedFiles)
	d.events = make(map[string]FileChangeEvent)
	if err := handler(changedFiles); err != nil {
		d.log.Error().Err(err).Strs("files", changedFiles).Msg("change handler failed")
	}
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.stopChan)
}
