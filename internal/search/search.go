// Package search holds the rules for when a typed query reaches the backend.
package search

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// MinLength is the shortest query that is sent to the backend.
	MinLength = 2
	// Delay is the quiet period after the last keystroke.
	Delay = 300 * time.Millisecond
)

// Normalize trims surrounding whitespace from a typed query.
func Normalize(q string) string {
	return strings.TrimSpace(q)
}

// Effective reports whether q is long enough to search for. Shorter queries
// show the default image set instead.
func Effective(q string) bool {
	return utf8.RuneCountInString(Normalize(q)) >= MinLength
}

// Debouncer delivers the last pushed value once no new value has arrived for
// its delay. It is safe for concurrent use.
type Debouncer struct {
	delay time.Duration
	fn    func(string)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Push records v and restarts the quiet period.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := seq == d.seq && !d.stopped
		d.mu.Unlock()
		if current {
			d.fn(v)
		}
	})
}

// Stop cancels any pending delivery. Later pushes are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
