// Package progress tracks how many bytes have passed one point of the pipeline and renders
// that state at a throttled rate.
package progress

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/sharky-compress/sharky/pkg/log"
)

// DefaultInterval is the minimum time between two renders.
const DefaultInterval = 250 * time.Millisecond

// barWidth is the number of cells in the bar exposed to templates.
const barWidth = 30

// Counter is the shared byte counter between the stage that observes bytes and the
// renderer. It has a single writer and a single reader.
type Counter struct {
	n atomic.Int64
}

// Add adds n to the counter and returns the new value.
func (c *Counter) Add(n int64) int64 { return c.n.Add(n) }

// Load returns the current value of the counter.
func (c *Counter) Load() int64 { return c.n.Load() }

// Snapshot is the state handed to a Renderer.
type Snapshot struct {
	// Stage is a short description of what is being counted, e.g. "compressing".
	Stage string
	// Done is the number of bytes observed so far.
	Done int64
	// Total is the expected number of bytes, or zero when unknown.
	Total int64
	// Entries and TotalEntries count archive entries when the stage knows them.
	Entries      int
	TotalEntries int
	// Elapsed is the time since the tracker was created.
	Elapsed time.Duration
	// Rate is the average throughput in bytes per second.
	Rate int64
	// ETA is the estimated remaining time, or zero when unknown.
	ETA time.Duration
	// Final is set on the last snapshot of a run.
	Final bool
}

// Percent returns the completion percentage, clamped to 100. It returns 0 when the total
// is unknown.
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	p := float64(s.Done) / float64(s.Total) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Filled returns the number of filled bar cells.
func (s Snapshot) Filled() int {
	if s.Final && s.Total <= 0 {
		return barWidth
	}
	return int(s.Percent() / 100 * barWidth)
}

// Empty returns the number of empty bar cells.
func (s Snapshot) Empty() int { return barWidth - s.Filled() }

// Tracker observes one point of the pipeline. It is driven by the goroutine running the
// pipeline: rendering happens inline when the interval has elapsed, so no locking is
// needed beyond the counter.
type Tracker struct {
	stage        string
	counter      *Counter
	total        int64
	totalEntries int
	entries      int
	renderer     Renderer
	interval     time.Duration

	now      func() time.Time
	start    time.Time
	last     time.Time
	disabled bool
}

// NewTracker returns a tracker adding observed bytes to counter. A nil counter allocates a
// private one, a nil renderer renders nothing, and a non-positive interval uses
// DefaultInterval.
func NewTracker(stage string, total int64, counter *Counter, renderer Renderer, interval time.Duration) *Tracker {
	if counter == nil {
		counter = &Counter{}
	}
	if renderer == nil {
		renderer = NoopRenderer{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Tracker{
		stage:    stage,
		counter:  counter,
		total:    total,
		renderer: renderer,
		interval: interval,
		now:      time.Now,
	}
	t.start = t.now()
	t.last = t.start
	return t
}

// SetTotalEntries sets the expected number of archive entries.
func (t *Tracker) SetTotalEntries(n int) { t.totalEntries = n }

// Entry records that one more archive entry was processed.
func (t *Tracker) Entry(string) { t.entries++ }

// Counter returns the counter the tracker adds to.
func (t *Tracker) Counter() *Counter { return t.counter }

// Observe adds n bytes to the counter and renders if the interval has elapsed.
func (t *Tracker) Observe(n int) {
	if n <= 0 {
		return
	}
	t.counter.Add(int64(n))
	if t.disabled {
		return
	}
	if now := t.now(); now.Sub(t.last) >= t.interval {
		t.last = now
		t.render(false)
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	done := t.counter.Load()
	elapsed := t.now().Sub(t.start)
	s := Snapshot{
		Stage:        t.stage,
		Done:         done,
		Total:        t.total,
		Entries:      t.entries,
		TotalEntries: t.totalEntries,
		Elapsed:      elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.Rate = int64(float64(done) / secs)
	}
	if s.Rate > 0 && t.total > done {
		remaining := float64(t.total-done) / float64(s.Rate)
		s.ETA = time.Duration(remaining * float64(time.Second)).Round(time.Second)
	}
	return s
}

// Finish renders the final state. It is safe to call more than once.
func (t *Tracker) Finish() {
	if t.disabled {
		return
	}
	t.render(true)
	t.disabled = true
}

func (t *Tracker) render(final bool) {
	s := t.Snapshot()
	s.Final = final
	var err error
	if final {
		err = t.renderer.Finish(s)
	} else {
		err = t.renderer.Render(s)
	}
	if err != nil {
		log.Debugf("Disabling progress output: %v", err)
		t.disabled = true
	}
}

// Writer returns a writer that passes everything to w and observes the bytes written.
func (t *Tracker) Writer(w io.Writer) io.Writer { return &writer{w: w, t: t} }

// Reader returns a reader that passes everything from r and observes the bytes read.
func (t *Tracker) Reader(r io.Reader) io.Reader { return &reader{r: r, t: t} }

type writer struct {
	w io.Writer
	t *Tracker
}

func (pw *writer) Write(p []byte) (n int, err error) {
	n, err = pw.w.Write(p)
	pw.t.Observe(n)
	return
}

type reader struct {
	r io.Reader
	t *Tracker
}

func (pr *reader) Read(p []byte) (n int, err error) {
	n, err = pr.r.Read(p)
	pr.t.Observe(n)
	return
}
