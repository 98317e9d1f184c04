package search

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"

	"github.com/jmccarv/substsolve/internal/cipher"
)

// Progress is a periodic throughput report.
type Progress struct {
	Attempts uint64
	Elapsed  time.Duration
}

// Rate is attempts per second.
func (p Progress) Rate() float64 {
	s := p.Elapsed.Seconds()
	if s <= 0 {
		return 0
	}
	return float64(p.Attempts) / s
}

// Improvement describes a new best key.
type Improvement struct {
	Score     float64
	Plaintext string
	From, To  cipher.Key
	Restart   uint64
	Attempts  uint64
}

// Reporter receives search events. Calls are made from the search loop, so
// implementations should return quickly. They are never made concurrently.
type Reporter interface {
	Progress(Progress)
	NewBest(Improvement)
}

type nopReporter struct{}

func (nopReporter) Progress(Progress)   {}
func (nopReporter) NewBest(Improvement) {}

// NopReporter discards all events.
func NopReporter() Reporter { return nopReporter{} }

// TextReporter writes events as plain text. On a terminal progress reports
// overwrite each other on a single line.
type TextReporter struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	pending bool // a progress line without newline is on screen
}

func NewTextReporter(w io.Writer) *TextReporter {
	r := &TextReporter{w: w}
	if f, ok := w.(*os.File); ok {
		r.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return r
}

func (r *TextReporter) Progress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tty {
		fmt.Fprintf(r.w, "\r[%.2f attempts/s] %d attempts", p.Rate(), p.Attempts)
		r.pending = true
		return
	}
	fmt.Fprintf(r.w, "[%.2f attempts/s]\n\n", p.Rate())
}

func (r *TextReporter) NewBest(i Improvement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending {
		fmt.Fprintln(r.w)
		r.pending = false
	}
	fmt.Fprintf(r.w, "New best score!! %v\n", i.Score)
	fmt.Fprintf(r.w, "Plaintext: %s\n", i.Plaintext)
	fmt.Fprintf(r.w, "Going from %s to %s\n\n", i.From, i.To)
}

// Finish ends a pending progress line.
func (r *TextReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		fmt.Fprintln(r.w)
		r.pending = false
	}
}

type throttled struct {
	Reporter
	lim *rate.Limiter
}

// Throttle drops progress reports arriving more often than every. New best
// reports always go through.
func Throttle(r Reporter, every time.Duration) Reporter {
	if every <= 0 {
		return r
	}
	return &throttled{Reporter: r, lim: rate.NewLimiter(rate.Every(every), 1)}
}

func (t *throttled) Progress(p Progress) {
	if t.lim.Allow() {
		t.Reporter.Progress(p)
	}
}
