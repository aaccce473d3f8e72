package fetch

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Meter receives download progress.
type Meter interface {
	// Start begins a transfer. size is -1 when unknown.
	Start(text string, size int64)
	// Update reports the number of bytes transferred so far.
	Update(done int64)
	// End finishes the transfer.
	End(total int64)
}

// NullMeter discards progress.
type NullMeter struct{}

func (NullMeter) Start(string, int64) {}
func (NullMeter) Update(int64)        {}
func (NullMeter) End(int64)           {}

// EnsureMeter returns m, or a NullMeter when m is nil.
func EnsureMeter(m Meter) Meter {
	if m == nil {
		return NullMeter{}
	}
	return m
}

// TextMeter writes human readable progress lines to an io.Writer.
type TextMeter struct {
	w        io.Writer
	interval time.Duration
	text     string
	size     int64
	last     time.Time
	now      func() time.Time
}

// NewTextMeter returns a meter that reports to w at most once per second.
func NewTextMeter(w io.Writer) *TextMeter {
	return &TextMeter{
		w:        w,
		interval: time.Second,
		now:      time.Now,
	}
}

func (m *TextMeter) Start(text string, size int64) {
	m.text = text
	m.size = size
	m.last = m.now()
	if size > 0 {
		_, _ = fmt.Fprintf(m.w, "%s (%s)\n", text, humanize.IBytes(uint64(size)))
		return
	}
	_, _ = fmt.Fprintf(m.w, "%s\n", text)
}

func (m *TextMeter) Update(done int64) {
	now := m.now()
	if now.Sub(m.last) < m.interval {
		return
	}
	m.last = now

	if m.size > 0 {
		pct := float64(done) / float64(m.size) * 100
		_, _ = fmt.Fprintf(m.w, "  %s / %s (%.0f%%)\n",
			humanize.IBytes(uint64(done)), humanize.IBytes(uint64(m.size)), pct)
		return
	}
	_, _ = fmt.Fprintf(m.w, "  %s\n", humanize.IBytes(uint64(done)))
}

func (m *TextMeter) End(total int64) {
	_, _ = fmt.Fprintf(m.w, "%s: %s done\n", m.text, humanize.IBytes(uint64(total)))
}
