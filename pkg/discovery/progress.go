// Copyright 2026 The xorprobe Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discovery

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// etaWindow is the number of recent sample durations averaged for the ETA.
const etaWindow = 5

const spinner = `|/-\`

// Terminal describes the stream progress and histograms are written to.
type Terminal struct {
	IsTTY bool
	Width int
}

// DescribeTerminal inspects w.
func DescribeTerminal(w io.Writer) Terminal {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return Terminal{}
	}
	t := Terminal{IsTTY: true}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil {
		t.Width = width
	}
	return t
}

// FormatDuration renders d as "12.3s" below a minute and "2m 3.4s" above.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	minutes := ms / 60000
	if minutes == 0 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dm %.1fs", minutes, float64(ms-minutes*60000)/1000)
}

// Progress reports the completion of a fixed number of samples. On a
// terminal the line is redrawn in place; elsewhere one line is written per
// redraw, at a lower rate.
type Progress struct {
	w       io.Writer
	t       Terminal
	total   int
	done    int
	limiter *rate.Limiter
	now     func() time.Time
	last    time.Time

	durations [etaWindow]time.Duration
	next      int
	filled    bool
}

// NewProgress starts tracking total samples.
func NewProgress(w io.Writer, t Terminal, total int) *Progress {
	every := 5 * time.Second
	if t.IsTTY {
		every = 100 * time.Millisecond
	}
	p := &Progress{
		w:       w,
		t:       t,
		total:   total,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		now:     time.Now,
	}
	p.last = p.now()
	return p
}

// Step records one completed sample and redraws if due.
func (p *Progress) Step() {
	now := p.now()
	p.durations[p.next] = now.Sub(p.last)
	p.last = now
	p.next++
	if p.next == etaWindow {
		p.next = 0
		p.filled = true
	}
	p.done++
	if p.done == p.total || p.limiter.Allow() {
		p.draw()
	}
}

// Percent returns the completed share in whole percent.
func (p *Progress) Percent() int {
	if p.total <= 0 {
		return 100
	}
	return p.done * 100 / p.total
}

// ETA returns the mean of the last etaWindow sample durations times the
// remaining samples. ok is false until etaWindow samples completed.
func (p *Progress) ETA() (eta time.Duration, ok bool) {
	if !p.filled {
		return 0, false
	}
	var sum time.Duration
	for _, d := range p.durations {
		sum += d
	}
	return sum / etaWindow * time.Duration(p.total-p.done), true
}

// Line returns the current progress line.
func (p *Progress) Line() string {
	if eta, ok := p.ETA(); ok {
		return fmt.Sprintf("%d%% (ETA: %s)", p.Percent(), FormatDuration(eta))
	}
	return fmt.Sprintf("%d%% (ETA: %c)", p.Percent(), spinner[p.next%len(spinner)])
}

func (p *Progress) draw() {
	if p.t.IsTTY {
		fmt.Fprintf(p.w, "\033[2K\r%s", p.Line())
		return
	}
	fmt.Fprintln(p.w, p.Line())
}

// Finish terminates the progress line.
func (p *Progress) Finish() {
	if p.t.IsTTY {
		fmt.Fprintln(p.w)
	}
}
