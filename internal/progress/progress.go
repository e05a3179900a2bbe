package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type ProgressTracker struct {
	out       io.Writer
	total     int
	current   int
	failed    int
	message   string
	mu        sync.Mutex
	startTime time.Time
	done      chan struct{}
	finished  chan struct{}
}

// NewProgress starts a spinner on out. A nil out discards all rendering.
func NewProgress(out io.Writer, total int, message string) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	p := &ProgressTracker{
		out:       out,
		total:     total,
		message:   message,
		startTime: time.Now(),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
	go p.render()
	return p
}

func (p *ProgressTracker) render() {
	defer close(p.finished)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-p.done:
			p.mu.Lock()
			elapsed := time.Since(p.startTime)
			mark, failed := "✓", ""
			if p.failed > 0 {
				mark, failed = "✗", fmt.Sprintf(", %d failed", p.failed)
			}
			fmt.Fprintf(p.out, "\r%s %s (%d done%s, %s)          \n",
				mark, p.message, p.current, failed, elapsed.Round(time.Millisecond))
			p.mu.Unlock()
			return

		case <-ticker.C:
			p.mu.Lock()
			if p.total > 0 {
				percent := float64(p.current) / float64(p.total) * 100
				fmt.Fprintf(p.out, "\r%s %s [%d/%d] %.0f%%  ",
					spinner[frame%len(spinner)],
					p.message,
					p.current,
					p.total,
					percent)
			} else {
				fmt.Fprintf(p.out, "\r%s %s [%d done]  ",
					spinner[frame%len(spinner)],
					p.message,
					p.current)
			}
			p.mu.Unlock()
			frame++
		}
	}
}

func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
}

// Fail counts one finished item as failed. It also advances the total.
func (p *ProgressTracker) Fail() {
	p.mu.Lock()
	p.current++
	p.failed++
	p.mu.Unlock()
}

func (p *ProgressTracker) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish stops the spinner and waits for the final line to be written.
func (p *ProgressTracker) Finish() {
	close(p.done)
	<-p.finished
}
