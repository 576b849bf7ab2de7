package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// progressPrinter shows a countdown for a bounded scan on a terminal.
// On anything other than a terminal it prints nothing.
//
// Stop must be called once the scan returns; it is safe to call twice.
type progressPrinter struct {
	out      io.Writer
	prefix   string
	duration time.Duration

	mu    sync.Mutex
	phase string
	stop  chan struct{}
	done  chan struct{}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newProgressPrinter(out io.Writer, prefix string, duration time.Duration) *progressPrinter {
	return &progressPrinter{out: out, prefix: prefix, duration: duration, phase: "Scanning"}
}

func (p *progressPrinter) Start() {
	if !isTerminal(p.out) {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	start := time.Now()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(progressUpdateInterval)
		defer ticker.Stop()
		for {
			p.print(start)
			select {
			case <-p.stop:
				fmt.Fprint(p.out, clearLineSequence)
				return
			case <-ticker.C:
			}
		}
	}()
}

func (p *progressPrinter) print(start time.Time) {
	p.mu.Lock()
	phase := p.phase
	p.mu.Unlock()

	if p.duration <= 0 {
		fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, phase, int(time.Since(start).Seconds()))
		return
	}
	remaining := max(p.duration-time.Since(start), 0)
	fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, phase, int(remaining.Seconds()+0.5))
}

// Callback updates the displayed phase.
func (p *progressPrinter) Callback() func(string) {
	return func(phase string) {
		p.mu.Lock()
		p.phase = phase
		p.mu.Unlock()
	}
}

func (p *progressPrinter) Stop() {
	if p.stop == nil {
		return
	}
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}
