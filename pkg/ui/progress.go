package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const fallbackTerminalWidth = 80

// ProgressBar is a single-line progress bar redrawn in place. The bar
// spans the remaining terminal width after the "[current/total]" prefix
// and ends with a newline once the total is reached.
type ProgressBar struct {
	mu      sync.Mutex
	label   string
	current int
	total   int
	out     io.Writer
	width   func() int
	done    bool
}

// NewProgressBar creates a progress bar writing to stderr, so the
// crawl output on stdout stays machine-readable.
func NewProgressBar(label string, total int) *ProgressBar {
	return &ProgressBar{
		label: label,
		total: total,
		out:   os.Stderr,
		width: terminalWidth,
	}
}

// terminalWidth reports the current terminal width, falling back to a
// fixed width when stderr is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width <= 0 {
		return fallbackTerminalWidth
	}
	return width
}

// SetTotal resets the bar's total.
func (p *ProgressBar) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	p.done = false
}

// Increment advances the bar by one and redraws it.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.render()
}

// Set moves the bar to an absolute position and redraws it.
func (p *ProgressBar) Set(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render()
}

func (p *ProgressBar) render() {
	if IsQuietMode() || p.done || p.total <= 0 {
		return
	}

	prefix := fmt.Sprintf("%s[%d/%d] ", p.label, p.current, p.total)

	barWidth := p.width() - len(prefix) - 2
	if barWidth < 1 {
		barWidth = 1
	}

	filled := barWidth * p.current / p.total
	if filled > barWidth {
		filled = barWidth
	}

	var bar string
	switch {
	case p.current >= p.total:
		bar = strings.Repeat("=", barWidth)
	case filled > 0:
		bar = strings.Repeat("=", filled-1) + ">"
	}
	bar += strings.Repeat(" ", barWidth-len(bar))

	fmt.Fprintf(p.out, "\r%s[%s]", prefix, bar)

	if p.current >= p.total {
		fmt.Fprintln(p.out)
		p.done = true
	}
}
