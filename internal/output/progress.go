package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is a file descriptor attached to a terminal.
// Buffers and other plain writers are never terminals.
func writerIsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}

// ProgressBar tracks a fixed number of steps, such as the mods in a batch
// install.
// Example: [=========>          ]  2/4 cool-mod
type ProgressBar struct {
	mu     sync.Mutex
	total  int
	done   int
	label  string
	width  int
	writer io.Writer
}

// NewProgress creates a progress bar for total steps.
func NewProgress(total int, label string) *ProgressBar {
	return &ProgressBar{
		total:  total,
		label:  label,
		width:  30,
		writer: os.Stdout,
	}
}

// SetWriter sets the output writer (useful for testing).
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Step marks one step finished and shows label next to the bar. It is safe
// for concurrent use by batch workers.
func (p *ProgressBar) Step(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done < p.total {
		p.done++
	}
	if label != "" {
		p.label = label
	}
	p.render()
}

// Finish moves the cursor past the bar on a terminal.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if writerIsTTY(p.writer) {
		fmt.Fprintln(p.writer)
	}
}

// render must be called with p.mu held.
func (p *ProgressBar) render() {
	filled := 0
	if p.total > 0 {
		filled = p.done * p.width / p.total
	}

	var bar strings.Builder
	bar.WriteByte('[')
	for i := 0; i < p.width; i++ {
		switch {
		case i < filled-1:
			bar.WriteByte('=')
		case i == filled-1:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}
	bar.WriteByte(']')

	digits := len(fmt.Sprint(p.total))
	line := fmt.Sprintf("%s %*d/%d %s", bar.String(), digits, p.done, p.total, p.label)

	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r\033[K%s", line)
		return
	}
	// Non-TTY: one line per step keeps logs readable.
	fmt.Fprintln(p.writer, line)
}

// Spinner shows an indeterminate wait, such as a pending workshop request.
// Example: |  Unsubscribing from 123456 (27s remaining)
type Spinner struct {
	mu       sync.Mutex
	message  string
	frames   []string
	writer   io.Writer
	running  bool
	done     chan struct{}
	timeout  time.Duration
	timed    bool
	started  time.Time
	interval time.Duration
}

// NewSpinner creates a stopped spinner. Call WithTimeout before Start to
// show a countdown.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message:  message,
		frames:   []string{"|", "/", "-", "\\"},
		writer:   os.Stdout,
		interval: 100 * time.Millisecond,
	}
}

// WithTimeout adds timing to the message: the remaining time when timeout
// is positive, the elapsed time otherwise.
func (s *Spinner) WithTimeout(timeout time.Duration) *Spinner {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = timeout
	s.timed = true
	return s
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. On a non-TTY writer the message is printed
// once and no goroutine is started.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.started = time.Now()
	s.done = make(chan struct{})

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	go s.animate(s.done)
}

func (s *Spinner) animate(done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(s.frames) {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.running {
				fmt.Fprintf(s.writer, "\r\033[K%s  %s", s.frames[frame], s.text())
			}
			s.mu.Unlock()
		case <-done:
			return
		}
	}
}

// text returns the message with timing. Must be called with s.mu held.
func (s *Spinner) text() string {
	if !s.timed {
		return s.message
	}
	elapsed := time.Since(s.started)
	if s.timeout > 0 {
		remaining := s.timeout - elapsed
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Sprintf("%s (%ds remaining)", s.message, int(remaining.Seconds()))
	}
	return fmt.Sprintf("%s (%ds elapsed)", s.message, int(elapsed.Seconds()))
}

// UpdateMessage replaces the message while the spinner runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and clears the line. Extra calls are no-ops.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.done)

	if writerIsTTY(s.writer) {
		fmt.Fprint(s.writer, "\r\033[K")
	}
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.writer, message)
}
