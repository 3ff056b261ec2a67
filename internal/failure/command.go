package failure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// MaxCapturedBytes caps how much build output is kept for the prompt.
	MaxCapturedBytes = 3000
	// messageLines is how many trailing stderr lines form the failure message.
	messageLines = 20
)

// Command runs a build command, streams its output through to the caller's
// writers and keeps the tail of that output for diagnosis.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string

	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a finished build command.
type Result struct {
	// ExitCode is the command's exit status, or -1 if it never started.
	ExitCode int
	// Failure is nil when the build succeeded.
	Failure *Failure
}

// Run executes the command. A build that exits non-zero is not an error:
// it is reported through Result.Failure. Run only returns an error when the
// command cannot be started at all.
func (c *Command) Run(ctx context.Context) (*Result, error) {
	if c.Name == "" {
		return nil, errors.New("no build command given")
	}

	combined := &tailBuffer{max: MaxCapturedBytes}
	stderrTail := &tailBuffer{max: MaxCapturedBytes}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}
	cmd.Stdout = io.MultiWriter(orDiscard(c.Stdout), combined)
	cmd.Stderr = io.MultiWriter(orDiscard(c.Stderr), combined, stderrTail)

	err := cmd.Run()
	if err == nil {
		return &Result{ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return &Result{ExitCode: -1}, fmt.Errorf("starting %q: %w", c.commandLine(), err)
	}

	code := exitErr.ExitCode()
	msg := lastLines(stderrTail.String(), messageLines)
	if msg == "" {
		msg = fmt.Sprintf("%s exited with status %d", c.commandLine(), code)
	}
	return &Result{
		ExitCode: code,
		Failure: &Failure{
			Message: msg,
			Stack:   combined.String(),
			ID:      c.commandLine(),
			Name:    "ExitError",
		},
	}, nil
}

func (c *Command) commandLine() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// lastLines returns the last n non-blank lines of s, trimmed.
func lastLines(s string, n int) string {
	var kept []string
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append(kept, lines[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

// tailBuffer keeps only the most recent max bytes written to it. The tail is
// what matters: compilers print the fatal error last.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	max       int
	truncated bool
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		for over < len(t.buf) && !utf8.RuneStart(t.buf[over]) {
			over++
		}
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return "...[truncated]...\n" + string(t.buf)
	}
	return string(t.buf)
}
