// Package render writes diagnosis output to the console with a typewriter
// effect: one character at a time, paced by a fixed delay.
package render

import (
	"context"
	"io"
	"time"
	"unicode/utf8"
)

// Typewriter paces text onto a sink one rune per Write call. A rune is never
// split across writes, so cancelling mid-line leaves no corrupted character
// behind.
//
// A Typewriter is not safe for concurrent use; callers serialize renders.
type Typewriter struct {
	out io.Writer
	buf [utf8.UTFMax]byte
}

// NewTypewriter returns a Typewriter writing to out.
func NewTypewriter(out io.Writer) *Typewriter {
	return &Typewriter{out: out}
}

// Render writes every rune of text, waiting delay between runes (but not
// after the last one), then writes a single newline. It returns ctx.Err()
// if the context is done before the text is complete.
func (t *Typewriter) Render(ctx context.Context, text string, delay time.Duration) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	remaining := utf8.RuneCountInString(text)
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := utf8.EncodeRune(t.buf[:], r)
		if _, err := t.out.Write(t.buf[:n]); err != nil {
			return err
		}

		remaining--
		if remaining == 0 || delay <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			timer.Reset(delay)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.Newline()
}

// Newline writes a bare line break.
func (t *Typewriter) Newline() error {
	_, err := io.WriteString(t.out, "\n")
	return err
}
