// Package failure models the build failure handed to the doctor by its host
// and normalizes it into a Context that is later fed to the LLM for
// diagnosis.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholders substituted for missing failure fields.
const (
	UnknownMessage  = "unknown error"
	UnknownStack    = "no stack trace available"
	UnknownLocation = "unknown module"
	DefaultName     = "Error"
)

// Failure is the raw failure object reported by the host after a build.
// Only Message is expected; the other fields are optional.
type Failure struct {
	// Message is the human-readable error text.
	Message string
	// Stack is the stack trace or captured build output, if any.
	Stack string
	// ID locates the failure: a module path, a command line, a Job name.
	ID string
	// Name classifies the failure, e.g. "ExitError" or "JobFailed".
	Name string
}

// Located is implemented by errors that know which module or file failed.
type Located interface {
	Location() string
}

// FromError adapts a Go error into a Failure. It returns nil for a nil error.
func FromError(err error) *Failure {
	if err == nil {
		return nil
	}
	f := &Failure{
		Message: err.Error(),
		Name:    fmt.Sprintf("%T", err),
	}
	var loc Located
	if errors.As(err, &loc) {
		f.ID = loc.Location()
	}
	return f
}

// Context is the normalized, immutable view of a Failure used to build the
// diagnosis prompt. Every field is non-empty.
type Context struct {
	Message  string
	Stack    string
	Location string
	Name     string
}

// Derive normalizes f, substituting fixed placeholders for missing fields.
// It never fails; a nil Failure yields a Context made only of placeholders.
func Derive(f *Failure) Context {
	if f == nil {
		f = &Failure{}
	}
	return Context{
		Message:  orDefault(f.Message, UnknownMessage),
		Stack:    orDefault(f.Stack, UnknownStack),
		Location: orDefault(f.ID, UnknownLocation),
		Name:     orDefault(f.Name, DefaultName),
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
