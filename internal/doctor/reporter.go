package doctor

import (
	"context"

	"github.com/tonyjoanes/gopher-doctor/internal/llm"
)

// Reporter forwards a rendered diagnosis somewhere besides the console:
// a pull request comment, a chat channel. Errors are logged by the
// pipeline and never affect the build.
type Reporter interface {
	Report(ctx context.Context, d *llm.Diagnosis) error
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(ctx context.Context, d *llm.Diagnosis) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, d *llm.Diagnosis) error {
	return f(ctx, d)
}
