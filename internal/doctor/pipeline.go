package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
	"github.com/tonyjoanes/gopher-doctor/internal/render"
)

const instrumentationName = "github.com/tonyjoanes/gopher-doctor/internal/doctor"

// Console text.
const (
	BannerText    = "🚨 GopherDoctor build diagnosis starting"
	AnalysingText = "🤖 AI is analysing the build failure, please wait..."
	HeadingText   = "💡 AI diagnosis:"
	CompleteText  = "Diagnosis complete. Apply the advice above to fix the build."
	FailedText    = "❌ AI diagnosis failed"
	CheckText     = "Please check:"
	OriginalText  = "Original error:"
)

// Phase is a state of the diagnosis pipeline.
type Phase int32

const (
	// PhaseIdle: nothing in flight.
	PhaseIdle Phase = iota
	// PhaseAwaitingFailure: the host reported build completion.
	PhaseAwaitingFailure
	// PhaseDiagnosing: a failure is being sent to the model.
	PhaseDiagnosing
	// PhaseRendered: the model's advice was rendered.
	PhaseRendered
	// PhaseFallback: diagnosis failed and troubleshooting guidance was rendered.
	PhaseFallback
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAwaitingFailure:
		return "AwaitingFailure"
	case PhaseDiagnosing:
		return "Diagnosing"
	case PhaseRendered:
		return "Rendered"
	case PhaseFallback:
		return "Fallback"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Pacing sets the per-character delay of each kind of console line.
type Pacing struct {
	Text     time.Duration
	Banner   time.Duration
	Rule     time.Duration
	Original time.Duration
	Stack    time.Duration
}

// DefaultPacing paces ordinary text at text per character and the rest at
// fixed speeds.
func DefaultPacing(text time.Duration) Pacing {
	return Pacing{
		Text:     text,
		Banner:   30 * time.Millisecond,
		Rule:     5 * time.Millisecond,
		Original: 15 * time.Millisecond,
		Stack:    10 * time.Millisecond,
	}
}

// Pipeline diagnoses one build failure at a time: it asks the model for
// advice and renders the answer, or renders troubleshooting guidance when
// the model cannot answer. Run never fails.
type Pipeline struct {
	mu    sync.Mutex
	phase atomic.Int32

	tw           *render.Typewriter
	palette      render.Palette
	pacing       Pacing
	showOriginal bool
	timeout      time.Duration

	provider  llm.ProviderKind
	models    *modelSource
	reporters []Reporter
	metrics   *Metrics

	log    logr.Logger
	tracer trace.Tracer
}

// Phase returns the current phase.
func (p *Pipeline) Phase() Phase { return Phase(p.phase.Load()) }

func (p *Pipeline) setPhase(ph Phase) {
	p.phase.Store(int32(ph))
	p.log.V(1).Info("phase", "phase", ph.String())
}

// Run diagnoses f and returns the terminal phase it reached: PhaseIdle when
// f is nil, otherwise PhaseRendered or PhaseFallback. The pipeline is back
// in PhaseIdle when Run returns. Concurrent calls are serialized.
func (p *Pipeline) Run(ctx context.Context, f *failure.Failure) Phase {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setPhase(PhaseAwaitingFailure)
	defer p.setPhase(PhaseIdle)
	if f == nil {
		return PhaseIdle
	}

	p.setPhase(PhaseDiagnosing)
	id := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "doctor.diagnose", trace.WithAttributes(
		attribute.String("diagnosis.id", id),
		attribute.String("llm.provider", string(p.provider)),
	))
	defer span.End()
	logger := p.log.WithValues("diagnosis", id, "provider", p.provider)

	fc := failure.Derive(f)
	logger.V(1).Info("failure context derived", "name", fc.Name, "location", fc.Location)

	// Console output ignores cancellation; only the model call is bounded by ctx.
	outCtx := context.WithoutCancel(ctx)
	c := &console{tw: p.tw}
	c.blank()
	c.line(outCtx, p.palette.Red(BannerText), p.pacing.Banner)
	c.blank()
	c.line(outCtx, p.palette.Yellow(AnalysingText), p.pacing.Text)
	c.blank()

	start := time.Now()
	reply, err := p.invoke(ctx, llm.BuildConversation(fc))
	took := time.Since(start)

	outcome := PhaseRendered
	if err != nil {
		outcome = PhaseFallback
		logger.Error(err, "❌ AI diagnosis failed", "took", took)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.setPhase(outcome)
		p.renderFallback(outCtx, c, fc, f, err)
	} else {
		logger.Info("💡 AI diagnosis received", "took", took)
		p.setPhase(outcome)
		p.renderAdvice(outCtx, c, reply.Text())
	}

	if c.err != nil {
		logger.Error(c.err, "rendering diagnosis output")
	}
	if p.metrics != nil {
		p.metrics.observe(string(p.provider), strings.ToLower(outcome.String()), took, time.Now())
	}
	if outcome == PhaseRendered {
		p.report(ctx, logger, &llm.Diagnosis{
			ID:        id,
			Provider:  p.provider,
			Failure:   fc,
			Advice:    reply.Text(),
			CreatedAt: time.Now(),
		})
	}
	return outcome
}

type result struct {
	reply llm.Reply
	err   error
}

// invoke acquires the model and sends conv, bounded by the configured
// timeout. Every failure, including a panic inside the model, comes back as
// an error. With no timeout a model that never returns blocks Run until ctx
// is cancelled.
func (p *Pipeline) invoke(ctx context.Context, conv llm.Conversation) (llm.Reply, error) {
	if err := ctx.Err(); err != nil {
		return llm.Reply{}, p.cancelled(err)
	}
	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &llm.ProviderError{Provider: p.provider, Err: fmt.Errorf("model panicked: %v", r)}}
			}
		}()
		model, err := p.models.get(callCtx)
		if err != nil {
			done <- result{err: err}
			return
		}
		reply, err := model.Invoke(callCtx, conv)
		done <- result{reply: reply, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-callCtx.Done():
		r.err = callCtx.Err()
	}
	if r.err == nil {
		return r.reply, nil
	}

	// The host's own deadline or cancellation is not our timeout.
	if err := ctx.Err(); err != nil {
		return llm.Reply{}, p.cancelled(err)
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return llm.Reply{}, &llm.ProviderError{Provider: p.provider, Err: fmt.Errorf("timed out after %s", p.timeout)}
	}
	var (
		pe *llm.ProviderError
		ce *llm.ConfigurationError
		de *llm.DependencyMissingError
	)
	if errors.As(r.err, &pe) || errors.As(r.err, &ce) || errors.As(r.err, &de) {
		return llm.Reply{}, r.err
	}
	return llm.Reply{}, &llm.ProviderError{Provider: p.provider, Err: r.err}
}

func (p *Pipeline) cancelled(err error) error {
	return &llm.ProviderError{Provider: p.provider, Err: fmt.Errorf("diagnosis cancelled: %w", err)}
}

func (p *Pipeline) renderAdvice(ctx context.Context, c *console, advice string) {
	pal := p.palette
	c.blank()
	c.line(ctx, pal.Cyan(render.Rule), p.pacing.Rule)
	c.blank()
	c.line(ctx, pal.GreenBold(HeadingText), p.pacing.Text)
	c.blank()
	c.line(ctx, pal.Cyan(render.Rule), p.pacing.Rule)
	c.blank()

	// One render per line keeps a long reply flowing instead of stalling on
	// a single enormous line.
	for _, l := range strings.Split(advice, "\n") {
		c.line(ctx, pal.White(strings.TrimSuffix(l, "\r")), p.pacing.Text)
	}

	c.blank()
	c.line(ctx, pal.Cyan(render.Rule), p.pacing.Rule)
	c.blank()
	c.line(ctx, pal.Dim(CompleteText), p.pacing.Text)
	c.blank()
}

func (p *Pipeline) renderFallback(ctx context.Context, c *console, fc failure.Context, f *failure.Failure, cause error) {
	pal := p.palette
	c.blank()
	c.line(ctx, pal.Red(render.Rule), p.pacing.Rule)
	c.blank()
	c.line(ctx, pal.Red(FailedText), p.pacing.Text)
	c.blank()
	c.line(ctx, pal.Yellow(CheckText), p.pacing.Text)
	c.blank()
	for _, item := range Checklist(p.provider) {
		c.line(ctx, pal.Dim(item), p.pacing.Text)
		c.blank()
	}
	c.line(ctx, pal.Dim("  Error details: "+cause.Error()), p.pacing.Text)
	c.blank()

	if p.showOriginal {
		c.line(ctx, pal.Yellow(OriginalText), p.pacing.Text)
		c.blank()
		c.line(ctx, pal.Red(fc.Message), p.pacing.Original)
		if strings.TrimSpace(f.Stack) != "" {
			c.line(ctx, pal.Dim(f.Stack), p.pacing.Stack)
		}
		c.blank()
	}

	c.line(ctx, pal.Red(render.Rule), p.pacing.Rule)
	c.blank()
}

func (p *Pipeline) report(ctx context.Context, logger logr.Logger, d *llm.Diagnosis) {
	for _, r := range p.reporters {
		if err := r.Report(ctx, d); err != nil {
			logger.Error(err, "reporter failed", "reporter", fmt.Sprintf("%T", r))
			continue
		}
		logger.V(1).Info("diagnosis reported", "reporter", fmt.Sprintf("%T", r))
	}
}

// console stops writing after the first error and remembers it.
type console struct {
	tw  *render.Typewriter
	err error
}

func (c *console) line(ctx context.Context, text string, delay time.Duration) {
	if c.err == nil {
		c.err = c.tw.Render(ctx, text, delay)
	}
}

func (c *console) blank() {
	if c.err == nil {
		c.err = c.tw.Newline()
	}
}

func newTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
