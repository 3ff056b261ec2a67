// Package doctor is the build-failure diagnosis add-on. A host build tool
// constructs a Plugin once and calls BuildEnd after every build; failed
// builds get AI remediation advice on the console.
package doctor

import (
	"context"
	"io"
	"os"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tonyjoanes/gopher-doctor/api/v1alpha1"
	"github.com/tonyjoanes/gopher-doctor/internal/config"
	"github.com/tonyjoanes/gopher-doctor/internal/failure"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
	"github.com/tonyjoanes/gopher-doctor/internal/render"
)

// Plugin is the host-facing entry point. It is safe for concurrent use;
// diagnoses are serialized.
type Plugin struct {
	enabled    bool
	pipeline   *Pipeline
	metrics    *Metrics
	metricsCfg v1alpha1.MetricsSpec
	log        logr.Logger
}

type options struct {
	out       io.Writer
	palette   *render.Palette
	pacing    *Pacing
	logger    *logr.Logger
	custom    llm.ChatModel
	secrets   llm.SecretReader
	reporters []Reporter
	metrics   *Metrics
	factory   ModelFactory
}

// Option customizes a Plugin.
type Option func(*options)

// WithOutput sets the console sink. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithPalette sets the text decoration. Defaults to render.DefaultPalette().
func WithPalette(p render.Palette) Option { return func(o *options) { o.palette = &p } }

// WithPacing overrides the typewriter delays derived from typeWriterSpeed.
func WithPacing(p Pacing) Option { return func(o *options) { o.pacing = &p } }

// WithLogger sets the logger. Defaults to the controller-runtime logger
// named "gopherdoctor".
func WithLogger(l logr.Logger) Option { return func(o *options) { o.logger = &l } }

// WithModel supplies the ChatModel for the "custom" provider.
func WithModel(m llm.ChatModel) Option { return func(o *options) { o.custom = m } }

// WithSecretReader resolves apiKeyFrom references.
func WithSecretReader(r llm.SecretReader) Option { return func(o *options) { o.secrets = r } }

// WithReporters adds reporters that receive every rendered diagnosis.
func WithReporters(r ...Reporter) Option {
	return func(o *options) { o.reporters = append(o.reporters, r...) }
}

// WithMetrics records metrics into m. Without it, metrics are only kept
// when the config names a textfile or Pushgateway.
func WithMetrics(m *Metrics) Option { return func(o *options) { o.metrics = m } }

// WithFactory replaces the model factory.
func WithFactory(f ModelFactory) Option { return func(o *options) { o.factory = f } }

// New validates cfg and builds a Plugin. A missing or malformed model
// configuration fails here with a *llm.ConfigurationError, before any build
// runs, even when the plugin is disabled. The model itself is not built
// until the first failed build.
func New(cfg *v1alpha1.DoctorConfig, opts ...Option) (*Plugin, error) {
	if cfg == nil {
		return nil, config.Validate(nil)
	}
	c := *cfg
	c.Default()
	if err := config.Validate(&c); err != nil {
		return nil, err
	}

	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	mc, err := config.ModelConfig(c.Model, o.custom)
	if err != nil {
		return nil, err
	}

	logger := log.Log.WithName("gopherdoctor")
	if o.logger != nil {
		logger = *o.logger
	}
	palette := render.DefaultPalette()
	if o.palette != nil {
		palette = *o.palette
	}
	pacing := DefaultPacing(c.TypeWriterDelay())
	if o.pacing != nil {
		pacing = *o.pacing
	}
	factory := o.factory
	if factory == nil {
		factory = &llm.Factory{Secrets: o.secrets}
	}
	metrics := o.metrics
	if metrics == nil && (c.Metrics.TextfilePath != "" || c.Metrics.PushgatewayURL != "") {
		metrics = NewMetrics()
	}

	p := &Plugin{
		enabled:    c.IsEnabled(),
		metrics:    metrics,
		metricsCfg: c.Metrics,
		log:        logger,
		pipeline: &Pipeline{
			tw:           render.NewTypewriter(o.out),
			palette:      palette,
			pacing:       pacing,
			showOriginal: c.ShouldShowOriginalError(),
			timeout:      c.Timeout(),
			provider:     mc.Kind(),
			models:       &modelSource{factory: factory, cfg: mc},
			reporters:    o.reporters,
			metrics:      metrics,
			log:          logger.WithName("pipeline"),
			tracer:       newTracer(),
		},
	}
	logger.V(1).Info("plugin configured", "enabled", p.enabled, "provider", mc.Kind(), "timeout", c.Timeout())
	return p, nil
}

// BuildEnd is the host hook, called once after a build finishes with the
// build's failure, or nil when it succeeded. It never fails and never
// writes anything for a successful build or a disabled plugin. The returned
// phase is informational.
func (p *Plugin) BuildEnd(ctx context.Context, f *failure.Failure) Phase {
	if !p.enabled {
		return PhaseIdle
	}
	phase := p.pipeline.Run(ctx, f)
	if phase != PhaseIdle {
		p.flushMetrics(ctx)
	}
	return phase
}

// Enabled reports whether BuildEnd diagnoses failures.
func (p *Plugin) Enabled() bool { return p.enabled }

// Phase returns the pipeline's current phase.
func (p *Plugin) Phase() Phase { return p.pipeline.Phase() }

func (p *Plugin) flushMetrics(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	if path := p.metricsCfg.TextfilePath; path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			p.log.Error(err, "metrics textfile not written")
		}
	}
	if url := p.metricsCfg.PushgatewayURL; url != "" {
		if err := p.metrics.Push(ctx, url, p.metricsCfg.Job); err != nil {
			p.log.Error(err, "metrics not pushed")
		}
	}
}
