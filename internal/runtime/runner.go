// Package runtime wires the probe engine together and provides its
// top-level entry point: load a request, locate and override the target
// node, run the recursive prober once, and report timing and fatal
// errors.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/forgelab/dataprobe/internal/config"
	"github.com/forgelab/dataprobe/internal/core/domain"
	"github.com/forgelab/dataprobe/internal/core/ports"
	"github.com/forgelab/dataprobe/internal/probe"
	"github.com/forgelab/dataprobe/internal/report"
	"github.com/forgelab/dataprobe/internal/snapshot"
	"github.com/forgelab/dataprobe/internal/source"
	"github.com/forgelab/dataprobe/internal/tree"
)

// Response is the single-result presentation of one probe run. Success
// is false only for top-level fatal errors (an unresolvable target path,
// an unreadable document); node- and step-level errors are data inside a
// successful result.
type Response struct {
	Success         bool                `json:"success"`
	Result          *domain.ProbeResult `json:"result"`
	ErrorMessage    string              `json:"errorMessage,omitempty"`
	ErrorTraceback  string              `json:"errorTraceback,omitempty"`
	ExecutionTimeMs int64               `json:"executionTimeMs"`
	ProbeID         string              `json:"probeId"`
}

// Runner drives probe runs. A single Runner may serve many requests;
// each run gets its own document, resolver, and sink, so an instance
// built with stages detached is never reused across probes.
type Runner struct {
	logger   *slog.Logger
	caps     snapshot.Caps
	resolver ports.ObjectResolver
	tracer   trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithCaps overrides the snapshot bounds.
func WithCaps(caps snapshot.Caps) Option {
	return func(r *Runner) { r.caps = caps }
}

// WithResolver replaces the default registry-backed object resolver,
// mainly for tests.
func WithResolver(resolver ports.ObjectResolver) Option {
	return func(r *Runner) { r.resolver = resolver }
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		caps:   snapshot.DefaultCaps(),
		tracer: otel.Tracer("dataprobe/runtime"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one probe, reporting progress through sink and returning
// the single-result response. The sink always receives a terminal
// complete event; a fatal failure is reported through both the sink's
// error event and the response fields.
func (r *Runner) Run(ctx context.Context, req *config.Request, sink ports.Sink) *Response {
	probeID := uuid.New().String()
	resp := &Response{ProbeID: probeID}

	ctx, span := r.tracer.Start(ctx, "probe.run",
		trace.WithAttributes(
			attribute.String("probe.id", probeID),
			attribute.String("probe.dataset_path", req.DatasetPath),
		))
	defer span.End()

	r.logger.Info("probe started",
		slog.String("probe_id", probeID),
		slog.String("config", req.ConfigPath),
		slog.String("dataset", req.DatasetPath))

	start := time.Now()
	result, err := r.run(ctx, req, sink)
	elapsed := time.Since(start).Milliseconds()

	resp.ExecutionTimeMs = elapsed
	if err != nil {
		resp.ErrorMessage = err.Error()
		resp.ErrorTraceback = domain.Traceback(err)
		sink.Error(resp.ErrorMessage, resp.ErrorTraceback)
		span.RecordError(err)
		r.logger.Error("probe failed",
			slog.String("probe_id", probeID),
			slog.String("error", err.Error()))
	} else {
		resp.Success = true
		resp.Result = result
		r.logger.Info("probe complete",
			slog.String("probe_id", probeID),
			slog.Int64("elapsed_ms", elapsed))
	}
	sink.Complete(elapsed)

	return resp
}

// RunReport is a convenience wrapper for single-result mode.
func (r *Runner) RunReport(ctx context.Context, req *config.Request) *Response {
	return r.Run(ctx, req, report.NewBufferSink())
}

func (r *Runner) run(ctx context.Context, req *config.Request, sink ports.Sink) (*domain.ProbeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := config.LoadDocument(req.ConfigPath)
	if err != nil {
		return nil, err
	}

	node, err := tree.Locate(doc, req.DatasetPath)
	if err != nil {
		return nil, err
	}

	tree.ApplyOverrides(node, req.PathOverrides)

	resolver := r.resolver
	if resolver == nil {
		resolver = source.NewResolver(req.ProjectPaths)
	}
	refs := source.NewRefResolver(doc)
	prober := probe.New(resolver, refs, snapshot.New(r.caps), r.logger)

	_, span := r.tracer.Start(ctx, "probe.walk")
	prober.Probe(doc, node, req.DatasetPath, sink)
	span.End()

	if buffered, ok := sink.(*report.BufferSink); ok {
		return buffered.Result(), nil
	}
	return nil, nil
}
