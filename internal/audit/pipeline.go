// internal/audit/pipeline.go
package audit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/analyzer"
	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/resolver"
	"github.com/dsablic/anchoraudit/internal/telemetry"
)

// TreeFetcher lists the files of a repository.
type TreeFetcher interface {
	FetchTree(ctx context.Context, ref model.RepositoryRef) model.TreeListing
}

// ContentAggregator turns a listing into the payload sent for audit.
type ContentAggregator interface {
	Aggregate(ctx context.Context, ref model.RepositoryRef, entries []model.TreeEntry) (model.Payload, bool)
}

// Dispatcher submits a payload to one provider.
type Dispatcher interface {
	Dispatch(ctx context.Context, req provider.Request) (model.AuditReport, error)
}

// Summarizer computes line statistics for a payload.
type Summarizer interface {
	Summarize(payload model.Payload) model.PayloadSummary
}

// StageObserver is called on every stage transition. err is non-nil only
// for StageFailed.
type StageObserver func(stage model.Stage, err error)

// Request is one audit as submitted by a caller.
type Request struct {
	URL        string
	Provider   provider.ID
	Credential string
}

// Result is everything produced by a successful audit.
type Result struct {
	Repository model.RepositoryRef
	Provider   provider.ID
	Tree       model.TreeListing
	Payload    model.Payload
	Summary    model.PayloadSummary
	Report     model.AuditReport
}

// Record converts r into the serializable form written by the CLI.
func (r Result) Record(generatedAt time.Time) model.AuditResult {
	return model.AuditResult{
		Repository:  r.Repository.String(),
		Provider:    string(r.Provider),
		Branch:      r.Tree.Branch,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Summary:     r.Summary,
		Report:      r.Report.Text,
	}
}

// Pipeline runs resolve, tree fetch, aggregation and dispatch in sequence.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	tree       TreeFetcher
	aggregator ContentAggregator
	dispatcher Dispatcher
	summarizer Summarizer
	logger     *zap.Logger
	tracer     trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracerProvider sets the provider spans are started from. The default
// is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Pipeline) {
		if tp != nil {
			p.tracer = tp.Tracer(telemetry.TracerName)
		}
	}
}

// WithSummarizer replaces the scc-based payload summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.summarizer = s
		}
	}
}

// New creates a Pipeline from its three collaborators.
func New(tree TreeFetcher, aggregator ContentAggregator, dispatcher Dispatcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		tree:       tree,
		aggregator: aggregator,
		dispatcher: dispatcher,
		summarizer: analyzer.New(),
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(telemetry.TracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one audit. The first failing stage ends the run and its
// error is returned unchanged; nothing is retried. observe may be nil.
func (p *Pipeline) Run(ctx context.Context, req Request, observe StageObserver) (Result, error) {
	if observe == nil {
		observe = func(model.Stage, error) {}
	}
	id := provider.ParseID(string(req.Provider))
	result := Result{Provider: id}

	ctx, span := p.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.String("audit.provider", string(id)),
	))
	defer span.End()

	start := time.Now()
	fail := func(err error) (Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("audit failed",
			zap.String("url", req.URL),
			zap.String("provider", string(id)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		observe(model.StageFailed, err)
		return result, err
	}

	// Resolving
	observe(model.StageResolving, nil)
	ref, err := resolver.Resolve(req.URL)
	if err != nil {
		return fail(err)
	}
	result.Repository = ref
	span.SetAttributes(attribute.String("audit.repository", ref.String()))

	// FetchingTree
	observe(model.StageFetchingTree, nil)
	listing := p.fetchTree(ctx, ref)
	result.Tree = listing

	// Aggregating
	observe(model.StageAggregating, nil)
	payload, ok := p.aggregate(ctx, ref, listing)
	result.Payload = payload
	if !ok {
		return fail(&model.NoMatchError{Repository: ref, Outcome: listing.Outcome})
	}
	result.Summary = p.summarizer.Summarize(payload)
	p.logger.Info("payload aggregated",
		zap.String("repository", ref.String()),
		zap.Int("files", len(payload.Files)),
		zap.Int("dropped", len(payload.Dropped)),
		zap.Int64("bytes", result.Summary.Totals.Bytes),
		zap.Int64("code_lines", result.Summary.Totals.Code))

	// Dispatching
	observe(model.StageDispatching, nil)
	report, err := p.dispatch(ctx, provider.Request{
		Provider:   id,
		Payload:    payload.Text,
		Credential: req.Credential,
	})
	if err != nil {
		return fail(err)
	}
	result.Report = report

	p.logger.Info("audit completed",
		zap.String("repository", ref.String()),
		zap.String("provider", string(id)),
		zap.String("branch", listing.Branch),
		zap.Duration("duration", time.Since(start)))
	observe(model.StageCompleted, nil)
	return result, nil
}

func (p *Pipeline) fetchTree(ctx context.Context, ref model.RepositoryRef) model.TreeListing {
	ctx, span := p.tracer.Start(ctx, "audit.fetch_tree")
	defer span.End()

	listing := p.tree.FetchTree(ctx, ref)

	span.SetAttributes(
		attribute.String("tree.outcome", string(listing.Outcome)),
		attribute.String("tree.branch", listing.Branch),
		attribute.Int("tree.entries", len(listing.Entries)),
	)
	for _, a := range listing.Attempts {
		fields := []zap.Field{
			zap.String("repository", ref.String()),
			zap.String("branch", a.Branch),
			zap.Int("status", a.StatusCode),
		}
		if a.Err != nil {
			fields = append(fields, zap.Error(a.Err))
		}
		p.logger.Debug("tree attempt", fields...)
	}
	if listing.Outcome == model.TreeTransportError {
		p.logger.Warn("tree fetch transport error", zap.String("repository", ref.String()))
	}
	return listing
}

func (p *Pipeline) aggregate(ctx context.Context, ref model.RepositoryRef, listing model.TreeListing) (model.Payload, bool) {
	ctx, span := p.tracer.Start(ctx, "audit.aggregate")
	defer span.End()

	if len(listing.Entries) == 0 {
		return model.Payload{}, false
	}
	payload, ok := p.aggregator.Aggregate(ctx, ref, listing.Entries)
	span.SetAttributes(
		attribute.Int("payload.files", len(payload.Files)),
		attribute.Int("payload.dropped", len(payload.Dropped)),
	)
	return payload, ok
}

func (p *Pipeline) dispatch(ctx context.Context, req provider.Request) (model.AuditReport, error) {
	ctx, span := p.tracer.Start(ctx, "audit.dispatch", trace.WithAttributes(
		attribute.String("provider.id", string(req.Provider)),
	))
	defer span.End()

	report, err := p.dispatcher.Dispatch(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return report, err
}
