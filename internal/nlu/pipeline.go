package nlu

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bookpilot/booking-nlu/internal/observability/metrics"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

var tracer = otel.Tracer("bookingnlu/pipeline")

// Error codes for hard failures. Clarifications are not failures; these are.
const (
	ErrCodeEmptyText       = "EMPTY_TEXT"
	ErrCodeInvalidDomain   = "INVALID_DOMAIN"
	ErrCodeInvalidTimezone = "INVALID_TIMEZONE"
	ErrCodeNoEntities      = "NO_ENTITIES"
)

// Request is one resolution request. Now is the caller's clock: two requests
// with identical fields produce identical results, so callers that replay
// must pin Now.
type Request struct {
	Text          string                `json:"text"`
	Domain        Domain                `json:"domain"`
	Timezone      string                `json:"timezone"`
	TenantAliases map[string]AliasEntry `json:"tenant_aliases,omitempty"`
	Now           time.Time             `json:"now"`
}

// StageOutputs carries every intermediate stage result for observability and
// tests. The terminal answer lives on PipelineResult.
type StageOutputs struct {
	Extraction *ExtractionResult  `json:"extraction"`
	Intent     IntentDecision     `json:"intent"`
	Structure  StructuralProfile  `json:"structure"`
	Grouping   []AppointmentDraft `json:"grouping"`
	Semantic   ResolvedBooking    `json:"semantic"`
	Calendar   CalendarBooking    `json:"calendar"`
}

// PipelineResult is the terminal output of one resolve call. Exactly one of
// three shapes holds: success with a bound (or legitimately unbound) result,
// needs-clarification with one reasoned signal, or a hard failure with an
// error code.
type PipelineResult struct {
	RequestID          string               `json:"request_id"`
	Success            bool                 `json:"success"`
	ErrorCode          string               `json:"error_code,omitempty"`
	Intent             IntentDecision       `json:"intent"`
	NeedsClarification bool                 `json:"needs_clarification"`
	Clarification      *ClarificationSignal `json:"clarification,omitempty"`
	Question           string               `json:"question,omitempty"`
	Stages             StageOutputs         `json:"stages"`
	ElapsedMillis      float64              `json:"elapsed_ms"`
}

// Pipeline wires the six stages. Construct once, share across requests; all
// stages are stateless and safe for concurrent use.
type Pipeline struct {
	extractor   *Extractor
	classifier  *IntentClassifier
	interpreter *StructuralInterpreter
	grouper     *Grouper
	resolver    *SemanticResolver
	binder      *CalendarBinder
	metrics     *metrics.PipelineMetrics
	logger      *logging.Logger
}

// NewPipeline builds a pipeline over the shared vocabulary. metrics may be
// nil (observations become no-ops); logger may be nil (the default logger is
// used).
func NewPipeline(vocab *Vocabulary, m *metrics.PipelineMetrics, logger *logging.Logger) *Pipeline {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{
		extractor:   NewExtractor(vocab, nil, logger),
		classifier:  NewIntentClassifier(vocab, logger),
		interpreter: NewStructuralInterpreter(vocab),
		grouper:     NewGrouper(vocab),
		resolver:    NewSemanticResolver(vocab, logger),
		binder:      NewCalendarBinder(vocab, logger),
		metrics:     m,
		logger:      logger,
	}
}

// Resolve runs all six stages and arbitrates their clarification candidates.
// Downstream stages always run on best-effort inputs even after an earlier
// stage raised a clarification, so the surfaced question reflects the whole
// request, not just the first stage that stumbled.
func (p *Pipeline) Resolve(ctx context.Context, req Request) PipelineResult {
	started := time.Now()
	result := PipelineResult{RequestID: uuid.NewString()}

	ctx, span := tracer.Start(ctx, "pipeline.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", result.RequestID))

	if req.Text == "" {
		return p.fail(result, ErrCodeEmptyText, started)
	}
	if !ValidDomain(req.Domain) {
		return p.fail(result, ErrCodeInvalidDomain, started)
	}
	loc := time.UTC
	if req.Timezone != "" {
		parsed, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return p.fail(result, ErrCodeInvalidTimezone, started)
		}
		loc = parsed
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	extraction := p.timed(ctx, "extraction", func() any {
		return p.extractor.Extract(req.Text, req.Domain, req.TenantAliases)
	}).(*ExtractionResult)
	result.Stages.Extraction = extraction

	if extraction.EntityCount() == 0 {
		return p.fail(result, ErrCodeNoEntities, started)
	}

	result.Intent = p.timed(ctx, "intent", func() any {
		return p.classifier.Classify(extraction)
	}).(IntentDecision)
	result.Stages.Intent = result.Intent

	profile := p.timed(ctx, "structure", func() any {
		return p.interpreter.Interpret(extraction)
	}).(StructuralProfile)
	result.Stages.Structure = profile

	grouping := p.timed(ctx, "grouping", func() any {
		return p.grouper.Group(extraction, profile)
	}).(GroupingResult)
	result.Stages.Grouping = grouping.Drafts

	var semanticSignal *ClarificationSignal
	result.Stages.Semantic = p.timed(ctx, "semantic", func() any {
		booking, signal := p.resolver.Resolve(extraction, profile, grouping, req.TenantAliases)
		semanticSignal = signal
		return booking
	}).(ResolvedBooking)

	var calendarSignal *ClarificationSignal
	result.Stages.Calendar = p.timed(ctx, "calendar", func() any {
		bound, signal := p.binder.Bind(result.Stages.Semantic, result.Intent, req.Domain, now, loc, spanTexts(extraction.TimeWindows))
		calendarSignal = signal
		return bound
	}).(CalendarBooking)

	result.Clarification = arbitrate(grouping.Signal, semanticSignal, calendarSignal)
	result.NeedsClarification = result.Clarification != nil
	result.Success = true
	if result.NeedsClarification {
		result.Question = RenderQuestion(result.Clarification)
		p.metrics.ObserveClarification(string(result.Clarification.Reason))
	}

	p.metrics.ObserveIntent(string(result.Intent.Intent), string(result.Intent.Tier))
	p.metrics.ObserveResolve(outcomeLabel(result))
	result.ElapsedMillis = float64(time.Since(started).Microseconds()) / 1000.0

	p.logger.Info("resolve complete",
		"request_id", result.RequestID,
		"intent", string(result.Intent.Intent),
		"needs_clarification", result.NeedsClarification,
		"bound", result.Stages.Calendar.Bound,
	)
	return result
}

func (p *Pipeline) timed(ctx context.Context, stage string, fn func() any) any {
	_, span := tracer.Start(ctx, "pipeline."+stage)
	defer span.End()
	started := time.Now()
	out := fn()
	p.metrics.ObserveStageLatency(stage, time.Since(started).Seconds())
	return out
}

func (p *Pipeline) fail(result PipelineResult, code string, started time.Time) PipelineResult {
	result.Success = false
	result.ErrorCode = code
	result.ElapsedMillis = float64(time.Since(started).Microseconds()) / 1000.0
	p.metrics.ObserveResolve("error")
	p.logger.Warn("resolve failed", "request_id", result.RequestID, "error_code", code)
	return result
}

func outcomeLabel(result PipelineResult) string {
	switch {
	case result.NeedsClarification:
		return "clarification"
	case result.Stages.Calendar.Bound:
		return "bound"
	default:
		return "resolved"
	}
}
