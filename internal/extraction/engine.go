// Package extraction turns page content and staged items into structured
// data with a language model.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ckcelina/my-wishlist-sub002/internal/domain"
	"github.com/ckcelina/my-wishlist-sub002/pkg/logger"
	"github.com/ckcelina/my-wishlist-sub002/pkg/tracing"
)

// DefaultMaxInputChars bounds the page content sent to the model.
const DefaultMaxInputChars = 8000

// Operation names used in logs, metrics and spans.
const (
	OpExtractItems      = "extract_items"
	OpProposeDuplicates = "propose_duplicates"
	OpClassify          = "classify"
)

var (
	llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Language model requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Language model request duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"operation"},
	)

	llmParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_parse_failures_total",
			Help: "Model replies that could not be parsed",
		},
		[]string{"operation"},
	)
)

var tracer = tracing.Tracer("github.com/ckcelina/my-wishlist-sub002/internal/extraction")

// Engine runs extraction prompts. Every method returns a usable value even
// when it also returns an error: failures degrade to empty results and are
// logged with the operation name and input size.
type Engine struct {
	completer     Completer
	maxInputChars int
	logger        *slog.Logger
}

// NewEngine creates an Engine. maxInputChars <= 0 selects the default.
func NewEngine(completer Completer, maxInputChars int, logger *slog.Logger) *Engine {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &Engine{completer: completer, maxInputChars: maxInputChars, logger: logger}
}

// ExtractWishlistItems extracts the products listed on a wishlist page.
// When the model yields nothing, schema.org JSON-LD products on the page
// are used instead.
func (e *Engine) ExtractWishlistItems(ctx context.Context, rawHTML, pageURL string) ([]domain.ImportedItem, error) {
	items := []domain.ImportedItem{}
	page, err := ParsePage(rawHTML, e.maxInputChars)
	if err != nil {
		e.warn(ctx, OpExtractItems, len(rawHTML), err)
		return items, err
	}

	var modelErr error
	if page.Content != "" {
		var prompt string
		prompt, modelErr = extractPrompt(pageURL, page.Content)
		if modelErr == nil {
			var records []map[string]any
			records, modelErr = complete[[]map[string]any](ctx, e, OpExtractItems, prompt, KindArray, len(page.Content))
			items = NormalizeItems(records, pageURL)
		}
	}
	if len(items) > 0 {
		return items, nil
	}

	if len(page.Products) > 0 {
		records := make([]map[string]any, 0, len(page.Products))
		for _, p := range page.Products {
			records = append(records, productRecord(p))
		}
		items = NormalizeItems(records, pageURL)
		if len(items) > 0 {
			logger.WithContext(ctx, e.logger).Info("using structured data fallback",
				slog.String("operation", OpExtractItems),
				slog.Int("items", len(items)),
			)
			return items, nil
		}
	}

	return items, modelErr
}

type proposedGroup struct {
	GroupID        string   `json:"groupId"`
	Members        []string `json:"members"`
	Confidence     float64  `json:"confidence"`
	CanonicalTitle string   `json:"canonicalTitle"`
	Reason         string   `json:"reason"`
}

// ProposeDuplicates asks the model which items are the same product. The
// groups are returned unfiltered.
func (e *Engine) ProposeDuplicates(ctx context.Context, items []domain.ImportItem) ([]domain.DuplicateGroup, error) {
	groups := []domain.DuplicateGroup{}
	prompt, err := duplicatesPrompt(items)
	if err != nil {
		e.warn(ctx, OpProposeDuplicates, len(items), err)
		return groups, err
	}

	proposed, err := complete[[]proposedGroup](ctx, e, OpProposeDuplicates, prompt, KindArray, len(items))
	for _, g := range proposed {
		groups = append(groups, domain.DuplicateGroup{
			GroupID:        strings.TrimSpace(g.GroupID),
			Members:        g.Members,
			Confidence:     g.Confidence,
			CanonicalTitle: strings.TrimSpace(g.CanonicalTitle),
			Reason:         strings.TrimSpace(g.Reason),
		})
	}
	return groups, err
}

// Classify labels items for a category, person or occasion grouping. The
// result maps tempIds to labels; items the model skipped are absent.
func (e *Engine) Classify(ctx context.Context, mode domain.GroupMode, items []domain.ImportItem) (map[string]string, error) {
	labels := map[string]string{}
	prompt, err := classifyPrompt(mode, items)
	if err != nil {
		e.warn(ctx, OpClassify, len(items), err)
		return labels, err
	}

	raw, err := complete[map[string]any](ctx, e, OpClassify, prompt, KindObject, len(items))
	for id, v := range raw {
		if s := strings.TrimSpace(stringValue(v)); s != "" {
			labels[id] = s
		}
	}
	return labels, err
}

// complete sends prompt and decodes the reply into T, recording metrics
// and a span. inputSize is logged on failure.
func complete[T any](ctx context.Context, e *Engine, op, prompt string, kind Kind, inputSize int) (T, error) {
	var zero T
	ctx, span := tracer.Start(ctx, "extraction."+op)
	span.SetAttributes(
		attribute.String("llm.operation", op),
		attribute.Int("llm.input_size", inputSize),
		attribute.Int("llm.prompt_chars", len(prompt)),
	)

	start := time.Now()
	reply, err := e.completer.Complete(ctx, prompt)
	llmRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		result := "error"
		if errors.Is(err, ErrCompleterDisabled) {
			result = "disabled"
		}
		llmRequestsTotal.WithLabelValues(op, result).Inc()
		e.warn(ctx, op, inputSize, err)
		tracing.End(span, err)
		return zero, err
	}
	llmRequestsTotal.WithLabelValues(op, "ok").Inc()

	v, err := DecodeJSON[T](reply, kind)
	if err != nil {
		llmParseFailuresTotal.WithLabelValues(op).Inc()
		e.warn(ctx, op, inputSize, err, slog.Int("reply_chars", len(reply)))
		tracing.End(span, err)
		return zero, err
	}
	tracing.End(span, nil)
	return v, nil
}

func (e *Engine) warn(ctx context.Context, op string, inputSize int, err error, extra ...any) {
	level := slog.LevelWarn
	if errors.Is(err, ErrCompleterDisabled) {
		level = slog.LevelDebug
	}
	args := append([]any{
		slog.String("operation", op),
		slog.Int("input_size", inputSize),
		slog.String("error", err.Error()),
	}, extra...)
	logger.WithContext(ctx, e.logger).Log(ctx, level, "extraction degraded to empty result", args...)
}
