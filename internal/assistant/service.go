// Package assistant answers free-text questions about the catalog through a
// generative model, always returning a well-formed Response.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/propscope/internal/apperr"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/metrics"
	"github.com/starford/propscope/internal/models"
	"github.com/starford/propscope/internal/querycontext"
)

// Catalog is the read side of the property snapshot the assistant needs.
type Catalog interface {
	All() []models.Property
	Checksum() string
}

// Options configures a Service.
type Options struct {
	Generator    Generator
	Catalog      Catalog
	Cache        Cache
	ContextLimit int
	Timeout      time.Duration
	HistoryTurns int
	Logger       *slog.Logger
}

// Answer is a Response plus how it was produced.
type Answer struct {
	Response
	ContextIDs []string              `json:"context_ids"`
	Criteria   querycontext.Criteria `json:"criteria"`
	Cached     bool                  `json:"cached"`
	Fallback   string                `json:"fallback,omitempty"`
}

// Fallback reasons.
const (
	FallbackParse = "parse"
	FallbackError = "error"
)

// Service glues context selection, prompting, caching and fallbacks together.
type Service struct {
	opts   Options
	logger *slog.Logger
}

var errNotConfigured = errors.New("assistant: no model configured")

// NewService creates an assistant. A nil Generator is allowed: every question
// then gets the error fallback.
func NewService(opts Options) *Service {
	if opts.ContextLimit <= 0 {
		opts.ContextLimit = querycontext.DefaultMaxItems
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HistoryTurns < 0 {
		opts.HistoryTurns = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{opts: opts, logger: logger}
}

// SelectContext returns the criteria parsed from question and the properties
// that would be sent with it, descriptions filled in.
func (s *Service) SelectContext(question string) (querycontext.Criteria, []models.Property) {
	criteria := querycontext.Parse(question)
	items := querycontext.Apply(criteria, s.opts.Catalog.All(), s.opts.ContextLimit)
	for i := range items {
		items[i] = catalog.WithDescription(items[i])
	}
	return criteria, items
}

// Ask answers question. Only an empty question is an error; upstream
// failures and unparseable output come back as fallback answers.
func (s *Service) Ask(ctx context.Context, question string, history []models.ChatMessage) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: please enter a question", apperr.ErrInvalidInput)
	}
	start := time.Now()

	criteria, items := s.SelectContext(question)
	metrics.AssistantContextItems.Observe(float64(len(items)))

	ans := Answer{Criteria: criteria, ContextIDs: make([]string, len(items))}
	for i, p := range items {
		ans.ContextIDs[i] = p.ID
	}

	result := s.answer(ctx, question, history, items, &ans)
	metrics.AssistantRequests.WithLabelValues(result).Inc()
	metrics.AssistantDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	s.logger.Info("assistant: answered",
		slog.String("result", result),
		slog.Int("context", len(items)),
		slog.Int("confidence", ans.Confidence),
		slog.Duration("took", time.Since(start)))
	return ans, nil
}

func (s *Service) answer(ctx context.Context, question string, history []models.ChatMessage, items []models.Property, ans *Answer) string {
	if s.opts.Generator == nil {
		ans.Response = errorFallback(errNotConfigured)
		ans.Fallback = FallbackError
		return metrics.ResultErrorFallback
	}

	// Follow-up questions depend on history, so only standalone ones are cached.
	cacheKey := ""
	if s.opts.Cache != nil && len(history) == 0 {
		cacheKey = CacheKey(s.opts.Generator.Model(), question, s.opts.Catalog.Checksum(), items)
		if resp, ok := s.cacheGet(ctx, cacheKey); ok {
			ans.Response = resp
			ans.Cached = true
			return metrics.ResultCached
		}
	}

	prompt, err := BuildSystemPrompt(items)
	if err != nil {
		ans.Response = errorFallback(err)
		ans.Fallback = FallbackError
		return metrics.ResultErrorFallback
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.opts.Generator.Generate(callCtx, prompt, withHistory(question, history, s.opts.HistoryTurns))
	if err != nil {
		s.logger.Warn("assistant: generate failed", slog.String("error", err.Error()))
		ans.Response = errorFallback(err)
		ans.Fallback = FallbackError
		return metrics.ResultErrorFallback
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		s.logger.Warn("assistant: unparseable response", slog.String("error", err.Error()))
		ans.Response = parseFallback(raw)
		ans.Fallback = FallbackParse
		return metrics.ResultParseFallback
	}
	if len(items) == 0 {
		if resp.TrustBreakdown == nil {
			resp.TrustBreakdown = &TrustBreakdown{}
		}
		resp.TrustBreakdown.InternalUsed = false
	}
	ans.Response = resp

	if cacheKey != "" {
		s.cacheSet(ctx, cacheKey, resp)
	}
	return metrics.ResultAnswered
}

// Cache errors never fail a question.
func (s *Service) cacheGet(ctx context.Context, key string) (Response, bool) {
	resp, ok, err := s.opts.Cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("assistant: cache lookup failed", slog.String("error", err.Error()))
		return Response{}, false
	case ok:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return resp, true
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Response{}, false
	}
}

func (s *Service) cacheSet(ctx context.Context, key string, resp Response) {
	if err := s.opts.Cache.Set(ctx, key, resp); err != nil {
		s.logger.Warn("assistant: cache store failed", slog.String("error", err.Error()))
	}
}

func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
