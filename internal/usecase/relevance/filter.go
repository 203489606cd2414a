// Package relevance narrows a candidate list to the offers that actually match
// a query, asking a completion model first and falling back to deterministic
// lexical heuristics when the model is unavailable.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
)

// Completion call limits.
const (
	DefaultTimeout     = 25 * time.Second
	MaxTimeout         = 55 * time.Second
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.1
)

// Config tunes the filter. Zero values select the defaults.
type Config struct {
	Model          string
	Timeout        time.Duration
	MaxTokens      int
	Temperature    float32
	IDPrefix       string
	DesperateLimit int
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout > MaxTimeout {
		c.Timeout = MaxTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.DesperateLimit <= 0 {
		c.DesperateLimit = DefaultDesperateLimit
	}
}

// Outcome is the accepted id subset and the tier that produced it.
// Cause is set when the model tier failed and a fallback ran.
type Outcome struct {
	IDs   []string
	Tier  result.Strategy
	Cause error
}

// Filter is the AI relevance filter with its fallback chain.
type Filter struct {
	completer domain.Completer
	cfg       Config
	synonyms  Synonyms
	outcomes  *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates a filter. completer may be nil: every call then goes straight
// to the heuristic tiers. outcomes has the single label "tier".
func New(
	completer domain.Completer,
	cfg Config,
	synonyms Synonyms,
	outcomes *prometheus.CounterVec,
	logger *zap.Logger,
) *Filter {
	cfg.applyDefaults()
	return &Filter{
		completer: completer,
		cfg:       cfg,
		synonyms:  synonyms,
		outcomes:  outcomes,
		logger:    logger,
	}
}

// Filter returns the relevant subset of candidates for query. in may be nil.
// It never fails: when neither the model nor any heuristic accepts a candidate
// the outcome is simply empty.
func (f *Filter) Filter(
	ctx context.Context, query string, candidates []item.Item, in *domintent.Intent,
) Outcome {
	if len(candidates) == 0 {
		return Outcome{Tier: result.StrategyAI}
	}

	ids, err := f.askModel(ctx, query, candidates, in)
	if err == nil {
		f.inc(result.StrategyAI)
		return Outcome{IDs: ids, Tier: result.StrategyAI}
	}

	if ids = heuristicMatch(query, candidates, f.synonyms); len(ids) > 0 {
		f.logger.Warn("Relevance fallback", zap.String("tier", string(result.StrategyHeuristic)),
			zap.Int("accepted", len(ids)), zap.Error(err))
		f.inc(result.StrategyHeuristic)
		return Outcome{IDs: ids, Tier: result.StrategyHeuristic, Cause: err}
	}

	ids = desperateMatch(query, candidates, f.cfg.DesperateLimit)
	f.logger.Warn("Relevance fallback", zap.String("tier", string(result.StrategyDesperate)),
		zap.Int("accepted", len(ids)), zap.Error(err))
	f.inc(result.StrategyDesperate)
	return Outcome{IDs: ids, Tier: result.StrategyDesperate, Cause: err}
}

func (f *Filter) askModel(
	ctx context.Context, query string, candidates []item.Item, in *domintent.Intent,
) ([]string, error) {
	if f.completer == nil {
		return nil, domain.ErrProviderNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	res, err := f.completer.Complete(ctx, domain.CompletionRequest{
		Model:       f.cfg.Model,
		Messages:    buildMessages(query, candidates, in),
		MaxTokens:   f.cfg.MaxTokens,
		Temperature: f.cfg.Temperature,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", domain.ErrCompletionProviderError, f.cfg.Timeout)
		}
		return nil, fmt.Errorf("complete: %w", err)
	}

	known := make(map[string]struct{}, len(candidates))
	for i := range candidates {
		known[candidates[i].ID()] = struct{}{}
	}
	ids := parseIDs(res.Content, f.cfg.IDPrefix, known)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no candidate ids in reply", domain.ErrMalformedResponse)
	}
	return ids, nil
}

func (f *Filter) inc(tier result.Strategy) {
	if f.outcomes != nil {
		f.outcomes.WithLabelValues(string(tier)).Inc()
	}
}
