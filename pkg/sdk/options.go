package flyerdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Artifacts names the catalog files. Only Items is required.
type Artifacts struct {
	Items           string
	Taxonomy        string
	IntentRegistry  string
	DerivedRegistry string
	OfferEmbeddings string
	Synonyms        string
}

type clientConfig struct {
	artifacts          Artifacts
	deriveFromTaxonomy bool
	minConfidence      float64

	redisAddrs    []string
	redisPassword string

	apiKey         string
	baseURL        string
	chatModel      string
	embeddingModel string
	dimensions     int
	embedder       Embedder

	candidateLimit int
	resultTTLSec   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithArtifacts sets the catalog artifact paths.
func WithArtifacts(a Artifacts) Option {
	return optionFunc(func(c *clientConfig) {
		c.artifacts = a
	})
}

// WithTaxonomyIntents derives extra intents from the taxonomy sub-categories
// when no derived registry file is configured.
func WithTaxonomyIntents() Option {
	return optionFunc(func(c *clientConfig) {
		c.deriveFromTaxonomy = true
	})
}

// WithMinConfidence sets the intent classification threshold in [0, 1].
// Default: 0.4.
func WithMinConfidence(v float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.minConfidence = v
	})
}

// WithRedis shares the embedding and result caches through a Redis instance.
// Without it both caches are in-process only.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithOpenAI enables the AI relevance tier and, when embeddingModel is set,
// vector pruning. Leave apiKey empty to stay on lexical heuristics.
func WithOpenAI(apiKey, chatModel, embeddingModel string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.chatModel = chatModel
		c.embeddingModel = embeddingModel
	})
}

// WithBaseURL points the provider at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = url
	})
}

// WithDimensions pins the query vector length. Vectors of any other length
// are rejected with ErrVectorDimMismatch.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithEmbedder sets a custom query embedding provider. It replaces the
// OpenAI embedder and works without an API key.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCandidateLimit caps the pool handed to the relevance tiers.
// Default: 150.
func WithCandidateLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidateLimit = n
	})
}

// WithResultTTL sets the result cache lifetime in seconds.
// Default: 1800.
func WithResultTTL(sec int) Option {
	return optionFunc(func(c *clientConfig) {
		c.resultTTLSec = sec
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
