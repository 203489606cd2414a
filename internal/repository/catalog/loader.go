// Package catalog loads the offline artifacts flyerdex serves from: offers,
// taxonomy, intent registries, offer embeddings and synonyms.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/index"
)

// ErrArtifactMissing signals that an artifact file does not exist.
var ErrArtifactMissing = errors.New("artifact missing")

// Paths locates the artifacts. Only Items is required.
type Paths struct {
	Items           string
	Taxonomy        string
	IntentRegistry  string
	DerivedRegistry string
	OfferEmbeddings string
	Synonyms        string
}

// Loader reads artifacts from disk.
type Loader struct {
	paths              Paths
	deriveFromTaxonomy bool
	now                func() time.Time
	logger             *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithTaxonomyDerivation uses taxonomy-derived definitions as the override tier
// when no derived registry file is configured.
func WithTaxonomyDerivation(enabled bool) Option {
	return func(l *Loader) { l.deriveFromTaxonomy = enabled }
}

// WithClock overrides the snapshot timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New creates a Loader.
func New(paths Paths, logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{paths: paths, now: time.Now, logger: logger}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Snapshot loads items and offer vectors and indexes them.
func (l *Loader) Snapshot(ctx context.Context) (*index.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	items, err := l.Items()
	if err != nil {
		return nil, err
	}

	vectors, err := l.OfferEmbeddings()
	if err != nil {
		return nil, err
	}
	vectors = restrictVectors(vectors, items)

	snap, err := index.NewSnapshot(items, vectors, l.now())
	if err != nil {
		return nil, fmt.Errorf("offer embeddings %s: %w", l.paths.OfferEmbeddings, err)
	}

	l.logger.Info("catalog snapshot loaded",
		zap.Int("items", snap.Index.Len()),
		zap.Int("vectors", len(snap.Vectors)),
		zap.Int("dimensions", snap.Dimensions),
		zap.Int("categories", snap.Index.Categories()),
		zap.Int("markets", snap.Index.Markets()),
	)
	return snap, nil
}

// Items reads the required items artifact. Rows that fail validation are
// skipped with a warning; a missing file is an error.
func (l *Loader) Items() ([]item.Item, error) {
	data, err := readArtifact(l.paths.Items)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}

	var rows []itemRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", l.paths.Items, err)
	}

	items := make([]item.Item, 0, len(rows))
	skipped := 0
	for i := range rows {
		it, err := rows[i].toItem()
		if err != nil {
			skipped++
			l.logger.Warn("skipping invalid item", zap.Int("row", i), zap.Error(err))
			continue
		}
		items = append(items, it)
	}
	if skipped > 0 {
		l.logger.Warn("items skipped", zap.Int("skipped", skipped), zap.Int("loaded", len(items)))
	}
	return items, nil
}

// OfferEmbeddings reads the optional offer-embedding index.
// All vectors must share one dimension.
func (l *Loader) OfferEmbeddings() (map[string][]float32, error) {
	data, ok, err := l.optional("offer embeddings", l.paths.OfferEmbeddings)
	if err != nil || !ok {
		return nil, err
	}

	var rows []offerEmbeddingRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse offer embeddings %s: %w", l.paths.OfferEmbeddings, err)
	}

	vectors := make(map[string][]float32, len(rows))
	for _, r := range rows {
		if r.ID == "" || len(r.Vector) == 0 {
			continue
		}
		vectors[r.ID] = r.Vector
	}
	return vectors, nil
}

// Taxonomy reads the optional category -> sub-categories map.
func (l *Loader) Taxonomy() (map[string][]string, error) {
	data, ok, err := l.optional("taxonomy", l.paths.Taxonomy)
	if err != nil || !ok {
		return nil, err
	}
	var taxonomy map[string][]string
	if err := yaml.Unmarshal(data, &taxonomy); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", l.paths.Taxonomy, err)
	}
	return taxonomy, nil
}

// Synonyms reads the optional word -> synonyms map.
func (l *Loader) Synonyms() (map[string][]string, error) {
	data, ok, err := l.optional("synonyms", l.paths.Synonyms)
	if err != nil || !ok {
		return nil, err
	}
	var synonyms map[string][]string
	if err := yaml.Unmarshal(data, &synonyms); err != nil {
		return nil, fmt.Errorf("parse synonyms %s: %w", l.paths.Synonyms, err)
	}
	return synonyms, nil
}

// Registry merges the static registry with the generated tier: the derived
// registry file if configured, else taxonomy-derived definitions when enabled.
// Invalid definitions are skipped with a warning.
func (l *Loader) Registry() (*domintent.Registry, error) {
	base, err := l.definitions("intent registry", l.paths.IntentRegistry)
	if err != nil {
		return nil, err
	}

	var overrides []domintent.Definition
	switch {
	case l.paths.DerivedRegistry != "":
		overrides, err = l.definitions("derived registry", l.paths.DerivedRegistry)
		if err != nil {
			return nil, err
		}
	case l.deriveFromTaxonomy:
		taxonomy, err := l.Taxonomy()
		if err != nil {
			return nil, err
		}
		overrides = domintent.FromTaxonomy(taxonomy)
	}

	reg, skipped := domintent.Merge(base, overrides)
	for _, s := range skipped {
		l.logger.Warn("skipping intent definition", zap.String("key", s.Key), zap.String("reason", s.Reason))
	}
	l.logger.Info("intent registry loaded",
		zap.Int("static", len(base)),
		zap.Int("generated", len(overrides)),
		zap.Int("definitions", reg.Len()),
	)
	return reg, nil
}

func (l *Loader) definitions(kind, path string) ([]domintent.Definition, error) {
	data, ok, err := l.optional(kind, path)
	if err != nil || !ok {
		return nil, err
	}

	var rows []definitionRow
	if err := yaml.Unmarshal(data, &rows); err != nil {
		// Fall back to the wrapped form.
		var doc registryFile
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("parse %s %s: %w", kind, path, err)
		}
		rows = doc.Intents
	}

	defs := make([]domintent.Definition, len(rows))
	for i := range rows {
		defs[i] = rows[i].toDefinition()
	}
	return defs, nil
}

// optional reads an artifact that may be absent. An empty path or a missing
// file yields ok=false; the latter is logged.
func (l *Loader) optional(kind, path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := readArtifact(path)
	if errors.Is(err, ErrArtifactMissing) {
		l.logger.Warn("optional artifact missing", zap.String("artifact", kind), zap.String("path", path))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", kind, err)
	}
	return data, true, nil
}

func readArtifact(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrArtifactMissing)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// restrictVectors drops vectors whose id is not in the catalog.
func restrictVectors(vectors map[string][]float32, items []item.Item) map[string][]float32 {
	if len(vectors) == 0 {
		return vectors
	}
	known := make(map[string]struct{}, len(items))
	for i := range items {
		known[items[i].ID()] = struct{}{}
	}
	out := make(map[string][]float32, len(vectors))
	for id, v := range vectors {
		if _, ok := known[id]; ok {
			out[id] = v
		}
	}
	return out
}
