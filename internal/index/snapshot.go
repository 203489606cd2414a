package index

import (
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

// Snapshot is an immutable catalog generation: items, their inverted index and
// their precomputed offer vectors.
type Snapshot struct {
	Index      *Index
	Vectors    map[string][]float32
	Dimensions int
	LoadedAt   time.Time
}

// NewSnapshot indexes items and attaches offer vectors.
// All vectors must share one dimension.
func NewSnapshot(items []item.Item, vectors map[string][]float32, loadedAt time.Time) (*Snapshot, error) {
	dims := 0
	for _, v := range vectors {
		if dims == 0 {
			dims = len(v)
			continue
		}
		if len(v) != dims {
			return nil, domain.NewDimMismatch(dims, len(v))
		}
	}
	return &Snapshot{
		Index:      Build(items),
		Vectors:    vectors,
		Dimensions: dims,
		LoadedAt:   loadedAt,
	}, nil
}

// Holder publishes the current snapshot. Readers never observe a partial rebuild:
// Swap replaces the whole snapshot in one atomic store.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates a holder, optionally with an initial snapshot.
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Load returns the current snapshot or ErrCatalogNotLoaded.
func (h *Holder) Load() (*Snapshot, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrCatalogNotLoaded
	}
	return s, nil
}

// Swap publishes next and returns the previous snapshot (nil if none).
func (h *Holder) Swap(next *Snapshot) *Snapshot {
	return h.current.Swap(next)
}
