package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid prunes candidates by vector similarity and lets the LLM judge relevance.
	Hybrid Mode = "hybrid"
	// Semantic ranks candidates by vector similarity only.
	Semantic Mode = "semantic"
	// Keyword uses the inverted index only (no provider calls).
	Keyword Mode = "keyword"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Keyword
}
