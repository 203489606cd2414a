package relevance

import "strings"

// parseIDs extracts candidate ids from a model reply.
// Everything outside [a-zA-Z0-9_,] is dropped before splitting on commas.
// Tokens must carry prefix (when set) and name a known candidate.
// Order of first appearance is kept; duplicates are dropped.
func parseIDs(reply, prefix string, known map[string]struct{}) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ',':
			return r
		default:
			return -1
		}
	}, reply)

	var ids []string
	seen := make(map[string]bool)
	for _, tok := range strings.Split(cleaned, ",") {
		if tok == "" || seen[tok] {
			continue
		}
		if prefix != "" && !strings.HasPrefix(tok, prefix) {
			continue
		}
		if _, ok := known[tok]; !ok {
			continue
		}
		seen[tok] = true
		ids = append(ids, tok)
	}
	return ids
}
