package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/flyerdex/internal/domain/item"
	"github.com/kailas-cloud/flyerdex/internal/index"
)

// Heuristic thresholds.
const (
	substringMinWord = 4
	fuzzyMinWord     = 4
	fuzzyMinOverlap  = 0.7
)

// DefaultDesperateLimit caps the every-character pass.
const DefaultDesperateLimit = 10

// Synonyms maps a word to interchangeable words. Lookups go both ways.
type Synonyms map[string][]string

// expand returns word plus every synonym declared for or pointing at it.
func (s Synonyms) expand(word string) []string {
	out := []string{word}
	for _, syn := range s[word] {
		out = append(out, strings.ToLower(syn))
	}
	for head, syns := range s {
		for _, syn := range syns {
			if strings.EqualFold(syn, word) {
				out = append(out, strings.ToLower(head))
			}
		}
	}
	return out
}

type candidateText struct {
	raw    string
	folded string
	words  map[string]struct{}
	fwords []string
}

func newCandidateText(it *item.Item) candidateText {
	ct := candidateText{raw: it.Text(), folded: fold(it.Text()), words: make(map[string]struct{})}
	for _, w := range index.Tokenize(ct.raw) {
		ct.words[w] = struct{}{}
	}
	ct.fwords = index.Tokenize(ct.folded)
	return ct
}

// heuristicMatch keeps candidates that any query word matches by word, synonym,
// folded form, long substring or character overlap. Candidate order is kept.
func heuristicMatch(query string, candidates []item.Item, synonyms Synonyms) []string {
	words := queryWords(query)
	if len(words) == 0 {
		return nil
	}

	var ids []string
	for i := range candidates {
		ct := newCandidateText(&candidates[i])
		for _, w := range words {
			if matchesWord(w, &ct, synonyms) {
				ids = append(ids, candidates[i].ID())
				break
			}
		}
	}
	return ids
}

func matchesWord(w string, ct *candidateText, synonyms Synonyms) bool {
	if _, ok := ct.words[w]; ok {
		return true
	}

	for _, syn := range synonyms.expand(w)[1:] {
		if strings.Contains(ct.raw, syn) {
			return true
		}
	}

	fw := fold(w)
	for _, cw := range ct.fwords {
		if cw == fw {
			return true
		}
	}
	if utf8.RuneCountInString(fw) >= substringMinWord && strings.Contains(ct.folded, fw) {
		return true
	}

	if utf8.RuneCountInString(w) >= substringMinWord && strings.Contains(ct.raw, w) {
		return true
	}

	return fuzzyMatch(w, ct.raw)
}

// fuzzyMatch reports whether at least 70% of w's characters (as a multiset)
// occur anywhere in the candidate text.
func fuzzyMatch(w, text string) bool {
	n := utf8.RuneCountInString(w)
	if n < fuzzyMinWord {
		return false
	}
	return float64(charOverlap(w, text)) >= fuzzyMinOverlap*float64(n)
}

func charOverlap(a, b string) int {
	avail := make(map[rune]int)
	for _, r := range b {
		avail[r]++
	}
	hits := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			hits++
		}
	}
	return hits
}

// desperateMatch keeps candidates whose text contains every letter and digit of
// the query, up to limit.
func desperateMatch(query string, candidates []item.Item, limit int) []string {
	if limit <= 0 {
		limit = DefaultDesperateLimit
	}
	var chars []rune
	seen := make(map[rune]bool)
	for _, r := range strings.ToLower(query) {
		if (unicode.IsLetter(r) || unicode.IsDigit(r)) && !seen[r] {
			seen[r] = true
			chars = append(chars, r)
		}
	}
	if len(chars) == 0 {
		return nil
	}

	var ids []string
	for i := range candidates {
		if len(ids) >= limit {
			break
		}
		text := candidates[i].Text()
		all := true
		for _, r := range chars {
			if !strings.ContainsRune(text, r) {
				all = false
				break
			}
		}
		if all {
			ids = append(ids, candidates[i].ID())
		}
	}
	return ids
}

func queryWords(query string) []string {
	var out []string
	for _, w := range index.Tokenize(query) {
		if utf8.RuneCountInString(w) >= index.MinTermLength {
			out = append(out, w)
		}
	}
	return out
}
