package relevance

import (
	"reflect"
	"testing"
)

func TestParseIDs(t *testing.T) {
	known := map[string]struct{}{"of_1": {}, "of_2": {}, "x_3": {}}
	tests := []struct {
		name   string
		reply  string
		prefix string
		want   []string
	}{
		{"plain", "of_1,of_2", "", []string{"of_1", "of_2"}},
		{"noise stripped", "\"of_1\", of_2.\n", "", []string{"of_1", "of_2"}},
		{"prefix enforced", "of_1,x_3", "of_", []string{"of_1"}},
		{"unknown dropped", "of_9,of_2", "", []string{"of_2"}},
		{"duplicates dropped", "of_2,of_2,of_1", "", []string{"of_2", "of_1"}},
		{"empty", "", "", nil},
		{"garbage", "¯\\_(ツ)_/¯", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseIDs(tt.reply, tt.prefix, known); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseIDs(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"Käse":         "kase",
		"kaese":        "kase",
		"Crème Brûlée": "creme brulee",
		"Weißbier":     "weissbier",
		"Müsli":        "musli",
	}
	for in, want := range tests {
		if got := fold(in); got != want {
			t.Errorf("fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchesWord(t *testing.T) {
	syn := Synonyms{"kuh": {"vollmilch"}, "quark": {"topfen"}}
	byID := make(map[string]candidateText)
	for _, c := range candidates() {
		byID[c.ID()] = newCandidateText(&c)
	}

	tests := []struct {
		name      string
		word      string
		candidate string
		want      bool
	}{
		{"word", "gouda", "p2", true},
		{"synonym", "kuh", "p3", true},
		{"reverse synonym", "topfen", "p2", false},
		{"diacritic", "kaese", "p2", true},
		{"long substring", "hackfl", "p4", true},
		{"short substring ignored", "er", "p5", false},
		{"fuzzy typo", "erdbeern", "p5", true},
		{"fuzzy spans words", "kerrygoldbuter", "p1", true},
		{"fuzzy below overlap", "qualle", "p3", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := byID[tt.candidate]
			if got := matchesWord(tt.word, &ct, syn); got != tt.want {
				t.Errorf("matchesWord(%q, %s) = %v, want %v", tt.word, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestHeuristicMatch(t *testing.T) {
	syn := Synonyms{"kuh": {"vollmilch"}}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"any word in catalog order", "kuh jung", []string{"p2", "p3"}},
		{"single word", "butter", []string{"p1"}},
		{"too short for any tier", "mlk", nil},
		{"empty", " ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := heuristicMatch(tt.query, candidates(), syn)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("heuristicMatch(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestFuzzyMatch(t *testing.T) {
	// five of six characters of "butler" occur in "kerrygold butter"
	if !fuzzyMatch("butler", "kerrygold butter") {
		t.Error("expected fuzzy match above 70% overlap")
	}
	if fuzzyMatch("öle", "öle") {
		t.Error("words shorter than four characters never match fuzzily")
	}
}

func TestSynonymsExpand(t *testing.T) {
	syn := Synonyms{"quark": {"Topfen"}}
	if got := syn.expand("topfen"); !reflect.DeepEqual(got, []string{"topfen", "quark"}) {
		t.Errorf("expand(topfen) = %v", got)
	}
	if got := syn.expand("quark"); !reflect.DeepEqual(got, []string{"quark", "topfen"}) {
		t.Errorf("expand(quark) = %v", got)
	}
}

func TestCharOverlap(t *testing.T) {
	if got := charOverlap("erdbeern", "erdbeeren"); got != 8 {
		t.Errorf("charOverlap = %d, want 8", got)
	}
	if got := charOverlap("aaa", "a"); got != 1 {
		t.Errorf("multiset overlap = %d, want 1", got)
	}
}

func TestDesperateMatch(t *testing.T) {
	got := desperateMatch("ilm", candidates(), 10)
	if !reflect.DeepEqual(got, []string{"p1", "p3"}) {
		t.Errorf("desperateMatch = %v", got)
	}
	if got := desperateMatch("!!!", candidates(), 10); got != nil {
		t.Errorf("query without letters should match nothing, got %v", got)
	}
}
