package relevance

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/flyerdex/internal/domain"
	domintent "github.com/kailas-cloud/flyerdex/internal/domain/intent"
	"github.com/kailas-cloud/flyerdex/internal/domain/item"
)

const systemPrompt = "You select supermarket offers that match a shopping query. " +
	"Each candidate is one line: id|name|category|subCategory|market. " +
	"Answer with the matching ids only, comma-separated, no other text. " +
	"Answer with an empty line if nothing matches."

const generousRules = "Be generous: include every offer a shopper searching for this could plausibly want. " +
	"When unsure, include it."

// buildMessages renders the system and user messages for one relevance call.
func buildMessages(query string, candidates []item.Item, in *domintent.Intent) []domain.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", query)

	if in == nil {
		b.WriteString(generousRules)
	} else {
		writeStrictRules(&b, query, candidates, in)
	}

	b.WriteString("\n\nCandidates:\n")
	for i := range candidates {
		b.WriteString(candidates[i].Encode())
		b.WriteByte('\n')
	}

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: b.String()},
	}
}

func writeStrictRules(b *strings.Builder, query string, candidates []item.Item, in *domintent.Intent) {
	fmt.Fprintf(b, "The shopper wants %q. Stick strictly to these categories: %s.",
		in.Key, strings.Join(in.IncludeCategories, ", "))
	if len(in.ExcludeCategories) > 0 {
		fmt.Fprintf(b, " Never include offers from: %s.", strings.Join(in.ExcludeCategories, ", "))
	}
	if len(in.Keywords) > 0 {
		fmt.Fprintf(b, " Related terms: %s.", strings.Join(in.Keywords, ", "))
	}

	if pos, ok := firstAdmitted(candidates, in); ok {
		fmt.Fprintf(b, "\nCorrect: %q -> %s (%s)", query, pos.Name(), pos.Category())
	}
	if neg, ok := firstRejected(candidates, in); ok {
		fmt.Fprintf(b, "\nWrong: %q -> %s (%s), it only sounds similar", query, neg.Name(), neg.Category())
	} else if len(in.ExcludeCategories) > 0 {
		fmt.Fprintf(b, "\nWrong: %q -> anything from %s", query, in.ExcludeCategories[0])
	}
}

func firstAdmitted(candidates []item.Item, in *domintent.Intent) (item.Item, bool) {
	for i := range candidates {
		if in.Admits(candidates[i].Category(), candidates[i].SubCategory()) {
			return candidates[i], true
		}
	}
	return item.Item{}, false
}

func firstRejected(candidates []item.Item, in *domintent.Intent) (item.Item, bool) {
	for i := range candidates {
		if !in.Admits(candidates[i].Category(), candidates[i].SubCategory()) {
			return candidates[i], true
		}
	}
	return item.Item{}, false
}
