package relevance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var umlautDigraphs = strings.NewReplacer("ae", "a", "oe", "o", "ue", "u", "ß", "ss")

// fold lowercases s, strips combining marks and maps the German transliterations
// (ae, oe, ue, ß) onto their base letters so "Käse" and "kaese" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return umlautDigraphs.Replace(out)
}
