// Package namematch implements the name normalization, tokenization, and
// fuzzy scoring shared by the corporate role linker and the office seat
// resolver.
//
// Both upstream feeds publish free-text names with inconsistent word order,
// diacritics, surname particles, and completeness. The package produces two
// representations of a name: an ordered token sequence for substring-style
// store queries, and an unordered token set for symmetric overlap scoring.
// A separate display path regroups surname particles for human-facing output.
package namematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer limits. The token cap bounds the cost of every downstream
// comparison; six tokens are enough to cover two given names plus compound
// surnames on both sides.
const (
	// MaxTokens caps the number of tokens produced for matching.
	MaxTokens = 6

	// MinTokenLength drops fragments too short to be meaningful words.
	MinTokenLength = 2
)

// connectorWords are the prepositions and articles used in compound surnames.
// They are removed when tokenizing a person name for matching (they carry no
// distinguishing information) but kept in the canonical display form.
var connectorWords = map[string]bool{
	"DE": true, "DEL": true, "LA": true, "LAS": true, "LOS": true,
	"DA": true, "DAS": true, "DO": true, "DOS": true, "DI": true, "DU": true,
	"VAN": true, "VON": true, "DER": true, "DEN": true, "TER": true,
	"Y": true, "E": true, "I": true,
}

// Normalize strips diacritics, uppercases, collapses every non-alphanumeric
// run to a single space, and trims the result. It is the canonical text form
// every comparison in the system operates on.
func Normalize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark left over from NFD decomposition.
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToUpper(r))
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// Tokenize splits the normalized form of s on whitespace, drops tokens
// shorter than MinTokenLength, and caps the result at MaxTokens.
//
// An empty input yields an empty (nil) token sequence. Callers must treat an
// empty sequence as "no match possible", never as "match everything".
func Tokenize(s string) []string {
	return tokenize(s, false)
}

// TokenizePerson is Tokenize with surname connector words removed. Use it
// when matching person names; connectors like DE or VAN are so common that
// keeping them would let unrelated names share tokens.
func TokenizePerson(s string) []string {
	return tokenize(s, true)
}

func tokenize(s string, dropConnectors bool) []string {
	fields := strings.Fields(Normalize(s))
	if len(fields) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < MinTokenLength {
			continue
		}
		if dropConnectors && connectorWords[f] {
			continue
		}
		tokens = append(tokens, f)
		if len(tokens) == MaxTokens {
			break
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// tokenSet builds an unordered set from a token slice.
func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
