package namematch

import "strings"

// particlePhrases are the multi-word surname particle prefixes recognized by
// the display grouper, keyed by their normalized joined form. A matched
// phrase is merged with the single word that follows it into one display
// token ("VAN DER" + "BERG" → "VAN DER BERG").
var particlePhrases = map[string]bool{
	// one word
	"DE": true, "DEL": true, "LA": true, "DA": true, "DAS": true,
	"DO": true, "DOS": true, "DI": true, "DU": true,
	"VAN": true, "VON": true, "TER": true,
	// two words
	"DE LA": true, "DE LAS": true, "DE LOS": true,
	"VAN DER": true, "VAN DEN": true, "VAN DE": true, "VON DER": true,
	// three words (conjunction joining a second compound surname)
	"Y DE LA": true, "Y DE LOS": true, "Y DE LAS": true,
}

// maxParticleWords bounds the prefix length tried by the display grouper.
const maxParticleWords = 3

// DisplayTokens splits the normalized form of raw into display tokens,
// merging recognized particle phrases with the word that follows them. It
// walks left to right and greedily takes the longest matching particle prefix
// (up to maxParticleWords words).
//
// A trailing particle with no following word stays as its own token rather
// than being dropped.
func DisplayTokens(raw string) []string {
	words := strings.Fields(Normalize(raw))
	if len(words) == 0 {
		return nil
	}

	var tokens []string
	for i := 0; i < len(words); {
		merged := false
		for n := maxParticleWords; n >= 1; n-- {
			if i+n >= len(words) {
				// Phrase plus the following word must fit.
				continue
			}
			phrase := strings.Join(words[i:i+n], " ")
			if particlePhrases[phrase] {
				tokens = append(tokens, phrase+" "+words[i+n])
				i += n + 1
				merged = true
				break
			}
		}
		if !merged {
			tokens = append(tokens, words[i])
			i++
		}
	}
	return tokens
}

// FormatDisplayName converts a registry-style "SURNAME(S) GIVEN" name into
// its human display form: the final display token (the given name) moves to
// the front, particles stay attached to their surname, and words are
// title-cased with particles in lowercase.
//
//	FormatDisplayName("LAPORTA ESTRUCH JOAN")     == "Joan Laporta Estruch"
//	FormatDisplayName("VAN DER BERG JOHANNES")    == "Johannes van der Berg"
//
// This function is pure and performs no I/O.
func FormatDisplayName(raw string) string {
	tokens := DisplayTokens(raw)
	if len(tokens) == 0 {
		return ""
	}

	if len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		copy(tokens[1:], tokens[:len(tokens)-1])
		tokens[0] = last
	}

	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(titleCaseToken(tok))
	}
	return b.String()
}

// titleCaseToken title-cases each word of a display token, lowercasing
// particle words entirely ("VAN DER BERG" → "van der Berg").
func titleCaseToken(token string) string {
	words := strings.Split(token, " ")
	for i, w := range words {
		if connectorWords[w] {
			words[i] = strings.ToLower(w)
			continue
		}
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
