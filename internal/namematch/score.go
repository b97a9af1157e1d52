package namematch

// pairKey is an order-independent key for a pair of adjacent tokens:
// (A,B) and (B,A) produce the same key.
type pairKey struct {
	lo, hi string
}

func makePairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// surnamePairs builds the set of unordered adjacent-token pairs drawn from
// the first two and the last two tokens of a person name, connector words
// skipped. For "JOAN LAPORTA ESTRUCH" the pairs are {JOAN,LAPORTA} and
// {LAPORTA,ESTRUCH}. Names with fewer than two tokens yield an empty set.
func surnamePairs(name string) map[pairKey]bool {
	tokens := TokenizePerson(name)
	if len(tokens) < 2 {
		return nil
	}

	pairs := make(map[pairKey]bool, 2)
	pairs[makePairKey(tokens[0], tokens[1])] = true
	pairs[makePairKey(tokens[len(tokens)-2], tokens[len(tokens)-1])] = true
	return pairs
}

// SurnamePairCompatible is a cheap pre-filter that rejects candidate names
// sharing no surname-adjacent token pair with the target. It exists purely to
// avoid running Score against the entire candidate universe; passing the
// filter is not a match guarantee.
//
// When the target is too short to form a pair, the filter cannot decide and
// returns true, deferring to scoring.
func SurnamePairCompatible(target, candidate string) bool {
	targetPairs := surnamePairs(target)
	if len(targetPairs) == 0 {
		return true
	}
	for pair := range surnamePairs(candidate) {
		if targetPairs[pair] {
			return true
		}
	}
	return false
}

// Score computes the symmetric token-overlap similarity of two names in
// [0,1]: the size of the token-set intersection divided by the size of the
// larger set. Normalizing by the larger set (rather than the union) avoids
// over-penalizing a name that is a strict superset of the other, e.g. one
// that includes a middle name.
//
// Connector words are retained here; overlap naturally downweights them.
// Returns 0 when either token set is empty. Score(a,b) == Score(b,a).
func Score(a, b string) float64 {
	setA := tokenSet(Tokenize(a))
	setB := tokenSet(Tokenize(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger)
}
