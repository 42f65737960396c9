package scoring

// Name matcher blend weights.
const (
	nameTokenWeight    = 0.5
	namePhoneticWeight = 0.3
	nameWholeWeight    = 0.2
)

// ScoreName scores two person names with a weighted blend: 50% token
// alignment (tolerant of reordering and initials), 30% phonetic token
// alignment, 20% Jaro-Winkler over the normalized whole strings.
func ScoreName(a, b string, cfg Config) Report {
	na, nb := Normalize(a), Normalize(b)

	if na == "" || nb == "" {
		return report(AlgorithmName, 0, cfg, "")
	}
	if na == nb {
		return report(AlgorithmName, 100, cfg, "")
	}

	tokensA, tokensB := Tokens(a), Tokens(b)

	similarity := nameTokenWeight*alignTokens(tokensA, tokensB, tokenSimilarity) +
		namePhoneticWeight*alignTokens(tokensA, tokensB, phoneticTokenSimilarity) +
		nameWholeWeight*jaroWinkler(na, nb)

	return report(AlgorithmName, toScore(similarity), cfg, "")
}

// alignTokens computes a [0,1] alignment between two token lists: each token
// of the shorter list is greedily paired with its best-scoring counterpart in
// the other list (each counterpart used at most once), and the pair scores
// are averaged over the longer list so extra unmatched tokens dilute the
// result.
func alignTokens(tokensA, tokensB []string, sim func(a, b string) float64) float64 {
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	if len(tokensA) > len(tokensB) {
		tokensA, tokensB = tokensB, tokensA
	}

	used := make([]bool, len(tokensB))
	total := 0.0
	for _, ta := range tokensA {
		best, bestIdx := 0.0, -1
		for i, tb := range tokensB {
			if used[i] {
				continue
			}
			if s := sim(ta, tb); s > best {
				best, bestIdx = s, i
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
		}
		total += best
	}

	return total / float64(len(tokensB))
}

// tokenSimilarity scores a single token pair, treating an initial as a full
// match for any token it abbreviates.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if isInitialOf(a, b) || isInitialOf(b, a) {
		return 1
	}
	return jaroWinkler(a, b)
}

// isInitialOf reports whether short is a one-letter initial (optionally
// dotted) of long.
func isInitialOf(short, long string) bool {
	if len(short) == 2 && short[1] == '.' {
		short = short[:1]
	}
	return len(short) == 1 && len(long) > 1 && short[0] == long[0]
}
