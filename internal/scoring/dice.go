package scoring

// ScoreDice computes the Sorensen-Dice coefficient over character bigrams,
// scaled to 0-100. Strings shorter than two characters score 0 unless the
// two values are identical.
func ScoreDice(a, b string, cfg Config) Report {
	na, nb := Normalize(a), Normalize(b)

	if na == nb {
		return report(AlgorithmDice, 100, cfg, "")
	}
	runesA, runesB := []rune(na), []rune(nb)
	if len(runesA) < 2 || len(runesB) < 2 {
		return report(AlgorithmDice, 0, cfg, "")
	}

	bigramsA := bigrams(runesA)
	bigramsB := bigrams(runesB)

	intersection := 0
	for gram, countA := range bigramsA {
		if countB, ok := bigramsB[gram]; ok {
			intersection += min(countA, countB)
		}
	}

	totalA := len(runesA) - 1
	totalB := len(runesB) - 1
	similarity := float64(2*intersection) / float64(totalA+totalB)

	return report(AlgorithmDice, toScore(similarity), cfg, "")
}

// bigrams returns the multiset of adjacent character pairs in runes.
func bigrams(runes []rune) map[string]int {
	grams := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
