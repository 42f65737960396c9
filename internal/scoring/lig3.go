package scoring

import (
	"github.com/agnivade/levenshtein"
)

// LIG3 blend weights.
const (
	lig3EditWeight   = 0.7
	lig3TokenWeight  = 0.2
	lig3PrefixWeight = 0.1
)

// ScoreLIG3 computes the LIG3 Levenshtein-variant similarity: a weighted
// blend of edit-distance similarity (70%), token alignment (20%) and a
// common-prefix bonus (10%), over fully normalized inputs. The comment gives
// a qualitative tier for reviewers.
func ScoreLIG3(a, b string, cfg Config) Report {
	na, nb := Normalize(a), Normalize(b)

	if na == "" || nb == "" {
		return report(AlgorithmLIG3, 0, cfg, "one or both values are empty")
	}
	if na == nb {
		return report(AlgorithmLIG3, 100, cfg, "values are identical after normalization")
	}

	similarity := lig3EditWeight*editSimilarity(na, nb) +
		lig3TokenWeight*alignTokens(Tokens(a), Tokens(b), tokenSimilarity) +
		lig3PrefixWeight*prefixSimilarity(na, nb)

	score := toScore(similarity)
	return report(AlgorithmLIG3, score, cfg, lig3Comment(score))
}

// editSimilarity converts Levenshtein distance to a [0,1] similarity
// relative to the longer string.
func editSimilarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// prefixSimilarity rewards a shared leading run relative to the shorter
// string, capped at 1.
func prefixSimilarity(a, b string) float64 {
	shortest := len(a)
	if len(b) < shortest {
		shortest = len(b)
	}
	if shortest == 0 {
		return 0
	}
	return float64(commonPrefixLen(a, b, shortest)) / float64(shortest)
}

func lig3Comment(score int) string {
	switch {
	case score >= 90:
		return "very strong similarity"
	case score >= 75:
		return "strong similarity"
	case score >= 50:
		return "moderate similarity"
	default:
		return "weak similarity"
	}
}
