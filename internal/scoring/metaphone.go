package scoring

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Tiered scores for phonetic code agreement.
const (
	metaphonePrimaryScore   = 100
	metaphoneSecondaryScore = 80
	metaphoneCrossScore     = 70
)

// ScoreDoubleMetaphone compares the Double Metaphone phonetic encodings of
// the two values. Matching primary codes score 100, matching secondary codes
// 80, a primary code matching the other side's secondary code 70, anything
// else 0. The comment explains which tier applied.
func ScoreDoubleMetaphone(a, b string, cfg Config) Report {
	na, nb := Normalize(a), Normalize(b)

	if na == "" || nb == "" {
		return report(AlgorithmDoubleMetaphone, 0, cfg, "one or both values are empty")
	}

	primaryA, secondaryA := phoneticCodes(na)
	primaryB, secondaryB := phoneticCodes(nb)

	switch {
	case primaryA != "" && primaryA == primaryB:
		return report(AlgorithmDoubleMetaphone, metaphonePrimaryScore, cfg,
			"primary phonetic codes match")
	case secondaryA != "" && secondaryA == secondaryB:
		return report(AlgorithmDoubleMetaphone, metaphoneSecondaryScore, cfg,
			"secondary phonetic codes match")
	case (primaryA != "" && primaryA == secondaryB) || (primaryB != "" && primaryB == secondaryA):
		return report(AlgorithmDoubleMetaphone, metaphoneCrossScore, cfg,
			"primary phonetic code matches the other value's secondary code")
	default:
		return report(AlgorithmDoubleMetaphone, 0, cfg, "phonetic codes do not match")
	}
}

// phoneticCodes encodes a (possibly multi-word) value by concatenating the
// per-token Double Metaphone codes, so token order still matters but
// separators do not.
func phoneticCodes(s string) (primary, secondary string) {
	var pb, sb strings.Builder
	for _, token := range strings.Fields(s) {
		p, sec := matchr.DoubleMetaphone(token)
		pb.WriteString(p)
		if sec != "" {
			sb.WriteString(sec)
		} else {
			sb.WriteString(p)
		}
	}
	return pb.String(), sb.String()
}

// phoneticTokenSimilarity scores two single tokens by phonetic tier on the
// [0,1] scale, for use inside the composite scorers.
func phoneticTokenSimilarity(a, b string) float64 {
	primaryA, secondaryA := matchr.DoubleMetaphone(a)
	primaryB, secondaryB := matchr.DoubleMetaphone(b)

	switch {
	case primaryA != "" && primaryA == primaryB:
		return float64(metaphonePrimaryScore) / 100
	case secondaryA != "" && secondaryA == secondaryB:
		return float64(metaphoneSecondaryScore) / 100
	case (primaryA != "" && primaryA == secondaryB) || (primaryB != "" && primaryB == secondaryA):
		return float64(metaphoneCrossScore) / 100
	default:
		return 0
	}
}
