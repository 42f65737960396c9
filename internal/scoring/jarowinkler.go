package scoring

import "github.com/antzucaro/matchr"

// ScoreJaroWinkler computes Jaro similarity with the Winkler common-prefix
// boost (prefix capped at 4 characters, scaling factor 0.1), scaled to
// 0-100. Identical values score 100; an empty value on either side scores 0.
func ScoreJaroWinkler(a, b string, cfg Config) Report {
	na, nb := Normalize(a), Normalize(b)

	if na == "" || nb == "" {
		return report(AlgorithmJaroWinkler, 0, cfg, "")
	}
	if na == nb {
		return report(AlgorithmJaroWinkler, 100, cfg, "")
	}

	similarity := matchr.JaroWinkler(na, nb, false)
	return report(AlgorithmJaroWinkler, toScore(similarity), cfg, "")
}

// jaroWinkler is the raw [0,1] similarity used as a building block by the
// composite scorers.
func jaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}
