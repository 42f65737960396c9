// Package scoring implements the string-similarity scorers used by the
// matching engine. Every scorer is a pure function from two attribute values
// and a threshold config to a Report with a 0-100 score.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Algorithm names accepted in matching rules.
const (
	AlgorithmDice           = "dice"
	AlgorithmJaroWinkler    = "jaro-winkler"
	AlgorithmDoubleMetaphone = "double-metaphone"
	AlgorithmName           = "name"
	AlgorithmLIG3           = "lig3"
)

// Config carries the per-rule threshold a scorer compares against.
type Config struct {
	// FusionScore is the minimum score [0,100] considered a match.
	// A threshold of 0 always matches.
	FusionScore int
}

// Report is the scored outcome of comparing two attribute values.
type Report struct {
	Attribute   string `json:"attribute"`
	Algorithm   string `json:"algorithm"`
	Score       int    `json:"score"`
	FusionScore int    `json:"fusionScore"`
	IsMatch     bool   `json:"isMatch"`
	Comment     string `json:"comment,omitempty"`
}

func (r Report) String() string {
	verdict := "below threshold"
	if r.IsMatch {
		verdict = "match"
	}
	return fmt.Sprintf("%s[%s]: %d/%d (%s)", r.Attribute, r.Algorithm, r.Score, r.FusionScore, verdict)
}

// Func scores two attribute values under a threshold config.
type Func func(a, b string, cfg Config) Report

var registry = map[string]Func{
	AlgorithmDice:            ScoreDice,
	AlgorithmJaroWinkler:     ScoreJaroWinkler,
	AlgorithmDoubleMetaphone: ScoreDoubleMetaphone,
	AlgorithmName:            ScoreName,
	AlgorithmLIG3:            ScoreLIG3,
}

// Lookup returns the scorer registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown similarity algorithm %q (supported: %s)", name, strings.Join(Algorithms(), ", "))
	}
	return fn, nil
}

// Algorithms lists the registered algorithm names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// report builds a Report applying the IsMatch invariant.
func report(algorithm string, score int, cfg Config, comment string) Report {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return Report{
		Algorithm:   algorithm,
		Score:       score,
		FusionScore: cfg.FusionScore,
		IsMatch:     score >= cfg.FusionScore,
		Comment:     comment,
	}
}

// toScore converts a [0,1] similarity to the 0-100 integer scale.
func toScore(similarity float64) int {
	return int(math.Round(similarity * 100))
}
