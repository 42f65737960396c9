// Package matching implements the attribute-rule matching engine that
// decides whether a candidate account and an existing fusion identity refer
// to the same person.
package matching

import (
	"fmt"
	"math"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/scoring"
)

// AverageScoreReportName labels the synthetic report appended in
// average-score mode.
const AverageScoreReportName = "Average Score"

// Rule is one configured attribute comparison.
type Rule struct {
	// Attribute is the account/identity attribute both sides are read from.
	Attribute string `json:"attribute"`
	// Algorithm names the similarity scorer (see scoring.Algorithms).
	Algorithm string `json:"algorithm"`
	// FusionScore is the per-rule match threshold [0,100].
	FusionScore int `json:"fusionScore"`
	// Mandatory rules are must-match gates: any failure vetoes the
	// comparison outside average-score mode.
	Mandatory bool `json:"mandatory"`
	// Normalize optionally pre-normalizes both sides before scoring.
	// Supported kinds: "email", "phone".
	Normalize string `json:"normalize,omitempty"`
}

// Config drives the engine's aggregation behavior.
type Config struct {
	Rules []Rule `json:"rules"`
	// AverageScore switches to average-score mode: mandatory gating is
	// ignored and the mean of all rule scores decides the match.
	AverageScore bool `json:"averageScore"`
	// FusionAverageScore is the threshold the mean is compared against in
	// average-score mode.
	FusionAverageScore int `json:"fusionAverageScore"`
}

// Result is the outcome of comparing one candidate against one identity.
type Result struct {
	Matched bool
	Reports []scoring.Report
}

// Engine evaluates the configured rules against attribute bags.
type Engine struct {
	cfg     Config
	scorers map[string]scoring.Func
}

// NewEngine validates the configuration and resolves every rule's scorer.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("matching config has no rules")
	}

	scorers := make(map[string]scoring.Func, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		if rule.Attribute == "" {
			return nil, fmt.Errorf("matching rule is missing an attribute name")
		}
		if rule.FusionScore < 0 || rule.FusionScore > 100 {
			return nil, fmt.Errorf("matching rule %q has fusion score %d outside [0,100]", rule.Attribute, rule.FusionScore)
		}
		fn, err := scoring.Lookup(rule.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("matching rule %q: %w", rule.Attribute, err)
		}
		scorers[rule.Algorithm] = fn
	}

	if cfg.AverageScore && (cfg.FusionAverageScore < 0 || cfg.FusionAverageScore > 100) {
		return nil, fmt.Errorf("fusion average score %d outside [0,100]", cfg.FusionAverageScore)
	}

	return &Engine{cfg: cfg, scorers: scorers}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compare evaluates the rules between a candidate and another identity's
// attributes. Rules whose attribute is absent on either side are skipped.
// Outside average-score mode a failing mandatory rule aborts the comparison
// immediately.
func (e *Engine) Compare(candidate, other attr.Attributes) Result {
	return e.compare(candidate, other, false)
}

// CompareReport evaluates like Compare but never aborts early, so reviewers
// see every rule scored even after a mandatory check fails.
func (e *Engine) CompareReport(candidate, other attr.Attributes) Result {
	return e.compare(candidate, other, true)
}

func (e *Engine) compare(candidate, other attr.Attributes, reportMode bool) Result {
	var (
		reports       []scoring.Report
		mandatorySeen bool
		mandatoryOK   = true
		allOK         = true
	)

	for _, rule := range e.cfg.Rules {
		left, okL := candidate.Get(rule.Attribute)
		right, okR := other.Get(rule.Attribute)
		if !okL || !okR {
			continue
		}

		leftVal := normalizeRuleValue(rule.Normalize, left.AsString())
		rightVal := normalizeRuleValue(rule.Normalize, right.AsString())

		rep := e.scorers[rule.Algorithm](leftVal, rightVal, scoring.Config{FusionScore: rule.FusionScore})
		rep.Attribute = rule.Attribute
		reports = append(reports, rep)

		if !rep.IsMatch {
			allOK = false
		}
		if rule.Mandatory {
			mandatorySeen = true
			if !rep.IsMatch {
				mandatoryOK = false
				if !reportMode && !e.cfg.AverageScore {
					return Result{Matched: false, Reports: reports}
				}
			}
		}
	}

	if len(reports) == 0 {
		return Result{}
	}

	if e.cfg.AverageScore {
		return e.averageResult(reports)
	}

	matched := mandatoryOK
	if !mandatorySeen {
		// No mandatory rules configured: every evaluated rule is a gate.
		matched = allOK
	}
	return Result{Matched: matched, Reports: reports}
}

// averageResult folds all rule scores into one mean score and appends the
// synthetic average report that decides the outcome.
func (e *Engine) averageResult(reports []scoring.Report) Result {
	total := 0
	for _, rep := range reports {
		total += rep.Score
	}
	mean := int(math.Round(float64(total) / float64(len(reports))))

	avg := scoring.Report{
		Attribute:   AverageScoreReportName,
		Algorithm:   "average",
		Score:       mean,
		FusionScore: e.cfg.FusionAverageScore,
		IsMatch:     mean >= e.cfg.FusionAverageScore,
		Comment:     fmt.Sprintf("mean of %d rule scores", len(reports)),
	}
	return Result{Matched: avg.IsMatch, Reports: append(reports, avg)}
}
