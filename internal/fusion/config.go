package fusion

import (
	"time"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/matching"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/uniqueid"
)

// Defaults applied by Config.ApplyDefaults.
const (
	DefaultBatchSize         = 50
	DefaultKeepAliveInterval = 30 * time.Second
	DefaultCleanupThreshold  = 3
)

// SourceRef names one managed source the connector aggregates accounts from.
type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// AccountLimitIncrement, when positive, enables batched incremental
	// fetch: each run's effective limit grows by this amount, accumulated
	// across runs in durable state.
	AccountLimitIncrement int `json:"accountLimit,omitempty"`
}

// Config is the per-fusion-source configuration of a reconciliation run.
// It is loaded from the persisted connector configuration at run start.
type Config struct {
	// FusionSourceID identifies the fusion source whose attribute bag holds
	// the durable lock/counter/reset state.
	FusionSourceID string `json:"fusionSourceId"`

	Sources []SourceRef `json:"sources"`

	Matching matching.Config `json:"matching"`

	// UniqueAttributes are the derived attribute definitions, including the
	// unique identifier template.
	UniqueAttributes []uniqueid.Definition `json:"uniqueAttributes"`

	// IdentityAttribute is the account attribute carrying the directory's
	// identity correlation key.
	IdentityAttribute string `json:"identityAttribute,omitempty"`

	// Reviewers receive candidate review forms for ambiguous matches.
	Reviewers []User `json:"reviewers,omitempty"`

	// BatchSize bounds concurrent unique-ID refresh submissions.
	BatchSize int `json:"batchSize,omitempty"`

	// CleanupThreshold is how many consecutive runs an account may stay
	// missing before its link is dropped.
	CleanupThreshold int `json:"cleanupThreshold,omitempty"`

	// IncludeReport enables the audit report phase, which scores every rule
	// with early-abort disabled.
	IncludeReport bool `json:"includeReport,omitempty"`

	KeepAliveInterval time.Duration `json:"-"`
}

// ApplyDefaults fills optional settings, logging a warning for each soft
// fallback instead of failing the run.
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		logger.Warn().Int("default", DefaultBatchSize).Msg("batch size not configured, using default")
		c.BatchSize = DefaultBatchSize
	}
	if c.CleanupThreshold <= 0 {
		logger.Warn().Int("default", DefaultCleanupThreshold).Msg("cleanup threshold not configured, using default")
		c.CleanupThreshold = DefaultCleanupThreshold
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}
}

// Validate checks the hard requirements. Violations are fatal configuration
// errors, never retried.
func (c *Config) Validate() error {
	if c.FusionSourceID == "" {
		return configErrorf("fusion source id is required")
	}
	if len(c.Sources) == 0 {
		return configErrorf("at least one managed source is required")
	}
	for _, src := range c.Sources {
		if src.ID == "" {
			return configErrorf("managed source is missing an id")
		}
	}
	if len(c.Matching.Rules) == 0 {
		return configErrorf("matching configuration has no rules")
	}
	for _, def := range c.UniqueAttributes {
		if err := def.Validate(); err != nil {
			return configErrorf("%v", err)
		}
	}
	return nil
}
