package pipeline

import (
	"log/slog"
	"time"

	"typelift/internal/metamodel"
)

type PassStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	// Details is the pass-specific report (lifter.Stats, dedupe.Stats).
	Details any `json:"details,omitempty"`
}

// Pass is one step of hierarchy normalization.
type Pass interface {
	Name() string
	Apply(reg *metamodel.Registry) (PassStats, error)
}

type StageResult struct {
	Pass           string        `json:"pass"`
	Stats          PassStats     `json:"stats"`
	FeaturesBefore int           `json:"features_before"`
	FeaturesAfter  int           `json:"features_after"`
	Duration       time.Duration `json:"duration"`
	Err            error         `json:"-"`
}

type Chain struct {
	passes []Pass
	logger *slog.Logger
}

func NewChain(logger *slog.Logger, passes ...Pass) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{passes: passes, logger: logger.With("component", "pipeline")}
}

// NewDefaultChain checks for cycles, lifts, then removes inherited
// duplicates.
func NewDefaultChain(opts Options) *Chain {
	passes := []Pass{NewCheckPass()}
	if !opts.SkipLift {
		passes = append(passes, NewLiftPass(opts.Equality, opts.Logger))
	}
	if !opts.SkipDedupe {
		passes = append(passes, NewDedupePass(opts.Equality, opts.Logger))
	}
	return NewChain(opts.Logger, passes...)
}

func (c *Chain) Passes() []string {
	names := make([]string, 0, len(c.passes))
	for _, p := range c.passes {
		names = append(names, p.Name())
	}
	return names
}

// Run applies every pass in order and stops at the first failing one.
func (c *Chain) Run(reg *metamodel.Registry) []StageResult {
	if reg == nil {
		return nil
	}

	var out []StageResult
	for _, p := range c.passes {
		before := reg.FeatureCount()
		start := time.Now()
		stats, err := p.Apply(reg)
		res := StageResult{
			Pass:           p.Name(),
			Stats:          stats,
			FeaturesBefore: before,
			FeaturesAfter:  reg.FeatureCount(),
			Duration:       time.Since(start),
			Err:            err,
		}
		out = append(out, res)
		if err != nil {
			c.logger.Error("pass failed", "pass", res.Pass, "error", err)
			break
		}
		c.logger.Info("pass finished",
			"pass", res.Pass,
			"added", stats.Added,
			"removed", stats.Removed,
			"features", res.FeaturesAfter,
			"duration", res.Duration)
	}
	return out
}
