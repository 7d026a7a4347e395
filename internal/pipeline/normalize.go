package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"typelift/internal/metamodel"
)

type Options struct {
	Equality   metamodel.Predicate
	Logger     *slog.Logger
	SkipLift   bool
	SkipDedupe bool
}

// TypeChange lists the feature keys a type gained and lost.
type TypeChange struct {
	Type    string   `json:"type"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

type Result struct {
	Stages []StageResult      `json:"stages"`
	Before metamodel.Snapshot `json:"-"`
	After  metamodel.Snapshot `json:"-"`
	Diff   []TypeChange       `json:"diff"`
}

// Normalize runs the default chain on reg in place.
func Normalize(reg *metamodel.Registry, opts Options) (*Result, error) {
	if reg == nil {
		return nil, fmt.Errorf("normalize: nil registry")
	}
	res := &Result{Before: reg.Snapshot()}
	res.Stages = NewDefaultChain(opts).Run(reg)
	res.After = reg.Snapshot()
	res.Diff = Diff(res.Before, res.After)

	for _, st := range res.Stages {
		if st.Err != nil {
			return res, fmt.Errorf("%s pass: %w", st.Pass, st.Err)
		}
	}
	return res, nil
}

// Diff compares two snapshots and returns the changed types by name.
func Diff(before, after metamodel.Snapshot) []TypeChange {
	names := make(map[string]struct{}, len(before))
	for n := range before {
		names[n] = struct{}{}
	}
	for n := range after {
		names[n] = struct{}{}
	}

	var out []TypeChange
	for n := range names {
		ch := TypeChange{
			Type:    n,
			Added:   missingFrom(after[n], before[n]),
			Removed: missingFrom(before[n], after[n]),
		}
		if len(ch.Added) > 0 || len(ch.Removed) > 0 {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// missingFrom returns the keys of a not present in b.
func missingFrom(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, k := range b {
		seen[k] = struct{}{}
	}
	var out []string
	for _, k := range a {
		if _, ok := seen[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func (r *Result) Added() int {
	total := 0
	for _, ch := range r.Diff {
		total += len(ch.Added)
	}
	return total
}

func (r *Result) Removed() int {
	total := 0
	for _, ch := range r.Diff {
		total += len(ch.Removed)
	}
	return total
}
